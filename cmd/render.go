package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/Shaftdog/Appraisermod-sub001/internal/config"
	"github.com/Shaftdog/Appraisermod-sub001/internal/mask"
	"github.com/Shaftdog/Appraisermod-sub001/internal/preview"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Bake redacted images from saved mask files",
	Long: `Bake redacted image variants in batch, without the photo service.

For every JPEG or PNG in the input directory that has a mask sidecar file
(photo.jpg -> photo.masks.json), the saved mask set is applied with the
pixelation algorithm and the redacted copy is written to the output
directory. Accepted face detections in the sidecar are redacted like
manual boxes. Images without a sidecar are skipped.

Examples:
  # Bake all masked photos in a directory
  photo-redactor render --input ./photos --output ./redacted

  # Coarser pixelation and downscaled output
  photo-redactor render --input ./photos --output ./redacted --block 16 --max-width 1920`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("input", "", "Directory with source images and mask sidecars (required)")
	renderCmd.Flags().String("output", "", "Directory for redacted images (required)")
	renderCmd.Flags().Int("block", 0, "Pixelation block size (defaults to PREVIEW_BLOCK_SIZE)")
	renderCmd.Flags().Int("max-width", 0, "Downscale output to at most this width (0 keeps original size)")
	renderCmd.Flags().Int("concurrency", 4, "Number of photos to bake in parallel")
	renderCmd.Flags().Float64("face-radius", 0, "Corner radius for accepted face detections (defaults to config)")
	renderCmd.MarkFlagRequired("input")
	renderCmd.MarkFlagRequired("output")
}

// renderJob pairs one source image with its mask sidecar.
type renderJob struct {
	imagePath string
	maskPath  string
	outPath   string
}

// sidecarPath returns the mask sidecar path for an image file.
func sidecarPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + ".masks.json"
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// collectRenderJobs scans the input directory for images with mask sidecars.
func collectRenderJobs(inputDir, outputDir string) ([]renderJob, int, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read input directory: %w", err)
	}

	var jobs []renderJob
	skipped := 0
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		imagePath := filepath.Join(inputDir, entry.Name())
		maskPath := sidecarPath(imagePath)
		if _, err := os.Stat(maskPath); err != nil {
			skipped++
			continue
		}
		jobs = append(jobs, renderJob{
			imagePath: imagePath,
			maskPath:  maskPath,
			outPath:   filepath.Join(outputDir, entry.Name()),
		})
	}
	return jobs, skipped, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	inputDir := mustGetString(cmd, "input")
	outputDir := mustGetString(cmd, "output")
	concurrency := mustGetInt(cmd, "concurrency")
	maxWidth := mustGetInt(cmd, "max-width")

	block := mustGetInt(cmd, "block")
	if block <= 0 {
		block = cfg.Preview.BlockSize
	}
	faceRadius := mustGetFloat64(cmd, "face-radius")
	if faceRadius <= 0 {
		faceRadius = cfg.Tools.FaceCornerRadius
	}
	if concurrency < 1 {
		concurrency = 1
	}

	jobs, skipped, err := collectRenderJobs(inputDir, outputDir)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Printf("No images with mask sidecars found in %s (%d without sidecar)\n", inputDir, skipped)
		return nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fmt.Printf("Photos to bake: %d (skipping %d without sidecar)\n\n", len(jobs), skipped)

	// Create progress bar
	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetDescription("Baking redactions"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	// Bake photos with bounded concurrency. Per-photo failures are counted
	// and reported at the end instead of aborting the batch.
	var mu sync.Mutex
	var failures []string

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			if err := bakePhoto(job, block, faceRadius, maxWidth); err != nil {
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(job.imagePath), err))
				mu.Unlock()
			}
			bar.Add(1)
			return nil
		})
	}
	// Workers record per-photo failures instead of returning errors, but a
	// returned error must not vanish if that ever changes.
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Println()

	fmt.Printf("\nCompleted: %d successful, %d failed\n", len(jobs)-len(failures), len(failures))
	for _, f := range failures {
		fmt.Printf("  %s\n", f)
	}
	if len(failures) > 0 {
		return errors.New("some photos failed to bake")
	}
	return nil
}

// bakePhoto applies the saved masks to one image and writes the redacted copy.
func bakePhoto(job renderJob, block int, faceRadius float64, maxWidth int) error {
	data, err := os.ReadFile(job.imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	maskData, err := os.ReadFile(job.maskPath)
	if err != nil {
		return fmt.Errorf("failed to read mask sidecar: %w", err)
	}
	var set mask.MaskSet
	if err := json.Unmarshal(maskData, &set); err != nil {
		return fmt.Errorf("failed to parse mask sidecar: %w", err)
	}

	// Accepted detections redact like manual boxes.
	set = mask.Reconcile(set, faceRadius)
	if set.Empty() {
		return errors.New("mask sidecar contains no redaction regions")
	}

	frame := toRGBA(img)
	preview.Pixelate(frame, set.Rects, set.Brush, block)

	// Downscale after redaction so mask coordinates stay in source pixels.
	out := image.Image(frame)
	if maxWidth > 0 && frame.Bounds().Dx() > maxWidth {
		out = downscale(frame, maxWidth)
	}

	return writeImage(job.outPath, out, format)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba
}

// downscale resizes the image to the given width, preserving aspect ratio.
func downscale(img *image.RGBA, width int) image.Image {
	b := img.Bounds()
	height := int(float64(b.Dy()) * float64(width) / float64(b.Dx()))
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func writeImage(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if format == "png" {
		if err := png.Encode(f, img); err != nil {
			return fmt.Errorf("failed to encode PNG: %w", err)
		}
		return nil
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		return fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return nil
}
