package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	PhotoAPI PhotoAPIConfig
	Detector DetectorConfig
	Preview  PreviewConfig
	Tools    ToolsConfig
}

type PhotoAPIConfig struct {
	URL   string
	Token string
}

type DetectorConfig struct {
	URL string // empty disables automatic face detection
}

// PreviewConfig controls the preview compositor.
type PreviewConfig struct {
	BlockSize     int  `yaml:"blockSize"`  // pixelation block size for the fallback path
	BlurRadius    int  `yaml:"blurRadius"` // box blur radius for the worker renderer
	WorkerEnabled bool `yaml:"-"`
}

// ToolsConfig holds the editor tool defaults shipped in defaults.yaml.
type ToolsConfig struct {
	MinRectSize      float64 `yaml:"minRectSize"`
	BoxCornerRadius  float64 `yaml:"boxCornerRadius"`
	BrushRadius      float64 `yaml:"brushRadius"`
	BrushStrength    float64 `yaml:"brushStrength"`
	FaceCornerRadius float64 `yaml:"faceCornerRadius"`
}

type defaults struct {
	Tools   ToolsConfig   `yaml:"tools"`
	Preview PreviewConfig `yaml:"preview"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func Load() *Config {
	var def defaults
	if err := yaml.Unmarshal(defaultsYAML, &def); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		PhotoAPI: PhotoAPIConfig{
			URL:   os.Getenv("PHOTO_API_URL"),
			Token: os.Getenv("PHOTO_API_TOKEN"),
		},
		Detector: DetectorConfig{
			URL: os.Getenv("DETECTOR_URL"),
		},
		Preview: PreviewConfig{
			BlockSize:     envInt("PREVIEW_BLOCK_SIZE", def.Preview.BlockSize),
			BlurRadius:    envInt("PREVIEW_BLUR_RADIUS", def.Preview.BlurRadius),
			WorkerEnabled: os.Getenv("PREVIEW_WORKER") != "off",
		},
		Tools: def.Tools,
	}
}
