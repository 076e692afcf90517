package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shaftdog/Appraisermod-sub001/internal/config"
	"github.com/Shaftdog/Appraisermod-sub001/internal/detect"
	"github.com/Shaftdog/Appraisermod-sub001/internal/editor"
	"github.com/Shaftdog/Appraisermod-sub001/internal/photoservice"
	"github.com/Shaftdog/Appraisermod-sub001/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mask editor web server",
	Long: `Start the Photo Redactor web server.
The server exposes the editing API used by the browser-based mask editor:
opening photos, drawing and erasing redaction regions, live previews,
face detection review, and saving masks back to the photo service.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.PhotoAPI.URL == "" {
		return errors.New("PHOTO_API_URL environment variable is required")
	}

	photos, err := photoservice.NewClient(cfg.PhotoAPI.URL, cfg.PhotoAPI.Token)
	if err != nil {
		return fmt.Errorf("failed to create photo service client: %w", err)
	}

	var detector detect.Detector
	if cfg.Detector.URL != "" {
		detector = detect.NewClient(cfg.Detector.URL)
		fmt.Printf("Face detection enabled via %s\n", cfg.Detector.URL)
	} else {
		fmt.Println("Face detection disabled (DETECTOR_URL not set), manual tools only")
	}

	sessions := editor.NewManager(cfg, photos, detector)
	port, host := resolveServeHostPort(cmd)

	server := web.NewServer(cfg, port, host, sessions)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Photo Redactor on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
