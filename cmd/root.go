package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "photo-redactor",
	Short: "Mask authoring and preview engine for photo redaction",
	Long: `Photo Redactor lets an operator mark regions of order photos that must
be obscured before the photos appear in a delivered report. It serves a
browser-based mask editor with live redaction previews and face detection,
and can bake redacted images in batch from saved mask files.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
