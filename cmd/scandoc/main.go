package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/markdave123-py/scandoc/internal/config"
	"github.com/markdave123-py/scandoc/internal/core/ocr/tesseract"
)

var version = "dev"

var (
	configPath string
	verbose    bool
)

var (
	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
)

var rootCmd = &cobra.Command{
	Use:           "scandoc",
	Short:         "Extract and classify documents across a directory tree",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("scandoc " + version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to the JSON configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration, warning and falling back to defaults
// when the file is unusable.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		colorYellow.Fprintf(os.Stderr, "Warning: %v; using defaults (model %s, no categories)\n", err, cfg.ModelPath)
	}
	return cfg
}

func newRecognizer(cfg *config.Config) *tesseract.Recognizer {
	return tesseract.New(cfg.OCR.Languages)
}
