package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/scandoc/internal/app"
	objectclient "github.com/markdave123-py/scandoc/internal/core/object-client"
)

var (
	modelFlag     string
	backendFlag   string
	ocrFlag       bool
	outputFlag    string
	keepExtracted bool
	quietSummary  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a directory or file and write classification results as JSON",
	Long: `Scan walks path (default "data"), unpacks zip, rar and 7z archives,
extracts text from every other file and labels it with the configured
categories. path and --output may be local or s3://bucket/key.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&modelFlag, "model", "", "zero-shot model id (overrides model_path)")
	scanCmd.Flags().StringVar(&backendFlag, "backend", "", "scoring backend: huggingface, gemini or gemini-embed")
	scanCmd.Flags().BoolVar(&ocrFlag, "ocr", false, "run OCR on images and PDFs without a text layer")
	scanCmd.Flags().StringVarP(&outputFlag, "output", "o", "results.json", "results file (local path or s3:// URL)")
	scanCmd.Flags().BoolVar(&keepExtracted, "keep-extracted", false, "keep unpacked archives and report their real paths")
	scanCmd.Flags().BoolVarP(&quietSummary, "quiet", "q", false, "do not print the summary table")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	target := "data"
	if len(args) == 1 {
		target = args[0]
	}

	cfg := loadConfig()
	if modelFlag != "" {
		cfg.ModelPath = modelFlag
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	if keepExtracted {
		cfg.Scan.KeepExtracted = true
	}

	opts := app.Options{
		Storage: objectclient.IsS3URL(target) || objectclient.IsS3URL(outputFlag),
	}
	if ocrFlag {
		opts.Recognizer = newRecognizer(cfg)
	}
	application, err := app.NewApp(ctx, cfg, opts)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	defer application.Close()

	local, cleanup, err := application.Reports.Stage(ctx, target)
	if err != nil {
		return err
	}
	defer cleanup()

	// Objects are reported as bucket/key paths.
	display := strings.TrimPrefix(target, "s3://")

	start := time.Now()
	results, scanErr := application.Scanner.ScanNamed(ctx, local, display, ocrFlag)
	if scanErr != nil && ctx.Err() == nil {
		return fmt.Errorf("scan %s: %w", target, scanErr)
	}

	// An interrupted scan still writes what it has.
	where, err := application.Reports.Save(context.WithoutCancel(ctx), outputFlag, results)
	if err != nil {
		return err
	}
	if scanErr != nil {
		colorYellow.Printf("Scan interrupted: %d partial results saved to %s\n", len(results), where)
		return fmt.Errorf("scan %s: %w", target, scanErr)
	}

	if !quietSummary {
		fmt.Fprintln(os.Stdout, renderSummary(results))
	}
	colorGreen.Printf("Scan complete: %d files in %s. Results saved to %s\n",
		len(results), time.Since(start).Round(time.Millisecond), where)
	return nil
}
