package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/scandoc/internal/app"
)

var (
	addrFlag     string
	serveOCRFlag bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the classifier over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := loadConfig()

		opts := app.Options{}
		if serveOCRFlag {
			opts.Recognizer = newRecognizer(cfg)
			opts.OCR = true
		}
		application, err := app.NewApp(ctx, cfg, opts)
		if err != nil {
			return fmt.Errorf("startup failed: %w", err)
		}
		defer application.Close()

		colorCyan.Printf("scandoc %s serving %d categories\n", version, len(cfg.Categories))
		return app.NewServer(application, addrFlag).Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (default :<server.port>)")
	serveCmd.Flags().BoolVar(&serveOCRFlag, "ocr", false, "enable OCR for uploaded images and scanned PDFs")
}
