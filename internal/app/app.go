package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/markdave123-py/scandoc/internal/config"
	"github.com/markdave123-py/scandoc/internal/core"
	"github.com/markdave123-py/scandoc/internal/core/archive"
	"github.com/markdave123-py/scandoc/internal/core/classifier"
	"github.com/markdave123-py/scandoc/internal/core/extraction"
	"github.com/markdave123-py/scandoc/internal/core/llm"
	objectclient "github.com/markdave123-py/scandoc/internal/core/object-client"
	"github.com/markdave123-py/scandoc/internal/core/ocr"
	"github.com/markdave123-py/scandoc/internal/services"
)

type App struct {
	Config     *config.Config
	Classifier *classifier.Classifier
	Scanner    *services.Scanner
	Reports    *services.ReportService
	Log        *slog.Logger
	// OCR is the default for uploads that do not set the ocr form field.
	OCR bool

	closers []io.Closer
}

// Options select optional components.
type Options struct {
	// Storage connects to S3 for s3:// inputs and outputs.
	Storage bool
	// Recognizer enables OCR; nil leaves scanned PDFs and images without text.
	Recognizer core.Recognizer
	// OCR turns recognition on by default for served uploads. It needs a
	// Recognizer.
	OCR    bool
	Logger *slog.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	a := &App{Config: cfg, Log: log, OCR: opts.OCR && opts.Recognizer != nil}
	if opts.OCR && opts.Recognizer == nil {
		log.Warn("OCR requested without a recognizer; uploads are not OCR'd")
	}

	scorer, err := a.newScorer(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Classifier = classifier.New(cfg.Categories, scorer, classifier.WithMaxTokens(cfg.Classifier.MaxTokens))
	if len(cfg.Categories) == 0 {
		log.Warn("no categories configured; every document will be labelled Unknown")
	}

	extOpts := []extraction.Option{extraction.WithLogger(log)}
	if opts.Recognizer != nil {
		raster := ocr.NewPdftoppm(cfg.OCR.PdftoppmPath, cfg.OCR.DPI)
		raster.TempDir = cfg.Scan.TempDir
		extOpts = append(extOpts, extraction.WithOCR(opts.Recognizer, raster, ocr.Languages(cfg.OCR.Languages)))
	}
	extractor := extraction.New(extOpts...)

	a.Scanner = services.NewScanner(extractor, a.Classifier, archive.NewHandler(cfg.Scan.TempDir, log), services.ScanOptions{
		FileTimeout:   cfg.Scan.FileTimeout,
		KeepExtracted: cfg.Scan.KeepExtracted,
		Logger:        log,
	})

	var storage core.ObjectClient
	if opts.Storage {
		s3c, err := objectclient.NewS3Client(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("couldn't initialize object storage: %w", err)
		}
		storage = s3c
		log.Info("object client initialized and ready")
	}
	a.Reports = services.NewReportService(storage, cfg.Scan.TempDir)

	return a, nil
}

// newScorer builds the zero-shot backend. No scorer is needed, or built,
// without categories.
func (a *App) newScorer(ctx context.Context) (core.ZeroShotScorer, error) {
	cfg := a.Config
	if len(cfg.Categories) == 0 {
		return nil, nil
	}

	switch cfg.Backend {
	case config.BackendHuggingFace, "":
		a.Log.Info("zero-shot backend", "backend", config.BackendHuggingFace, "model", cfg.ModelPath)
		return llm.NewHuggingFaceScorer(llm.HuggingFaceConfig{
			Endpoint: cfg.HFEndpoint,
			Model:    cfg.ModelPath,
			Token:    cfg.HFToken,
		}), nil
	case config.BackendGemini:
		gen, err := llm.NewGeminiLLM(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the llm, %w", err)
		}
		a.closers = append(a.closers, gen)
		a.Log.Info("zero-shot backend", "backend", cfg.Backend, "model", cfg.GeminiModel)
		return llm.NewPromptScorer(gen.JSON()), nil
	case config.BackendGeminiEmbed:
		emb, err := llm.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
		}
		a.closers = append(a.closers, emb)
		a.Log.Info("zero-shot backend", "backend", cfg.Backend, "model", cfg.EmbedModel)
		return llm.NewEmbeddingScorer(emb), nil
	}
	return nil, fmt.Errorf("unknown backend %q (want %s, %s or %s)", cfg.Backend,
		config.BackendHuggingFace, config.BackendGemini, config.BackendGeminiEmbed)
}

func (a *App) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	a.closers = nil
}
