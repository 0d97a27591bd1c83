// Command infer runs the mood pipeline on local image files and prints one
// JSON result per file. It reads the same environment as the API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/classifier"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/config"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/face"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/metrics"
)

type fileResult struct {
	Path   string                `json:"path"`
	Result *domain.EmotionResult `json:"result,omitempty"`
	Error  *domain.AppError      `json:"error,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("infer", flag.ContinueOnError)
	pretty := fs.Bool("pretty", false, "indent JSON output")
	verbose := fs.Bool("v", false, "log pipeline steps to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: infer [-pretty] [-v] <image> [image...]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	handle, err := face.LoadClassifier(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = handle.Close()
		_ = classifier.DestroyEnvironment()
	}()

	det, err := face.NewDetector(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create face detector: %w", err)
	}

	svc := face.NewEmotionService(cfg, det, handle, metrics.NewRecorder(), logger)

	enc := json.NewEncoder(out)
	if *pretty {
		enc.SetIndent("", "  ")
	}

	failed := 0
	for _, path := range fs.Args() {
		res := analyzeFile(ctx, svc, path, int64(cfg.MaxImageBytes()))
		if res.Error != nil {
			failed++
		}
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, fs.NArg())
	}
	return nil
}

type analyzer interface {
	Analyze(ctx context.Context, data []byte) (*domain.EmotionResult, error)
}

func analyzeFile(ctx context.Context, svc analyzer, path string, maxBytes int64) fileResult {
	res := fileResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		res.Error = domain.ErrUnreadableUpload.WithError(err)
		return res
	}
	if info.Size() > maxBytes {
		res.Error = domain.ErrPayloadTooLarge
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = domain.ErrUnreadableUpload.WithError(err)
		return res
	}

	result, err := svc.Analyze(ctx, data)
	if err != nil {
		var appErr *domain.AppError
		if !errors.As(err, &appErr) {
			appErr = domain.ErrInternal.WithError(err)
		}
		res.Error = appErr
		return res
	}

	res.Result = result
	return res
}
