package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/product-extractor/constants"
	"github.com/joseph-ayodele/product-extractor/internal/artifact"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
	"github.com/joseph-ayodele/product-extractor/internal/ingest"
)

// DocumentExtractor is the single-file extraction the batch fans out over.
type DocumentExtractor interface {
	Extract(ctx context.Context, path string) (entity.DocumentExtraction, error)
}

// BatchExtractor runs a DocumentExtractor over every matching file in a
// directory with bounded parallelism, writing <base>.json per success.
type BatchExtractor struct {
	ext    DocumentExtractor
	logger *slog.Logger
}

func NewBatchExtractor(ext DocumentExtractor, logger *slog.Logger) *BatchExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchExtractor{ext: ext, logger: logger}
}

// ExtractBatch returns an error only when discovery or the output directory
// fail, or ctx is cancelled. Per-file failures are logged and leave no artifact.
func (b *BatchExtractor) ExtractBatch(ctx context.Context, inputDir, outputDir string, workers int, pattern string) error {
	start := time.Now()
	if workers <= 0 {
		workers = 1
	}
	if pattern == "" {
		pattern = constants.DefaultPattern
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files, _, err := ingest.Discover(inputDir, pattern)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}

	var ok, failed atomic.Int32
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for _, path := range files {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := b.ext.Extract(gctx, path)
			if err != nil {
				failed.Add(1)
				b.logger.Error("batch.extract.failed", "file", path, "error", err)
				return nil
			}
			out := artifact.Path(outputDir, ingest.BaseName(path), constants.SuffixBatch)
			if err := artifact.WriteJSON(out, res); err != nil {
				failed.Add(1)
				b.logger.Error("batch.extract.write_failed", "file", path, "error", err)
				return nil
			}
			ok.Add(1)
			b.logger.Debug("batch.extract.ok", "file", path, "pages", res.PageCount, "requires_ocr", res.RequiresOCR)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	b.logger.Info("batch.extract.done",
		"files", len(files),
		"extracted", ok.Load(),
		"failed", failed.Load(),
		"workers", workers,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
