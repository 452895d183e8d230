package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/product-extractor/constants"
	"github.com/joseph-ayodele/product-extractor/internal/artifact"
	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
	"github.com/joseph-ayodele/product-extractor/internal/ingest"
)

// NoFilesFound is the batch summary error when discovery matches nothing.
const NoFilesFound = "No PDF files found"

// BatchOptions controls a directory run.
type BatchOptions struct {
	OutputDir         string
	Pattern           string
	ModelRef          string
	SaveIntermediates bool
	StoreInDB         bool
	Workers           int
}

// BatchProcessor extracts a directory in parallel, then recognizes,
// normalizes and stores each file serially from the extraction artifacts.
type BatchProcessor struct {
	Logger     *slog.Logger
	Batch      BatchExtractor
	Recognizer EntityRecognizer
	Normalizer Normalizer
	Sink       Sink
}

func NewBatchProcessor(logger *slog.Logger, batch BatchExtractor, rec EntityRecognizer, norm Normalizer, sink Sink) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{Logger: logger, Batch: batch, Recognizer: rec, Normalizer: norm, Sink: sink}
}

// fileResult is what one pass of the serial loop produced for a file.
type fileResult struct {
	status     constants.FileStatus
	products   int
	documentID string
	reason     string
}

// ProcessDirectory never fails as a whole: per-file errors are logged and
// counted, and Successful+Failed equals FileCount on return.
func (p *BatchProcessor) ProcessDirectory(ctx context.Context, inputDir string, opts BatchOptions) entity.BatchSummary {
	started := time.Now()
	logger := common.LoggerFrom(ctx, p.Logger).With("dir", inputDir)
	if opts.Pattern == "" {
		opts.Pattern = constants.DefaultPattern
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		logger.Error("batch.output_dir.failed", "error", err)
		return entity.EmptyBatch(fmt.Sprintf("create output dir: %v", err))
	}

	files, stats, err := ingest.Discover(inputDir, opts.Pattern)
	if err != nil {
		logger.Error("batch.discover.failed", "error", err)
		return entity.EmptyBatch(err.Error())
	}
	if len(files) == 0 {
		logger.Warn("no matching files", "pattern", opts.Pattern, "scanned", stats.Scanned)
		return entity.EmptyBatch(NoFilesFound)
	}
	logger.Info("batch.start", "files", len(files), "pattern", opts.Pattern, "workers", opts.Workers)

	if err := p.Batch.ExtractBatch(ctx, inputDir, opts.OutputDir, opts.Workers, opts.Pattern); err != nil {
		// every file will be missing its artifact and count as failed
		logger.Error("batch.extract.failed", "error", err)
	}

	summary := entity.BatchSummary{FileCount: len(files)}
	for _, path := range files {
		name := filepath.Base(path)
		res, err := p.processFile(common.WithDocument(ctx, name), path, opts)
		switch {
		case err != nil:
			logger.Error("batch.file.failed", "file", name, "error", err)
			summary.Fail(name, res.status, err.Error())
		case res.status == constants.FileStatusSucceeded:
			summary.Succeed(name, res.products, res.documentID)
		default:
			logger.Warn("batch.file.failed", "file", name, "reason", res.reason)
			summary.Fail(name, res.status, res.reason)
		}
	}

	logger.Info("batch.done",
		"files", summary.FileCount,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"products", summary.ProductsFound,
		"elapsed_ms", time.Since(started).Milliseconds(),
	)
	return summary
}

// processFile runs the serial stages for one file. A panic in any stage is
// turned into an error so the loop can continue.
func (p *BatchProcessor) processFile(ctx context.Context, path string, opts BatchOptions) (res fileResult, err error) {
	res.status = constants.FileStatusFailed
	defer func() {
		if r := recover(); r != nil {
			res = fileResult{status: constants.FileStatusFailed}
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	base := ingest.BaseName(path)
	out := func(suffix string) string { return artifact.Path(opts.OutputDir, base, suffix) }

	extracted := out(constants.SuffixBatch)
	if !artifact.Exists(extracted) {
		res.status = constants.FileStatusMissing
		res.reason = "no extraction artifact"
		return res, nil
	}
	var doc entity.DocumentExtraction
	if err := artifact.ReadJSON(extracted, &doc); err != nil {
		return res, err
	}

	ents, err := p.Recognizer.Recognize(ctx, doc, opts.ModelRef)
	if err != nil {
		return res, err
	}
	if opts.SaveIntermediates {
		if err := artifact.WriteJSON(out(constants.SuffixEntities), ents); err != nil {
			return res, err
		}
	}

	data := p.Normalizer.Normalize(ents)
	if err := artifact.WriteJSON(out(constants.SuffixProcessed), data); err != nil {
		return res, err
	}

	if !opts.StoreInDB {
		res.status, res.products = constants.FileStatusSucceeded, len(data.Products)
		return res, nil
	}
	if p.Sink == nil {
		return res, fmt.Errorf("%w: no storage configured", common.ErrStorage)
	}
	outcome := p.Sink.Persist(ctx, data)
	if err := artifact.WriteJSON(out(constants.SuffixDBResult), outcome); err != nil {
		return res, err
	}
	if !outcome.Success {
		res.reason = strings.Join(outcome.Errors, "; ")
		return res, nil
	}
	res.status = constants.FileStatusSucceeded
	res.products = len(data.Products)
	res.documentID = outcome.DocumentID
	return res, nil
}
