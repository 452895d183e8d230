package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
)

// RunOptions is everything the entry point needs for one invocation.
type RunOptions struct {
	Input             string
	OutputDir         string
	ModelRef          string
	SaveIntermediates bool
	StoreInDB         bool
	Pattern           string
	Workers           int
}

// RunResult holds exactly one of the two summaries.
type RunResult struct {
	Document *entity.ProcessingSummary
	Batch    *entity.BatchSummary
}

// IsBatch reports whether the input was a directory.
func (r RunResult) IsBatch() bool { return r.Batch != nil }

// Dispatcher picks single-document or directory processing from the input.
type Dispatcher struct {
	Logger    *slog.Logger
	Documents *DocumentProcessor
	Batches   *BatchProcessor
}

func NewDispatcher(logger *slog.Logger, docs *DocumentProcessor, batches *BatchProcessor) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{Logger: logger, Documents: docs, Batches: batches}
}

// Run processes a regular file as one document and a directory as a batch.
// Anything else is common.ErrInputNotFound.
func (d *Dispatcher) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	fi, err := os.Stat(opts.Input)
	switch {
	case err == nil && fi.Mode().IsRegular():
		d.Logger.Info("Processing single file", "input", opts.Input)
		summary, err := d.Documents.ProcessDocument(ctx, opts.Input, DocumentOptions{
			OutputDir:         opts.OutputDir,
			ModelRef:          opts.ModelRef,
			SaveIntermediates: opts.SaveIntermediates,
			StoreInDB:         opts.StoreInDB,
		})
		if err != nil {
			return RunResult{}, err
		}
		return RunResult{Document: summary}, nil

	case err == nil && fi.IsDir():
		d.Logger.Info("Processing directory", "input", opts.Input)
		summary := d.Batches.ProcessDirectory(ctx, opts.Input, BatchOptions{
			OutputDir:         opts.OutputDir,
			Pattern:           opts.Pattern,
			ModelRef:          opts.ModelRef,
			SaveIntermediates: opts.SaveIntermediates,
			StoreInDB:         opts.StoreInDB,
			Workers:           opts.Workers,
		})
		return RunResult{Batch: &summary}, nil
	}

	d.Logger.Error("Input path does not exist", "input", opts.Input)
	return RunResult{}, fmt.Errorf("%w: %s", common.ErrInputNotFound, opts.Input)
}
