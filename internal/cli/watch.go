package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/product-extractor/constants"
	"github.com/joseph-ayodele/product-extractor/internal/async"
	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
	"github.com/joseph-ayodele/product-extractor/internal/ingest"
	"github.com/joseph-ayodele/product-extractor/internal/pipeline"
)

type watchOptions struct {
	initialScan     bool
	debounce        time.Duration
	queueSize       int
	processTimeout  time.Duration
	shutdownTimeout time.Duration
}

func newWatchCmd(a *app) *cobra.Command {
	var wo watchOptions
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process PDFs as they appear in a directory",
		Long: `Watches --input for new or rewritten files matching --pattern and runs each
through the single-document pipeline, one at a time, until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.watch(cmd, wo)
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.opts.input, "input", "", "directory to watch (required)")
	f.StringVar(&a.opts.outputDir, "output-dir", "", "directory for artifacts (required)")
	f.StringVar(&a.opts.model, "model", "", "entity model reference")
	f.BoolVar(&a.opts.saveIntermediates, "save-intermediates", false, "also write _text and _entities artifacts")
	f.BoolVar(&a.opts.noDB, "no-db", false, "skip database storage")
	f.StringVar(&a.opts.pattern, "pattern", constants.DefaultPattern, "glob for files to pick up")
	f.BoolVar(&wo.initialScan, "initial-scan", true, "process matching files already present")
	f.DurationVar(&wo.debounce, "debounce", 500*time.Millisecond, "wait this long after the last write before processing")
	f.IntVar(&wo.queueSize, "queue-size", 256, "pending documents before enqueueing blocks")
	f.DurationVar(&wo.processTimeout, "process-timeout", 3*time.Minute, "per-document time limit")
	f.DurationVar(&wo.shutdownTimeout, "shutdown-timeout", 30*time.Second, "time allowed to drain the queue on exit")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output-dir")
	return cmd
}

func (a *app) watch(cmd *cobra.Command, wo watchOptions) error {
	ctx := cmd.Context()
	runID := uuid.NewString()
	logger := a.env.Logger.With("run_id", runID)

	stack, err := a.build(ctx, a.env, !a.opts.noDB)
	if err != nil {
		logger.Error("failed to initialize pipeline", "error", err)
		return exitWith(ExitFatal, err)
	}
	defer stack.Close()

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Dir:         a.opts.input,
		Pattern:     a.env.Config.Pipeline.Pattern,
		InitialScan: wo.initialScan,
		Debounce:    wo.debounce,
		Logger:      logger,
	})
	if err != nil {
		return exitWith(ExitNotFound, fmt.Errorf("%w: watch %s: %w", common.ErrInputNotFound, a.opts.input, err))
	}

	docs := pipeline.NewDocumentProcessor(logger, stack.Extractor, stack.Recognizer, stack.Normalizer, stack.Sink)
	out := cmd.OutOrStdout()
	lane := async.NewLane(docs, pipeline.DocumentOptions{
		OutputDir:         a.opts.outputDir,
		ModelRef:          a.opts.model,
		SaveIntermediates: a.opts.saveIntermediates,
		StoreInDB:         !a.opts.noDB,
	}, logger,
		async.WithQueueSize(wo.queueSize),
		async.WithProcessTimeout(wo.processTimeout),
		async.WithResultFunc(func(job async.Job, s *entity.ProcessingSummary, err error) {
			name := filepath.Base(job.Path)
			if err != nil {
				fmt.Fprintf(out, "%s: FAILED (%v)\n", name, err)
				return
			}
			fmt.Fprintf(out, "%s: %d products\n", name, s.DataProcessing.ProductCount)
		}),
	)
	logger.Info("watching for documents", "dir", a.opts.input, "pattern", a.env.Config.Pipeline.Pattern)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case path, ok := <-events:
			if !ok {
				break loop
			}
			if err := lane.Enqueue(ctx, async.Job{Path: path, RunID: runID}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("could not enqueue document", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher reported an error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), wo.shutdownTimeout)
	defer cancel()
	lane.Shutdown(shutdownCtx)
	return nil
}
