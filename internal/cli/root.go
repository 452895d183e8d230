// Package cli is the pdf-extractor command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/product-extractor/constants"
	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
	"github.com/joseph-ayodele/product-extractor/internal/export"
	"github.com/joseph-ayodele/product-extractor/internal/pipeline"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	input             string
	outputDir         string
	model             string
	saveIntermediates bool
	noDB              bool
	pattern           string
	workers           int
	report            string
}

type app struct {
	build StackBuilder
	opts  rootOptions
	env   Env
}

// NewRootCmd builds the pdf-extractor command tree around build.
func NewRootCmd(build StackBuilder) *cobra.Command {
	a := &app{build: build}

	cmd := &cobra.Command{
		Use:   "pdf-extractor",
		Short: "Extract product data from PDF catalogs",
		Long: `Extracts text from a PDF (or every matching PDF in a directory), recognizes
product entities, normalizes them into product records and optionally stores
them in a database. Artifacts for every stage are written to --output-dir.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.run,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.opts.configPath, "config", "", "optional TOML config file")
	pf.StringVar(&a.opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.opts.logFormat, "log-format", "", "log format: text or json")

	f := cmd.Flags()
	f.StringVar(&a.opts.input, "input", "", "PDF file or directory to process (required)")
	f.StringVar(&a.opts.outputDir, "output-dir", "", "directory for artifacts (required)")
	f.StringVar(&a.opts.model, "model", "", `entity model: "" for built-in rules, a pattern model file, or "openai:<model>"`)
	f.BoolVar(&a.opts.saveIntermediates, "save-intermediates", false, "also write _text and _entities artifacts")
	f.BoolVar(&a.opts.noDB, "no-db", false, "skip database storage")
	f.StringVar(&a.opts.pattern, "pattern", constants.DefaultPattern, "glob for files in a directory input")
	f.IntVar(&a.opts.workers, "workers", 4, "parallel extractions for a directory input")
	f.StringVar(&a.opts.report, "report", "", "directory input only: write an XLSX report of per-file outcomes")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output-dir")

	cmd.AddCommand(newWatchCmd(a), newCheckCmd(a))
	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return ExitCode(NewRootCmd(BuildStack).ExecuteContext(ctx))
}

// setup loads configuration and the logger once per invocation.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := common.LoadConfig(a.opts.configPath)
	if err != nil {
		return exitWith(ExitFatal, err)
	}
	if a.opts.logLevel != "" {
		cfg.Log.Level = a.opts.logLevel
	}
	if a.opts.logFormat != "" {
		cfg.Log.Format = a.opts.logFormat
	}
	if fl := cmd.Flags().Lookup("workers"); fl != nil && fl.Changed {
		cfg.Pipeline.Workers = a.opts.workers
	}
	if fl := cmd.Flags().Lookup("pattern"); fl != nil && fl.Changed {
		cfg.Pipeline.Pattern = a.opts.pattern
	}
	if err := cfg.Validate(); err != nil {
		return exitWith(ExitFatal, err)
	}

	logger := common.NewLogger(cfg.Log, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	a.env = Env{Config: cfg, Logger: logger}
	return nil
}

func (a *app) run(cmd *cobra.Command, _ []string) error {
	ctx := common.WithRunID(cmd.Context(), uuid.NewString())
	logger := common.LoggerFrom(ctx, a.env.Logger)
	cfg := a.env.Config

	if _, err := os.Stat(a.opts.input); err != nil {
		logger.Error("Input path does not exist", "input", a.opts.input)
		return exitWith(ExitNotFound, fmt.Errorf("%w: %s", common.ErrInputNotFound, a.opts.input))
	}

	stack, err := a.build(ctx, a.env, !a.opts.noDB)
	if err != nil {
		logger.Error("failed to initialize pipeline", "error", err)
		return exitWith(ExitFatal, err)
	}
	defer stack.Close()

	dispatcher := pipeline.NewDispatcher(logger,
		pipeline.NewDocumentProcessor(logger, stack.Extractor, stack.Recognizer, stack.Normalizer, stack.Sink),
		pipeline.NewBatchProcessor(logger, stack.Batch, stack.Recognizer, stack.Normalizer, stack.Sink),
	)
	res, err := dispatcher.Run(ctx, pipeline.RunOptions{
		Input:             a.opts.input,
		OutputDir:         a.opts.outputDir,
		ModelRef:          a.opts.model,
		SaveIntermediates: a.opts.saveIntermediates,
		StoreInDB:         !a.opts.noDB,
		Pattern:           cfg.Pipeline.Pattern,
		Workers:           cfg.Pipeline.Workers,
	})
	if err != nil {
		if errors.Is(err, common.ErrInputNotFound) {
			return exitWith(ExitNotFound, err)
		}
		logger.Error("Processing failed", "input", a.opts.input, "error", err)
		return exitWith(ExitFatal, err)
	}

	if res.IsBatch() {
		logBatchSummary(logger, *res.Batch)
		if a.opts.report != "" {
			if err := export.NewService(logger).WriteBatchReport(a.opts.report, *res.Batch); err != nil {
				logger.Error("failed to write report", "path", a.opts.report, "error", err)
			}
		}
		return printJSON(cmd.OutOrStdout(), res.Batch)
	}
	logDocumentSummary(logger, res.Document)
	return printJSON(cmd.OutOrStdout(), res.Document)
}

func logDocumentSummary(logger *slog.Logger, s *entity.ProcessingSummary) {
	logger.Info("Processing Summary",
		"file", s.PDFInfo.Filename,
		"pages", s.PDFInfo.PageCount,
		"requires_ocr", s.PDFInfo.RequiresOCR,
		"entities", s.EntityExtraction.EntityCount,
		"products", s.DataProcessing.ProductCount,
	)
	if s.DatabaseStorage.Skipped() {
		return
	}
	if o := s.DatabaseStorage.Outcome; o.Success {
		logger.Info("Database", "document_id", o.DocumentID, "product_ids", o.ProductIDs)
	} else {
		logger.Warn("Database storage failed", "errors", o.Errors)
	}
}

func logBatchSummary(logger *slog.Logger, s entity.BatchSummary) {
	if s.Error != "" && s.FileCount == 0 {
		logger.Warn("Batch Processing Summary", "error", s.Error)
		return
	}
	logger.Info("Batch Processing Summary",
		"files_processed", s.FileCount,
		"successful", s.Successful,
		"failed", s.Failed,
		"products_found", s.ProductsFound,
	)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
