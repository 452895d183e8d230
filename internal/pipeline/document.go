// Package pipeline drives documents through extraction, entity recognition,
// normalization and storage, one file at a time or a directory at a time.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/product-extractor/constants"
	"github.com/joseph-ayodele/product-extractor/internal/artifact"
	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
	"github.com/joseph-ayodele/product-extractor/internal/ingest"
)

// DocumentOptions controls a single-document run.
type DocumentOptions struct {
	OutputDir         string
	ModelRef          string
	SaveIntermediates bool // write <base>_text.json and <base>_entities.json
	StoreInDB         bool
}

// DocumentProcessor runs every stage for one PDF, in order.
type DocumentProcessor struct {
	Logger     *slog.Logger
	Extractor  Extractor
	Recognizer EntityRecognizer
	Normalizer Normalizer
	Sink       Sink // only required when StoreInDB is requested
}

func NewDocumentProcessor(logger *slog.Logger, ext Extractor, rec EntityRecognizer, norm Normalizer, sink Sink) *DocumentProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentProcessor{Logger: logger, Extractor: ext, Recognizer: rec, Normalizer: norm, Sink: sink}
}

// ProcessDocument extracts, recognizes, normalizes and optionally stores the
// document at path, leaving its artifacts in opts.OutputDir. Any stage error
// aborts the document and is returned.
func (p *DocumentProcessor) ProcessDocument(ctx context.Context, path string, opts DocumentOptions) (*entity.ProcessingSummary, error) {
	base := ingest.BaseName(path)
	ctx = common.WithDocument(ctx, filepath.Base(path))
	logger := common.LoggerFrom(ctx, p.Logger).With("base", base)
	logger.Info("pipeline.document.start", "path", path, "store", opts.StoreInDB)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output dir: %w", common.ErrArtifact, err)
	}
	out := func(suffix string) string { return artifact.Path(opts.OutputDir, base, suffix) }

	summary := &entity.ProcessingSummary{}

	// 1) extraction
	start := time.Now()
	doc, err := p.Extractor.Extract(ctx, path)
	if err != nil {
		logger.Error("pipeline.extract.failed", "error", err)
		return nil, err
	}
	summary.PDFInfo = entity.PDFInfoSection{
		Filename:       doc.Filename,
		PageCount:      doc.PageCount,
		RequiresOCR:    doc.RequiresOCR,
		ProcessingTime: time.Since(start).Seconds(),
	}
	logger.Info("pipeline.extract.ok", "pages", doc.PageCount, "requires_ocr", doc.RequiresOCR, "method", doc.Method)
	if opts.SaveIntermediates {
		if err := artifact.WriteJSON(out(constants.SuffixText), doc); err != nil {
			return nil, err
		}
	}

	// 2) entity recognition
	start = time.Now()
	ents, err := p.Recognizer.Recognize(ctx, doc, opts.ModelRef)
	if err != nil {
		logger.Error("pipeline.recognize.failed", "model", opts.ModelRef, "error", err)
		return nil, err
	}
	summary.EntityExtraction = entity.EntitySection{
		EntityTypes:    ents.Types(),
		EntityCount:    ents.Count(),
		ProcessingTime: time.Since(start).Seconds(),
	}
	logger.Info("pipeline.recognize.ok", "model", ents.Model, "entities", ents.Count())
	if opts.SaveIntermediates {
		if err := artifact.WriteJSON(out(constants.SuffixEntities), ents); err != nil {
			return nil, err
		}
	}

	// 3) normalization
	start = time.Now()
	data := p.Normalizer.Normalize(ents)
	summary.DataProcessing = entity.DataSection{
		ProductCount:   len(data.Products),
		ProcessingTime: time.Since(start).Seconds(),
	}
	if err := artifact.WriteJSON(out(constants.SuffixProcessed), data); err != nil {
		return nil, err
	}

	// 4) storage
	if !opts.StoreInDB {
		summary.DatabaseStorage = entity.SkippedStorage()
		logger.Info("pipeline.document.done", "products", len(data.Products), "stored", false)
		return summary, nil
	}
	if p.Sink == nil {
		return nil, fmt.Errorf("%w: no storage configured", common.ErrStorage)
	}
	start = time.Now()
	outcome := p.Sink.Persist(ctx, data)
	summary.DatabaseStorage = entity.AttemptedStorage(outcome, time.Since(start).Seconds())
	if err := artifact.WriteJSON(out(constants.SuffixDBResult), outcome); err != nil {
		return nil, err
	}
	if outcome.Success {
		logger.Info("Saved to database", "document_id", outcome.DocumentID, "product_ids", outcome.ProductIDs)
	} else {
		logger.Error("Database storage failed", "errors", outcome.Errors)
	}

	logger.Info("pipeline.document.done", "products", len(data.Products), "stored", outcome.Success)
	return summary, nil
}
