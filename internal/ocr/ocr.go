package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/product-extractor/constants"
	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
	"github.com/joseph-ayodele/product-extractor/internal/ingest"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit
	TessdataDir   string

	// MinTextChars is the average number of characters per page the text
	// layer must reach before OCR is skipped.
	MinTextChars int
}

// ConfigFrom maps the application config onto the extractor config.
func ConfigFrom(c common.OCRConfig) Config {
	return Config{
		Pdftoppm:      c.Pdftoppm,
		Tesseract:     c.Tesseract,
		TesseractLang: c.Language,
		DPI:           c.DPI,
		MaxPages:      c.MaxPages,
		TessdataDir:   c.TessdataDir,
		MinTextChars:  c.MinTextChars,
	}
}

// TextLayerFunc reads the embedded text of each page.
type TextLayerFunc func(path string) ([]entity.PageText, error)

// PageCountFunc validates the document and returns its page count.
type PageCountFunc func(path string) (int, error)

type Extractor struct {
	cfg       Config
	runner    Runner
	logger    *slog.Logger
	textLayer TextLayerFunc
	pageCount PageCountFunc
}

type Option func(*Extractor)

// WithRunner replaces the exec runner used for pdftoppm and tesseract.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

func WithTextLayer(fn TextLayerFunc) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.textLayer = fn
		}
	}
}

func WithPageCounter(fn PageCountFunc) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.pageCount = fn
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextChars < 0 {
		cfg.MinTextChars = 0
	}
	e := &Extractor{
		cfg:       cfg,
		runner:    execRunner{logger: logger},
		logger:    logger,
		textLayer: ReadTextLayer,
		pageCount: CountPages,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract reads the text layer of a PDF and falls back to OCR when the layer
// is too thin to be useful.
func (e *Extractor) Extract(ctx context.Context, path string) (entity.DocumentExtraction, error) {
	start := time.Now()
	name := filepath.Base(path)
	out := entity.DocumentExtraction{Filename: name}

	if !constants.IsPDF(path) {
		e.logger.Error("unsupported extension", "path", path)
		return out, common.ExtractionError(path, fmt.Errorf("unsupported extension %q", filepath.Ext(path)))
	}
	if _, err := os.Stat(path); err != nil {
		return out, common.ExtractionError(path, err)
	}

	hash, err := ingest.HashFile(path)
	if err != nil {
		return out, common.ExtractionError(path, err)
	}
	out.ContentHash = hash

	pages, err := e.pageCount(path)
	if err != nil {
		e.logger.Error("pdf validation failed", "path", path, "error", err)
		return out, common.ExtractionError(path, err)
	}
	out.PageCount = pages
	e.logger.Debug("starting extraction", "path", path, "pages", pages)

	layer, err := e.textLayer(path)
	if err != nil {
		e.logger.Warn("text layer unreadable", "path", path, "error", err)
		out.Warnings = append(out.Warnings, "text layer: "+err.Error())
		layer = nil
	}

	if e.sufficient(layer, pages) {
		out.Method = constants.MethodPDFText
		out.Pages = layer
	} else {
		e.logger.Info("text layer too thin, running ocr", "path", path, "chars", charCount(layer))
		ocrPages, warns, err := e.pdfToOCR(ctx, path)
		out.Warnings = append(out.Warnings, warns...)
		switch {
		case err == nil:
			out.Method = constants.MethodPDFOCR
			out.RequiresOCR = true
			out.Pages = ocrPages
		case charCount(layer) > 0:
			e.logger.Warn("ocr failed, keeping text layer", "path", path, "error", err)
			out.Warnings = append(out.Warnings, "ocr: "+err.Error())
			out.Method = constants.MethodPDFText
			out.Pages = layer
		default:
			return out, common.ExtractionError(path, fmt.Errorf("no text layer and ocr failed: %w", err))
		}
	}

	out.Text = joinPages(out.Pages)
	out.DurationMS = time.Since(start).Milliseconds()
	e.logger.Debug("extraction finished",
		"path", path,
		"method", out.Method,
		"pages", out.PageCount,
		"chars", len(out.Text),
		"duration_ms", out.DurationMS,
	)
	return out, nil
}

func (e *Extractor) sufficient(layer []entity.PageText, pages int) bool {
	if len(layer) == 0 {
		return false
	}
	if pages <= 0 {
		pages = len(layer)
	}
	return charCount(layer)/pages >= e.cfg.MinTextChars && charCount(layer) > 0
}

func charCount(pages []entity.PageText) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p.Text))
	}
	return n
}

func joinPages(pages []entity.PageText) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}
