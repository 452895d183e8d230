package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joseph-ayodele/product-extractor/internal/entity"
)

// pdfToOCR rasterizes the document with pdftoppm and runs tesseract on every
// rendered page. Pages tesseract cannot read become warnings.
func (e *Extractor) pdfToOCR(ctx context.Context, path string) ([]entity.PageText, []string, error) {
	tmpDir, err := os.MkdirTemp("", "pe-pp-*")
	if err != nil {
		return nil, nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", e.cfg.MaxPages))
	}
	args = append(args, path, prefix)

	// pdftoppm -r 300 -png [-l N] <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...)
	if err != nil {
		return nil, []string{string(errb)}, fmt.Errorf("pdftoppm: %w", err)
	}

	// prefix-1.png, prefix-2.png, ... (zero padded for long documents)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var pages []entity.PageText
	var warns []string
	for i, img := range matches {
		txt, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, fmt.Sprintf("page %d: %v", i+1, err))
			continue
		}
		pages = append(pages, entity.PageText{Number: i + 1, Text: Normalize(txt)})
	}
	if len(pages) == 0 {
		return nil, warns, fmt.Errorf("tesseract failed on all %d pages", len(matches))
	}
	return pages, warns, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 256))
	}

	// drop ruled lines tesseract reads off table borders
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
