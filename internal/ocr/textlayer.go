package ocr

import (
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/product-extractor/internal/entity"
)

// CountPages validates the file with pdfcpu in relaxed mode and returns its
// page count.
func CountPages(path string) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return 0, fmt.Errorf("validate pdf: %w", err)
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}

// ReadTextLayer returns the normalized embedded text of every page. Pages
// without content or that fail to decode come back empty.
func ReadTextLayer(path string) (pages []entity.PageText, err error) {
	// the reader panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("read text layer: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]entity.PageText, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, entity.PageText{Number: i})
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			pages = append(pages, entity.PageText{Number: i})
			continue
		}
		pages = append(pages, entity.PageText{Number: i, Text: Normalize(txt)})
	}
	return pages, nil
}
