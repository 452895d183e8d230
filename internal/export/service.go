package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/product-extractor/internal/entity"
)

const (
	SheetFiles   = "Files"
	SheetSummary = "Summary"
)

// Service renders batch outcomes as XLSX workbooks.
type Service struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, now: time.Now}
}

// BatchReportXLSX returns a workbook with one row per file on the Files sheet
// and the batch totals on the Summary sheet.
func (s *Service) BatchReportXLSX(summary entity.BatchSummary) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetFiles); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(SheetFiles)
	f.SetActiveSheet(activeIndex)

	headers := []string{"File", "Status", "Products", "Document ID", "Error"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetFiles, cell, h)
	}

	row := 2
	for _, fo := range summary.Files {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetFiles, cell, v)
		}
		write(1, fo.File)
		write(2, string(fo.Status))
		write(3, fo.Products)
		write(4, fo.DocumentID)
		write(5, truncate(fo.Error, 300))
		row++
	}

	_ = f.SetColWidth(SheetFiles, "A", "A", 36) // file
	_ = f.SetColWidth(SheetFiles, "B", "B", 20) // status
	_ = f.SetColWidth(SheetFiles, "C", "C", 10) // products
	_ = f.SetColWidth(SheetFiles, "D", "D", 38) // document id
	_ = f.SetColWidth(SheetFiles, "E", "E", 60) // error

	totals := [][]any{
		{"Generated", s.now().UTC().Format(time.RFC3339)},
		{"Files", summary.FileCount},
		{"Successful", summary.Successful},
		{"Failed", summary.Failed},
		{"Products Found", summary.ProductsFound},
	}
	if summary.Error != "" {
		totals = append(totals, []any{"Error", summary.Error})
	}
	for i, kv := range totals {
		_ = f.SetSheetRow(SheetSummary, fmt.Sprintf("A%d", i+1), &kv)
	}
	_ = f.SetColWidth(SheetSummary, "A", "A", 18)
	_ = f.SetColWidth(SheetSummary, "B", "B", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(summary.Files),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteBatchReport writes the batch report workbook to path.
func (s *Service) WriteBatchReport(path string, summary entity.BatchSummary) error {
	b, err := s.BatchReportXLSX(summary)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	s.logger.Info("batch report written", "path", path)
	return nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
