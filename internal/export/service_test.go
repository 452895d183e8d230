package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/product-extractor/constants"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
)

func sampleSummary() entity.BatchSummary {
	s := entity.BatchSummary{FileCount: 3}
	s.Succeed("a.pdf", 2, "doc-1")
	s.Fail("b.pdf", constants.FileStatusMissing, "no extraction artifact")
	s.Fail("c.pdf", constants.FileStatusFailed, "duplicate key")
	return s
}

func TestBatchReportXLSX(t *testing.T) {
	svc := NewService(nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	b, err := svc.BatchReportXLSX(sampleSummary())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetFiles, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetFiles)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"File", "Status", "Products", "Document ID", "Error"}, rows[0])
	assert.Equal(t, []string{"a.pdf", "SUCCEEDED", "2", "doc-1"}, rows[1])
	assert.Equal(t, []string{"b.pdf", "MISSING_EXTRACTION", "0", "", "no extraction artifact"}, rows[2])

	totals, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Generated", "2024-03-15T12:00:00Z"}, totals[0])
	assert.Equal(t, []string{"Successful", "1"}, totals[2])
	assert.Equal(t, []string{"Failed", "2"}, totals[3])
	assert.Equal(t, []string{"Products Found", "2"}, totals[4])
}

func TestWriteBatchReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "batch.xlsx")
	empty := entity.EmptyBatch("No PDF files found")

	require.NoError(t, NewService(nil).WriteBatchReport(path, empty))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetFiles)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	totals, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Error", "No PDF files found"}, totals[len(totals)-1])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	long := strings.Repeat("x", 10)
	assert.Equal(t, "xxxx…", truncate(long, 5))
}
