package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "products.db")
	s, err := Open(context.Background(), common.DatabaseConfig{Driver: DriverSQLite, DSN: path}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, path
}

func sampleData(hash string) entity.ProcessedData {
	return entity.ProcessedData{
		Document: entity.DocumentInfo{Filename: "catalog.pdf", PageCount: 2, ContentHash: hash},
		Products: []entity.Product{
			{
				Name:         "Cordless Drill X200",
				Manufacturer: "Acme Tools Inc.",
				SKU:          "DRL-X200",
				Price:        "129.99",
				Currency:     "USD",
				Quantity:     2,
				Attributes:   map[string]string{"measurement": "1.5 kg"},
			},
			{Name: "Impact Driver Pro"},
		},
		ProcessedAt: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestPersist_StoresDocumentAndProducts(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	out := s.Persist(ctx, sampleData("hash-1"))
	require.True(t, out.Success, "errors: %v", out.Errors)
	assert.NotEmpty(t, out.DocumentID)
	assert.Len(t, out.ProductIDs, 2)
	assert.Empty(t, out.Errors)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Documents: 1, Products: 2}, counts)

	products, err := s.Products(ctx, out.DocumentID)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, sampleData("").Products[0], products[0])
	assert.Equal(t, entity.Product{Name: "Impact Driver Pro", Quantity: 1}, products[1])
}

func TestPersist_DuplicateContentHash(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	first := s.Persist(ctx, sampleData("same"))
	require.True(t, first.Success)

	second := s.Persist(ctx, sampleData("same"))
	assert.False(t, second.Success)
	assert.Empty(t, second.DocumentID)
	assert.Empty(t, second.ProductIDs)
	require.Len(t, second.Errors, 1)
	assert.Contains(t, second.Errors[0], "duplicate key")
	assert.Contains(t, second.Errors[0], first.DocumentID)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Documents: 1, Products: 2}, counts)
}

func TestPersist_EmptyHashIsNotUnique(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	assert.True(t, s.Persist(ctx, sampleData("")).Success)
	assert.True(t, s.Persist(ctx, sampleData("")).Success)
}

func TestPersist_InvalidInputRollsBack(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	data := sampleData("h")
	data.Products = append(data.Products, entity.Product{Name: "  "})
	out := s.Persist(ctx, data)
	assert.False(t, out.Success)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "product 2")

	noName := sampleData("h2")
	noName.Document.Filename = ""
	assert.False(t, s.Persist(ctx, noName).Success)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
}

func TestPersist_NoProducts(t *testing.T) {
	s, _ := openTestStore(t)

	data := sampleData("empty")
	data.Products = nil
	out := s.Persist(context.Background(), data)
	require.True(t, out.Success)
	assert.Empty(t, out.ProductIDs)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	s, path := openTestStore(t)
	ctx := context.Background()
	require.True(t, s.Persist(ctx, sampleData("keep")).Success)

	again, err := Open(ctx, common.DatabaseConfig{Driver: DriverSQLite, DSN: path}, nil)
	require.NoError(t, err)
	defer again.Close()

	v, err := again.schemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	counts, err := again.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Documents)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), common.DatabaseConfig{Driver: "oracle"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStorage)

	_, err = Open(context.Background(), common.DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://localhost:notaport/db"}, nil)
	assert.ErrorIs(t, err, common.ErrStorage)
}

func TestHealthCheck(t *testing.T) {
	s, _ := openTestStore(t)
	assert.NoError(t, s.HealthCheck(context.Background(), time.Second))
	assert.Equal(t, "sqlite3", s.Dialect())
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x INT);\n\n  CREATE INDEX i ON a(x);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a(x)"}, got)
}
