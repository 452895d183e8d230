package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/product-extractor/internal/artifact"
	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
)

func newDocFixture(t *testing.T) (string, *fakeRecognizer, *fakeSink, *DocumentProcessor) {
	t.Helper()
	in := t.TempDir()
	writeFiles(t, in, "catalog.pdf")
	rec := &fakeRecognizer{entities: map[string][]string{
		"PRICE":   {"19.99"},
		"ORG":     {"Acme"},
		"PRODUCT": {"Widget"},
	}}
	sink := &fakeSink{}
	p := NewDocumentProcessor(nil, &fakeExtractor{}, rec, fakeNormalizer{}, sink)
	return filepath.Join(in, "catalog.pdf"), rec, sink, p
}

func TestProcessDocument_StorageDisabled(t *testing.T) {
	path, _, sink, p := newDocFixture(t)
	out := filepath.Join(t.TempDir(), "nested", "out")

	summary, err := p.ProcessDocument(context.Background(), path, DocumentOptions{OutputDir: out})
	require.NoError(t, err)

	assert.True(t, summary.DatabaseStorage.Skipped())
	assert.Empty(t, sink.calls)
	assert.Equal(t, []string{"catalog_processed.json"}, listDir(t, out))

	b, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"database_storage":{"skipped":true}`)
}

func TestProcessDocument_AllArtifacts(t *testing.T) {
	path, rec, _, p := newDocFixture(t)
	out := t.TempDir()

	summary, err := p.ProcessDocument(context.Background(), path, DocumentOptions{
		OutputDir:         out,
		ModelRef:          "models/custom.json",
		SaveIntermediates: true,
		StoreInDB:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"catalog_db_result.json",
		"catalog_entities.json",
		"catalog_processed.json",
		"catalog_text.json",
	}, listDir(t, out))
	assert.Equal(t, []string{"models/custom.json"}, rec.models)

	assert.Equal(t, "catalog.pdf", summary.PDFInfo.Filename)
	assert.Equal(t, 2, summary.PDFInfo.PageCount)
	assert.Equal(t, []string{"ORG", "PRICE", "PRODUCT"}, summary.EntityExtraction.EntityTypes)
	assert.Equal(t, 3, summary.EntityExtraction.EntityCount)
	assert.Equal(t, 1, summary.DataProcessing.ProductCount)

	require.False(t, summary.DatabaseStorage.Skipped())
	assert.True(t, summary.DatabaseStorage.Outcome.Success)
	assert.Equal(t, "doc-catalog.pdf", summary.DatabaseStorage.Outcome.DocumentID)

	var stored entity.StorageOutcome
	require.NoError(t, artifact.ReadJSON(filepath.Join(out, "catalog_db_result.json"), &stored))
	assert.Equal(t, summary.DatabaseStorage.Outcome, stored)

	var text entity.DocumentExtraction
	require.NoError(t, artifact.ReadJSON(filepath.Join(out, "catalog_text.json"), &text))
	assert.Equal(t, "text of catalog.pdf", text.Text)
}

func TestProcessDocument_EntityTypesAndCount(t *testing.T) {
	path, rec, _, p := newDocFixture(t)
	rec.entities = map[string][]string{"PRICE": {"19.99"}, "ORG": {"Acme"}}

	summary, err := p.ProcessDocument(context.Background(), path, DocumentOptions{OutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, []string{"ORG", "PRICE"}, summary.EntityExtraction.EntityTypes)
	assert.Equal(t, 2, summary.EntityExtraction.EntityCount)
	assert.Equal(t, 0, summary.DataProcessing.ProductCount)
}

func TestProcessDocument_RerunOverwrites(t *testing.T) {
	path, rec, _, p := newDocFixture(t)
	out := t.TempDir()
	opts := DocumentOptions{OutputDir: out, SaveIntermediates: true}

	_, err := p.ProcessDocument(context.Background(), path, opts)
	require.NoError(t, err)
	first := listDir(t, out)

	rec.entities = map[string][]string{"PRODUCT": {"A", "B"}}
	_, err = p.ProcessDocument(context.Background(), path, opts)
	require.NoError(t, err)
	assert.Equal(t, first, listDir(t, out))

	var data entity.ProcessedData
	require.NoError(t, artifact.ReadJSON(filepath.Join(out, "catalog_processed.json"), &data))
	assert.Len(t, data.Products, 2)
}

func TestProcessDocument_StorageFailureIsNotAnError(t *testing.T) {
	path, _, sink, p := newDocFixture(t)
	sink.fail = map[string]string{"catalog.pdf": "duplicate key"}
	out := t.TempDir()

	summary, err := p.ProcessDocument(context.Background(), path, DocumentOptions{OutputDir: out, StoreInDB: true})
	require.NoError(t, err)
	assert.False(t, summary.DatabaseStorage.Outcome.Success)
	assert.Equal(t, []string{"duplicate key"}, summary.DatabaseStorage.Outcome.Errors)
	assert.True(t, artifact.Exists(filepath.Join(out, "catalog_db_result.json")))
}

func TestProcessDocument_Errors(t *testing.T) {
	t.Run("extraction", func(t *testing.T) {
		path, _, _, p := newDocFixture(t)
		p.Extractor = &fakeExtractor{err: common.ExtractionError(path, errors.New("corrupt"))}
		out := t.TempDir()

		_, err := p.ProcessDocument(context.Background(), path, DocumentOptions{OutputDir: out, SaveIntermediates: true})
		assert.ErrorIs(t, err, common.ErrExtraction)
		assert.Empty(t, listDir(t, out))
	})

	t.Run("recognition", func(t *testing.T) {
		path, rec, _, p := newDocFixture(t)
		rec.failOn = map[string]bool{"catalog.pdf": true}
		out := t.TempDir()

		_, err := p.ProcessDocument(context.Background(), path, DocumentOptions{OutputDir: out, SaveIntermediates: true})
		assert.ErrorIs(t, err, common.ErrRecognition)
		assert.Equal(t, []string{"catalog_text.json"}, listDir(t, out))
	})

	t.Run("storage requested without sink", func(t *testing.T) {
		path, _, _, p := newDocFixture(t)
		p.Sink = nil

		_, err := p.ProcessDocument(context.Background(), path, DocumentOptions{OutputDir: t.TempDir(), StoreInDB: true})
		assert.ErrorIs(t, err, common.ErrStorage)
	})
}
