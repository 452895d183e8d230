package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/product-extractor/constants"
	"github.com/joseph-ayodele/product-extractor/internal/artifact"
	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
	"github.com/joseph-ayodele/product-extractor/internal/ingest"
)

type fakeExtractor struct {
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (entity.DocumentExtraction, error) {
	f.calls++
	if f.err != nil {
		return entity.DocumentExtraction{}, f.err
	}
	return entity.DocumentExtraction{
		Filename:    filepath.Base(path),
		PageCount:   2,
		ContentHash: "hash-" + filepath.Base(path),
		Method:      constants.MethodPDFText,
		Text:        "text of " + filepath.Base(path),
	}, nil
}

// fakeBatch writes <base>.json for every discovered file except those in skip.
type fakeBatch struct {
	skip    map[string]bool
	err     error
	calls   int
	workers int
}

func (f *fakeBatch) ExtractBatch(_ context.Context, in, out string, workers int, pattern string) error {
	f.calls++
	f.workers = workers
	if f.err != nil {
		return f.err
	}
	files, _, err := ingest.Discover(in, pattern)
	if err != nil {
		return err
	}
	for _, path := range files {
		name := filepath.Base(path)
		if f.skip[name] {
			continue
		}
		doc := entity.DocumentExtraction{Filename: name, PageCount: 1, Text: "text of " + name}
		if err := artifact.WriteJSON(artifact.Path(out, ingest.BaseName(path), constants.SuffixBatch), doc); err != nil {
			return err
		}
	}
	return nil
}

// fakeRecognizer returns entities, or entitiesFor[filename] when set.
type fakeRecognizer struct {
	entities    map[string][]string
	entitiesFor map[string]map[string][]string
	failOn      map[string]bool
	panicOn     map[string]bool
	models      []string
}

func (f *fakeRecognizer) Recognize(_ context.Context, doc entity.DocumentExtraction, modelRef string) (entity.EntityExtractionResult, error) {
	f.models = append(f.models, modelRef)
	if f.panicOn[doc.Filename] {
		panic("recognizer exploded")
	}
	if f.failOn[doc.Filename] {
		return entity.EntityExtractionResult{}, common.RecognitionError("fake", errors.New("model unavailable"))
	}
	ents := f.entities
	if e, ok := f.entitiesFor[doc.Filename]; ok {
		ents = e
	}
	return entity.EntityExtractionResult{Document: doc.Info(), Model: "fake", Entities: ents}, nil
}

// fakeNormalizer makes one product per PRODUCT value.
type fakeNormalizer struct{}

func (fakeNormalizer) Normalize(res entity.EntityExtractionResult) entity.ProcessedData {
	products := []entity.Product{}
	for _, name := range res.Entities["PRODUCT"] {
		products = append(products, entity.Product{Name: name, Quantity: 1})
	}
	return entity.ProcessedData{Document: res.Document, Products: products}
}

// fakeSink fails for filenames listed in fail, with that message.
type fakeSink struct {
	fail  map[string]string
	calls []string
}

func (f *fakeSink) Persist(_ context.Context, data entity.ProcessedData) entity.StorageOutcome {
	name := data.Document.Filename
	f.calls = append(f.calls, name)
	if msg, ok := f.fail[name]; ok {
		return entity.StorageFailure(msg)
	}
	ids := make([]string, len(data.Products))
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-p%d", name, i)
	}
	return entity.StorageOutcome{Success: true, DocumentID: "doc-" + name, ProductIDs: ids}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4"), 0o644))
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}
