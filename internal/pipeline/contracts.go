package pipeline

import (
	"context"

	"github.com/joseph-ayodele/product-extractor/internal/entity"
)

// Extractor turns one PDF into text. Failures wrap common.ErrExtraction.
type Extractor interface {
	Extract(ctx context.Context, path string) (entity.DocumentExtraction, error)
}

// BatchExtractor extracts every matching file in inputDir, writing
// <base>.json into outputDir for each success.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, inputDir, outputDir string, workers int, pattern string) error
}

// EntityRecognizer finds labelled entities. Failures wrap common.ErrRecognition.
type EntityRecognizer interface {
	Recognize(ctx context.Context, doc entity.DocumentExtraction, modelRef string) (entity.EntityExtractionResult, error)
}

// Normalizer is total: it never fails.
type Normalizer interface {
	Normalize(res entity.EntityExtractionResult) entity.ProcessedData
}

// Sink persists processed data. Failures are reported in the outcome.
type Sink interface {
	Persist(ctx context.Context, data entity.ProcessedData) entity.StorageOutcome
}
