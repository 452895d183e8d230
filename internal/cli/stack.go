package cli

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/product-extractor/internal/nlp"
	"github.com/joseph-ayodele/product-extractor/internal/normalize"
	"github.com/joseph-ayodele/product-extractor/internal/ocr"
	"github.com/joseph-ayodele/product-extractor/internal/pipeline"
	"github.com/joseph-ayodele/product-extractor/internal/repository"
)

// Env is the startup state every subcommand shares.
type Env struct {
	Config *common.Config
	Logger *slog.Logger
}

// Stack is the wired set of pipeline collaborators for one invocation.
type Stack struct {
	Extractor  pipeline.Extractor
	Batch      pipeline.BatchExtractor
	Recognizer pipeline.EntityRecognizer
	Normalizer pipeline.Normalizer
	Sink       pipeline.Sink // nil unless storage was requested

	closers []func()
}

// Close releases everything the stack opened.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// StackBuilder wires collaborators; withStore opens the database. A database
// that cannot be opened does not fail the build.
type StackBuilder func(ctx context.Context, env Env, withStore bool) (*Stack, error)

// BuildStack wires the PDF extractor, recognizer, normalizer and, when
// requested, the database store from configuration.
func BuildStack(ctx context.Context, env Env, withStore bool) (*Stack, error) {
	ext := ocr.NewExtractor(ocr.ConfigFrom(env.Config.OCR), env.Logger)
	return buildStack(ctx, env, withStore, ext)
}

func buildStack(ctx context.Context, env Env, withStore bool, ext pipeline.Extractor) (*Stack, error) {
	s := &Stack{
		Extractor:  ext,
		Batch:      ocr.NewBatchExtractor(ext, env.Logger),
		Recognizer: newRecognizer(env),
		Normalizer: normalize.New(env.Logger),
	}
	if withStore {
		store, err := repository.Open(ctx, env.Config.Database, env.Logger)
		if err != nil {
			// documents still run; each storage attempt reports the open error
			env.Logger.Error("database unavailable, storage will fail per document", "error", err)
			s.Sink = repository.Unavailable{Err: err}
			return s, nil
		}
		s.Sink = store
		s.closers = append(s.closers, store.Close)
	}
	return s, nil
}

// newRecognizer enables "openai:" model references only when an API key is
// configured.
func newRecognizer(env Env) *nlp.Recognizer {
	var opts []nlp.Option
	if env.Config.LLM.APIKey != "" {
		opts = append(opts, nlp.WithLLM(openai.NewClient(openai.ConfigFrom(env.Config.LLM), env.Logger)))
	}
	return nlp.NewRecognizer(env.Logger, opts...)
}
