package nlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/product-extractor/constants"
	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
	"github.com/joseph-ayodele/product-extractor/internal/llm"
)

// LLMPrefix selects the language-model recognizer, e.g. "openai:gpt-4o-mini".
const LLMPrefix = "openai:"

// Recognizer resolves a model reference and runs it over extracted text:
//   - ""               built-in rules
//   - "openai:<model>" the configured llm.EntityExtractor
//   - anything else    a pattern model file, loaded once per path
type Recognizer struct {
	logger  *slog.Logger
	llm     llm.EntityExtractor
	builtin *PatternModel

	mu    sync.Mutex
	cache map[string]*PatternModel
}

type Option func(*Recognizer)

// WithLLM enables "openai:" model references.
func WithLLM(x llm.EntityExtractor) Option {
	return func(r *Recognizer) { r.llm = x }
}

func NewRecognizer(logger *slog.Logger, opts ...Option) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recognizer{
		logger:  logger,
		builtin: DefaultModel(),
		cache:   map[string]*PatternModel{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Recognize returns the entities found in doc. Failures to load or run the
// referenced model are reported as common.ErrRecognition.
func (r *Recognizer) Recognize(ctx context.Context, doc entity.DocumentExtraction, modelRef string) (entity.EntityExtractionResult, error) {
	start := time.Now()
	res := entity.EntityExtractionResult{Document: doc.Info()}
	modelRef = strings.TrimSpace(modelRef)

	var (
		found map[string][]string
		err   error
	)
	switch {
	case modelRef == "":
		res.Model = r.builtin.Name()
		found = r.builtin.Find(doc.Text)
	case strings.HasPrefix(modelRef, LLMPrefix):
		res.Model = modelRef
		found, err = r.recognizeLLM(ctx, doc, strings.TrimPrefix(modelRef, LLMPrefix))
	default:
		var m *PatternModel
		m, err = r.Model(modelRef)
		if err == nil {
			res.Model = m.Name()
			found = m.Find(doc.Text)
		}
	}
	if err != nil {
		r.logger.Error("nlp.recognize.failed", "file", doc.Filename, "model", modelRef, "error", err)
		return res, common.RecognitionError(doc.Filename, err)
	}

	res.Entities = canonicalize(found)
	r.logger.Debug("nlp.recognize.ok",
		"file", doc.Filename,
		"model", res.Model,
		"types", len(res.Entities),
		"count", res.Count(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// Model loads (or returns the cached) pattern model at path.
func (r *Recognizer) Model(path string) (*PatternModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.cache[path]; ok {
		return m, nil
	}
	m, err := LoadPatternModel(path)
	if err != nil {
		return nil, err
	}
	r.logger.Info("nlp.model.loaded", "path", path, "name", m.Name(), "labels", m.Labels())
	r.cache[path] = m
	return m, nil
}

// CheckModel reports whether modelRef can be resolved without running it.
func (r *Recognizer) CheckModel(modelRef string) error {
	switch {
	case modelRef == "":
		return nil
	case strings.HasPrefix(modelRef, LLMPrefix):
		if r.llm == nil {
			return errors.New("no language model client configured")
		}
		return nil
	default:
		_, err := r.Model(modelRef)
		return err
	}
}

func (r *Recognizer) recognizeLLM(ctx context.Context, doc entity.DocumentExtraction, model string) (map[string][]string, error) {
	if r.llm == nil {
		return nil, errors.New("no language model client configured")
	}
	if model == "" {
		return nil, fmt.Errorf("model reference %q names no model", LLMPrefix)
	}
	found, _, err := r.llm.ExtractEntities(ctx, llm.EntityRequest{
		Text:     doc.Text,
		Filename: doc.Filename,
		Labels:   constants.LabelsAsStrings(),
		Model:    model,
	})
	return found, err
}

func canonicalize(found map[string][]string) map[string][]string {
	out := make(map[string][]string, len(found))
	for k, vals := range found {
		label, _ := constants.CanonicalLabel(k)
		if label == "" {
			continue
		}
		for _, v := range vals {
			v = strings.TrimSpace(v)
			if v == "" || slices.Contains(out[string(label)], v) {
				continue
			}
			out[string(label)] = append(out[string(label)], v)
		}
	}
	for k, vals := range out {
		if len(vals) == 0 {
			delete(out, k)
		}
	}
	return out
}

