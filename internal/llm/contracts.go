package llm

import "context"

// EntityRequest is what the recognizer sends to a language model.
type EntityRequest struct {
	Text     string
	Filename string
	Labels   []string // labels the model may return
	Model    string   // overrides the client's default model when set
}

// EntityExtractor is the interface the recognizer depends on. The raw JSON the
// model returned is passed back for diagnostics.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, req EntityRequest) (map[string][]string, []byte, error)
}
