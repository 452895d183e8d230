package llm

// BuildEntityJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It is sent to the model as an output constraint and used locally to validate.
func BuildEntityJSONSchema(labels []string) map[string]any {
	values := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string", "minLength": 1},
	}
	props := make(map[string]any, len(labels))
	for _, l := range labels {
		props[l] = values
	}
	entities := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(labels) == 0 {
		entities["additionalProperties"] = values
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"entities": entities,
		},
		"required": []string{"entities"},
	}
}
