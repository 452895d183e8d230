package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/product-extractor/constants"
)

// SanitizeEntities coerces a model reply into {"entities": {LABEL: [string]}}:
//   - accepts a bare label map when the "entities" wrapper is missing
//   - canonicalizes label synonyms (organization -> ORG, cost -> PRICE)
//   - coerces numbers and single strings into string arrays
//   - drops nulls, empty values and labels outside allowed (when non-empty)
func SanitizeEntities(raw []byte, allowed []string, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var top map[string]any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	src, ok := top["entities"].(map[string]any)
	if !ok {
		src = top
	}

	dropped := make([]string, 0, 4)
	out := map[string][]string{}
	for k, v := range src {
		label, _ := constants.CanonicalLabel(k)
		if label == "" || (len(allowed) > 0 && !slices.Contains(allowed, string(label))) {
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		vals := coerceValues(v)
		if len(vals) == 0 {
			dropped = append(dropped, k+"(empty)")
			continue
		}
		if string(label) != k {
			dropped = append(dropped, k+"->"+string(label))
		}
		out[string(label)] = appendUnique(out[string(label)], vals...)
	}

	b, err := json.Marshal(map[string]any{"entities": out})
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.entities.sanitize", "dropped", dropped)
	}
	return b, dropped, nil
}

func coerceValues(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if s := strings.TrimSpace(t); s != "" && !strings.EqualFold(s, "null") {
			return []string{s}
		}
		return nil
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}
	case bool:
		return nil
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, coerceValues(item)...)
		}
		return out
	default:
		return nil
	}
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
