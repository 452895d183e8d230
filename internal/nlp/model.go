package nlp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/product-extractor/constants"
)

// patternModelSchema describes a pattern model file:
//
//	{"name": "catalog-v2", "labels": {"PRODUCT": ["(?m)^Model:\\s*(.+)$"]}}
const patternModelSchema = `{
  "type": "object",
  "required": ["name", "labels"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "labels": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "array",
        "minItems": 1,
        "items": {"type": "string", "minLength": 1}
      }
    }
  }
}`

var compiledModelSchema = jsonschema.MustCompileString("pattern-model.json", patternModelSchema)

// PatternModel finds entities with regular expressions. When a pattern has a
// capture group, the first group is the value, otherwise the whole match.
type PatternModel struct {
	name     string
	patterns map[string][]*regexp.Regexp
	keep     func(label, value string) bool
}

// Name identifies the model in results and logs.
func (m *PatternModel) Name() string { return m.name }

// Labels lists the labels the model can produce, sorted.
func (m *PatternModel) Labels() []string {
	out := make([]string, 0, len(m.patterns))
	for l := range m.patterns {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

type hit struct {
	pos   int
	value string
}

// Find returns label -> distinct values ordered by first appearance. Labels
// without values are omitted.
func (m *PatternModel) Find(text string) map[string][]string {
	out := map[string][]string{}
	for label, res := range m.patterns {
		var hits []hit
		for _, re := range res {
			for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
				start, end := loc[0], loc[1]
				if len(loc) >= 4 && loc[2] >= 0 {
					start, end = loc[2], loc[3]
				}
				v := cleanValue(text[start:end])
				if v == "" || (m.keep != nil && !m.keep(label, v)) {
					continue
				}
				hits = append(hits, hit{pos: start, value: v})
			}
		}
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

		seen := map[string]struct{}{}
		for _, h := range hits {
			if _, dup := seen[h.value]; dup {
				continue
			}
			seen[h.value] = struct{}{}
			out[label] = append(out[label], h.value)
		}
	}
	return out
}

var reSpaces = regexp.MustCompile(`\s+`)

func cleanValue(s string) string {
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.Trim(s, " \t,;:")
}

type patternFile struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Labels      map[string][]string `json:"labels"`
}

// LoadPatternModel reads and validates a pattern model file.
func LoadPatternModel(path string) (*PatternModel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return ParsePatternModel(b)
}

// ParsePatternModel validates raw against the pattern model schema and
// compiles its expressions. Label names are canonicalized.
func ParsePatternModel(raw []byte) (*PatternModel, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := compiledModelSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}

	var pf patternFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	m := &PatternModel{name: pf.Name, patterns: map[string][]*regexp.Regexp{}}
	for label, exprs := range pf.Labels {
		canon, _ := constants.CanonicalLabel(label)
		for _, expr := range exprs {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("label %s: %w", label, err)
			}
			m.patterns[string(canon)] = append(m.patterns[string(canon)], re)
		}
	}
	return m, nil
}
