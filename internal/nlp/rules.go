package nlp

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/product-extractor/constants"
)

// DefaultModelName is reported for results of the built-in rules.
const DefaultModelName = "builtin-rules"

const (
	reMoney    = `[$€£¥]\s?\d{1,3}(?:[,\s]\d{3})*(?:\.\d{1,2})?|\b\d+(?:[.,]\d{2})\s?(?:USD|EUR|GBP|CAD|AUD|JPY)\b|\b(?:USD|EUR|GBP|CAD|AUD|JPY)\s?\d+(?:[.,]\d{2})?`
	reCompany  = `\b((?:[A-Z][A-Za-z0-9&\-]*\s+){0,3}[A-Z][A-Za-z0-9&\-]*,?\s+(?:Inc|LLC|Ltd|GmbH|Corp|Corporation|Co|Company|AG|SA|PLC|Limited)\b\.?)`
	reMonth    = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[a-z]*\.?`
	reUnit     = `(?:mm|cm|m|in|inch|inches|ft|kg|g|lb|lbs|oz|ml|l|L|W|kW|V|mAh|Hz|GB|TB)`
)

// defaultRules are the built-in expressions, keyed by label.
var defaultRules = map[constants.Label][]string{
	constants.LabelPrice: {reMoney},
	constants.LabelOrg: {
		reCompany,
		`(?im)^\s*(?:manufacturer|brand|vendor|made by|supplier)\s*[:\-]\s*([^\n]{2,60})$`,
	},
	constants.LabelProduct: {
		`(?im)^\s*(?:product(?:\s+name)?|item|model name|description)\s*[:\-]\s*([^\n]{2,80})$`,
		// "<name> ... $12.99" line items
		`(?m)^\s*([A-Za-z][A-Za-z0-9 ,&/\-\.\(\)"']{2,80}?)\s*(?:\.{2,}|\s-\s|\s)\s*(?:` + reMoney + `)`,
	},
	constants.LabelSKU: {
		`(?i)\b(?:sku|item\s*(?:number|no|#)|part\s*(?:number|no|#)|model\s*(?:number|no|#)|cat(?:alog)?\.?\s*(?:no|#))\.?\s*[:#]?\s*([A-Z0-9][A-Z0-9\-_/\.]{2,30})`,
	},
	constants.LabelQuantity: {
		`(?i)\b(?:qty|quantity)\.?\s*[:x]?\s*(\d{1,6})\b`,
		`(?i)\b(\d{1,6})\s*(?:pcs|pieces|units|ea|each|pack)\b`,
	},
	constants.LabelDate: {
		`\b\d{4}-\d{2}-\d{2}\b`,
		`\b\d{1,2}/\d{1,2}/\d{2,4}\b`,
		`\b` + reMonth + `\s+\d{1,2},?\s+\d{4}\b`,
		`\b\d{1,2}\s+` + reMonth + `\s+\d{4}\b`,
	},
	constants.LabelMeasurement: {
		`\b\d+(?:\.\d+)?\s?` + reUnit + `\b(?:\s?[x×]\s?\d+(?:\.\d+)?\s?` + reUnit + `\b)*`,
	},
	constants.LabelEmail: {`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`},
	constants.LabelURL:   {`\bhttps?://[^\s<>"]+|\bwww\.[^\s<>"]+`},
}

// Line items that read like totals rather than products.
var productStopwords = []string{
	"total", "subtotal", "sub-total", "tax", "vat", "shipping", "discount",
	"balance", "amount due", "price", "msrp", "each", "unit price", "handling",
}

func keepDefault(label, value string) bool {
	if label != string(constants.LabelProduct) {
		return true
	}
	lower := strings.ToLower(value)
	for _, w := range productStopwords {
		if lower == w || strings.HasPrefix(lower, w+" ") || strings.HasSuffix(lower, " "+w) {
			return false
		}
	}
	// require at least one letter run of length 2
	return len(strings.TrimSpace(value)) >= 3 && strings.IndexFunc(value, isLetter) >= 0
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// DefaultModel returns the built-in rule model.
func DefaultModel() *PatternModel {
	m := &PatternModel{
		name:     DefaultModelName,
		patterns: make(map[string][]*regexp.Regexp, len(defaultRules)),
		keep:     keepDefault,
	}
	for label, exprs := range defaultRules {
		for _, expr := range exprs {
			m.patterns[string(label)] = append(m.patterns[string(label)], regexp.MustCompile(expr))
		}
	}
	return m
}
