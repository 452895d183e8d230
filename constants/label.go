package constants

import (
	"strings"
)

// Label is an entity type produced by the recognizer.
type Label string

const (
	LabelOrg         Label = "ORG"
	LabelProduct     Label = "PRODUCT"
	LabelPrice       Label = "PRICE"
	LabelSKU         Label = "SKU"
	LabelQuantity    Label = "QUANTITY"
	LabelDate        Label = "DATE"
	LabelMeasurement Label = "MEASUREMENT"
	LabelEmail       Label = "EMAIL"
	LabelURL         Label = "URL"
)

var allLabels = []Label{
	LabelOrg,
	LabelProduct,
	LabelPrice,
	LabelSKU,
	LabelQuantity,
	LabelDate,
	LabelMeasurement,
	LabelEmail,
	LabelURL,
}

// LabelsAsStrings returns the built-in labels in declaration order.
func LabelsAsStrings() []string {
	result := make([]string, len(allLabels))
	for i, l := range allLabels {
		result[i] = string(l)
	}
	return result
}

var labelSynonyms = map[string]Label{
	"organization":  LabelOrg,
	"organisation":  LabelOrg,
	"company":       LabelOrg,
	"manufacturer":  LabelOrg,
	"brand":         LabelOrg,
	"vendor":        LabelOrg,
	"item":          LabelProduct,
	"product_name":  LabelProduct,
	"cost":          LabelPrice,
	"money":         LabelPrice,
	"amount":        LabelPrice,
	"part_number":   LabelSKU,
	"model_number":  LabelSKU,
	"qty":           LabelQuantity,
	"cardinal":      LabelQuantity,
	"size":          LabelMeasurement,
	"dimension":     LabelMeasurement,
	"weight":        LabelMeasurement,
	"e-mail":        LabelEmail,
	"link":          LabelURL,
	"website":       LabelURL,
}

// CanonicalLabel maps a free-form label onto a known Label. Unknown labels
// are upper-cased and returned with ok=false so callers can keep or drop them.
func CanonicalLabel(input string) (Label, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	if l, ok := labelSynonyms[normalized]; ok {
		return l, true
	}
	for _, l := range allLabels {
		if normalized == strings.ToLower(string(l)) {
			return l, true
		}
	}
	return Label(strings.ToUpper(normalized)), false
}
