// Package normalize turns recognized entities into product records.
package normalize

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/product-extractor/constants"
	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
)

type Normalizer struct {
	defaultCurrency string
	now             func() time.Time
	logger          *slog.Logger
}

type Option func(*Normalizer)

// WithDefaultCurrency sets the currency used when a price carries none.
func WithDefaultCurrency(code string) Option {
	return func(n *Normalizer) {
		code = strings.ToUpper(strings.TrimSpace(code))
		if common.CurrencyCode("currency", code) == nil {
			n.defaultCurrency = code
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Normalizer{defaultCurrency: "USD", now: time.Now, logger: logger}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize builds one product per PRODUCT value, or per SKU when no product
// names were found. PRICE, SKU, QUANTITY and MEASUREMENT values attach by
// position; the first ORG is the manufacturer. It never fails: values that
// cannot be parsed are left out of the product.
func (n *Normalizer) Normalize(res entity.EntityExtractionResult) entity.ProcessedData {
	ents := res.Entities
	get := func(l constants.Label) []string { return ents[string(l)] }

	names := get(constants.LabelProduct)
	skus := get(constants.LabelSKU)
	namedBySKU := false
	if len(names) == 0 && len(skus) > 0 {
		names, namedBySKU = skus, true
	}

	var manufacturer string
	if orgs := get(constants.LabelOrg); len(orgs) > 0 {
		manufacturer = orgs[0]
	}
	prices := get(constants.LabelPrice)
	qtys := get(constants.LabelQuantity)
	measures := get(constants.LabelMeasurement)

	products := make([]entity.Product, 0, len(names))
	for i, name := range names {
		p := entity.Product{
			Name:         name,
			Manufacturer: manufacturer,
			Quantity:     1,
		}
		if namedBySKU {
			p.SKU = name
		} else if i < len(skus) {
			p.SKU = skus[i]
		}
		if i < len(prices) {
			if amount, cur, ok := ParsePrice(prices[i], n.defaultCurrency); ok {
				p.Price, p.Currency = amount, cur
			} else {
				n.logger.Debug("normalize.price.unparsed", "value", prices[i], "product", name)
			}
		}
		if i < len(qtys) {
			if q, err := strconv.Atoi(strings.TrimSpace(qtys[i])); err == nil && q > 0 {
				p.Quantity = q
			}
		}
		if i < len(measures) {
			p.Attributes = map[string]string{"measurement": measures[i]}
		}
		products = append(products, p)
	}

	counts := make(map[string]int, len(ents))
	for k, vs := range ents {
		counts[k] = len(vs)
	}

	return entity.ProcessedData{
		Document:     res.Document,
		Products:     products,
		EntityCounts: counts,
		ProcessedAt:  n.now().UTC(),
	}
}

type currencySymbol struct {
	symbol string
	code   string
}

// Checked in order; the symbol printed first in a price wins.
var currencySymbols = []currencySymbol{
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
}

// ParsePrice reads a printed price such as "$1,299.00", "19,99 EUR" or
// "GBP 5" and returns the amount rounded half away from zero to two decimals
// and an ISO 4217 code.
func ParsePrice(s, defaultCurrency string) (amount, currency string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", false
	}
	currency = defaultCurrency
	first := -1
	for _, cs := range currencySymbols {
		if i := strings.Index(s, cs.symbol); i >= 0 && (first < 0 || i < first) {
			first, currency = i, cs.code
		}
	}
	for _, cs := range currencySymbols {
		s = strings.ReplaceAll(s, cs.symbol, "")
	}
	fields := strings.Fields(s)
	var digits strings.Builder
	for _, f := range fields {
		upper := strings.ToUpper(f)
		if len(upper) == 3 && common.CurrencyCode("currency", upper) == nil {
			currency = upper
			continue
		}
		digits.WriteString(f)
	}

	num := digits.String()
	lastDot, lastComma := strings.LastIndex(num, "."), strings.LastIndex(num, ",")
	switch {
	case lastComma > lastDot && len(num)-lastComma-1 == 2:
		// decimal comma: 1.299,00 or 19,99
		num = strings.ReplaceAll(num, ".", "")
		num = strings.Replace(num, ",", ".", 1)
	default:
		num = strings.ReplaceAll(num, ",", "")
	}
	if !strings.ContainsAny(num, "0123456789") || strings.Trim(num, "0123456789.") != "" {
		return "", "", false
	}

	d, err := decimal.NewFromString(num)
	if err != nil || d.IsNegative() {
		return "", "", false
	}
	return d.StringFixed(2), currency, true
}
