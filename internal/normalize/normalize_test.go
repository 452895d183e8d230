package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/product-extractor/internal/entity"
)

var fixed = time.Date(2024, 3, 15, 10, 0, 0, 0, time.FixedZone("EST", -5*3600))

func newTestNormalizer(opts ...Option) *Normalizer {
	return New(nil, append([]Option{WithClock(func() time.Time { return fixed })}, opts...)...)
}

func TestNormalize_ProductsByPosition(t *testing.T) {
	res := entity.EntityExtractionResult{
		Document: entity.DocumentInfo{Filename: "catalog.pdf", PageCount: 2},
		Entities: map[string][]string{
			"ORG":         {"Acme Tools Inc.", "Other Corp"},
			"PRODUCT":     {"Cordless Drill X200", "Impact Driver Pro"},
			"PRICE":       {"$129.99", "€1.299,00"},
			"SKU":         {"DRL-X200"},
			"QUANTITY":    {"2", "zero"},
			"MEASUREMENT": {"1.5 kg"},
		},
	}

	got := newTestNormalizer().Normalize(res)

	assert.Equal(t, res.Document, got.Document)
	assert.Equal(t, fixed.UTC(), got.ProcessedAt)
	require.Len(t, got.Products, 2)

	assert.Equal(t, entity.Product{
		Name:         "Cordless Drill X200",
		Manufacturer: "Acme Tools Inc.",
		SKU:          "DRL-X200",
		Price:        "129.99",
		Currency:     "USD",
		Quantity:     2,
		Attributes:   map[string]string{"measurement": "1.5 kg"},
	}, got.Products[0])

	second := got.Products[1]
	assert.Equal(t, "Impact Driver Pro", second.Name)
	assert.Equal(t, "Acme Tools Inc.", second.Manufacturer)
	assert.Empty(t, second.SKU)
	assert.Equal(t, "1299.00", second.Price)
	assert.Equal(t, "EUR", second.Currency)
	assert.Equal(t, 1, second.Quantity, "unparseable quantity defaults to 1")
	assert.Nil(t, second.Attributes)

	assert.Equal(t, map[string]int{
		"ORG": 2, "PRODUCT": 2, "PRICE": 2, "SKU": 1, "QUANTITY": 2, "MEASUREMENT": 1,
	}, got.EntityCounts)
}

func TestNormalize_SKUOnly(t *testing.T) {
	got := newTestNormalizer().Normalize(entity.EntityExtractionResult{
		Entities: map[string][]string{
			"SKU":   {"AB-1", "AB-2"},
			"PRICE": {"5"},
		},
	})
	require.Len(t, got.Products, 2)
	assert.Equal(t, "AB-1", got.Products[0].Name)
	assert.Equal(t, "AB-1", got.Products[0].SKU)
	assert.Equal(t, "5.00", got.Products[0].Price)
	assert.Empty(t, got.Products[1].Price)
}

func TestNormalize_NoProducts(t *testing.T) {
	got := newTestNormalizer().Normalize(entity.EntityExtractionResult{
		Entities: map[string][]string{"ORG": {"Acme"}, "PRICE": {"19.99"}},
	})
	assert.NotNil(t, got.Products)
	assert.Empty(t, got.Products)
	assert.Equal(t, 2, len(got.EntityCounts))

	empty := newTestNormalizer().Normalize(entity.EntityExtractionResult{})
	assert.Empty(t, empty.Products)
	assert.Empty(t, empty.EntityCounts)
}

func TestNormalize_DefaultCurrency(t *testing.T) {
	n := newTestNormalizer(WithDefaultCurrency("gbp"))
	got := n.Normalize(entity.EntityExtractionResult{
		Entities: map[string][]string{"PRODUCT": {"Widget"}, "PRICE": {"19.99"}},
	})
	require.Len(t, got.Products, 1)
	assert.Equal(t, "GBP", got.Products[0].Currency)

	// invalid codes are ignored
	n = newTestNormalizer(WithDefaultCurrency("dollars"))
	assert.Equal(t, "USD", n.defaultCurrency)
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in       string
		amount   string
		currency string
		ok       bool
	}{
		{"$19.99", "19.99", "USD", true},
		{"$1,299.00", "1299.00", "USD", true},
		{"19,99 EUR", "19.99", "EUR", true},
		{"1.299,00 €", "1299.00", "EUR", true},
		{"GBP 5", "5.00", "GBP", true},
		{"£ 7.5", "7.50", "GBP", true},
		{"1,299", "1299.00", "USD", true},
		{"", "", "", false},
		{"free", "", "", false},
		{"USD", "", "", false},
		{"Infinity", "", "", false},
		{"12.345", "12.35", "USD", true},
		{"12.344", "12.34", "USD", true},
		{"0.005 EUR", "0.01", "EUR", true},
		{"€$5", "5.00", "EUR", true},
		{"$€5", "5.00", "USD", true},
		{"5e3", "", "", false},
		{"1.2.3", "", "", false},
		{"-5", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			amount, cur, ok := ParsePrice(tc.in, "USD")
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.amount, amount)
				assert.Equal(t, tc.currency, cur)
			}
		})
	}
}
