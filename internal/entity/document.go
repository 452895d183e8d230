package entity

import (
	"sort"
	"time"
)

// PageText is the extracted text of a single page (1-based).
type PageText struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// DocumentExtraction is the output of the PDF extractor and the hand-off
// contract between batch extraction and the serial downstream stages.
type DocumentExtraction struct {
	Filename    string     `json:"filename"`
	PageCount   int        `json:"page_count"`
	RequiresOCR bool       `json:"requires_ocr"`
	ContentHash string     `json:"content_hash,omitempty"`
	Method      string     `json:"method,omitempty"`
	Text        string     `json:"text"`
	Pages       []PageText `json:"pages,omitempty"`
	Warnings    []string   `json:"warnings,omitempty"`
	DurationMS  int64      `json:"duration_ms,omitempty"`
}

// DocumentInfo is the part of an extraction carried forward through recognition
// and normalization.
type DocumentInfo struct {
	Filename    string `json:"filename"`
	PageCount   int    `json:"page_count"`
	RequiresOCR bool   `json:"requires_ocr"`
	ContentHash string `json:"content_hash,omitempty"`
}

// Info projects the extraction onto the fields downstream stages keep.
func (d DocumentExtraction) Info() DocumentInfo {
	return DocumentInfo{
		Filename:    d.Filename,
		PageCount:   d.PageCount,
		RequiresOCR: d.RequiresOCR,
		ContentHash: d.ContentHash,
	}
}

// EntityExtractionResult maps entity labels to the values found for them.
type EntityExtractionResult struct {
	Document DocumentInfo        `json:"document"`
	Model    string              `json:"model,omitempty"`
	Entities map[string][]string `json:"entities"`
}

// Types returns the entity labels present, sorted.
func (r EntityExtractionResult) Types() []string {
	types := make([]string, 0, len(r.Entities))
	for k := range r.Entities {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// Count is the total number of entity values across all labels.
func (r EntityExtractionResult) Count() int {
	n := 0
	for _, vs := range r.Entities {
		n += len(vs)
	}
	return n
}

// Product is one normalized product record.
type Product struct {
	Name         string            `json:"name"`
	Manufacturer string            `json:"manufacturer,omitempty"`
	SKU          string            `json:"sku,omitempty"`
	Price        string            `json:"price,omitempty"` // decimal, 2 places
	Currency     string            `json:"currency,omitempty"`
	Quantity     int               `json:"quantity"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// ProcessedData is the normalizer's output, persisted verbatim as the
// processed artifact.
type ProcessedData struct {
	Document     DocumentInfo   `json:"document"`
	Products     []Product      `json:"products"`
	EntityCounts map[string]int `json:"entity_counts,omitempty"`
	ProcessedAt  time.Time      `json:"processed_at"`
}

// StorageOutcome reports a single persist attempt. DocumentID and ProductIDs
// are set only on success, Errors only on failure.
type StorageOutcome struct {
	Success    bool     `json:"success"`
	DocumentID string   `json:"document_id,omitempty"`
	ProductIDs []string `json:"product_ids,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// StorageFailure builds a failed outcome from one or more messages.
func StorageFailure(msgs ...string) StorageOutcome {
	return StorageOutcome{Success: false, Errors: msgs}
}
