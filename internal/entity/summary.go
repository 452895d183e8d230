package entity

import (
	"encoding/json"

	"github.com/joseph-ayodele/product-extractor/constants"
)

// PDFInfoSection summarizes the extraction stage.
type PDFInfoSection struct {
	Filename       string  `json:"filename"`
	PageCount      int     `json:"page_count"`
	RequiresOCR    bool    `json:"requires_ocr"`
	ProcessingTime float64 `json:"processing_time"`
}

// EntitySection summarizes the recognition stage.
type EntitySection struct {
	EntityTypes    []string `json:"entity_types"`
	EntityCount    int      `json:"entity_count"`
	ProcessingTime float64  `json:"processing_time"`
}

// DataSection summarizes the normalization stage.
type DataSection struct {
	ProductCount   int     `json:"product_count"`
	ProcessingTime float64 `json:"processing_time"`
}

// StorageSection is either the skipped marker or a storage outcome.
// Check Skipped before reading Outcome.
type StorageSection struct {
	skipped        bool
	Outcome        StorageOutcome
	ProcessingTime float64
}

// SkippedStorage is the marker used when storage was disabled.
func SkippedStorage() StorageSection {
	return StorageSection{skipped: true}
}

// AttemptedStorage wraps an outcome with the time it took.
func AttemptedStorage(o StorageOutcome, seconds float64) StorageSection {
	return StorageSection{Outcome: o, ProcessingTime: seconds}
}

func (s StorageSection) Skipped() bool { return s.skipped }

func (s StorageSection) MarshalJSON() ([]byte, error) {
	if s.skipped {
		return []byte(`{"skipped":true}`), nil
	}
	return json.Marshal(struct {
		StorageOutcome
		ProcessingTime float64 `json:"processing_time"`
	}{s.Outcome, s.ProcessingTime})
}

func (s *StorageSection) UnmarshalJSON(b []byte) error {
	var probe struct {
		Skipped bool `json:"skipped"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	if probe.Skipped {
		*s = SkippedStorage()
		return nil
	}
	var full struct {
		StorageOutcome
		ProcessingTime float64 `json:"processing_time"`
	}
	if err := json.Unmarshal(b, &full); err != nil {
		return err
	}
	*s = AttemptedStorage(full.StorageOutcome, full.ProcessingTime)
	return nil
}

// ProcessingSummary is returned by single-document processing.
type ProcessingSummary struct {
	PDFInfo          PDFInfoSection `json:"pdf_info"`
	EntityExtraction EntitySection  `json:"entity_extraction"`
	DataProcessing   DataSection    `json:"data_processing"`
	DatabaseStorage  StorageSection `json:"database_storage"`
}

// FileOutcome is the per-file record of a batch run.
type FileOutcome struct {
	File       string               `json:"file"`
	Status     constants.FileStatus `json:"status"`
	Products   int                  `json:"products"`
	DocumentID string               `json:"document_id,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// BatchSummary is returned by directory processing.
// Successful + Failed == FileCount once a run completes.
type BatchSummary struct {
	FileCount     int           `json:"file_count"`
	Successful    int           `json:"successful"`
	Failed        int           `json:"failed"`
	ProductsFound int           `json:"products_found"`
	Error         string        `json:"error,omitempty"`
	Files         []FileOutcome `json:"files,omitempty"`
}

// EmptyBatch is the summary for a directory with no matching files.
func EmptyBatch(msg string) BatchSummary {
	return BatchSummary{Error: msg}
}

// MarshalJSON emits exactly {file_count, error} for an empty-directory summary.
func (b BatchSummary) MarshalJSON() ([]byte, error) {
	if b.Error != "" && b.FileCount == 0 {
		return json.Marshal(struct {
			FileCount int    `json:"file_count"`
			Error     string `json:"error"`
		}{0, b.Error})
	}
	type plain BatchSummary
	return json.Marshal(plain(b))
}

// Succeed records a successful file.
func (b *BatchSummary) Succeed(file string, products int, documentID string) {
	b.Successful++
	b.ProductsFound += products
	b.Files = append(b.Files, FileOutcome{
		File:       file,
		Status:     constants.FileStatusSucceeded,
		Products:   products,
		DocumentID: documentID,
	})
}

// Fail records a failed file.
func (b *BatchSummary) Fail(file string, status constants.FileStatus, reason string) {
	b.Failed++
	b.Files = append(b.Files, FileOutcome{File: file, Status: status, Error: reason})
}
