package constants

// FileStatus is the per-file outcome recorded in a batch summary.
type FileStatus string

// Stable values (written to JSON and the XLSX report).
const (
	FileStatusSucceeded FileStatus = "SUCCEEDED"
	FileStatusFailed    FileStatus = "FAILED"
	FileStatusMissing   FileStatus = "MISSING_EXTRACTION" // batch extractor left no artifact
)
