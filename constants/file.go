package constants

import "strings"

// DefaultPattern is the batch glob used when none is given.
const DefaultPattern = "*.pdf"

// PDFExt is the only extension the extractor accepts.
const PDFExt = "pdf"

// AllowedExtensions holds the extensions the watcher and discovery accept.
var AllowedExtensions = map[string]struct{}{
	PDFExt: {},
}

// Artifact suffixes written next to each document's base name.
const (
	SuffixText      = "_text.json"
	SuffixEntities  = "_entities.json"
	SuffixProcessed = "_processed.json"
	SuffixDBResult  = "_db_result.json"
	SuffixBatch     = ".json"
)

// Extraction methods recorded on DocumentExtraction.Method.
const (
	MethodPDFText = "pdf-text"
	MethodPDFOCR  = "pdf-ocr"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDF reports whether path carries a .pdf extension (any case).
func IsPDF(path string) bool {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return false
	}
	return NormalizeExt(path[i:]) == PDFExt
}
