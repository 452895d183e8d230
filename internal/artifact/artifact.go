// Package artifact reads and writes the per-document JSON files that stages
// leave in the output directory.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/product-extractor/internal/common"
)

// Path joins dir and base+suffix.
func Path(dir, base, suffix string) string {
	return filepath.Join(dir, base+suffix)
}

// WriteJSON writes v to path as 2-space indented UTF-8 JSON, replacing any
// existing file.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%w: encode %s: %v", common.ErrArtifact, filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", common.ErrArtifact, filepath.Base(path), err)
	}
	return nil
}

// ReadJSON decodes the file at path into v.
func ReadJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", common.ErrArtifact, filepath.Base(path), err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", common.ErrArtifact, filepath.Base(path), err)
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.Mode().IsRegular()
}
