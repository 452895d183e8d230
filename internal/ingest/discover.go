package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirStats summarizes a discovery pass.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
}

// Discover returns the regular, non-hidden files directly inside dir whose base
// name matches pattern. The walk is not recursive. Results are sorted.
func Discover(dir, pattern string) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(dir) == "" {
		return nil, stats, fmt.Errorf("directory is required")
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, stats, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, stats, fmt.Errorf("read dir: %w", err)
	}

	var out []string
	for _, e := range entries {
		stats.Scanned++
		if e.IsDir() || IsHidden(e.Name()) {
			stats.Skipped++
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); !ok {
			continue
		}
		path := filepath.Join(dir, e.Name())
		// follows symlinks
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			stats.Skipped++
			continue
		}
		stats.Matched++
		out = append(out, path)
	}
	sort.Strings(out)
	return out, stats, nil
}

// HashFile returns the hex sha256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// BaseName is the file name without directory or extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
