package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.pdf"), "b")
	touch(t, filepath.Join(dir, "a.pdf"), "a")
	touch(t, filepath.Join(dir, "notes.txt"), "x")
	touch(t, filepath.Join(dir, ".hidden.pdf"), "h")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755))
	touch(t, filepath.Join(dir, "nested.pdf", "c.pdf"), "c")

	files, stats, err := Discover(dir, "*.pdf")
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.pdf")}, files)
	assert.Equal(t, uint32(2), stats.Matched)
	assert.Equal(t, uint32(5), stats.Scanned)
}

func TestDiscover_Symlinks(t *testing.T) {
	src := t.TempDir()
	touch(t, filepath.Join(src, "real.pdf"), "r")
	require.NoError(t, os.Mkdir(filepath.Join(src, "sub"), 0o755))

	dir := t.TempDir()
	if err := os.Symlink(filepath.Join(src, "real.pdf"), filepath.Join(dir, "linked.pdf")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(src, "gone.pdf"), filepath.Join(dir, "dangling.pdf")))
	require.NoError(t, os.Symlink(filepath.Join(src, "sub"), filepath.Join(dir, "dirlink.pdf")))

	files, stats, err := Discover(dir, "*.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "linked.pdf")}, files)
	assert.Equal(t, uint32(1), stats.Matched)
	assert.Equal(t, uint32(2), stats.Skipped)
}

func TestDiscover_NoMatches(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "readme.md"), "x")

	files, _, err := Discover(dir, "*.pdf")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscover_Errors(t *testing.T) {
	_, _, err := Discover("", "*.pdf")
	assert.Error(t, err)

	_, _, err = Discover(t.TempDir(), "[")
	assert.Error(t, err)

	_, _, err = Discover(filepath.Join(t.TempDir(), "missing"), "*.pdf")
	assert.Error(t, err)
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pdf")
	touch(t, path, "abc")

	sum, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)

	_, err = HashFile(path + ".missing")
	assert.Error(t, err)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "catalog", BaseName("/tmp/in/catalog.pdf"))
	assert.Equal(t, "catalog.v2", BaseName("catalog.v2.pdf"))
	assert.Equal(t, "noext", BaseName("noext"))
}

func TestStartWatcher_InitialScanAndCreate(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "existing.pdf"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Dir:         dir,
		Pattern:     "*.pdf",
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
	})
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, filepath.Join(dir, "existing.pdf"), p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan did not emit")
	}

	touch(t, filepath.Join(dir, "ignored.txt"), "x")
	touch(t, filepath.Join(dir, "new.pdf"), "x")

	select {
	case p := <-events:
		assert.Equal(t, filepath.Join(dir, "new.pdf"), p)
	case <-time.After(5 * time.Second):
		t.Fatal("new file not emitted")
	}

	cancel()
	for range events {
	}
}

func TestStartWatcher_RequiresDir(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
