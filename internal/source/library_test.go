package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLibraryDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "example-2.txt", "Chapter 1\nb")
	writeFile(t, dir, "example-1.txt", "Chapter 1\na")
	writeFile(t, dir, "notes.md", "# Notes")
	writeFile(t, dir, "cover.png", "png")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "drafts.txt"), 0755))

	ids, err := NewLibrary(dir).Documents()
	require.NoError(t, err)
	assert.Equal(t, []string{"example-1.txt", "example-2.txt", "notes.md"}, ids)
}

func TestLibraryDocumentsMissingDir(t *testing.T) {
	_, err := NewLibrary(filepath.Join(t.TempDir(), "missing")).Documents()
	assert.Error(t, err)
}

func TestLibraryLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "story.txt", "Chapter 1 - A\nhello")
	writeFile(t, dir, "story.md", "# A\nhello\n")
	writeFile(t, dir, "cover.png", "png")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0755))
	lib := NewLibrary(dir)
	ctx := context.Background()

	text, err := lib.Load(ctx, "story.txt")
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1 - A\nhello", text)

	text, err = lib.Load(ctx, "story.md")
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1 - A\nhello\n", text)

	_, err = lib.Load(ctx, "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = lib.Load(ctx, "sub.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = lib.Load(ctx, "../story.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = lib.Load(ctx, "cover.png")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestLibraryLoadCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "story.txt", "Chapter 1\nx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLibrary(dir).Load(ctx, "story.txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForFile(t *testing.T) {
	lib, id := ForFile(filepath.Join("books", "novel.txt"))
	assert.Equal(t, "books", lib.Dir)
	assert.Equal(t, "novel.txt", id)
	assert.Equal(t, filepath.Join("books", "novel.txt"), lib.Path(id))
}
