package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

var (
	// ErrNotFound is returned for document ids the library does not hold.
	ErrNotFound = errors.New("document not found")
	// ErrUnsupported is returned for files no registered format reads.
	ErrUnsupported = errors.New("unsupported document format")
)

// Loader lists documents and supplies their manuscript text. Both UIs
// load through it.
type Loader interface {
	Documents() ([]string, error)
	// Path is the file backing id, or "" when there is none to watch.
	Path(id string) string
	Load(ctx context.Context, id string) (string, error)
}

var _ Loader = (*Library)(nil)

// Library serves the supported documents of one directory. Document ids are
// file names inside Dir.
type Library struct {
	Dir string
}

// NewLibrary returns a library over dir.
func NewLibrary(dir string) *Library {
	return &Library{Dir: dir}
}

// ForFile returns the library holding path and the document id of path.
func ForFile(path string) (*Library, string) {
	return NewLibrary(filepath.Dir(path)), filepath.Base(path)
}

// Documents lists the ids of supported documents, sorted by name.
func (l *Library) Documents() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", l.Dir, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Path returns the file path of a document id.
func (l *Library) Path(id string) string {
	return filepath.Join(l.Dir, id)
}

// Load extracts the text of document id.
func (l *Library) Load(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id == "" || id != filepath.Base(id) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if !Supported(id) {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, id)
	}

	path := l.Path(id)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return "", err
	}

	text, err := ExtractText(path)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", id, err)
	}
	return text, nil
}
