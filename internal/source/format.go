// Package source loads manuscripts from disk and normalises them into the
// "Chapter " heading format understood by the chapter package.
package source

import (
	"os"
	"path/filepath"
	"strings"
)

// Format defines a file format reader for extracting manuscript text.
type Format interface {
	Name() string
	Extensions() []string
	Extract(filename string) (string, error)
}

var registry []Format

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// PlainTextFormat passes text files through unchanged.
type PlainTextFormat struct{}

func init() {
	Register(&PlainTextFormat{})
}

func (f *PlainTextFormat) Name() string         { return "Text" }
func (f *PlainTextFormat) Extensions() []string { return []string{".txt", ".text"} }

func (f *PlainTextFormat) Extract(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// lookup returns the registered format for filename, or nil.
func lookup(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f
			}
		}
	}
	return nil
}

// Supported reports whether a registered format handles filename.
func Supported(filename string) bool {
	return lookup(filename) != nil
}

// ExtractText extracts text from a file, using a registered format or plain text fallback.
func ExtractText(filename string) (string, error) {
	if f := lookup(filename); f != nil {
		return f.Extract(filename)
	}
	return (&PlainTextFormat{}).Extract(filename)
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
