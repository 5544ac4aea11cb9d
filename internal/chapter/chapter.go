// Package chapter turns manuscript text into an ordered sequence of titled
// chapters and provides the split and merge operations used to correct it.
//
// Every operation returns a new Sequence; an existing Sequence is never
// modified in place.
package chapter

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// HeadingPrefix starts every chapter heading line.
	HeadingPrefix = "Chapter "
	// EndSentinel ends segmentation when it starts a line.
	EndSentinel = "---CHAPTER END---"
	// SplitToken marks a split point inside a draft.
	SplitToken = "====SPLIT CHAPTER===="
	// SplitMarker is what InsertMarker places into a draft.
	SplitMarker = "\n" + SplitToken + "\n"
)

var (
	// ErrIndexOutOfRange is returned when a chapter index does not address the sequence.
	ErrIndexOutOfRange = errors.New("chapter index out of range")
	// ErrCursorOutOfRange is returned when a cursor offset lies outside the draft.
	ErrCursorOutOfRange = errors.New("cursor offset out of range")
)

// Chapter is a titled contiguous span of document text.
type Chapter struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Words returns the number of whitespace separated words in the content.
func (c Chapter) Words() int {
	return len(strings.Fields(c.Content))
}

// Sequence is an ordered list of chapters in reading order.
type Sequence []Chapter

// Clone returns a copy that shares no backing array with s.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// Valid reports whether i addresses a chapter in s.
func (s Sequence) Valid(i int) bool {
	return i >= 0 && i < len(s)
}

// Titles returns the chapter titles in order.
func (s Sequence) Titles() []string {
	titles := make([]string, len(s))
	for i, c := range s {
		titles[i] = c.Title
	}
	return titles
}

// Preview returns up to lines lines of content, each cut to width runes.
// Blank lines are skipped.
func Preview(content string, width, lines int) string {
	if width <= 0 || lines <= 0 {
		return ""
	}
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > width {
			runes := []rune(line)
			if width > 3 {
				line = string(runes[:width-3]) + "..."
			} else {
				line = string(runes[:width])
			}
		}
		out = append(out, line)
		if len(out) == lines {
			break
		}
	}
	return strings.Join(out, "\n")
}
