package chapter

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// InsertMarker inserts SplitMarker at rune offset pos in draft. It returns
// the new draft and the offset just after the marker.
func InsertMarker(draft string, pos int) (string, int, error) {
	return InsertMarkerSelection(draft, pos, pos)
}

// InsertMarkerSelection replaces the runes in [start, end) with SplitMarker,
// collapsing the selection onto the marker. Reversed bounds are accepted.
func InsertMarkerSelection(draft string, start, end int) (string, int, error) {
	if end < start {
		start, end = end, start
	}
	runes := []rune(draft)
	if start < 0 || end > len(runes) {
		return draft, 0, fmt.Errorf("%w: selection [%d, %d] in draft of %d runes",
			ErrCursorOutOfRange, start, end, len(runes))
	}

	var sb strings.Builder
	sb.Grow(len(draft) + len(SplitMarker))
	sb.WriteString(string(runes[:start]))
	sb.WriteString(SplitMarker)
	sb.WriteString(string(runes[end:]))

	return sb.String(), start + utf8.RuneCountInString(SplitMarker), nil
}

// SplitDraft cuts draft at every SplitToken and trims each piece, so the
// marker and the whitespace around it never reach chapter content. A draft
// without markers yields one piece.
func SplitDraft(draft string) []string {
	pieces := strings.Split(draft, SplitToken)
	for i := range pieces {
		pieces[i] = strings.TrimSpace(pieces[i])
	}
	return pieces
}

// PartTitle returns the title of piece k (zero based) of a chapter split
// from title. Piece 0 keeps the original title.
func PartTitle(title string, k int) string {
	if k == 0 {
		return title
	}
	return fmt.Sprintf("%s (Part %d)", title, k+1)
}

// CommitSplit replaces the chapter at active with one chapter per piece of
// draft. Without markers it only stores draft as the chapter's content.
func CommitSplit(s Sequence, active int, draft string) (Sequence, error) {
	if !s.Valid(active) {
		return nil, fmt.Errorf("%w: commit at %d, sequence has %d chapters",
			ErrIndexOutOfRange, active, len(s))
	}

	pieces := SplitDraft(draft)
	title := s[active].Title

	out := make(Sequence, 0, len(s)+len(pieces)-1)
	out = append(out, s[:active]...)
	for k, content := range pieces {
		out = append(out, Chapter{Title: PartTitle(title, k), Content: content})
	}
	out = append(out, s[active+1:]...)

	return out, nil
}

// MergeWithNext joins the chapter at i with the one after it, keeping the
// first title. Merging the last chapter returns an unchanged copy.
//
// The contents are joined with a newline only when both are non-empty, so
// merging into or from an empty chapter yields the other content as is
// rather than a leading or trailing newline.
func MergeWithNext(s Sequence, i int) (Sequence, error) {
	if !s.Valid(i) {
		return nil, fmt.Errorf("%w: merge at %d, sequence has %d chapters",
			ErrIndexOutOfRange, i, len(s))
	}
	if i == len(s)-1 {
		return s.Clone(), nil
	}

	merged := Chapter{
		Title:   s[i].Title,
		Content: joinContent(s[i].Content, s[i+1].Content),
	}

	out := make(Sequence, 0, len(s)-1)
	out = append(out, s[:i]...)
	out = append(out, merged)
	out = append(out, s[i+2:]...)

	return out, nil
}

// joinContent puts b on the line after a. An empty side contributes nothing,
// so a trimmed pair stays trimmed.
func joinContent(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "\n" + b
}
