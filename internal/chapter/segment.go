package chapter

import "strings"

// Segment splits text into chapters.
//
// A heading is any line that starts with HeadingPrefix. A chapter's content
// runs from the line after its heading up to the next heading, a line
// starting with EndSentinel, or the end of text, whichever comes first.
// Text before the first heading is dropped. Text without headings yields an
// empty sequence.
func Segment(text string) Sequence {
	chapters := Sequence{}

	title := ""
	start := -1 // content offset of the open chapter, -1 when none is open
	closeAt := func(end int) {
		if start < 0 {
			return
		}
		chapters = append(chapters, Chapter{
			Title:   title,
			Content: strings.TrimSpace(text[start:end]),
		})
		start = -1
	}

	for pos := 0; pos < len(text); {
		lineEnd, next := len(text), len(text)
		if i := strings.IndexByte(text[pos:], '\n'); i >= 0 {
			lineEnd = pos + i
			next = lineEnd + 1
		}
		line := text[pos:lineEnd]

		switch {
		case strings.HasPrefix(line, HeadingPrefix):
			closeAt(pos)
			title = headingTitle(line)
			start = next
		case strings.HasPrefix(line, EndSentinel):
			closeAt(pos)
			return chapters
		}
		pos = next
	}
	closeAt(len(text))

	return chapters
}

// headingTitle rebuilds the title from a heading line.
func headingTitle(line string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(line, HeadingPrefix))
	return strings.TrimSpace(HeadingPrefix + rest)
}

// headingLine returns the line Format writes for title so that Segment
// recognises it again.
func headingLine(title string) string {
	switch {
	case strings.HasPrefix(title, HeadingPrefix):
		return title
	case title == strings.TrimSpace(HeadingPrefix):
		return HeadingPrefix
	default:
		return HeadingPrefix + title
	}
}

// Format renders s in the heading format Segment reads: each chapter is its
// heading line followed by its content, and chapters are separated by a
// blank line.
func Format(s Sequence) string {
	var sb strings.Builder
	for i, c := range s {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(headingLine(c.Title))
		sb.WriteString("\n")
		sb.WriteString(c.Content)
	}
	if len(s) > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}
