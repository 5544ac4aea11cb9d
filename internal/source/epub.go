package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/metcalfc/chop/internal/chapter"
	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
)

// EPUBFormat implements Format for EPUB files. Each spine item with text
// becomes one chapter, titled from the NCX table of contents when possible.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }
func (f *EPUBFormat) Extract(filename string) (string, error) {
	return ExtractTextFromEPUB(filename)
}

// ExtractTextFromEPUB renders an EPUB as a manuscript with one heading per
// spine item.
func ExtractTextFromEPUB(filename string) (string, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return "", fmt.Errorf("no rootfiles found in epub")
	}

	book := rc.Rootfiles[0]
	titles := buildTOCHrefMap(filename, book)

	var out strings.Builder
	n := 0

	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}

		text := extractTextFromHTML(string(data))
		if text == "" {
			continue
		}
		n++

		// Books that already head their sections "Chapter ..." keep them.
		if !strings.HasPrefix(text, chapter.HeadingPrefix) {
			title := lookupTitle(titles, ref.Item.HREF)
			if title == "" {
				title = fmt.Sprintf("Section %d", i+1)
			}
			fmt.Fprintf(&out, "%s%d - %s\n\n", chapter.HeadingPrefix, n, title)
		}
		out.WriteString(text)
		out.WriteString("\n\n")
	}

	return out.String(), nil
}

// blockElements end a paragraph in extracted text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "section": true, "pre": true, "hr": true,
}

// skippedElements hold no readable text.
var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true,
}

// extractTextFromHTML returns the readable text of an XHTML document, one
// blank-line separated paragraph per block element.
func extractTextFromHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var paras []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			paras = append(paras, cur.String())
			cur.Reset()
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if words := strings.Fields(n.Data); len(words) > 0 {
				if cur.Len() > 0 {
					cur.WriteString(" ")
				}
				cur.WriteString(strings.Join(words, " "))
			}
		case html.ElementNode:
			if skippedElements[n.Data] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			flush()
		}
	}
	walk(doc)
	flush()

	return strings.Join(paras, "\n\n")
}
