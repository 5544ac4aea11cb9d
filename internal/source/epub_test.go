package source

import (
	"os"
	"testing"

	"github.com/metcalfc/chop/internal/chapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextFromHTML(t *testing.T) {
	htmlContent := `
	<html>
		<head><title>Test</title><style>p { color: red; }</style></head>
		<body>
			<h1>The Storm</h1>
			<p>This is the <b>first</b> paragraph.</p>
			<p>
				This is the second paragraph
				with a newline.
			</p>
			<div>Some <span>nested</span> text.</div>
		</body>
	</html>
	`

	expected := "The Storm\n\n" +
		"This is the first paragraph.\n\n" +
		"This is the second paragraph with a newline.\n\n" +
		"Some nested text."

	assert.Equal(t, expected, extractTextFromHTML(htmlContent))
}

func TestExtractTextFromHTMLEmpty(t *testing.T) {
	assert.Equal(t, "", extractTextFromHTML("<html><head><title>x</title></head><body> </body></html>"))
}

func TestParseNCXTitles(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
<ncx>
  <navMap>
    <navPoint id="n1" playOrder="1">
      <navLabel><text> Arrival </text></navLabel>
      <content src="text/ch01.xhtml"/>
      <navPoint id="n1a" playOrder="2">
        <navLabel><text>Arrival, continued</text></navLabel>
        <content src="text/ch01.xhtml#part2"/>
      </navPoint>
    </navPoint>
    <navPoint id="n2" playOrder="3">
      <navLabel><text>The Storm</text></navLabel>
      <content src="text/ch02.xhtml#start"/>
    </navPoint>
  </navMap>
</ncx>`)

	titles := parseNCXTitles(data)

	assert.Equal(t, "Arrival", lookupTitle(titles, "text/ch01.xhtml"))
	assert.Equal(t, "Arrival", lookupTitle(titles, "OEBPS/ch01.xhtml"))
	assert.Equal(t, "The Storm", lookupTitle(titles, "text/ch02.xhtml"))
	assert.Equal(t, "", lookupTitle(titles, "text/ch03.xhtml"))
	assert.Equal(t, "", lookupTitle(titles, ""))

	assert.Empty(t, parseNCXTitles([]byte("not xml")))
}

func TestEPUBFormat(t *testing.T) {
	f := &EPUBFormat{}
	if f.Name() != "EPUB" {
		t.Errorf("Name() = %q, want EPUB", f.Name())
	}
	if exts := f.Extensions(); len(exts) != 1 || exts[0] != ".epub" {
		t.Errorf("Extensions() = %v, want [.epub]", exts)
	}
}

func TestEPUBExtract(t *testing.T) {
	// Skip if SherlockHolmes.epub doesn't exist
	epubPath := "../../SherlockHolmes.epub"
	if _, err := os.Stat(epubPath); os.IsNotExist(err) {
		t.Skip("SherlockHolmes.epub not found, skipping test")
	}

	text, err := ExtractTextFromEPUB(epubPath)
	require.NoError(t, err)

	chapters := chapter.Segment(text)
	require.NotEmpty(t, chapters)

	t.Logf("Found %d chapters", len(chapters))
	for i, ch := range chapters {
		t.Logf("%d. %s (%d words)", i+1, ch.Title, ch.Words())
	}
}
