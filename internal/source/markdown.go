package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/metcalfc/chop/internal/chapter"
)

// MarkdownFormat implements Format for Markdown files. Level one headers
// become chapter headings; everything else passes through.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

func (f *MarkdownFormat) Extract(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	return markdownToManuscript(file)
}

// headerRegex matches markdown headers (# to ######)
var headerRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

func markdownToManuscript(r io.Reader) (string, error) {
	var sb strings.Builder
	n := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if match := headerRegex.FindStringSubmatch(line); match != nil && len(match[1]) == 1 {
			n++
			title := strings.TrimSpace(match[2])
			if strings.HasPrefix(title, chapter.HeadingPrefix) {
				line = title
			} else {
				line = fmt.Sprintf("%s%d - %s", chapter.HeadingPrefix, n, title)
			}
		}

		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String(), scanner.Err()
}
