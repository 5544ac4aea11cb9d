package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/metcalfc/chop/internal/chapter"
	"github.com/metcalfc/chop/internal/config"
	"github.com/metcalfc/chop/internal/editor"
	"github.com/metcalfc/chop/internal/source"
	"github.com/metcalfc/chop/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// stdinID names a document read from standard input.
const stdinID = "stdin"

type options struct {
	cfg    *config.Config
	dir    string
	list   bool
	output string
	fresh  bool
}

func parseFlags(prog, title string) *options {
	cfg := config.Load()
	opts := &options{cfg: cfg}

	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.StringVar(&opts.dir, "dir", "", "Pick a document from this directory")
	flag.BoolVar(&opts.list, "list", false, "Print the detected chapters and exit")
	flag.StringVar(&opts.output, "o", "", "Write the segmented manuscript to `file` and exit")
	flag.BoolVar(&opts.fresh, "fresh", false, "Ignore the saved active chapter")
	flag.StringVar(&cfg.StateDir, "state", cfg.StateDir, "Directory for saved state")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Write debug log to `file`")
	flag.BoolVar(&cfg.Watch, "watch", cfg.Watch, "Reload the document when it changes on disk")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", title)
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options] [file]\n\n", prog)
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nFormats: %s\n", strings.Join(source.SupportedFormats(), ", "))
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s book.txt                Edit the chapters of book.txt\n", prog)
		fmt.Fprintf(os.Stderr, "  %s -dir stories            Choose a story from a directory\n", prog)
		fmt.Fprintf(os.Stderr, "  %s -list book.epub         List detected chapters\n", prog)
		fmt.Fprintf(os.Stderr, "  cat book.txt | %s -list    Read from stdin\n", prog)
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("%s %s (commit: %s, built: %s)\n", prog, version, commit, date)
		os.Exit(0)
	}
	return opts
}

// document is a loaded manuscript and where it came from.
type document struct {
	lib  source.Loader // nil for stdin
	id   string
	text string
}

func (d document) path() string {
	if d.lib == nil {
		return ""
	}
	return d.lib.Path(d.id)
}

// loadInput reads the file argument, or stdin when there is none.
func loadInput(args []string) (document, error) {
	if len(args) > 0 {
		lib, id := source.ForFile(args[0])
		text, err := lib.Load(context.Background(), id)
		if err != nil {
			return document{}, fmt.Errorf("failed to read file '%s': %w", args[0], err)
		}
		return document{lib: lib, id: id, text: text}, nil
	}

	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return document{}, fmt.Errorf("no input provided. Provide a file, -dir, or pipe text to stdin")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return document{}, fmt.Errorf("reading stdin: %w", err)
	}
	return document{id: stdinID, text: string(data)}, nil
}

// runBatch handles -list and -o. It reports whether the program is done.
func runBatch(opts *options, doc document) (bool, error) {
	if !opts.list && opts.output == "" {
		return false, nil
	}
	st := editor.Load(doc.text)
	if opts.list {
		printChapters(os.Stdout, st.Chapters())
	}
	if opts.output != "" {
		if err := exportTo(opts.output, st); err != nil {
			return true, err
		}
	}
	return true, nil
}

func printChapters(w io.Writer, s chapter.Sequence) {
	if len(s) == 0 {
		color.New(color.FgRed).Fprintln(w, "No chapters detected.")
		return
	}
	title := color.New(color.FgYellow, color.Bold)
	for i, c := range s {
		fmt.Fprintf(w, "%3d. %s %s\n", i+1, title.Sprint(c.Title), color.HiBlackString("(%d words)", c.Words()))
	}
}

func exportTo(path string, st editor.State) error {
	if err := os.WriteFile(path, []byte(st.Export()), 0644); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	log.Printf("exported chapters=%d path=%s", st.Len(), path)
	return nil
}

// exportPath returns where the UI writes a document's chapters.
func exportPath(cfg *config.Config, doc document) string {
	if p := doc.path(); p != "" {
		return cfg.ExportPath(p)
	}
	return cfg.ExportPath(stdinID)
}

// resumer restores and records the active chapter of one document.
type resumer struct {
	store *state.StateStore
	hash  string
}

// newResumer opens the state store for text. fresh forgets the saved
// chapter first.
func newResumer(cfg *config.Config, text string, fresh bool) *resumer {
	store, err := state.NewStateStore(cfg.StateDir)
	if err != nil {
		log.Printf("state store unavailable: %v", err)
		return nil
	}
	r := &resumer{store: store, hash: state.HashText(text)}
	if fresh {
		if err := store.Clear(r.hash); err != nil {
			log.Printf("clear state: %v", err)
		}
	}
	return r
}

func (r *resumer) restore(st editor.State) editor.State {
	if r == nil {
		return st
	}
	i, ok := r.store.ActiveChapter(r.hash, st.Len())
	if !ok {
		return st
	}
	if next, err := st.Select(i); err == nil {
		return next
	}
	return st
}

func (r *resumer) save(st editor.State) {
	if r == nil {
		return
	}
	i, ok := st.Active()
	if !ok {
		return
	}
	if err := r.store.SetActiveChapter(r.hash, i, st.Len()); err != nil {
		log.Printf("save state: %v", err)
	}
}

// rowCol converts a rune offset in text to a line and rune column.
// Offsets past the end land at the end of the last line.
func rowCol(text string, offset int) (row, col int) {
	if offset < 0 {
		return 0, 0
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		n := utf8.RuneCountInString(line)
		if offset <= n || i == len(lines)-1 {
			return i, min(offset, n)
		}
		offset -= n + 1
	}
	return 0, 0
}

// runeOffset converts a line and rune column in text to a rune offset.
// Out of range positions are clamped to the text.
func runeOffset(text string, row, col int) int {
	lines := strings.Split(text, "\n")
	if row < 0 {
		return 0
	}
	if row >= len(lines) {
		return utf8.RuneCountInString(text)
	}
	offset := 0
	for _, line := range lines[:row] {
		offset += utf8.RuneCountInString(line) + 1
	}
	if n := utf8.RuneCountInString(lines[row]); col > n {
		col = n
	}
	if col < 0 {
		col = 0
	}
	return offset + col
}
