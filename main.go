//go:build !gui

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/metcalfc/chop/internal/chapter"
	"github.com/metcalfc/chop/internal/config"
	"github.com/metcalfc/chop/internal/editor"
	"github.com/metcalfc/chop/internal/source"
)

const (
	listWidth   = 40
	cardHeight  = 6
	loadTimeout = 30 * time.Second
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7AA2F7"))

	docStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	activeCardStyle = cardStyle.
			BorderForeground(lipgloss.Color("#7AA2F7"))

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7AA2F7")).
			Background(lipgloss.Color("#1F2A44")).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	editorStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Padding(0, 1)

	pickStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)
)

type focus int

const (
	focusList focus = iota
	focusDraft
	focusPicker
)

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Edit      key.Binding
	Back      key.Binding
	Merge     key.Binding
	Export    key.Binding
	Open      key.Binding
	Pick      key.Binding
	Marker    key.Binding
	Split     key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
	Edit:      key.NewBinding(key.WithKeys("enter", "tab", "e"), key.WithHelp("enter", "edit")),
	Back:      key.NewBinding(key.WithKeys("esc", "tab"), key.WithHelp("esc", "chapters")),
	Merge:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "combine with next")),
	Export:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write chapters")),
	Open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open story")),
	Pick:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Marker:    key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "insert chapter split")),
	Split:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "split/save")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
}

// bindings adapts a flat binding list to help.KeyMap.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

type docLoadedMsg struct {
	lib  source.Loader
	id   string
	text string
	err  error
}

type docChangedMsg struct{}

type model struct {
	cfg     *config.Config
	fresh   bool
	st      editor.State
	doc     document
	loaded  bool
	resume  *resumer
	watcher *source.Watcher

	// story picker
	lib  source.Loader
	docs []string
	pick int

	ta    textarea.Model
	help  help.Model
	focus focus

	status    string
	statusErr bool

	quitting bool
	width    int
	height   int
}

func newModel(cfg *config.Config, fresh bool) model {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Placeholder = "No chapter selected"

	m := model{
		cfg:    cfg,
		fresh:  fresh,
		st:     editor.Load(""),
		ta:     ta,
		help:   help.New(),
		focus:  focusList,
		width:  100,
		height: 30,
	}
	m.resize()
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.doc.id != "" && !m.loaded {
		doc := m.doc
		cmds = append(cmds, func() tea.Msg {
			return docLoadedMsg{lib: doc.lib, id: doc.id, text: doc.text}
		})
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case docLoadedMsg:
		return m.onLoaded(msg)

	case docChangedMsg:
		log.Printf("document changed id=%s", m.doc.id)
		return m, tea.Batch(loadDoc(m.doc.lib, m.doc.id), waitForChange(m.watcher))

	case tea.KeyMsg:
		if key.Matches(msg, keys.ForceQuit) {
			return m.quit()
		}
		switch m.focus {
		case focusPicker:
			return m.updatePicker(msg)
		case focusList:
			return m.updateList(msg)
		case focusDraft:
			return m.updateDraft(msg)
		}
	}

	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

func (m model) onLoaded(msg docLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.Printf("load failed id=%s: %v", msg.id, msg.err)
		m.setStatus(true, "Error: %v", msg.err)
		return m, nil
	}

	reload := m.loaded && msg.id == m.doc.id && msg.lib == m.doc.lib
	prev, hadActive := m.st.Active()
	if m.loaded && !reload {
		m.resume.save(m.st)
	}

	m.doc = document{lib: msg.lib, id: msg.id, text: msg.text}
	m.loaded = true
	m.st = editor.Load(msg.text)
	m.resume = newResumer(m.cfg, msg.text, m.fresh && !reload)

	if reload && hadActive {
		if st, err := m.st.Select(prev); err == nil {
			m.st = st
		}
	} else {
		m.st = m.resume.restore(m.st)
	}

	m.focus = focusList
	m.ta.Blur()
	m.syncDraft()

	log.Printf("loaded id=%s chapters=%d reload=%v", msg.id, m.st.Len(), reload)
	if m.st.Len() == 0 {
		m.setStatus(false, "No chapters detected in %s", msg.id)
	} else {
		m.setStatus(false, "Loaded %s: %d chapters", msg.id, m.st.Len())
	}

	if reload {
		return m, nil
	}
	cmd := m.watch()
	return m, cmd
}

// watch replaces the file watcher with one for the current document.
func (m *model) watch() tea.Cmd {
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
	}
	path := m.doc.path()
	if !m.cfg.Watch || path == "" {
		return nil
	}
	w, err := source.Watch(path)
	if err != nil {
		log.Printf("watch disabled: %v", err)
		return nil
	}
	m.watcher = w
	return waitForChange(w)
}

func (m model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()
	case key.Matches(msg, keys.Up):
		if m.pick > 0 {
			m.pick--
		}
	case key.Matches(msg, keys.Down):
		if m.pick < len(m.docs)-1 {
			m.pick++
		}
	case key.Matches(msg, keys.Pick):
		if len(m.docs) > 0 {
			m.setStatus(false, "Loading %s...", m.docs[m.pick])
			return m, loadDoc(m.lib, m.docs[m.pick])
		}
	case key.Matches(msg, keys.Back):
		if m.loaded {
			m.focus = focusList
		}
	}
	return m, nil
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active, ok := m.st.Active()

	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Open):
		if m.lib != nil {
			m.focus = focusPicker
		}

	case !ok:
		return m, nil

	case key.Matches(msg, keys.Up):
		m.selectChapter(active - 1)

	case key.Matches(msg, keys.Down):
		m.selectChapter(active + 1)

	case key.Matches(msg, keys.Edit):
		m.focus = focusDraft
		cmd := m.ta.Focus()
		return m, cmd

	case key.Matches(msg, keys.Merge):
		st, err := m.st.MergeWithNext(active)
		if err != nil {
			m.setStatus(true, "Error: %v", err)
			return m, nil
		}
		if st.Len() == m.st.Len() {
			m.setStatus(false, "Last chapter has nothing to combine with")
			return m, nil
		}
		m.st = st
		m.syncDraft()
		log.Printf("merged index=%d chapters=%d", active, st.Len())
		m.setStatus(false, "Combined chapter %d with the next one", active+1)

	case key.Matches(msg, keys.Export):
		path := exportPath(m.cfg, m.doc)
		if err := exportTo(path, m.st); err != nil {
			m.setStatus(true, "Error: %v", err)
		} else {
			m.setStatus(false, "Wrote %d chapters to %s", m.st.Len(), path)
		}
	}
	return m, nil
}

func (m model) updateDraft(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.focus = focusList
		m.ta.Blur()
		return m, nil

	case key.Matches(msg, keys.Marker):
		offset := cursorOffset(m.ta)
		st, pos, err := m.st.InsertMarker(offset, offset)
		if err != nil {
			m.setStatus(true, "Error: %v", err)
			return m, nil
		}
		m.st = st
		m.ta.SetValue(st.Draft())
		setCursorOffset(&m.ta, pos)
		m.setStatus(false, "Split marker inserted; ctrl+s to split")
		return m, nil

	case key.Matches(msg, keys.Split):
		before := m.st.Len()
		st, err := m.st.CommitSplit()
		if err != nil {
			m.setStatus(true, "Error: %v", err)
			return m, nil
		}
		m.st = st
		m.syncDraft()
		active, _ := st.Active()
		log.Printf("split index=%d chapters=%d", active, st.Len())
		if parts := st.Len() - before + 1; parts > 1 {
			m.setStatus(false, "Split into %d chapters", parts)
		} else {
			m.setStatus(false, "Saved")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	m.st = m.st.SetDraft(m.ta.Value())
	return m, cmd
}

func (m *model) selectChapter(i int) {
	st, err := m.st.Select(i)
	if err != nil {
		return
	}
	m.st = st
	m.syncDraft()
}

// syncDraft loads the session draft into the text area.
func (m *model) syncDraft() {
	m.ta.SetValue(m.st.Draft())
	setCursorOffset(&m.ta, 0)
}

func (m *model) setStatus(isErr bool, format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = isErr
}

func (m model) quit() (tea.Model, tea.Cmd) {
	m.resume.save(m.st)
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.quitting = true
	return m, tea.Quit
}

func (m *model) resize() {
	// header, status and help lines plus the editor border
	bodyHeight := max(m.height-3, 4)
	m.ta.SetWidth(max(m.width-listWidth-6, 20))
	m.ta.SetHeight(max(bodyHeight-3, 3))
	m.help.Width = m.width
}

func (m model) helpKeys() help.KeyMap {
	switch m.focus {
	case focusPicker:
		return bindings{keys.Up, keys.Down, keys.Pick, keys.Quit}
	case focusDraft:
		return bindings{keys.Marker, keys.Split, keys.Back}
	}
	b := bindings{keys.Up, keys.Down, keys.Edit, keys.Merge, keys.Export}
	if m.lib != nil {
		b = append(b, keys.Open)
	}
	return append(b, keys.Quit)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.st.Snapshot()

	header := headerStyle.Render("chop")
	if m.loaded {
		header += " " + docStyle.Render(fmt.Sprintf("%s · %d chapters", m.doc.id, len(snap.Chapters)))
	}

	var body string
	switch {
	case m.focus == focusPicker:
		body = m.pickerView()
	case !m.loaded:
		body = mutedStyle.Render("Loading...")
	case len(snap.Chapters) == 0:
		body = mutedStyle.Render("No chapters detected. Headings must start a line with \"" + chapter.HeadingPrefix + "\".")
	default:
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.listView(snap), m.draftView(snap))
	}

	status := statusStyle.Render(m.status)
	if m.statusErr {
		status = errorStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		status,
		m.help.View(m.helpKeys()),
	)
}

func (m model) pickerView() string {
	var sb strings.Builder
	sb.WriteString("Select a story\n\n")
	if len(m.docs) == 0 {
		sb.WriteString(mutedStyle.Render("No supported documents found."))
	}
	for i, id := range m.docs {
		if i == m.pick {
			sb.WriteString(pickStyle.Render("> " + id))
		} else {
			sb.WriteString("  " + id)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m model) listView(snap editor.Snapshot) string {
	chapters := snap.Chapters
	active := snap.Active

	visible := max((m.height-3)/cardHeight, 1)
	start := 0
	if active >= visible {
		start = active - visible + 1
	}
	end := min(start+visible, len(chapters))

	inner := listWidth - 4
	cards := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		c := chapters[i]

		title := truncate(c.Title, inner)
		style := cardStyle
		if i == active {
			style = activeCardStyle
			badge := badgeStyle.Render("Editing")
			title = badge + " " + truncate(c.Title, inner-lipgloss.Width(badge)-1)
		}

		meta := mutedStyle.Render(fmt.Sprintf("%d words", c.Words()))
		preview := chapter.Preview(c.Content, inner, 2)
		cards = append(cards, style.Width(listWidth-2).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, meta, preview),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m model) draftView(snap editor.Snapshot) string {
	title := headerStyle.Render(snap.Chapters[snap.Active].Title)
	if snap.Dirty {
		title += mutedStyle.Render(" (unsaved)")
	}
	return editorStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, m.ta.View()))
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}

// cursorOffset returns the text area cursor as a rune offset into its value.
func cursorOffset(ta textarea.Model) int {
	li := ta.LineInfo()
	return runeOffset(ta.Value(), ta.Line(), li.StartColumn+li.ColumnOffset)
}

// setCursorOffset moves the text area cursor to a rune offset.
func setCursorOffset(ta *textarea.Model, offset int) {
	value := ta.Value()
	row, col := rowCol(value, offset)

	// CursorUp and CursorDown step through soft wrapped rows, so bound the
	// walk by the value length rather than the line count.
	steps := utf8.RuneCountInString(value) + ta.LineCount() + 1
	for i := 0; ta.Line() > row && i < steps; i++ {
		ta.CursorUp()
	}
	for i := 0; ta.Line() < row && i < steps; i++ {
		ta.CursorDown()
	}
	ta.SetCursor(col)
}

func loadDoc(lib source.Loader, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		text, err := lib.Load(ctx, id)
		return docLoadedMsg{lib: lib, id: id, text: text, err: err}
	}
}

func waitForChange(w *source.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-w.Changes(); !ok {
			return nil
		}
		return docChangedMsg{}
	}
}

func run() error {
	opts := parseFlags("chop", "Chop - Terminal Chapter Splitter")

	if opts.cfg.LogFile != "" {
		f, err := tea.LogToFile(opts.cfg.LogFile, "chop")
		if err != nil {
			return err
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	m := newModel(opts.cfg, opts.fresh)

	if opts.dir != "" {
		m.lib = source.NewLibrary(opts.dir)
		docs, err := m.lib.Documents()
		if err != nil {
			return err
		}
		m.docs = docs
		m.focus = focusPicker
	} else {
		doc, err := loadInput(flag.Args())
		if err != nil {
			return err
		}
		if done, err := runBatch(opts, doc); done {
			return err
		}
		m.doc = doc
		if doc.lib != nil {
			m.lib = doc.lib
			if docs, err := doc.lib.Documents(); err == nil {
				m.docs = docs
			}
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
