//go:build gui

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/metcalfc/chop/internal/chapter"
	"github.com/metcalfc/chop/internal/editor"
	"github.com/metcalfc/chop/internal/source"
)

// gui holds the window state. All fields are touched on the fyne thread.
type gui struct {
	opts    *options
	st      editor.State
	doc     document
	resume  *resumer
	watcher *source.Watcher

	win    fyne.Window
	list   *widget.List
	entry  *widget.Entry
	title  *widget.Label
	status *widget.Label
}

func (g *gui) setStatus(format string, args ...any) {
	g.status.SetText(fmt.Sprintf(format, args...))
}

func (g *gui) showError(err error) {
	log.Printf("error: %v", err)
	dialog.ShowError(err, g.win)
}

// load replaces the document. reload keeps the current chapter when it
// still exists.
func (g *gui) load(doc document, reload bool) {
	prev, hadActive := g.st.Active()
	if !reload {
		g.resume.save(g.st)
	}

	g.doc = doc
	g.st = editor.Load(doc.text)
	g.resume = newResumer(g.opts.cfg, doc.text, g.opts.fresh && !reload)

	if reload && hadActive {
		if st, err := g.st.Select(prev); err == nil {
			g.st = st
		}
	} else {
		g.st = g.resume.restore(g.st)
	}

	log.Printf("loaded id=%s chapters=%d reload=%v", doc.id, g.st.Len(), reload)
	g.refresh()
	if g.st.Len() == 0 {
		g.setStatus("No chapters detected in %s", doc.id)
	} else {
		g.setStatus("Loaded %s: %d chapters", doc.id, g.st.Len())
	}

	if !reload {
		g.watch()
	}
}

func (g *gui) watch() {
	if g.watcher != nil {
		g.watcher.Close()
		g.watcher = nil
	}
	path := g.doc.path()
	if !g.opts.cfg.Watch || path == "" {
		return
	}
	w, err := source.Watch(path)
	if err != nil {
		log.Printf("watch disabled: %v", err)
		return
	}
	g.watcher = w

	doc := g.doc
	go func() {
		for range w.Changes() {
			text, err := doc.lib.Load(context.Background(), doc.id)
			fyne.Do(func() {
				if g.watcher != w {
					return
				}
				if err != nil {
					g.setStatus("Reload failed: %v", err)
					return
				}
				g.load(document{lib: doc.lib, id: doc.id, text: text}, true)
			})
		}
	}()
}

// refresh pushes the editor state into the widgets.
func (g *gui) refresh() {
	snap := g.st.Snapshot()
	g.list.Refresh()
	if snap.Active != editor.None {
		g.list.Select(snap.Active)
		g.title.SetText(snap.Chapters[snap.Active].Title)
	} else {
		g.list.UnselectAll()
		g.title.SetText("No chapter selected")
	}
	g.entry.SetText(snap.Draft)
}

func (g *gui) selectChapter(i int) {
	if active, ok := g.st.Active(); ok && active == i {
		return
	}
	st, err := g.st.Select(i)
	if err != nil {
		g.showError(err)
		return
	}
	g.st = st
	snap := st.Snapshot()
	g.title.SetText(snap.Chapters[i].Title)
	g.entry.SetText(snap.Draft)
}

func (g *gui) insertMarker() {
	offset := runeOffset(g.entry.Text, g.entry.CursorRow, g.entry.CursorColumn)
	st, pos, err := g.st.InsertMarker(offset, offset)
	if err != nil {
		g.showError(err)
		return
	}
	g.st = st
	g.entry.SetText(st.Draft())
	g.entry.CursorRow, g.entry.CursorColumn = rowCol(st.Draft(), pos)
	g.entry.Refresh()
	g.win.Canvas().Focus(g.entry)
	g.setStatus("Split marker inserted")
}

func (g *gui) commitSplit() {
	before := g.st.Len()
	st, err := g.st.CommitSplit()
	if err != nil {
		g.showError(err)
		return
	}
	g.st = st
	g.refresh()
	if parts := st.Len() - before + 1; parts > 1 {
		g.setStatus("Split into %d chapters", parts)
	} else {
		g.setStatus("Saved")
	}
}

func (g *gui) mergeWithNext() {
	i, ok := g.st.Active()
	if !ok {
		return
	}
	st, err := g.st.MergeWithNext(i)
	if err != nil {
		g.showError(err)
		return
	}
	if st.Len() == g.st.Len() {
		g.setStatus("Last chapter has nothing to combine with")
		return
	}
	g.st = st
	g.refresh()
	g.setStatus("Combined chapter %d with the next one", i+1)
}

func (g *gui) export() {
	path := exportPath(g.opts.cfg, g.doc)
	if err := exportTo(path, g.st); err != nil {
		g.showError(err)
		return
	}
	dialog.ShowInformation("Export", fmt.Sprintf("Wrote %d chapters to %s", g.st.Len(), path), g.win)
}

func (g *gui) build(lib source.Loader, docs []string) fyne.CanvasObject {
	g.title = widget.NewLabel("")
	g.title.TextStyle.Bold = true
	g.status = widget.NewLabel("")

	g.list = widget.NewList(
		func() int { return g.st.Len() },
		func() fyne.CanvasObject {
			title := widget.NewLabel("Title")
			title.TextStyle.Bold = true
			title.Truncation = fyne.TextTruncateEllipsis
			return container.NewVBox(title, widget.NewLabel("words"), widget.NewLabel("Preview"))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			snap := g.st.Snapshot()
			if id >= len(snap.Chapters) {
				return
			}
			c := snap.Chapters[id]
			vbox := obj.(*fyne.Container)
			vbox.Objects[0].(*widget.Label).SetText(c.Title)
			vbox.Objects[1].(*widget.Label).SetText(fmt.Sprintf("%d words", c.Words()))
			vbox.Objects[2].(*widget.Label).SetText(chapter.Preview(c.Content, 50, 2))
		},
	)
	g.list.OnSelected = func(id widget.ListItemID) {
		g.selectChapter(id)
	}

	g.entry = widget.NewMultiLineEntry()
	g.entry.Wrapping = fyne.TextWrapWord
	g.entry.OnChanged = func(text string) {
		g.st = g.st.SetDraft(text)
	}

	buttons := container.NewHBox(
		widget.NewButton("Insert chapter split", g.insertMarker),
		widget.NewButton("Split", g.commitSplit),
		widget.NewButton("Combine with next", g.mergeWithNext),
	)

	var top fyne.CanvasObject = widget.NewLabel("Chapters")
	if lib != nil && len(docs) > 0 {
		picker := widget.NewSelect(docs, func(id string) {
			if id == g.doc.id && g.doc.lib == lib {
				return
			}
			text, err := lib.Load(context.Background(), id)
			if err != nil {
				g.showError(err)
				return
			}
			g.load(document{lib: lib, id: id, text: text}, false)
		})
		picker.PlaceHolder = "Select a story"
		if g.doc.id != "" {
			picker.Selected = g.doc.id
		}
		top = picker
	}

	left := container.NewBorder(top, nil, nil, nil, g.list)
	right := container.NewBorder(g.title, buttons, nil, nil, g.entry)

	split := container.NewHSplit(left, right)
	split.Offset = 0.33
	return container.NewBorder(nil, g.status, nil, nil, split)
}

func main() {
	opts := parseFlags("chop-gui", "Chop - GUI Chapter Splitter")

	if opts.cfg.LogFile != "" {
		f, err := os.OpenFile(opts.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
		log.SetPrefix("chop-gui ")
	} else {
		log.SetOutput(io.Discard)
	}

	g := &gui{opts: opts, st: editor.Load("")}

	var lib source.Loader
	var initial document
	if opts.dir != "" {
		lib = source.NewLibrary(opts.dir)
	} else {
		doc, err := loadInput(flag.Args())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if done, err := runBatch(opts, doc); done {
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
		lib = doc.lib
		initial = doc
		g.doc = doc
	}

	var docs []string
	if lib != nil {
		var err error
		if docs, err = lib.Documents(); err != nil {
			log.Printf("list documents: %v", err)
		}
	}

	a := app.New()
	g.win = a.NewWindow("chop - Chapter Splitter")
	g.win.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File", fyne.NewMenuItem("Export chapters", g.export)),
	))
	g.win.SetContent(g.build(lib, docs))
	g.win.Resize(fyne.NewSize(1000, 700))

	if initial.id != "" {
		g.load(initial, false)
	} else {
		g.setStatus("Select a story")
	}

	g.win.SetOnClosed(func() {
		g.resume.save(g.st)
		if g.watcher != nil {
			g.watcher.Close()
		}
	})

	g.win.ShowAndRun()
}
