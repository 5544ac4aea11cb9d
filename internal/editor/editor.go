// Package editor holds the chapter editing session: the chapter sequence,
// the active chapter and its uncommitted draft.
//
// State is a value. Every transition returns a new State and leaves the
// receiver untouched, so a caller rendering a State never sees a half
// applied change.
package editor

import (
	"fmt"

	"github.com/metcalfc/chop/internal/chapter"
)

// None is the active index of a session with no chapters.
const None = -1

// State is one snapshot of an editing session.
type State struct {
	chapters chapter.Sequence
	active   int
	draft    string
}

// Snapshot is the read model handed to a display layer.
type Snapshot struct {
	Chapters chapter.Sequence
	Active   int
	Draft    string
	Dirty    bool
}

// Load segments text into a fresh session. The first chapter becomes active;
// a document without chapters has no active chapter.
func Load(text string) State {
	return FromSequence(chapter.Segment(text))
}

// FromSequence starts a session on an existing sequence.
func FromSequence(s chapter.Sequence) State {
	st := State{chapters: s.Clone(), active: None}
	if len(st.chapters) > 0 {
		st = st.activate(0)
	}
	return st
}

// activate makes i active and resets the draft to its stored content.
func (st State) activate(i int) State {
	st.active = i
	st.draft = st.chapters[i].Content
	return st
}

// Chapters returns a copy of the committed chapter sequence.
func (st State) Chapters() chapter.Sequence {
	return st.chapters.Clone()
}

// Len returns the number of chapters.
func (st State) Len() int {
	return len(st.chapters)
}

// Active returns the active chapter index, or None and false when there is
// no active chapter.
func (st State) Active() (int, bool) {
	if len(st.chapters) == 0 {
		return None, false
	}
	return st.active, true
}

// ActiveChapter returns the committed version of the active chapter.
func (st State) ActiveChapter() (chapter.Chapter, bool) {
	i, ok := st.Active()
	if !ok {
		return chapter.Chapter{}, false
	}
	return st.chapters[i], true
}

// Draft returns the working copy of the active chapter's content.
func (st State) Draft() string {
	return st.draft
}

// Dirty reports whether the draft differs from the stored content.
func (st State) Dirty() bool {
	c, ok := st.ActiveChapter()
	return ok && c.Content != st.draft
}

// Snapshot returns everything a display layer needs for one frame.
func (st State) Snapshot() Snapshot {
	return Snapshot{
		Chapters: st.Chapters(),
		Active:   st.active,
		Draft:    st.draft,
		Dirty:    st.Dirty(),
	}
}

// Select makes chapter i active. Any uncommitted draft is discarded.
func (st State) Select(i int) (State, error) {
	if !st.chapters.Valid(i) {
		return st, fmt.Errorf("select %d: %w", i, chapter.ErrIndexOutOfRange)
	}
	return st.activate(i), nil
}

// SetDraft replaces the draft text.
func (st State) SetDraft(draft string) State {
	if _, ok := st.Active(); !ok {
		return st
	}
	st.draft = draft
	return st
}

// InsertMarker places a split marker over the draft selection [start, end)
// and returns the cursor offset just after it.
func (st State) InsertMarker(start, end int) (State, int, error) {
	if _, ok := st.Active(); !ok {
		return st, 0, fmt.Errorf("insert marker: %w", chapter.ErrIndexOutOfRange)
	}
	draft, pos, err := chapter.InsertMarkerSelection(st.draft, start, end)
	if err != nil {
		return st, 0, fmt.Errorf("insert marker: %w", err)
	}
	st.draft = draft
	return st, pos, nil
}

// CommitSplit stores the draft, splitting the active chapter at every
// marker. The first piece stays active.
func (st State) CommitSplit() (State, error) {
	s, err := chapter.CommitSplit(st.chapters, st.active, st.draft)
	if err != nil {
		return st, fmt.Errorf("commit split: %w", err)
	}
	st.chapters = s
	return st.activate(st.active), nil
}

// MergeWithNext merges chapter i with the following chapter and makes the
// result active. Merging the last chapter leaves the state as it is.
func (st State) MergeWithNext(i int) (State, error) {
	if st.chapters.Valid(i) && i == len(st.chapters)-1 {
		return st, nil
	}
	s, err := chapter.MergeWithNext(st.chapters, i)
	if err != nil {
		return st, fmt.Errorf("merge: %w", err)
	}
	st.chapters = s
	return st.activate(i), nil
}

// Export renders the committed chapters in the heading format. The
// uncommitted draft is not included.
func (st State) Export() string {
	return chapter.Format(st.chapters)
}
