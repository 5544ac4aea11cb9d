package chapter

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var markerLen = utf8.RuneCountInString(SplitMarker)

func TestInsertMarker(t *testing.T) {
	tests := []struct {
		name      string
		draft     string
		start     int
		end       int
		wantDraft string
		wantPos   int
	}{
		{"at start", "abc", 0, 0, SplitMarker + "abc", markerLen},
		{"in middle", "abcdef", 3, 3, "abc" + SplitMarker + "def", 3 + markerLen},
		{"at end", "abc", 3, 3, "abc" + SplitMarker, 3 + markerLen},
		{"empty draft", "", 0, 0, SplitMarker, markerLen},
		{"selection replaced", "abcdef", 1, 4, "a" + SplitMarker + "ef", 1 + markerLen},
		{"reversed selection", "abcdef", 4, 1, "a" + SplitMarker + "ef", 1 + markerLen},
		{"multibyte runes", "héllo wörld", 6, 6, "héllo " + SplitMarker + "wörld", 6 + markerLen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, pos, err := InsertMarkerSelection(tt.draft, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDraft, draft)
			assert.Equal(t, tt.wantPos, pos)
		})
	}
}

func TestInsertMarkerOutOfRange(t *testing.T) {
	for _, pos := range []int{-1, 4, 100} {
		draft, _, err := InsertMarker("abc", pos)
		assert.ErrorIs(t, err, ErrCursorOutOfRange, "pos %d", pos)
		assert.Equal(t, "abc", draft)
	}
}

func TestInsertMarkerRepeated(t *testing.T) {
	draft, pos, err := InsertMarker("one two three", 3)
	require.NoError(t, err)
	draft, _, err = InsertMarker(draft, pos+4)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(draft, SplitToken))
	assert.Equal(t, []string{"one", "two", "three"}, SplitDraft(draft))
}

func TestCommitSplit(t *testing.T) {
	base := Sequence{
		{Title: "Chapter 4 - W", Content: "before"},
		{Title: "Chapter 5 - X", Content: "old"},
		{Title: "Chapter 6 - Y", Content: "after"},
	}

	t.Run("one marker", func(t *testing.T) {
		got, err := CommitSplit(base, 1, "first\n====SPLIT CHAPTER====\nsecond")
		require.NoError(t, err)
		assert.Equal(t, Sequence{
			{Title: "Chapter 4 - W", Content: "before"},
			{Title: "Chapter 5 - X", Content: "first"},
			{Title: "Chapter 5 - X (Part 2)", Content: "second"},
			{Title: "Chapter 6 - Y", Content: "after"},
		}, got)
	})

	t.Run("no marker saves draft", func(t *testing.T) {
		got, err := CommitSplit(base, 1, "new text")
		require.NoError(t, err)
		require.Len(t, got, len(base))
		assert.Equal(t, "new text", got[1].Content)
		assert.Equal(t, "Chapter 5 - X", got[1].Title)
	})

	t.Run("empty draft", func(t *testing.T) {
		got, err := CommitSplit(base, 0, "")
		require.NoError(t, err)
		require.Len(t, got, len(base))
		assert.Equal(t, Chapter{Title: "Chapter 4 - W", Content: ""}, got[0])
	})

	t.Run("several markers", func(t *testing.T) {
		draft := "a" + SplitMarker + "b" + SplitMarker + "c"
		got, err := CommitSplit(base, 2, draft)
		require.NoError(t, err)
		require.Len(t, got, len(base)+2)
		assert.Equal(t, []string{
			"Chapter 4 - W",
			"Chapter 5 - X",
			"Chapter 6 - Y",
			"Chapter 6 - Y (Part 2)",
			"Chapter 6 - Y (Part 3)",
		}, got.Titles())
	})

	t.Run("marker whitespace consumed", func(t *testing.T) {
		got, err := CommitSplit(base, 0, "  first  ====SPLIT CHAPTER====  \n\n\t second\n")
		require.NoError(t, err)
		assert.Equal(t, "first", got[0].Content)
		assert.Equal(t, "second", got[1].Content)
	})

	t.Run("marker at end leaves empty part", func(t *testing.T) {
		got, err := CommitSplit(base, 0, "only"+SplitMarker)
		require.NoError(t, err)
		require.Len(t, got, len(base)+1)
		assert.Equal(t, Chapter{Title: "Chapter 4 - W (Part 2)", Content: ""}, got[1])
	})

	t.Run("input untouched", func(t *testing.T) {
		snapshot := base.Clone()
		_, err := CommitSplit(base, 1, "x"+SplitMarker+"y")
		require.NoError(t, err)
		assert.Equal(t, snapshot, base)
	})

	t.Run("index out of range", func(t *testing.T) {
		for _, i := range []int{-1, 3} {
			_, err := CommitSplit(base, i, "x")
			assert.ErrorIs(t, err, ErrIndexOutOfRange)
		}
		_, err := CommitSplit(nil, 0, "x")
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

func TestMergeWithNext(t *testing.T) {
	t.Run("two chapters", func(t *testing.T) {
		got, err := MergeWithNext(Sequence{{Title: "A", Content: "x"}, {Title: "B", Content: "y"}}, 0)
		require.NoError(t, err)
		assert.Equal(t, Sequence{{Title: "A", Content: "x\ny"}}, got)
	})

	t.Run("middle keeps neighbours", func(t *testing.T) {
		s := Sequence{
			{Title: "A", Content: "a"},
			{Title: "B", Content: "b1\n\nb2"},
			{Title: "C", Content: "c"},
			{Title: "D", Content: "d"},
		}
		got, err := MergeWithNext(s, 1)
		require.NoError(t, err)
		assert.Equal(t, Sequence{
			{Title: "A", Content: "a"},
			{Title: "B", Content: "b1\n\nb2\nc"},
			{Title: "D", Content: "d"},
		}, got)
	})

	t.Run("last index is a no-op", func(t *testing.T) {
		s := Sequence{{Title: "A", Content: "x"}, {Title: "B", Content: "y"}}
		got, err := MergeWithNext(s, 1)
		require.NoError(t, err)
		assert.Equal(t, s, got)

		got[0].Title = "changed"
		assert.Equal(t, "A", s[0].Title)
	})

	t.Run("empty side", func(t *testing.T) {
		got, err := MergeWithNext(Sequence{{Title: "A", Content: "x"}, {Title: "B", Content: ""}}, 0)
		require.NoError(t, err)
		assert.Equal(t, "x", got[0].Content)

		got, err = MergeWithNext(Sequence{{Title: "A", Content: ""}, {Title: "B", Content: "y"}}, 0)
		require.NoError(t, err)
		assert.Equal(t, Chapter{Title: "A", Content: "y"}, got[0])
	})

	t.Run("not transitive", func(t *testing.T) {
		s := Sequence{{Title: "A", Content: "a"}, {Title: "B", Content: "b"}, {Title: "C", Content: "c"}}
		got, err := MergeWithNext(s, 0)
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, Chapter{Title: "C", Content: "c"}, got[1])
	})

	t.Run("index out of range", func(t *testing.T) {
		s := Sequence{{Title: "A", Content: "a"}}
		for _, i := range []int{-1, 1, 5} {
			_, err := MergeWithNext(s, i)
			assert.ErrorIs(t, err, ErrIndexOutOfRange)
		}
		_, err := MergeWithNext(Sequence{}, 0)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

// Random split and merge runs must never empty the sequence or leave
// untrimmed content behind.
func TestSplitMergeInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	words := []string{"storm", "  ", "\n", "ship", "\n\n", "sea", "\t", "night"}

	s := Segment("Chapter 1 - A\nhello there\nChapter 2 - B\nworld\n\nagain\nChapter 3 - C\n")
	require.Len(t, s, 3)

	for step := 0; step < 500; step++ {
		i := rng.Intn(len(s))
		var err error
		if rng.Intn(2) == 0 {
			var sb strings.Builder
			for n := rng.Intn(6); n >= 0; n-- {
				sb.WriteString(words[rng.Intn(len(words))])
				if rng.Intn(4) == 0 {
					sb.WriteString(SplitMarker)
				}
			}
			s, err = CommitSplit(s, i, sb.String())
		} else {
			s, err = MergeWithNext(s, i)
		}
		require.NoError(t, err)
		require.NotEmpty(t, s)
		for _, c := range s {
			require.Equal(t, strings.TrimSpace(c.Content), c.Content, "step %d", step)
			require.NotContains(t, c.Content, SplitToken)
		}
	}
}
