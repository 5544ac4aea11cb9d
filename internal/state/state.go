// Package state remembers, per document, which chapter was last open.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	stateFileName = "documents.json"
	hashBytes     = 8192 // First 8KB for content hash
)

// DocumentState stores the resume point for a single document.
type DocumentState struct {
	ActiveChapter int       `json:"active_chapter"`
	Chapters      int       `json:"chapters"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StateStore manages persistent document state.
type StateStore struct {
	path string
	data map[string]DocumentState
	mu   sync.RWMutex
}

// NewStateStore creates or loads state from dir.
func NewStateStore(dir string) (*StateStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	store := &StateStore{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]DocumentState),
	}
	if err := store.load(); err != nil {
		// Non-fatal - start with empty state
		store.data = make(map[string]DocumentState)
	}
	return store, nil
}

// HashText identifies a document by the first 8KB of its text.
func HashText(text string) string {
	b := []byte(text)
	if len(b) > hashBytes {
		b = b[:hashBytes]
	}
	return hashPrefix(b)
}

func hashPrefix(b []byte) string {
	hash := sha256.Sum256(b)
	return hex.EncodeToString(hash[:16]) // First 16 bytes = 32 hex chars
}

// ActiveChapter returns the saved active chapter for a document with
// chapters chapters. A saved index that no longer fits is ignored.
func (s *StateStore) ActiveChapter(hash string, chapters int) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[hash]
	if !ok || st.ActiveChapter < 0 || st.ActiveChapter >= chapters {
		return 0, false
	}
	return st.ActiveChapter, true
}

// SetActiveChapter saves the active chapter for a document.
func (s *StateStore) SetActiveChapter(hash string, index, chapters int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[hash] = DocumentState{
		ActiveChapter: index,
		Chapters:      chapters,
		UpdatedAt:     time.Now().UTC(),
	}
	return s.save()
}

// Clear removes saved state for a document.
func (s *StateStore) Clear(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, hash)
	return s.save()
}

func (s *StateStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *StateStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
