package media

import (
	"sync"

	"github.com/google/uuid"
)

type preview struct {
	data []byte
	mime string
}

// PreviewStore holds ephemeral preview payloads keyed by revocable handles.
// Handles are valid only for the lifetime of the process; nothing is ever
// written to disk.
type PreviewStore struct {
	mu    sync.Mutex
	items map[string]preview
}

func NewPreviewStore() *PreviewStore {
	return &PreviewStore{items: make(map[string]preview)}
}

// Put registers a payload and returns its handle.
func (s *PreviewStore) Put(data []byte, mimeType string) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.items[id] = preview{data: data, mime: mimeType}
	s.mu.Unlock()
	return id
}

// Get returns the payload for a handle, if it is still valid.
func (s *PreviewStore) Get(id string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, "", false
	}
	return p.data, p.mime, true
}

// Revoke invalidates a handle. Revoking an unknown handle is a no-op.
func (s *PreviewStore) Revoke(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// Len reports the number of live handles.
func (s *PreviewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
