package orgcore

import (
	"sync"
)

// DocumentStore is the persistence boundary for the settings document. The
// host supplies an implementation backed by whatever it uses for key-value
// storage; the core ships a memory store and a file store.
//
// Load must treat an absent document as an empty one, not an error. Errors
// are reserved for the backing store being genuinely unavailable.
type DocumentStore interface {
	// Load reads the current settings document.
	Load() (SettingsDocument, error)

	// Store atomically replaces the settings document.
	Store(doc SettingsDocument) error
}

// MemoryDocumentStore is an in-process DocumentStore. It is the reference
// implementation for tests and for hosts that persist the document
// themselves and only need the typed view.
type MemoryDocumentStore struct {
	mu  sync.RWMutex
	doc SettingsDocument
}

// NewMemoryDocumentStore creates an empty in-memory document store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{}
}

// Load returns a copy of the held document.
func (m *MemoryDocumentStore) Load() (SettingsDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneSettingsDocument(m.doc), nil
}

// Store replaces the held document with a copy of doc.
func (m *MemoryDocumentStore) Store(doc SettingsDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = cloneSettingsDocument(doc)
	return nil
}
