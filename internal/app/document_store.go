package app

import (
	"sync"
	"time"

	"papermind/internal/chunker"
)

const defaultMaxDocuments = 100

// DocumentContext is everything needed to search one uploaded document.
// It is built completely before registration and never modified afterwards.
type DocumentContext struct {
	ID             string
	Name           string
	Source         string
	EmbeddingModel string
	Passages       []chunker.Passage
	Vectors        [][]float32
	CreatedAt      time.Time
}

// DocumentStore keeps the most recent documents in memory. Registration swaps
// in a finished context, so readers see either the old or the new document.
type DocumentStore struct {
	mu       sync.RWMutex
	docs     map[string]*DocumentContext
	order    []string
	latest   string
	capacity int
}

func NewDocumentStore(capacity int) *DocumentStore {
	if capacity <= 0 {
		capacity = defaultMaxDocuments
	}
	return &DocumentStore{docs: make(map[string]*DocumentContext), capacity: capacity}
}

// Add registers a new upload and makes it the latest document.
func (s *DocumentStore) Add(doc *DocumentContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = doc.ID
	s.put(doc)
}

// Restore registers a document loaded from storage without changing latest.
func (s *DocumentStore) Restore(doc *DocumentContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(doc)
}

func (s *DocumentStore) put(doc *DocumentContext) {
	if _, ok := s.docs[doc.ID]; !ok {
		s.order = append(s.order, doc.ID)
	}
	s.docs[doc.ID] = doc
	for len(s.order) > s.capacity {
		oldest := s.order[0]
		if oldest == s.latest && len(s.order) > 1 {
			s.order = append(s.order[1:], oldest)
			oldest = s.order[0]
		}
		s.order = s.order[1:]
		delete(s.docs, oldest)
	}
}

func (s *DocumentStore) Get(id string) (*DocumentContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

func (s *DocumentStore) Latest() (*DocumentContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == "" {
		return nil, false
	}
	doc, ok := s.docs[s.latest]
	return doc, ok
}

func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
