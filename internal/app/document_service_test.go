package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"papermind/internal/model"
)

// keywordEmbedder maps text onto a tiny bag-of-keywords space.
type keywordEmbedder struct {
	model string
	fail  error
	calls int
}

var embedKeywords = []string{"cat", "dog", "bird", "fish"}

func (e *keywordEmbedder) Model() string { return e.model }

func (e *keywordEmbedder) vector(text string) []float32 {
	text = strings.ToLower(text)
	v := make([]float32, len(embedKeywords)+1)
	for i, k := range embedKeywords {
		v[i] = float32(strings.Count(text, k))
	}
	v[len(embedKeywords)] = 0.01
	return v
}

func (e *keywordEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail != nil {
		return nil, e.fail
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *keywordEmbedder) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	v, err := e.EmbedTexts(ctx, []string{q})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []model.DocumentPersistJob
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, job model.DocumentPersistJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

type memoryArchive struct {
	docs     map[string]*model.Document
	passages map[string][]model.Passage
	err      error
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{docs: map[string]*model.Document{}, passages: map[string][]model.Passage{}}
}

func (a *memoryArchive) CreateWithPassages(doc *model.Document, passages []model.Passage) error {
	if a.err != nil {
		return a.err
	}
	a.docs[doc.DocumentID] = doc
	a.passages[doc.DocumentID] = passages
	return nil
}

func (a *memoryArchive) LoadWithPassages(id string) (*model.Document, []model.Passage, error) {
	doc, ok := a.docs[id]
	if !ok {
		return nil, nil, nil
	}
	return doc, a.passages[id], nil
}

const animalText = "The cat sat on the warm mat all day. A dog barked loudly at the mailman. " +
	"The bird sang a song in the tall tree. A fish swam slowly in the pond."

func TestUpload_RegistersLatestAndReportsChunks(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewDocumentService(NewDocumentStore(0), &keywordEmbedder{model: "kw"}, pub, nil, 40)

	res, err := svc.Upload(context.Background(), UploadInput{Name: "animals", Content: animalText})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if res.ChunkCount != 4 {
		t.Fatalf("expected 4 chunks, got %d", res.ChunkCount)
	}
	if res.Message != "4 chunks embedded and stored." {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if len(res.Preview) != 2 || res.Preview[0].Text != "The cat sat on the warm mat all day." {
		t.Fatalf("unexpected preview %+v", res.Preview)
	}
	if len(pub.jobs) != 1 || pub.jobs[0].DocumentID != res.DocumentID || len(pub.jobs[0].Passages) != 4 {
		t.Fatalf("expected one persist job for the upload, got %+v", pub.jobs)
	}
}

func TestUpload_EmptyText(t *testing.T) {
	svc := NewDocumentService(NewDocumentStore(0), &keywordEmbedder{model: "kw"}, nil, nil, 0)
	if _, err := svc.Upload(context.Background(), UploadInput{Content: "  \n "}); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), UploadInput{Content: "Too short"}); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText for unindexable text, got %v", err)
	}
}

func TestUpload_EmbeddingFailureRegistersNothing(t *testing.T) {
	store := NewDocumentStore(0)
	svc := NewDocumentService(store, &keywordEmbedder{model: "kw", fail: errors.New("model offline")}, nil, nil, 0)
	if _, err := svc.Upload(context.Background(), UploadInput{Content: animalText}); !errors.Is(err, ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d documents", store.Len())
	}
	if _, err := svc.Search(context.Background(), SearchInput{Query: "cat"}); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestUpload_PersistFailureIsNotFatal(t *testing.T) {
	archive := newMemoryArchive()
	archive.err = errors.New("disk full")
	pub := &recordingPublisher{err: errors.New("broker gone")}
	svc := NewDocumentService(NewDocumentStore(0), &keywordEmbedder{model: "kw"}, pub, archive, 40)
	if _, err := svc.Upload(context.Background(), UploadInput{Content: animalText}); err != nil {
		t.Fatalf("expected upload to succeed despite storage failures, got %v", err)
	}
}

func TestUpload_FallsBackToArchiveWhenPublishFails(t *testing.T) {
	archive := newMemoryArchive()
	pub := &recordingPublisher{err: errors.New("broker gone")}
	svc := NewDocumentService(NewDocumentStore(0), &keywordEmbedder{model: "kw"}, pub, archive, 40)
	res, err := svc.Upload(context.Background(), UploadInput{Content: animalText})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if len(archive.passages[res.DocumentID]) != 4 {
		t.Fatalf("expected archived passages, got %d", len(archive.passages[res.DocumentID]))
	}
}

func TestSearch_RanksLatestDocument(t *testing.T) {
	svc := NewDocumentService(NewDocumentStore(0), &keywordEmbedder{model: "kw"}, nil, nil, 40)
	if _, err := svc.Upload(context.Background(), UploadInput{Content: animalText}); err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	res, err := svc.Search(context.Background(), SearchInput{Query: "Which dog barked?"})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(res.Results) != 3 || len(res.Scores) != 3 {
		t.Fatalf("expected default top 3, got %d", len(res.Results))
	}
	if res.Results[0] != "A dog barked loudly at the mailman." {
		t.Fatalf("unexpected best match %q", res.Results[0])
	}
	for i := 1; i < len(res.Scores); i++ {
		if res.Scores[i] > res.Scores[i-1] {
			t.Fatalf("scores not descending: %v", res.Scores)
		}
	}
}

func TestSearch_PerDocumentContexts(t *testing.T) {
	svc := NewDocumentService(NewDocumentStore(0), &keywordEmbedder{model: "kw"}, nil, nil, 40)
	first, _ := svc.Upload(context.Background(), UploadInput{Content: animalText})
	second, err := svc.Upload(context.Background(), UploadInput{Content: "Fish live in water and breathe with gills. Fish are cold blooded animals."})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	res, err := svc.Search(context.Background(), SearchInput{Query: "cat", TopK: 1})
	if err != nil || res.DocumentID != second.DocumentID {
		t.Fatalf("expected latest document to be searched, got %+v, %v", res, err)
	}
	res, err = svc.Search(context.Background(), SearchInput{Query: "cat", DocumentID: first.DocumentID, TopK: 1})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if res.Results[0] != "The cat sat on the warm mat all day." {
		t.Fatalf("unexpected match %q", res.Results[0])
	}
	if _, err := svc.Search(context.Background(), SearchInput{Query: "cat", DocumentID: "missing"}); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSearch_ModelChanged(t *testing.T) {
	store := NewDocumentStore(0)
	embedder := &keywordEmbedder{model: "kw-v1"}
	svc := NewDocumentService(store, embedder, nil, nil, 40)
	if _, err := svc.Upload(context.Background(), UploadInput{Content: animalText}); err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	embedder.model = "kw-v2"
	if _, err := svc.Search(context.Background(), SearchInput{Query: "cat"}); !errors.Is(err, ErrEmbeddingModelChanged) {
		t.Fatalf("expected ErrEmbeddingModelChanged, got %v", err)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := NewDocumentService(NewDocumentStore(0), &keywordEmbedder{model: "kw"}, nil, nil, 0)
	if _, err := svc.Search(context.Background(), SearchInput{Query: " "}); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestSearch_RestoresFromArchive(t *testing.T) {
	archive := newMemoryArchive()
	embedder := &keywordEmbedder{model: "kw"}
	writer := NewDocumentService(NewDocumentStore(0), embedder, nil, archive, 40)
	res, err := writer.Upload(context.Background(), UploadInput{Content: animalText})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	// a fresh process with an empty memory store
	reader := NewDocumentService(NewDocumentStore(0), embedder, nil, archive, 40)
	got, err := reader.Search(context.Background(), SearchInput{Query: "bird", DocumentID: res.DocumentID, TopK: 1})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if got.Results[0] != "The bird sang a song in the tall tree." {
		t.Fatalf("unexpected match %q", got.Results[0])
	}
	if _, err := reader.Search(context.Background(), SearchInput{Query: "bird"}); !errors.Is(err, ErrNoData) {
		t.Fatalf("restored document must not become latest, got %v", err)
	}
}

func TestDocumentStore_EvictsOldestButKeepsLatest(t *testing.T) {
	store := NewDocumentStore(2)
	for _, id := range []string{"a", "b", "c"} {
		store.Add(&DocumentContext{ID: id})
	}
	if _, ok := store.Get("a"); ok {
		t.Fatalf("expected oldest document to be evicted")
	}
	if latest, ok := store.Latest(); !ok || latest.ID != "c" {
		t.Fatalf("expected latest c, got %+v", latest)
	}
	store.Restore(&DocumentContext{ID: "z"})
	if latest, ok := store.Latest(); !ok || latest.ID != "c" {
		t.Fatalf("restore must keep latest, got %+v", latest)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 documents, got %d", store.Len())
	}
}

func TestDocumentStore_ConcurrentReadersSeeWholeDocuments(t *testing.T) {
	store := NewDocumentStore(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			store.Add(&DocumentContext{ID: strings.Repeat("x", i+1)})
		}(i)
		go func() {
			defer wg.Done()
			if doc, ok := store.Latest(); ok && doc.ID == "" {
				t.Errorf("observed a half-built document")
			}
		}()
	}
	wg.Wait()
}
