package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"papermind/internal/chunker"
	"papermind/internal/model"
	"papermind/internal/pkg/metrics"
	"papermind/internal/search"
)

const (
	defaultTopK     = 3
	previewPassages = 2

	SourcePDF  = "pdf"
	SourceText = "text"
)

// Embedder turns text into vectors with a single, named model.
type Embedder interface {
	Model() string
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// DocumentPublisher hands uploaded documents to the async persist worker.
type DocumentPublisher interface {
	Publish(ctx context.Context, job model.DocumentPersistJob) error
}

// DocumentArchive is durable document storage. It is written when no
// publisher is configured and read when a search names a document that is no
// longer in memory.
type DocumentArchive interface {
	CreateWithPassages(doc *model.Document, passages []model.Passage) error
	LoadWithPassages(documentID string) (*model.Document, []model.Passage, error)
}

type DocumentService struct {
	store            *DocumentStore
	embedder         Embedder
	publisher        DocumentPublisher
	archive          DocumentArchive
	maxPassageLength int
}

// NewDocumentService wires the upload and search pipeline. publisher and
// archive may be nil.
func NewDocumentService(
	store *DocumentStore,
	embedder Embedder,
	publisher DocumentPublisher,
	archive DocumentArchive,
	maxPassageLength int,
) *DocumentService {
	if maxPassageLength <= 0 {
		maxPassageLength = chunker.DefaultMaxLength
	}
	return &DocumentService{
		store:            store,
		embedder:         embedder,
		publisher:        publisher,
		archive:          archive,
		maxPassageLength: maxPassageLength,
	}
}

type UploadInput struct {
	Name    string
	Source  string
	Content string
}

type UploadResult struct {
	DocumentID string            `json:"document_id"`
	ChunkCount int               `json:"chunk_count"`
	Preview    []chunker.Passage `json:"preview"`
	Message    string            `json:"message"`
}

// Upload chunks and embeds a document and registers it as the latest upload.
// Nothing is registered when embedding fails. Persistence is best effort.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrNoText
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Untitled"
	}
	source := input.Source
	if source == "" {
		source = SourceText
	}

	passages := chunker.Chunk(content, s.maxPassageLength)
	if len(passages) == 0 {
		return nil, fmt.Errorf("%w: no passage is long enough to index", ErrNoText)
	}

	vectors, err := s.embedder.EmbedTexts(ctx, chunker.Texts(passages))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	if len(vectors) != len(passages) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d passages", ErrSearchUnavailable, len(vectors), len(passages))
	}

	doc := &DocumentContext{
		ID:             uuid.NewString(),
		Name:           name,
		Source:         source,
		EmbeddingModel: s.embedder.Model(),
		Passages:       passages,
		Vectors:        vectors,
		CreatedAt:      time.Now(),
	}
	s.store.Add(doc)
	metrics.DocumentsUploaded.Inc()
	metrics.PassagesCreated.Observe(float64(len(passages)))
	log.Info().Str("document_id", doc.ID).Str("name", name).Int("passages", len(passages)).Msg("document uploaded")

	s.persist(ctx, doc)

	preview := passages
	if len(preview) > previewPassages {
		preview = preview[:previewPassages]
	}
	return &UploadResult{
		DocumentID: doc.ID,
		ChunkCount: len(passages),
		Preview:    append([]chunker.Passage(nil), preview...),
		Message:    fmt.Sprintf("%d chunks embedded and stored.", len(passages)),
	}, nil
}

func (s *DocumentService) persist(ctx context.Context, doc *DocumentContext) {
	job := persistJob(doc)
	if s.publisher != nil {
		err := s.publisher.Publish(ctx, job)
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("document_id", doc.ID).Msg("publish persist job failed")
	}
	if s.archive == nil {
		return
	}
	record, passages := job.Records()
	if err := s.archive.CreateWithPassages(record, passages); err != nil {
		log.Warn().Err(err).Str("document_id", doc.ID).Msg("store document failed")
	}
}

func persistJob(doc *DocumentContext) model.DocumentPersistJob {
	passages := make([]model.PersistPassage, len(doc.Passages))
	for i, p := range doc.Passages {
		passages[i] = model.PersistPassage{Position: p.Index, Content: p.Text, Embedding: doc.Vectors[i]}
	}
	return model.DocumentPersistJob{
		DocumentID:     doc.ID,
		Name:           doc.Name,
		Source:         doc.Source,
		EmbeddingModel: doc.EmbeddingModel,
		Passages:       passages,
		CreatedAt:      doc.CreatedAt,
	}
}

type SearchInput struct {
	Query      string
	DocumentID string
	TopK       int
}

type SearchResult struct {
	DocumentID string          `json:"document_id"`
	Results    []string        `json:"results"`
	Scores     []float64       `json:"scores"`
	Matches    []search.Result `json:"matches"`
}

// Search ranks the passages of one document against the query. Without a
// document id the latest upload is searched.
func (s *DocumentService) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, ErrNoText
	}
	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	doc, err := s.resolve(strings.TrimSpace(input.DocumentID))
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("no_document").Inc()
		return nil, err
	}
	if doc.EmbeddingModel != s.embedder.Model() {
		metrics.SearchesTotal.WithLabelValues("model_changed").Inc()
		return nil, fmt.Errorf("%w: document uses %q, backend uses %q", ErrEmbeddingModelChanged, doc.EmbeddingModel, s.embedder.Model())
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	matches, err := search.Search(queryVector, doc.Passages, doc.Vectors, topK)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		if errors.Is(err, search.ErrDimensionMismatch) {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingModelChanged, err)
		}
		return nil, err
	}
	metrics.SearchesTotal.WithLabelValues("ok").Inc()

	result := &SearchResult{
		DocumentID: doc.ID,
		Results:    make([]string, len(matches)),
		Scores:     make([]float64, len(matches)),
		Matches:    matches,
	}
	for i, m := range matches {
		result.Results[i] = m.Passage.Text
		result.Scores[i] = m.Score
	}
	return result, nil
}

// Document returns a registered document, loading it from the archive if it
// is no longer in memory.
func (s *DocumentService) Document(id string) (*DocumentContext, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: document id is empty", ErrInvalidInput)
	}
	return s.resolve(id)
}

func (s *DocumentService) resolve(id string) (*DocumentContext, error) {
	if id == "" {
		doc, ok := s.store.Latest()
		if !ok {
			return nil, ErrNoData
		}
		return doc, nil
	}
	if doc, ok := s.store.Get(id); ok {
		return doc, nil
	}
	if s.archive == nil {
		return nil, ErrDocumentNotFound
	}
	record, passages, err := s.archive.LoadWithPassages(id)
	if err != nil {
		log.Warn().Err(err).Str("document_id", id).Msg("load document from storage failed")
		return nil, ErrDocumentNotFound
	}
	if record == nil || len(passages) == 0 {
		return nil, ErrDocumentNotFound
	}
	doc := contextFromRecords(record, passages)
	s.store.Restore(doc)
	return doc, nil
}

func contextFromRecords(record *model.Document, rows []model.Passage) *DocumentContext {
	passages := make([]chunker.Passage, len(rows))
	vectors := make([][]float32, len(rows))
	for i, row := range rows {
		passages[i] = chunker.Passage{Index: row.Position, Text: row.Content, Length: len([]rune(row.Content))}
		vectors[i] = row.EmbeddingVector()
	}
	return &DocumentContext{
		ID:             record.DocumentID,
		Name:           record.Name,
		Source:         record.Source,
		EmbeddingModel: record.EmbeddingModel,
		Passages:       passages,
		Vectors:        vectors,
		CreatedAt:      record.CreatedAt,
	}
}
