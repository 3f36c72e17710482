package model

import "time"

// DocumentPersistJob is the queue payload that carries an uploaded document
// to the persist worker.
type DocumentPersistJob struct {
	DocumentID     string           `json:"document_id"`
	Name           string           `json:"name"`
	Source         string           `json:"source"`
	EmbeddingModel string           `json:"embedding_model"`
	Passages       []PersistPassage `json:"passages"`
	CreatedAt      time.Time        `json:"created_at"`
}

type PersistPassage struct {
	Position  int       `json:"position"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

// Records converts the job into rows ready for the repository.
func (j DocumentPersistJob) Records() (*Document, []Passage) {
	doc := &Document{
		DocumentID:     j.DocumentID,
		Name:           j.Name,
		Source:         j.Source,
		EmbeddingModel: j.EmbeddingModel,
		PassageCount:   len(j.Passages),
		CreatedAt:      j.CreatedAt,
	}
	passages := make([]Passage, len(j.Passages))
	for i, p := range j.Passages {
		passages[i] = Passage{Position: p.Position, Content: p.Content}
		passages[i].SetEmbedding(p.Embedding)
	}
	return doc, passages
}
