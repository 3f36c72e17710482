package model

import (
	"encoding/json"
	"time"
)

// Passage stores one chunk of a document and its embedding.
// Embedding is stored as JSON array of float32 for portability.
type Passage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index:idx_passage_doc_pos,priority:1" json:"document_id"`
	Position   int       `gorm:"not null;index:idx_passage_doc_pos,priority:2" json:"position"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Embedding  string    `gorm:"type:mediumtext" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (p *Passage) EmbeddingVector() []float32 {
	if p.Embedding == "" {
		return nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(p.Embedding), &v); err != nil {
		return nil
	}
	return v
}

// SetEmbedding stores the embedding as JSON.
func (p *Passage) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		p.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	p.Embedding = string(b)
}
