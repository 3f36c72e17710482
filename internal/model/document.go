package model

import "time"

// Document is the persisted record of one uploaded document. DocumentID is
// the public identifier handed out by the upload endpoints.
type Document struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	DocumentID     string    `gorm:"size:36;not null;uniqueIndex" json:"document_id"`
	Name           string    `gorm:"size:256;not null" json:"name"`
	Source         string    `gorm:"size:16;not null" json:"source"`
	EmbeddingModel string    `gorm:"size:128;not null" json:"embedding_model"`
	PassageCount   int       `gorm:"not null" json:"passage_count"`
	CreatedAt      time.Time `json:"created_at"`
}
