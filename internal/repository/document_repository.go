package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"papermind/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateWithPassages stores a document and its passages in one transaction.
// Passages get the generated document row id.
func (r *DocumentRepository) CreateWithPassages(doc *model.Document, passages []model.Passage) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("create document failed: %w", err)
		}
		if len(passages) == 0 {
			return nil
		}
		for i := range passages {
			passages[i].DocumentID = doc.ID
		}
		if err := tx.CreateInBatches(&passages, 100).Error; err != nil {
			return fmt.Errorf("create passages batch failed: %w", err)
		}
		return nil
	})
}

// GetByDocumentID returns nil, nil when no document has that id.
func (r *DocumentRepository) GetByDocumentID(documentID string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("document_id = ?", documentID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// LoadWithPassages returns a document and its passages in position order,
// or nil, nil, nil when the document is unknown.
func (r *DocumentRepository) LoadWithPassages(documentID string) (*model.Document, []model.Passage, error) {
	doc, err := r.GetByDocumentID(documentID)
	if err != nil || doc == nil {
		return nil, nil, err
	}
	var passages []model.Passage
	if err := r.db.Where("document_id = ?", doc.ID).Order("position ASC").Find(&passages).Error; err != nil {
		return nil, nil, fmt.Errorf("list passages by document failed: %w", err)
	}
	return doc, passages, nil
}

func (r *DocumentRepository) ExistsByDocumentID(documentID string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Document{}).Where("document_id = ?", documentID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count documents failed: %w", err)
	}
	return count > 0, nil
}
