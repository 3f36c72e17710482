package app

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNoText                = errors.New("no text provided")
	ErrNoData                = errors.New("no data uploaded yet")
	ErrSearchUnavailable     = errors.New("search backend unavailable")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrEmbeddingModelChanged = errors.New("embedding model changed since upload")
)
