package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"papermind/internal/app"
	"papermind/internal/chunker"
	"papermind/internal/pkg/pdfextract"
	"papermind/internal/transport/http/response"
)

const defaultMaxUploadBytes = 32 << 20

type DocumentHandler struct {
	documents      *app.DocumentService
	maxUploadBytes int64
}

type UploadTextRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type SearchRequest struct {
	Query      string `json:"query" form:"query"`
	DocumentID string `json:"document_id" form:"document_id"`
	TopK       int    `json:"top_k" form:"top_k"`
}

type PassagesResponse struct {
	DocumentID     string            `json:"document_id"`
	Name           string            `json:"name"`
	EmbeddingModel string            `json:"embedding_model"`
	Passages       []chunker.Passage `json:"passages"`
}

func NewDocumentHandler(documents *app.DocumentService, maxUploadBytes int64) *DocumentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &DocumentHandler{documents: documents, maxUploadBytes: maxUploadBytes}
}

// UploadPDF accepts a multipart form with "file" (PDF) and optional "name",
// extracts the text and indexes it for search.
func (h *DocumentHandler) UploadPDF(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > h.maxUploadBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, "file too large")
		return
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".pdf" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only PDF files are allowed")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	text, err := pdfextract.ExtractText(f)
	if err != nil {
		log.Warn().Err(err).Str("file", file.Filename).Msg("pdf extraction failed")
		response.Error(c, http.StatusBadRequest, response.CodeNoExtractableText, "failed to extract text from PDF")
		return
	}
	if text == "" {
		response.Error(c, http.StatusBadRequest, response.CodeNoExtractableText, "PDF contains no extractable text")
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}
	h.upload(c, app.UploadInput{Name: name, Source: app.SourcePDF, Content: text})
}

func (h *DocumentHandler) UploadText(c *gin.Context) {
	var req UploadTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	h.upload(c, app.UploadInput{Name: req.Name, Source: app.SourceText, Content: req.Content})
}

func (h *DocumentHandler) upload(c *gin.Context, input app.UploadInput) {
	result, err := h.documents.Upload(c.Request.Context(), input)
	if err != nil {
		writeDocumentError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *DocumentHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	result, err := h.documents.Search(c.Request.Context(), app.SearchInput{
		Query:      req.Query,
		DocumentID: req.DocumentID,
		TopK:       req.TopK,
	})
	if err != nil {
		writeDocumentError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *DocumentHandler) Passages(c *gin.Context) {
	doc, err := h.documents.Document(c.Param("id"))
	if err != nil {
		writeDocumentError(c, err)
		return
	}
	response.OK(c, PassagesResponse{
		DocumentID:     doc.ID,
		Name:           doc.Name,
		EmbeddingModel: doc.EmbeddingModel,
		Passages:       doc.Passages,
	})
}

func writeDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrNoText):
		response.Error(c, http.StatusBadRequest, response.CodeNoText, "No text provided.")
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrNoData):
		response.Error(c, http.StatusNotFound, response.CodeNoData, "No data uploaded yet.")
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, "document not found")
	case errors.Is(err, app.ErrEmbeddingModelChanged):
		response.Error(c, http.StatusConflict, response.CodeEmbeddingModelChanged, "embedding model changed since upload, re-upload the document")
	case errors.Is(err, app.ErrSearchUnavailable):
		log.Error().Err(err).Msg("search backend unavailable")
		response.Error(c, http.StatusServiceUnavailable, response.CodeSearchUnavailable, "search backend unavailable")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "internal error")
	}
}
