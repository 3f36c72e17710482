package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"papermind/internal/app"
	"papermind/internal/summarizer"
	"papermind/internal/transport/http/response"
)

type SummaryHandler struct {
	summaries *app.SummaryService
}

type SummarizeRequest struct {
	Text           string `json:"text"`
	Style          string `json:"style"`
	Backend        string `json:"backend"`
	MaxChunkLength int    `json:"max_chunk_length"`
}

type SwitchBackendRequest struct {
	Backend string `json:"backend" binding:"required"`
}

func NewSummaryHandler(summaries *app.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaries: summaries}
}

func (h *SummaryHandler) Summarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	result, err := h.summaries.Summarize(c.Request.Context(), app.SummarizeInput{
		Text:           req.Text,
		Style:          req.Style,
		Backend:        req.Backend,
		MaxChunkLength: req.MaxChunkLength,
	})
	if err != nil {
		writeSummaryError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *SummaryHandler) Backends(c *gin.Context) {
	response.OK(c, h.summaries.Backends())
}

func (h *SummaryHandler) SwitchBackend(c *gin.Context) {
	var req SwitchBackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	active, err := h.summaries.SwitchBackend(c.Request.Context(), req.Backend)
	if err != nil {
		if errors.Is(err, summarizer.ErrBackendUnavailable) {
			response.ErrorWithData(c, http.StatusServiceUnavailable, response.CodeSummarizerBackendFailure,
				err.Error(), gin.H{"active": active})
			return
		}
		writeSummaryError(c, err)
		return
	}
	response.OK(c, gin.H{"active": active})
}

func writeSummaryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrNoText):
		response.Error(c, http.StatusBadRequest, response.CodeNoText, "No text provided.")
	case errors.Is(err, summarizer.ErrUnknownStyle):
		response.Error(c, http.StatusBadRequest, response.CodeUnknownStyle, err.Error())
	case errors.Is(err, summarizer.ErrUnknownBackend):
		response.Error(c, http.StatusBadRequest, response.CodeUnknownBackend, err.Error())
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "internal error")
	}
}
