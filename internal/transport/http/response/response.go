package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                       = 0
	CodeBadRequest               = 40000
	CodeNoText                   = 40001
	CodeUnknownStyle             = 40002
	CodeUnknownBackend           = 40003
	CodeNoExtractableText        = 40004
	CodeDocumentNotFound         = 40401
	CodeNoData                   = 40402
	CodeEmbeddingModelChanged    = 40901
	CodeFileTooLarge             = 41300
	CodeInternalServer           = 50000
	CodeSearchUnavailable        = 50301
	CodeSummarizerBackendFailure = 50302
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// ErrorWithData reports a failure that still carries a useful payload.
func ErrorWithData(c *gin.Context, httpStatus, code int, message string, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}
