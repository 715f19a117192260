package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response is the envelope every API payload travels in. Data and Error
// are mutually exclusive; Pagination only appears on listing endpoints.
type Response struct {
	Data       interface{} `json:"data"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Metadata   Metadata    `json:"metadata"`
}

// ErrorBody carries a machine-readable code, its default message, and
// optional per-field validation detail.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Metadata includes request tracing and timing.
type Metadata struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// Success sends data in the envelope with the given status code.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, envelope(c, data, nil, nil))
}

// SuccessWithPagination sends a page of data plus paging counters.
func SuccessWithPagination(c *gin.Context, statusCode int, data interface{}, pagination *Pagination) {
	c.JSON(statusCode, envelope(c, data, nil, pagination))
}

// Fail sends an error code with its default message.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, envelope(c, nil, &ErrorBody{Code: code, Message: GetMessage(code)}, nil))
}

// FailWithFields sends an error code plus field-level validation detail.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	body := &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields}
	c.JSON(statusCode, envelope(c, nil, body, nil))
}

// AbortFail is Fail for middleware: it stops the handler chain.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, envelope(c, nil, &ErrorBody{Code: code, Message: GetMessage(code)}, nil))
}

func envelope(c *gin.Context, data interface{}, errBody *ErrorBody, p *Pagination) Response {
	id := c.GetString(ContextKeyRequestID)
	if id == "" {
		// request-id middleware not applied on this route
		id = uuid.New().String()
	}
	return Response{
		Data:       data,
		Error:      errBody,
		Pagination: p,
		Metadata: Metadata{
			RequestID: id,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}
