// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"errors"
	"net/http"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/gin-gonic/gin"
)

// Envelope is the body of every response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody describes a failure.
type ErrorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []domain.FieldIssue `json:"fields,omitempty"`
}

// Meta carries pagination details.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Success writes a 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 with a page of items.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Meta{Page: page, Limit: limit, Total: total, TotalPages: pages},
	})
}

// BadRequest writes a 400.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, ErrorBody{Code: "bad_request", Message: message})
}

// NotFound writes a 404.
func NotFound(c *gin.Context, message string) {
	abort(c, http.StatusNotFound, ErrorBody{Code: "not_found", Message: message})
}

// Error maps a domain error to its status code. Unknown errors become a 500 without details.
func Error(c *gin.Context, err error) {
	status, body := Map(err)
	_ = c.Error(err)
	abort(c, status, body)
}

// Map returns the status code and body for an error.
func Map(err error) (int, ErrorBody) {
	var (
		vErr *domain.ValidationError
		nErr *domain.NotFoundError
		cErr *domain.ConflictError
		sErr *domain.InvalidStateError
	)
	switch {
	case errors.As(err, &vErr):
		if len(vErr.Fields) > 0 {
			return http.StatusUnprocessableEntity, ErrorBody{Code: "validation_failed", Message: vErr.Message, Fields: vErr.Fields}
		}
		return http.StatusBadRequest, ErrorBody{Code: "validation_error", Message: vErr.Message}
	case errors.As(err, &nErr):
		return http.StatusNotFound, ErrorBody{Code: "not_found", Message: nErr.Error()}
	case errors.As(err, &cErr):
		return http.StatusConflict, ErrorBody{Code: "conflict", Message: cErr.Message}
	case errors.As(err, &sErr):
		return http.StatusConflict, ErrorBody{Code: "invalid_state", Message: sErr.Error()}
	}
	return http.StatusInternalServerError, ErrorBody{Code: "internal_error", Message: "internal server error"}
}

func abort(c *gin.Context, status int, body ErrorBody) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: &body})
}
