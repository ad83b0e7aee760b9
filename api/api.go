// Package api writes the JSON envelope every endpoint answers with.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	Service = "redrovr"
	Version = "1.0"
)

// ApiResponse is the envelope. Status mirrors the HTTP status code. Data is
// a pointer so an empty list still reaches the client as [].
type ApiResponse[T any] struct {
	Service      string         `json:"service"`
	Version      string         `json:"version"`
	ResponseType string         `json:"type"`
	Status       int            `json:"status"`
	Timestamp    string         `json:"timestamp"`
	Meta         map[string]any `json:"meta,omitempty"`
	Data         *T             `json:"data,omitempty"`
	Message      string         `json:"message,omitempty"`
}

func newResponse[T any](responseType string, status int) ApiResponse[T] {
	return ApiResponse[T]{
		Service:      Service,
		Version:      Version,
		ResponseType: responseType,
		Status:       status,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
}

func JSONSuccess[T any](gc *gin.Context, responseType string, data T, meta map[string]any) {
	resp := newResponse[T](responseType, http.StatusOK)
	resp.Meta = meta
	resp.Data = &data
	gc.JSON(http.StatusOK, resp)
}

// JSONSuccessMessage answers with data and a human readable note.
func JSONSuccessMessage[T any](gc *gin.Context, responseType string, statusCode int, data T, message string) {
	resp := newResponse[T](responseType, statusCode)
	resp.Data = &data
	resp.Message = message
	gc.JSON(statusCode, resp)
}

func JSONSuccessNoData(gc *gin.Context, responseType string, message string) {
	resp := newResponse[any](responseType, http.StatusOK)
	resp.Message = message
	gc.JSON(http.StatusOK, resp)
}

func JSONError(gc *gin.Context, responseType string, statusCode int, errorMessage string) {
	resp := newResponse[any](responseType, statusCode)
	resp.Message = errorMessage
	gc.AbortWithStatusJSON(statusCode, resp)
}

func JSONDatabaseError(gc *gin.Context, responseType string) {
	JSONError(gc, responseType, http.StatusInternalServerError, "database error")
}

func JSONPayloadError(gc *gin.Context, responseType string) {
	JSONError(gc, responseType, http.StatusBadRequest, "payload error")
}
