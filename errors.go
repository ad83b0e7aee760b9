package redrovr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sndcds/redrovr/api"
	"github.com/sndcds/redrovr/catalog"
	"github.com/sndcds/redrovr/logging"
)

// statusOf maps a domain error to the HTTP status it answers with.
func statusOf(err error) int {
	switch {
	case catalog.IsValidation(err):
		return http.StatusBadRequest
	case catalog.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrDuplicate):
		return http.StatusConflict
	case catalog.IsExternal(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err in the envelope. Internal errors are logged and
// answered with a generic message.
func respondError(gc *gin.Context, responseType string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logging.Error("request failed", "path", gc.Request.URL.Path, "err", err)
		api.JSONDatabaseError(gc, responseType)
		return
	}
	api.JSONError(gc, responseType, status, err.Error())
}
