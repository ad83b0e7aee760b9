package redrovr

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sndcds/redrovr/api"
	"github.com/sndcds/redrovr/logging"
)

const (
	xsrfCookie = "XSRF-TOKEN"
	xsrfHeader = "X-XSRF-TOKEN"
)

// xsrfGuard hands out a token cookie on safe requests and requires it to be
// echoed in a header on every mutating one.
func xsrfGuard() gin.HandlerFunc {
	return func(gc *gin.Context) {
		switch gc.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if token, err := gc.Cookie(xsrfCookie); err != nil || token == "" {
				gc.SetSameSite(http.SameSiteStrictMode)
				gc.SetCookie(xsrfCookie, uuid.NewString(), 0, "/", "", false, false)
			}
			gc.Next()
			return
		}

		cookie, err := gc.Cookie(xsrfCookie)
		header := gc.GetHeader(xsrfHeader)
		if err != nil || cookie == "" || subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			api.JSONError(gc, "redrovr-xsrf", http.StatusUnauthorized, "missing or invalid XSRF token")
			return
		}
		gc.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	logger := logging.WithPrefix("http")
	return func(gc *gin.Context) {
		start := time.Now()
		gc.Next()
		logger.Info("request",
			"method", gc.Request.Method,
			"path", gc.Request.URL.Path,
			"status", gc.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func recoverPanic(gc *gin.Context, recovered any) {
	logging.Error("panic recovered", "err", recovered, "path", gc.Request.URL.Path)
	api.JSONError(gc, "redrovr-error", http.StatusInternalServerError, "internal server error")
}
