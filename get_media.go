package redrovr

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sndcds/redrovr/api"
	"github.com/sndcds/redrovr/logging"
	"github.com/sndcds/redrovr/media"
)

// API: GET /media/*key
//
// Serves stored photo bytes by their media key, e.g. /media/a/b/c/abc.jpg.
func (s *Server) getMedia(gc *gin.Context) {
	apiResponseType := "redrovr-media"

	key, err := media.CleanKey(strings.TrimPrefix(gc.Param("key"), "/"))
	if err != nil {
		api.JSONError(gc, apiResponseType, http.StatusBadRequest, "invalid file path")
		return
	}

	data, err := s.Media.Get(gc.Request.Context(), key)
	if errors.Is(err, media.ErrNotFound) {
		api.JSONError(gc, apiResponseType, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		logging.Error("failed to read media", "key", key, "err", err)
		api.JSONError(gc, apiResponseType, http.StatusInternalServerError, "failed to read file")
		return
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	gc.Header("Cache-Control", "public, max-age=86400")
	gc.Data(http.StatusOK, contentType, data)
}
