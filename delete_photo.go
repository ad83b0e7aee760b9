package redrovr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sndcds/redrovr/api"
	"github.com/sndcds/redrovr/logging"
	"github.com/sndcds/redrovr/media"
)

// API: DELETE /api/image/:id
//
// Removes the row first, then the media object and cached renditions.
// Failing file cleanup is logged; the photo is gone either way.
func (s *Server) deletePhoto(gc *gin.Context) {
	apiResponseType := "redrovr-photo-delete"
	ctx := gc.Request.Context()

	id, ok := ParamInt(gc, apiResponseType, "id")
	if !ok {
		return
	}

	photo, err := s.Catalog.Get(ctx, id)
	if err != nil {
		respondError(gc, apiResponseType, err)
		return
	}
	if err := s.Catalog.Delete(ctx, id); err != nil {
		respondError(gc, apiResponseType, err)
		return
	}

	result := DeletePhotoResult{PhotoId: id}

	if err := s.Media.Delete(ctx, photo.Path); err == nil {
		result.FileRemovedFlag = true
	} else if !errors.Is(err, media.ErrNotFound) {
		logging.Warn("failed to remove media", "path", photo.Path, "err", err)
	}

	result.CacheFilesRemoved, err = removeCacheFiles(s.CacheDir, id)
	if err != nil {
		logging.Warn("failed to remove cached renditions", "id", id, "err", err)
	}

	logging.Info("photo deleted", "id", id, "file_removed", result.FileRemovedFlag, "cache_files_removed", result.CacheFilesRemoved)
	api.JSONSuccessMessage(gc, apiResponseType, http.StatusOK, result, "photo deleted")
}
