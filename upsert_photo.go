package redrovr

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sndcds/redrovr/api"
	"github.com/sndcds/redrovr/logging"
)

// API: POST /api/image
func (s *Server) createPhoto(gc *gin.Context) {
	apiResponseType := "redrovr-photo-create"

	var req photoRequest
	if err := gc.ShouldBindJSON(&req); err != nil {
		api.JSONError(gc, apiResponseType, http.StatusBadRequest, err.Error())
		return
	}
	photo, err := req.photo(0)
	if err != nil {
		respondError(gc, apiResponseType, err)
		return
	}

	if err := s.Catalog.Insert(gc.Request.Context(), photo); err != nil {
		respondError(gc, apiResponseType, err)
		return
	}

	logging.Info("photo created", "id", photo.ID, "url", photo.SourceURL)
	api.JSONSuccessMessage(gc, apiResponseType, http.StatusCreated, photo, "photo created")
}

// API: PUT /api/image/:id
//
// Replaces every field of an existing photo. EXIF is kept unless the body
// carries its own. Cached renditions are dropped since the media path may
// have changed.
func (s *Server) updatePhoto(gc *gin.Context) {
	apiResponseType := "redrovr-photo-update"

	id, ok := ParamInt(gc, apiResponseType, "id")
	if !ok {
		return
	}

	var req photoRequest
	if err := gc.ShouldBindJSON(&req); err != nil {
		api.JSONError(gc, apiResponseType, http.StatusBadRequest, err.Error())
		return
	}
	photo, err := req.photo(id)
	if err != nil {
		respondError(gc, apiResponseType, err)
		return
	}

	ctx := gc.Request.Context()
	if photo.Exif == nil {
		existing, err := s.Catalog.Get(ctx, id)
		if err != nil {
			respondError(gc, apiResponseType, err)
			return
		}
		photo.Exif = existing.Exif
	}

	if err := s.Catalog.Update(ctx, photo); err != nil {
		respondError(gc, apiResponseType, err)
		return
	}

	removed, err := removeCacheFiles(s.CacheDir, id)
	if err != nil {
		logging.Warn("failed to remove cached renditions", "id", id, "err", err)
	}

	logging.Info("photo updated", "id", id, "cache_files_removed", removed)
	api.JSONSuccessMessage(gc, apiResponseType, http.StatusOK, photo, "photo updated")
}
