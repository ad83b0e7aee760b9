package redrovr

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sndcds/redrovr/api"
	"github.com/sndcds/redrovr/catalog"
	"github.com/sndcds/redrovr/logging"
)

// API: GET /api/image
//
// With ?top25 an ingestion run is triggered first (subject to its cooldown)
// and the most recent photos are returned. Otherwise the query parameters
// filter the catalog; imageId selects a single photo.
func (s *Server) listPhotos(gc *gin.Context) {
	if _, ok := gc.GetQuery("top25"); ok {
		s.topPhotos(gc)
		return
	}

	apiResponseType := "redrovr-photos"
	ctx := gc.Request.Context()

	var q photoQuery
	if err := gc.ShouldBindQuery(&q); err != nil {
		api.JSONError(gc, apiResponseType, http.StatusBadRequest, err.Error())
		return
	}

	if q.ImageID != nil {
		photo, err := s.Catalog.Get(ctx, *q.ImageID)
		if err != nil {
			respondError(gc, "redrovr-photo", err)
			return
		}
		api.JSONSuccess(gc, "redrovr-photo", photo, nil)
		return
	}

	photos, err := s.Catalog.Find(ctx, q.filter())
	if err != nil {
		respondError(gc, apiResponseType, err)
		return
	}
	if photos == nil {
		photos = []catalog.Photo{}
	}
	api.JSONSuccess(gc, apiResponseType, photos, map[string]any{"count": len(photos)})
}

func (s *Server) topPhotos(gc *gin.Context) {
	apiResponseType := "redrovr-top-photos"
	ctx := gc.Request.Context()

	// A client hanging up must not cut the batch short: the marker is already
	// stamped, so the rest would wait out a full cooldown.
	result, err := s.Ingester.Run(context.WithoutCancel(ctx), s.now())
	if err != nil {
		if catalog.IsExternal(err) {
			logging.Warn("ingestion failed", "err", err)
		}
		respondError(gc, apiResponseType, err)
		return
	}

	message := "ingestion ran"
	photos := result.Photos
	if result.Skipped {
		message = "ingestion skipped, cooldown active"
		photos, err = s.Catalog.Recent(ctx, s.recentLimit())
		if err != nil {
			respondError(gc, apiResponseType, err)
			return
		}
	}
	if photos == nil {
		photos = []catalog.Photo{}
	}
	api.JSONSuccessMessage(gc, apiResponseType, http.StatusOK, photos, message)
}

// API: GET /api/image/:id
func (s *Server) getPhoto(gc *gin.Context) {
	apiResponseType := "redrovr-photo"

	id, ok := ParamInt(gc, apiResponseType, "id")
	if !ok {
		return
	}

	photo, err := s.Catalog.Get(gc.Request.Context(), id)
	if err != nil {
		respondError(gc, apiResponseType, err)
		return
	}
	api.JSONSuccess(gc, apiResponseType, photo, nil)
}

// API: GET /api/image/random
func (s *Server) getRandomPhoto(gc *gin.Context) {
	apiResponseType := "redrovr-photo"

	photo, err := s.Catalog.Random(gc.Request.Context())
	if err != nil {
		respondError(gc, apiResponseType, err)
		return
	}
	api.JSONSuccess(gc, apiResponseType, photo, nil)
}
