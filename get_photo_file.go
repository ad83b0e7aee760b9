package redrovr

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/sndcds/redrovr/api"
	"github.com/sndcds/redrovr/imgproc"
	"github.com/sndcds/redrovr/logging"
	"github.com/sndcds/redrovr/media"
)

// rendition is a parsed request for a derived image.
type rendition struct {
	format   string
	fit      string
	quality  int
	width    int
	height   int
	ratio    float64
	focusX   float64
	focusY   float64
	hasFocus bool
}

// receipt encodes the rendition parameters into a cache file name stem.
// The photo id comes first so all renditions of a photo share a prefix.
func (r rendition) receipt(photoID int) string {
	var code, values string
	if r.fit != "" {
		code += "f"
		if r.fit == "contain" {
			values += "02"
		} else {
			values += "01"
		}
	}
	if r.quality < 100 {
		code += "q"
		values += fmt.Sprintf("%02x", r.quality)
	}
	if r.width > 0 {
		code += "w"
		values += fmt.Sprintf("%04x", r.width)
	}
	if r.height > 0 {
		code += "h"
		values += fmt.Sprintf("%04x", r.height)
	}
	if r.ratio > 0 {
		code += "r"
		values += "_" + imgproc.EncodeRatioForPath(r.ratio)
	}
	if r.hasFocus {
		code += "c"
		values += fmt.Sprintf("_%02x%02x", int(r.focusX*100), int(r.focusY*100))
	}
	return fmt.Sprintf("%x_%s_%s", photoID, code, values)
}

func cachePrefix(photoID int) string {
	return fmt.Sprintf("%x_", photoID)
}

func (s *Server) parseRendition(gc *gin.Context, apiResponseType string) (rendition, bool) {
	r := rendition{
		format: gc.DefaultQuery("type", "jpg"),
		fit:    gc.DefaultQuery("fit", ""),
		focusX: 0.5,
		focusY: 0.5,
	}

	if r.format != "jpg" && r.format != "png" && r.format != "webp" {
		api.JSONError(gc, apiResponseType, http.StatusBadRequest, "invalid image type")
		return r, false
	}
	if r.fit != "" && r.fit != "cover" && r.fit != "contain" {
		api.JSONError(gc, apiResponseType, http.StatusBadRequest, "invalid fit mode")
		return r, false
	}

	var ok bool
	if r.quality, ok = GetQueryIntDefault(gc, "quality", 80); !ok {
		api.JSONError(gc, apiResponseType, http.StatusBadRequest, "invalid quality")
		return r, false
	}
	r.quality = min(max(r.quality, 1), 100)

	if r.width, ok = GetQueryIntDefault(gc, "width", 0); !ok || r.width < 0 {
		api.JSONError(gc, apiResponseType, http.StatusBadRequest, "invalid width")
		return r, false
	}
	if r.height, ok = GetQueryIntDefault(gc, "height", 0); !ok || r.height < 0 {
		api.JSONError(gc, apiResponseType, http.StatusBadRequest, "invalid height")
		return r, false
	}

	if ratioStr, hasRatio := gc.GetQuery("ratio"); hasRatio {
		ratio, err := imgproc.ParseAspectRatio(ratioStr)
		if err != nil {
			api.JSONError(gc, apiResponseType, http.StatusBadRequest, "invalid ratio format, use e.g. 16:9")
			return r, false
		}
		r.ratio = ratio
	}

	_, hasFx := gc.GetQuery("focus_x")
	_, hasFy := gc.GetQuery("focus_y")
	if hasFx || hasFy {
		r.hasFocus = true
		if r.focusX, ok = GetQueryFloatDefault(gc, "focus_x", 0.5); !ok {
			api.JSONError(gc, apiResponseType, http.StatusBadRequest, "invalid focus_x")
			return r, false
		}
		if r.focusY, ok = GetQueryFloatDefault(gc, "focus_y", 0.5); !ok {
			api.JSONError(gc, apiResponseType, http.StatusBadRequest, "invalid focus_y")
			return r, false
		}
		r.focusX = min(max(r.focusX, 0), 1)
		r.focusY = min(max(r.focusY, 0), 1)
	}

	// Derive the missing edge so the cache key is canonical.
	if r.ratio > 0 {
		if r.width > 0 && r.height == 0 {
			r.height = int(float64(r.width) / r.ratio)
		} else if r.height > 0 && r.width == 0 {
			r.width = int(float64(r.height) * r.ratio)
		}
	}

	if limit := s.MaxRenditionPx; limit > 0 && (r.width > limit || r.height > limit) {
		api.JSONError(gc, apiResponseType, http.StatusBadRequest, fmt.Sprintf("edge larger than %d pixel", limit))
		return r, false
	}
	return r, true
}

// API: GET /api/image/:id/file
//
// Renders the stored photo cropped, resized and encoded as requested. Each
// distinct rendition is cached on disk under a name derived from its
// parameters.
func (s *Server) getPhotoFile(gc *gin.Context) {
	apiResponseType := "redrovr-photo-file"
	ctx := gc.Request.Context()

	id, ok := ParamInt(gc, apiResponseType, "id")
	if !ok {
		return
	}
	r, ok := s.parseRendition(gc, apiResponseType)
	if !ok {
		return
	}

	cacheFileName := r.receipt(id) + "." + r.format
	cacheFilePath := filepath.Join(s.CacheDir, cacheFileName)
	mimeType := imgproc.MimeType(r.format)

	if s.CacheDir != "" {
		if stat, err := os.Stat(cacheFilePath); err == nil && !stat.IsDir() {
			gc.Header("Content-Disposition", `inline; filename="`+cacheFileName+`"`)
			gc.Header("Content-Type", mimeType)
			gc.File(cacheFilePath)
			return
		}
	}

	photo, err := s.Catalog.Get(ctx, id)
	if err != nil {
		respondError(gc, apiResponseType, err)
		return
	}

	data, err := s.Media.Get(ctx, photo.Path)
	if errors.Is(err, media.ErrNotFound) {
		api.JSONError(gc, apiResponseType, http.StatusNotFound, "photo file not found")
		return
	}
	if err != nil {
		logging.Error("failed to read media", "path", photo.Path, "err", err)
		api.JSONError(gc, apiResponseType, http.StatusInternalServerError, "failed to read image")
		return
	}

	img, _, err := imgproc.Decode(data)
	if err != nil {
		api.JSONError(gc, apiResponseType, http.StatusInternalServerError, "invalid image format")
		return
	}

	if r.width > 0 || r.height > 0 || r.ratio > 0 {
		img = imgproc.CropWithFocus(img, r.fit, r.ratio, r.focusX, r.focusY, r.width, r.height)
	}

	out, err := imgproc.Encode(img, r.format, r.quality)
	if err != nil {
		api.JSONError(gc, apiResponseType, http.StatusInternalServerError, err.Error())
		return
	}

	if err := writeCacheFile(s.CacheDir, cacheFileName, out); err != nil {
		logging.Warn("failed to cache rendition", "file", cacheFileName, "err", err)
	}

	gc.Header("Content-Disposition", `inline; filename="`+cacheFileName+`"`)
	gc.Data(http.StatusOK, mimeType, out)
}

func writeCacheFile(dir, name string, data []byte) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0644)
}
