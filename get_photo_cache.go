package redrovr

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sndcds/redrovr/api"
	"github.com/sndcds/redrovr/imgproc"
)

// API: GET /api/image/:id/cache
func (s *Server) getPhotoCache(gc *gin.Context) {
	apiResponseType := "redrovr-photo-cache"

	id, ok := ParamInt(gc, apiResponseType, "id")
	if !ok {
		return
	}
	if _, err := s.Catalog.Get(gc.Request.Context(), id); err != nil {
		respondError(gc, apiResponseType, err)
		return
	}

	entries, err := listCacheFiles(s.CacheDir, id)
	if err != nil {
		respondError(gc, apiResponseType, err)
		return
	}
	api.JSONSuccess(gc, apiResponseType, entries, map[string]any{"count": len(entries)})
}

// listCacheFiles returns the cached renditions of a photo, newest first.
func listCacheFiles(cacheDir string, photoID int) ([]CacheEntry, error) {
	entries := []CacheEntry{}
	if cacheDir == "" {
		return entries, nil
	}

	matches, err := filepath.Glob(filepath.Join(cacheDir, cachePrefix(photoID)+"*"))
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		stat, err := os.Stat(m)
		if err != nil || stat.IsDir() {
			continue
		}
		name := filepath.Base(m)
		ext := filepath.Ext(name)
		entries = append(entries, CacheEntry{
			Receipt:   strings.TrimSuffix(name, ext),
			FileName:  name,
			PhotoId:   photoID,
			CreatedAt: stat.ModTime().UTC(),
			MimeType:  imgproc.MimeType(strings.TrimPrefix(ext, ".")),
			Size:      stat.Size(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// removeCacheFiles deletes every cached rendition of a photo.
func removeCacheFiles(cacheDir string, photoID int) (int, error) {
	entries, err := listCacheFiles(cacheDir, photoID)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if err := os.Remove(filepath.Join(cacheDir, e.FileName)); err == nil {
			removed++
		}
	}
	return removed, nil
}
