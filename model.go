package redrovr

import "time"

// CacheEntry describes one cached rendition file of a photo.
type CacheEntry struct {
	Receipt   string    `json:"receipt"`
	FileName  string    `json:"file_name"`
	PhotoId   int       `json:"image_id"`
	CreatedAt time.Time `json:"created_at"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
}

// DeletePhotoResult reports what a delete removed besides the row.
type DeletePhotoResult struct {
	PhotoId           int  `json:"image_id"`
	FileRemovedFlag   bool `json:"file_removed"`
	CacheFilesRemoved int  `json:"cache_files_removed"`
}
