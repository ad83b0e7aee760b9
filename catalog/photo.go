// Package catalog holds the photo record and the persistent catalog it is
// stored in.
package catalog

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxCameraLen      = 64
	MaxDescriptionLen = 5000
	MaxPathLen        = 256
	MaxTitleLen       = 128
	MaxMimeTypeLen    = 10
	MaxSourceURLLen   = 256
)

// Photo is one catalogued rover photo. ID is zero until the photo has been
// inserted.
type Photo struct {
	ID          int               `json:"imageId"`
	Camera      string            `json:"imageCamera"`
	Description *string           `json:"imageDescription"`
	EarthDate   Date              `json:"imageEarthDate"`
	Sol         *int              `json:"imageSol"`
	Path        string            `json:"imagePath"`
	Title       string            `json:"imageTitle"`
	MimeType    string            `json:"imageType"`
	SourceURL   string            `json:"imageUrl"`
	Exif        map[string]string `json:"imageExif,omitempty"`
}

// Validate trims the text fields in place and checks them against the
// column bounds.
func (p *Photo) Validate() error {
	if p.ID < 0 {
		return &ValidationError{Field: "imageId", Msg: "must be positive"}
	}

	required := []struct {
		name  string
		value *string
		max   int
	}{
		{"imageCamera", &p.Camera, MaxCameraLen},
		{"imagePath", &p.Path, MaxPathLen},
		{"imageTitle", &p.Title, MaxTitleLen},
		{"imageType", &p.MimeType, MaxMimeTypeLen},
		{"imageUrl", &p.SourceURL, MaxSourceURLLen},
	}
	for _, f := range required {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return &ValidationError{Field: f.name, Msg: "is empty"}
		}
		if utf8.RuneCountInString(*f.value) > f.max {
			return &ValidationError{Field: f.name, Msg: "too large"}
		}
	}

	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		if utf8.RuneCountInString(d) > MaxDescriptionLen {
			return &ValidationError{Field: "imageDescription", Msg: "too large"}
		}
		p.Description = &d
	}

	if p.Sol != nil && *p.Sol < 0 {
		return &ValidationError{Field: "imageSol", Msg: "must not be negative"}
	}

	if p.EarthDate.IsZero() {
		return &ValidationError{Field: "imageEarthDate", Msg: "is empty"}
	}

	return nil
}
