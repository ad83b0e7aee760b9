package redrovr

import (
	"strings"

	"github.com/sndcds/redrovr/catalog"
)

// photoQuery is the filter accepted by GET /api/image.
type photoQuery struct {
	ImageID          *int    `form:"imageId" binding:"omitempty,min=1"`
	ImageCamera      *string `form:"imageCamera" binding:"omitempty,max=64"`
	ImageDescription *string `form:"imageDescription" binding:"omitempty,max=5000"`
	ImageEarthDate   *int64  `form:"imageEarthDate"`
	ImageSol         *int    `form:"imageSol" binding:"omitempty,min=0"`
	ImageTitle       *string `form:"imageTitle" binding:"omitempty,max=128"`
	ImageURL         *string `form:"imageUrl" binding:"omitempty,max=256"`
}

func (q photoQuery) filter() catalog.Filter {
	var f catalog.Filter
	if q.ImageCamera != nil {
		f.Camera = strings.TrimSpace(*q.ImageCamera)
	}
	if q.ImageDescription != nil {
		f.Description = strings.TrimSpace(*q.ImageDescription)
	}
	if q.ImageTitle != nil {
		f.Title = strings.TrimSpace(*q.ImageTitle)
	}
	if q.ImageURL != nil {
		f.SourceURL = strings.TrimSpace(*q.ImageURL)
	}
	f.Sol = q.ImageSol
	if q.ImageEarthDate != nil {
		d := catalog.DateFromMillis(*q.ImageEarthDate)
		f.EarthDate = &d
	}
	return f
}

// photoRequest is the body of POST and PUT.
type photoRequest struct {
	ImageCamera      string        `json:"imageCamera" binding:"required,max=64"`
	ImageDescription *string       `json:"imageDescription" binding:"omitempty,max=5000"`
	ImageEarthDate   *catalog.Date `json:"imageEarthDate" binding:"required"`
	ImagePath        string        `json:"imagePath" binding:"required,max=256"`
	ImageSol         *int          `json:"imageSol" binding:"omitempty,min=0"`
	ImageTitle       string        `json:"imageTitle" binding:"required,max=128"`
	ImageType        string        `json:"imageType" binding:"required,max=10"`
	ImageURL         string        `json:"imageUrl" binding:"required,max=256"`

	ImageExif map[string]string `json:"imageExif"`
}

// photo converts the request into a validated record.
func (r photoRequest) photo(id int) (*catalog.Photo, error) {
	p := &catalog.Photo{
		ID:          id,
		Camera:      r.ImageCamera,
		Description: r.ImageDescription,
		Sol:         r.ImageSol,
		Path:        r.ImagePath,
		Title:       r.ImageTitle,
		MimeType:    r.ImageType,
		SourceURL:   r.ImageURL,
		Exif:        r.ImageExif,
	}
	if r.ImageEarthDate != nil {
		p.EarthDate = *r.ImageEarthDate
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
