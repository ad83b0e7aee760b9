package catalog

import (
	"context"
	"strings"
	"time"
)

// Catalog is the persistent store of photo records.
//
// Every backend enforces a unique source URL and a unique media path, so a
// media object never belongs to two rows. HasSourceURL and HasPath only save
// the work of downloading a photo that would be rejected on insert anyway.
type Catalog interface {
	Insert(ctx context.Context, p *Photo) error
	Update(ctx context.Context, p *Photo) error
	Delete(ctx context.Context, id int) error
	Get(ctx context.Context, id int) (*Photo, error)
	HasSourceURL(ctx context.Context, sourceURL string) (bool, error)
	HasPath(ctx context.Context, path string) (bool, error)
	Find(ctx context.Context, f Filter) ([]Photo, error)
	Recent(ctx context.Context, n int) ([]Photo, error)
	Random(ctx context.Context) (*Photo, error)

	LastRun(ctx context.Context) (time.Time, error)
	SetLastRun(ctx context.Context, t time.Time) error

	Close() error
}

// Filter narrows Find. Text fields match as substrings, Sol and EarthDate
// match exactly. Unset fields are ignored.
type Filter struct {
	Camera      string
	Description string
	Title       string
	SourceURL   string
	Sol         *int
	EarthDate   *Date
}

func (f Filter) IsZero() bool {
	return f.Camera == "" && f.Description == "" && f.Title == "" &&
		f.SourceURL == "" && f.Sol == nil && f.EarthDate == nil
}

const photoColumns = `id, camera, description, earth_date, sol, path, title, mime_type, source_url, exif`

// whereClause renders f as a SQL condition. placeholder returns the bind
// marker for the n-th argument (1-based), dateArg the driver value for a date.
func (f Filter) whereClause(placeholder func(n int) string, dateArg func(Date) any) (string, []any) {
	var conds []string
	var args []any

	like := func(column, value string) {
		args = append(args, "%"+escapeLike(value)+"%")
		conds = append(conds, column+" LIKE "+placeholder(len(args))+` ESCAPE '\'`)
	}

	if f.Camera != "" {
		like("camera", f.Camera)
	}
	if f.Description != "" {
		like("description", f.Description)
	}
	if f.Title != "" {
		like("title", f.Title)
	}
	if f.SourceURL != "" {
		like("source_url", f.SourceURL)
	}
	if f.Sol != nil {
		args = append(args, *f.Sol)
		conds = append(conds, "sol = "+placeholder(len(args)))
	}
	if f.EarthDate != nil {
		args = append(args, dateArg(*f.EarthDate))
		conds = append(conds, "earth_date = "+placeholder(len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
