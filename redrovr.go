// Package redrovr serves the rover photo catalog over HTTP.
package redrovr

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sndcds/redrovr/app"
	"github.com/sndcds/redrovr/catalog"
	"github.com/sndcds/redrovr/ingest"
	"github.com/sndcds/redrovr/media"
)

// Ingester triggers a throttled ingestion run.
type Ingester interface {
	Run(ctx context.Context, now time.Time) (ingest.Result, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Catalog        catalog.Catalog
	Media          media.Store
	Ingester       Ingester
	CacheDir       string
	MaxRenditionPx int
	RecentLimit    int
	Now            func() time.Time
}

func NewServer(a *app.App) *Server {
	return &Server{
		Catalog:        a.Catalog,
		Media:          a.Media,
		Ingester:       a.Job,
		CacheDir:       a.Config.CacheDir,
		MaxRenditionPx: a.Config.MaxRenditionPx,
		RecentLimit:    a.Config.RecentLimit,
		Now:            time.Now,
	}
}

// Router builds the gin engine with logging, recovery, CORS and every route.
func (s *Server) Router(corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(), gin.CustomRecovery(recoverPanic))

	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", xsrfHeader},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthcheck", func(gc *gin.Context) {
		gc.String(http.StatusOK, "OK")
	})
	r.GET("/media/*key", s.getMedia)

	s.RegisterRoutes(r.Group("/api"), xsrfGuard())
	return r
}

func (s *Server) RegisterRoutes(rg *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := rg.Group("/image", middlewares...)

	group.GET("", s.listPhotos)
	group.GET("/random", s.getRandomPhoto)
	group.GET("/:id", s.getPhoto)
	group.GET("/:id/file", s.getPhotoFile)
	group.GET("/:id/cache", s.getPhotoCache)
	group.POST("", s.createPhoto)
	group.PUT("/:id", s.updatePhoto)
	group.DELETE("/:id", s.deletePhoto)
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) recentLimit() int {
	if s.RecentLimit > 0 {
		return s.RecentLimit
	}
	return ingest.DefaultRecentLimit
}
