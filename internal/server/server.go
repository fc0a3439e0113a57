// Package server exposes the raster operations over HTTP.
//
// Rasters are uploaded as the "file" field of a multipart form. Rendered
// artifacts are returned as image bytes with their content hash as ETag;
// artifacts served from a previous run carry X-Artifact-Stale: true.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/polochinoc/Small-TIFF-API/internal/artifact"
	"github.com/polochinoc/Small-TIFF-API/internal/encoder"
	"github.com/polochinoc/Small-TIFF-API/internal/geotiff"
	"github.com/polochinoc/Small-TIFF-API/internal/log"
	"github.com/polochinoc/Small-TIFF-API/internal/ndvi"
	"github.com/polochinoc/Small-TIFF-API/internal/profile"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"
	"github.com/polochinoc/Small-TIFF-API/internal/thumbnail"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxUpload bounds the size of an uploaded raster.
const DefaultMaxUpload = 512 << 20

// Response headers.
const (
	HeaderRequestID = "X-Request-Id"
	HeaderStale     = "X-Artifact-Stale"
	HeaderZones     = "X-NDVI-Zones"
	HeaderPalette   = "X-NDVI-Palette"
)

// Config holds the server dependencies.
type Config struct {
	Store     *artifact.Store
	Open      raster.Opener // nil = pure-Go GeoTIFF decoder
	Profile   profile.Profile
	Encoder   encoder.Encoder // thumbnail encoder, nil = PNG
	Strict    bool
	Seed      uint64
	MaxUpload int64
}

// Server routes requests to the raster operations.
type Server struct {
	cfg    Config
	thumbs *thumbnail.Compositor
	ndvi   *ndvi.Engine
	mux    *http.ServeMux
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Open == nil {
		cfg.Open = geotiff.OpenRaster
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	topts := thumbnail.DefaultOptions()
	topts.Strict = cfg.Strict
	topts.Quality = cfg.Profile.Quality

	s := &Server{
		cfg:    cfg,
		thumbs: thumbnail.New(cfg.Store, cfg.Encoder, topts),
		ndvi: ndvi.New(cfg.Store, nil, ndvi.Options{
			Red:    cfg.Profile.RedGroup(),
			Nir:    cfg.Profile.NirGroup(),
			Seed:   cfg.Seed,
			Strict: cfg.Strict,
		}),
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /attributes", s.handleAttributes)
	s.mux.HandleFunc("POST /thumbnail", s.handleThumbnail)
	s.mux.HandleFunc("POST /ndvi", s.handleNDVI)
	s.mux.HandleFunc("GET /artifacts/{slot}", s.handleArtifact)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		log.Info("server: request",
			zap.String("id", id), zap.String("method", r.Method), zap.String("path", r.URL.Path),
			zap.Int("status", rec.status), zap.Duration("elapsed", time.Since(start)))
	})
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("server: listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
