package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/polochinoc/Small-TIFF-API/internal/artifact"
	"github.com/polochinoc/Small-TIFF-API/internal/attributes"
	"github.com/polochinoc/Small-TIFF-API/internal/log"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"go.uber.org/zap"
)

// formField is the multipart field carrying the raster.
const formField = "file"

func (s *Server) handleAttributes(w http.ResponseWriter, r *http.Request) {
	rs, name := s.readRaster(w, r)
	var (
		rec attributes.Record
		err error
	)
	if r.URL.Query().Get("bands") == "true" {
		rec, err = attributes.Describe(rs)
	} else {
		rec = attributes.Report(rs)
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	log.Debug("server: attributes", zap.String("source", name), zap.Bool("empty", rec.Empty()))
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	width, err1 := intParam(r, "width")
	height, err2 := intParam(r, "height")
	if err := errors.Join(err1, err2); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if width == 0 && height == 0 {
		width, height = s.cfg.Profile.Width, s.cfg.Profile.Height
	}
	rs, name := s.readRaster(w, r)
	a, err := s.thumbs.MakeNamed(r.Context(), name, rs, width, height)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeArtifact(w, r, a)
}

func (s *Server) handleNDVI(w http.ResponseWriter, r *http.Request) {
	zones, err := intParam(r, "zones")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pal := r.URL.Query().Get("palette")
	if pal == "" {
		pal = s.cfg.Profile.Palette
	}
	rs, name := s.readRaster(w, r)
	a, zs, err := s.ndvi.MakeZoned(r.Context(), name, rs, pal, zones)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	if a.Palette != "" {
		w.Header().Set(HeaderPalette, a.Palette)
	}
	if len(zs) > 0 {
		if data, err := json.Marshal(zs); err == nil {
			w.Header().Set(HeaderZones, string(data))
		}
	}
	writeArtifact(w, r, a)
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	a, err := s.cfg.Store.Latest(artifact.Slot(r.PathValue("slot")))
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	a.Stale = false
	writeArtifact(w, r, a)
}

// readRaster decodes the uploaded raster. Any failure yields a nil raster
// so the operations apply their fallback.
func (s *Server) readRaster(w http.ResponseWriter, r *http.Request) (raster.Raster, string) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	f, hdr, err := r.FormFile(formField)
	if err != nil {
		log.Warn("server: no raster in request", zap.Error(err))
		return nil, ""
	}
	defer f.Close()

	tmp, err := os.CreateTemp("", "upload-*.tif")
	if err != nil {
		log.Error("server: temp file", zap.Error(err))
		return nil, hdr.Filename
	}
	defer os.Remove(tmp.Name())
	_, err = io.Copy(tmp, f)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Warn("server: read upload", zap.String("source", hdr.Filename), zap.Error(err))
		return nil, hdr.Filename
	}

	rs, err := s.cfg.Open(tmp.Name())
	if err != nil {
		log.Warn("server: open raster", zap.String("source", hdr.Filename), zap.Error(err))
		return nil, hdr.Filename
	}
	return rs, hdr.Filename
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, artifact.ErrUnknownSlot), errors.Is(err, artifact.ErrNoArtifact):
		return http.StatusNotFound
	case errors.Is(err, raster.ErrNoInput), errors.Is(err, raster.ErrNoBands), errors.Is(err, raster.ErrEmpty):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeArtifact(w http.ResponseWriter, r *http.Request, a *artifact.Artifact) {
	etag := strconv.Quote(a.Hash)
	h := w.Header()
	h.Set("ETag", etag)
	if a.Stale {
		h.Set(HeaderStale, "true")
	}
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	ct := a.MediaType
	if ct == "" {
		ct = "image/png"
	}
	h.Set("Content-Type", ct)
	h.Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(a.Data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Error("server: request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
