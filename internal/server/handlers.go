package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"corview/internal/imaging"
	"corview/internal/render"
)

type volumeInfo struct {
	File   string `json:"file"`
	Frames int    `json:"frames"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type sliceEntry struct {
	ID       string  `json:"id"`
	File     string  `json:"file"`
	Position float64 `json:"position"`
}

type loadVolumeRequest struct {
	Path string `json:"path"`
}

type loadSliceRequest struct {
	Path     string  `json:"path"`
	Position float64 `json:"position"`
}

type renderRequest struct {
	ID     string `json:"id"`
	Frame  *int   `json:"frame"`  // omitted selects the slice's declared position
	Output string `json:"output"` // artifact name, relative to the artifact dir
}

type renderResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleVolumeGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	vol := s.sess.Volume()
	s.mu.Unlock()

	if vol == nil {
		writeError(w, http.StatusNotFound, "no volume loaded")
		return
	}
	writeJSON(w, http.StatusOK, volumeInfo{
		File:   vol.Filename(),
		Frames: vol.FrameCount(),
		Width:  vol.Width(),
		Height: vol.Height(),
	})
}

func (s *Server) handleVolumeLoad(w http.ResponseWriter, r *http.Request) {
	var req loadVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "body must be {\"path\": ...}")
		return
	}

	s.mu.Lock()
	err := s.sess.LoadVolume(req.Path)
	vol := s.sess.Volume()
	s.mu.Unlock()

	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, volumeInfo{
		File:   vol.Filename(),
		Frames: vol.FrameCount(),
		Width:  vol.Width(),
		Height: vol.Height(),
	})
}

func (s *Server) handleSliceList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries := s.sess.Slices()
	s.mu.Unlock()

	out := make([]sliceEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, sliceEntry{ID: e.ID, File: e.Filename, Position: e.Position})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSliceLoad(w http.ResponseWriter, r *http.Request) {
	var req loadSliceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "body must be {\"path\": ..., \"position\": ...}")
		return
	}

	s.mu.Lock()
	id, err := s.sess.LoadSlice(req.Path, req.Position)
	s.mu.Unlock()

	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleSliceClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.sess.ClearSlices()
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "body must be {\"id\": ...}")
		return
	}

	frame := -1
	if req.Frame != nil {
		frame = *req.Frame
	}
	name := req.Output
	if name == "" {
		name = req.ID
	}
	name = render.ArtifactName(name)
	out := filepath.Join(s.artifactDir, name)

	s.mu.Lock()
	resolved, err := s.sess.Render(req.ID, frame, out)
	s.mu.Unlock()

	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{
		Path: resolved,
		URL:  "/artifacts/" + filepath.Base(resolved),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := s.cat.RecentRenders(limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, imaging.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, imaging.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, imaging.ErrFormat),
		errors.Is(err, imaging.ErrRange),
		errors.Is(err, imaging.ErrShape):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
