package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"corview/internal/catalog"
	"corview/internal/session"

	"github.com/gorilla/mux"
)

// Server exposes one Session over HTTP: load a volume, register slices,
// trigger renders and fetch the resulting artifacts. A websocket feed
// announces artifacts as they land in the artifact directory, so an open
// browser tab learns about new renders without polling.
type Server struct {
	addr        string
	artifactDir string
	sess        *session.Session
	cat         *catalog.Store
	hub         *hub
	log         *slog.Logger
	server      *http.Server

	// The session is single-user state; one mutex serializes every
	// handler that touches it.
	mu sync.Mutex
}

// NewServer wires a session into an HTTP server. cat may be nil; the history
// endpoint then reports that no catalog is configured.
func NewServer(addr, artifactDir string, sess *session.Session, cat *catalog.Store, log *slog.Logger) *Server {
	return &Server{
		addr:        addr,
		artifactDir: artifactDir,
		sess:        sess,
		cat:         cat,
		hub:         newHub(log),
		log:         log,
	}
}

// Handler returns the configured router. Split out from Start so tests can
// drive the API through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/volume", s.handleVolumeGet).Methods("GET")
	r.HandleFunc("/api/volume", s.handleVolumeLoad).Methods("POST")
	r.HandleFunc("/api/slices", s.handleSliceList).Methods("GET")
	r.HandleFunc("/api/slices", s.handleSliceLoad).Methods("POST")
	r.HandleFunc("/api/slices", s.handleSliceClear).Methods("DELETE")
	r.HandleFunc("/api/render", s.handleRender).Methods("POST")
	r.HandleFunc("/api/history", s.handleHistory).Methods("GET")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	r.PathPrefix("/artifacts/").Handler(
		http.StripPrefix("/artifacts/", http.FileServer(http.Dir(s.artifactDir))))
	return r
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.run(ctx)
	go s.watchArtifacts(ctx)

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctxShutdown)
	}()

	s.log.Info("server starting", "addr", s.addr, "artifacts", s.artifactDir)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
