package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// artifactEvent is the websocket payload announcing artifact changes.
type artifactEvent struct {
	Type string    `json:"type"`
	Name string    `json:"name"`
	Op   string    `json:"op"`
	At   time.Time `json:"at"`
}

// watchArtifacts follows the artifact directory and broadcasts every created
// or rewritten artifact to connected clients. External writes to the
// directory are announced too, which is deliberate: the CLI and the server
// can share an output directory.
func (s *Server) watchArtifacts(ctx context.Context) {
	if err := os.MkdirAll(s.artifactDir, 0o755); err != nil {
		s.log.Warn("cannot create artifact directory", "dir", s.artifactDir, "error", err)
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Warn("artifact watcher unavailable", "error", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(s.artifactDir); err != nil {
		s.log.Warn("cannot watch artifact directory", "dir", s.artifactDir, "error", err)
		return
	}
	s.log.Debug("watching artifact directory", "dir", s.artifactDir)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(strings.ToLower(name), ".html") {
				continue
			}
			payload, err := json.Marshal(artifactEvent{
				Type: "artifact",
				Name: name,
				Op:   ev.Op.String(),
				At:   time.Now().UTC(),
			})
			if err != nil {
				continue
			}
			select {
			case s.hub.broadcast <- payload:
			default:
				// Nobody reading fast enough; drop rather than stall the watcher.
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("artifact watcher error", "error", err)
		}
	}
}
