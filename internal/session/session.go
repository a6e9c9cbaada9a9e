package session

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"corview/internal/catalog"
	"corview/internal/imaging"
	"corview/internal/logging"
)

// Renderer produces the comparative artifact for one volume frame and one
// registered slice. Implemented by render.Renderer; stubbed in tests.
type Renderer interface {
	Render(vol *imaging.Volume, frameIndex int, sl *imaging.Slice, outputPath string) (string, error)
}

// Session owns the interactive state: the single active volume, the slice
// registry and the renderer. Every mutation flows through it, so there is no
// package-level state and tests get full isolation. Session itself is not
// concurrency-safe; the HTTP layer serializes calls.
type Session struct {
	log      *slog.Logger
	cat      *catalog.Store
	renderer Renderer
	volume   *imaging.Volume
	slices   *Registry
}

// New creates an empty session. cat may be nil to run without history.
func New(renderer Renderer, cat *catalog.Store, log *slog.Logger) *Session {
	return &Session{
		log:      log,
		cat:      cat,
		renderer: renderer,
		slices:   NewRegistry(),
	}
}

// LoadVolume decodes path as a 3D stack and makes it the active volume,
// replacing any previous one.
func (s *Session) LoadVolume(path string) error {
	vol, err := imaging.LoadVolume(path)
	if err != nil {
		return err
	}
	s.AttachVolume(vol)
	_ = s.cat.RecordImport(path, "volume", vol.FrameCount(), vol.Width(), vol.Height())
	return nil
}

// AttachVolume makes an already-decoded volume the active one.
func (s *Session) AttachVolume(vol *imaging.Volume) {
	s.volume = vol
	s.log.Info("volume loaded",
		"file", vol.Filename(),
		"frames", vol.FrameCount(),
		"width", vol.Width(),
		"height", vol.Height(),
	)
}

// Volume returns the active volume, or nil when none has been loaded.
func (s *Session) Volume() *imaging.Volume { return s.volume }

// LoadSlice decodes path as a 2D image registered at position against the
// active volume and adds it to the registry. A volume must be loaded first so
// the position can be validated.
func (s *Session) LoadSlice(path string, position float64) (string, error) {
	if s.volume == nil {
		return "", fmt.Errorf("no volume loaded; load a 3D stack before adding 2D images")
	}
	sl, err := imaging.LoadSlice(path, position, s.volume.FrameCount())
	if err != nil {
		return "", err
	}
	id, err := s.AddSlice(sl)
	if err != nil {
		return "", err
	}
	_ = s.cat.RecordImport(path, "slice", 1, sl.Width(), sl.Height())
	return id, nil
}

// AddSlice registers an already-decoded slice and returns its identity.
func (s *Session) AddSlice(sl *imaging.Slice) (string, error) {
	id, err := s.slices.Add(sl)
	if err != nil {
		return "", err
	}
	s.log.Info("slice registered",
		"id", id,
		"file", sl.Filename(),
		"position", sl.Position(),
	)
	return id, nil
}

// Slice returns a registered slice by identity.
func (s *Session) Slice(id string) (*imaging.Slice, error) { return s.slices.Get(id) }

// Slices lists the registry in insertion order.
func (s *Session) Slices() []Entry { return s.slices.List() }

// ClearSlices empties the registry.
func (s *Session) ClearSlices() {
	n := s.slices.Len()
	s.slices.Clear()
	s.log.Info("registry cleared", "removed", n)
}

// Render produces the comparative artifact for the slice registered under id.
// frameIndex < 0 selects the slice's declared position. The resolved output
// path (extension normalized) is returned, and the attempt is recorded in the
// catalog either way.
func (s *Session) Render(id string, frameIndex int, outputPath string) (string, error) {
	sl, err := s.slices.Get(id)
	if err != nil {
		return "", err
	}
	if s.volume == nil {
		return "", fmt.Errorf("no volume loaded; nothing to compare %s against", id)
	}
	if frameIndex < 0 {
		frameIndex = sl.FrameIndex()
	}

	jobID := newID("render")
	_ = s.cat.RecordRenderQueued(catalog.RenderRecord{
		ID:         jobID,
		VolumeFile: s.volume.Filename(),
		SliceFile:  sl.Filename(),
		Frame:      frameIndex,
		OutputPath: outputPath,
		Status:     "queued",
	})
	logging.LogRenderStart(s.log, jobID, s.volume.Filename(), sl.Filename(), frameIndex, outputPath)

	start := time.Now()
	out, err := s.renderer.Render(s.volume, frameIndex, sl, outputPath)
	if err != nil {
		_ = s.cat.RecordRenderResult(jobID, "failed", out, err.Error())
		logging.LogRenderError(s.log, jobID, time.Since(start), err)
		return "", err
	}

	_ = s.cat.RecordRenderResult(jobID, "completed", out, "")
	logging.LogRenderComplete(s.log, jobID, time.Since(start), out)
	return out, nil
}

func newID(prefix string) string {
	ts := time.Now().UTC().Format("20060102T150405")
	return fmt.Sprintf("%s-%s-%04d", prefix, ts, rand.Intn(10000))
}
