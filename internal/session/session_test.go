package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"corview/internal/imaging"
)

type stubRenderer struct {
	calls []stubCall
	err   error
}

type stubCall struct {
	frameIndex int
	output     string
}

func (s *stubRenderer) Render(vol *imaging.Volume, frameIndex int, sl *imaging.Slice, outputPath string) (string, error) {
	s.calls = append(s.calls, stubCall{frameIndex: frameIndex, output: outputPath})
	if s.err != nil {
		return "", s.err
	}
	return outputPath + ".html", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeVolume(t *testing.T, frames int) *imaging.Volume {
	t.Helper()
	fs := make([]imaging.Frame, frames)
	for i := range fs {
		fs[i] = imaging.Frame{Width: 8, Height: 8, Pix: make([]uint8, 64)}
	}
	vol, err := imaging.NewVolume("scan.tif", fs)
	if err != nil {
		t.Fatalf("NewVolume failed: %v", err)
	}
	return vol
}

func TestSessionSliceRequiresVolume(t *testing.T) {
	s := New(&stubRenderer{}, nil, testLogger())
	if _, err := s.LoadSlice("missing.png", 0); err == nil {
		t.Fatalf("expected error adding a slice before any volume")
	}
}

func TestSessionAddAndListSlices(t *testing.T) {
	s := New(&stubRenderer{}, nil, testLogger())
	s.AttachVolume(makeVolume(t, 10))

	for i := 0; i < 2; i++ {
		if _, err := s.AddSlice(makeSlice(t, fmt.Sprintf("h%d.png", i), float64(i))); err != nil {
			t.Fatalf("AddSlice failed: %v", err)
		}
	}

	entries := s.Slices()
	if len(entries) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(entries))
	}
	if entries[0].ID != "img-0001" || entries[1].ID != "img-0002" {
		t.Fatalf("unexpected identities: %+v", entries)
	}

	s.ClearSlices()
	if len(s.Slices()) != 0 {
		t.Fatalf("registry not empty after ClearSlices")
	}
}

func TestSessionRenderDefaultsToDeclaredPosition(t *testing.T) {
	stub := &stubRenderer{}
	s := New(stub, nil, testLogger())
	s.AttachVolume(makeVolume(t, 10))

	id, err := s.AddSlice(makeSlice(t, "h.png", 7))
	if err != nil {
		t.Fatalf("AddSlice failed: %v", err)
	}

	out, err := s.Render(id, -1, "out")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "out.html" {
		t.Fatalf("unexpected resolved path %s", out)
	}
	if len(stub.calls) != 1 || stub.calls[0].frameIndex != 7 {
		t.Fatalf("expected frame 7 from declared position, got %+v", stub.calls)
	}
}

func TestSessionRenderExplicitFrame(t *testing.T) {
	stub := &stubRenderer{}
	s := New(stub, nil, testLogger())
	s.AttachVolume(makeVolume(t, 10))

	id, err := s.AddSlice(makeSlice(t, "h.png", 7))
	if err != nil {
		t.Fatalf("AddSlice failed: %v", err)
	}
	if _, err := s.Render(id, 2, "out"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if stub.calls[0].frameIndex != 2 {
		t.Fatalf("explicit frame ignored: %+v", stub.calls)
	}
}

func TestSessionRenderUnknownID(t *testing.T) {
	s := New(&stubRenderer{}, nil, testLogger())
	s.AttachVolume(makeVolume(t, 10))

	if _, err := s.Render("img-9999", -1, "out"); !errors.Is(err, imaging.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRenderWithoutVolume(t *testing.T) {
	s := New(&stubRenderer{}, nil, testLogger())
	// Register directly against the registry to set up the inconsistent state.
	id, err := s.AddSlice(makeSlice(t, "h.png", 0))
	if err != nil {
		t.Fatalf("AddSlice failed: %v", err)
	}
	if _, err := s.Render(id, 0, "out"); err == nil {
		t.Fatalf("expected error rendering without a volume")
	}
}

func TestSessionRenderSurfacesRendererError(t *testing.T) {
	stub := &stubRenderer{err: errors.New("encode failed")}
	s := New(stub, nil, testLogger())
	s.AttachVolume(makeVolume(t, 10))

	id, err := s.AddSlice(makeSlice(t, "h.png", 0))
	if err != nil {
		t.Fatalf("AddSlice failed: %v", err)
	}
	if _, err := s.Render(id, 0, "out"); err == nil {
		t.Fatalf("renderer error swallowed")
	}
}
