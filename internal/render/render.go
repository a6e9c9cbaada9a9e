package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"corview/internal/fsutil"
	"corview/internal/imaging"
)

// artifactExt is the native output format of the comparative artifact.
const artifactExt = ".html"

// Options controls artifact geometry and compositing.
type Options struct {
	PanelWidth  int
	PanelHeight int
	Alpha       uint8 // alpha plane for the composited 2D image
	Window      bool  // auto intensity window on the volume frame
	WindowLow   float64
	WindowHigh  float64
}

// Renderer writes two-panel comparative artifacts: a grayscale volume frame
// on the left, the composited 2D image on the right, with a shared pan/zoom
// viewport keeping the panels spatially linked.
type Renderer struct {
	opts Options
	log  *slog.Logger
}

// New creates a Renderer. Zero panel dimensions fall back to 500x500.
func New(opts Options, log *slog.Logger) *Renderer {
	if opts.PanelWidth <= 0 {
		opts.PanelWidth = 500
	}
	if opts.PanelHeight <= 0 {
		opts.PanelHeight = 500
	}
	return &Renderer{opts: opts, log: log}
}

// Render produces the artifact for one volume frame and one slice and writes
// it to outputPath, appending the .html extension when missing. Repeated
// calls with identical arguments overwrite the file with identical bytes.
// The resolved path is returned.
func (r *Renderer) Render(vol *imaging.Volume, frameIndex int, sl *imaging.Slice, outputPath string) (string, error) {
	frame, err := vol.Frame(frameIndex)
	if err != nil {
		return "", err
	}
	if r.opts.Window {
		frame = imaging.AutoWindow(frame, r.opts.WindowLow, r.opts.WindowHigh)
	}

	rgba, err := imaging.ToRGBA(sl, r.opts.Alpha)
	if err != nil {
		return "", err
	}

	left, err := encodeGrayPNG(frame)
	if err != nil {
		return "", fmt.Errorf("failed to encode volume frame: %w", err)
	}
	right, err := encodeRGBAPNG(sl.Width(), sl.Height(), rgba)
	if err != nil {
		return "", fmt.Errorf("failed to encode slice image: %w", err)
	}

	out := outputPath
	if !strings.HasSuffix(strings.ToLower(out), artifactExt) {
		out += artifactExt
	}

	data := pageData{
		Title:      fmt.Sprintf("corview: %s / %s", vol.Filename(), sl.Filename()),
		VolumeName: vol.Filename(),
		SliceName:  sl.Filename(),
		FrameIndex: frameIndex,
		FrameCount: vol.FrameCount(),
		Position:   sl.Position(),
		PanelW:     r.opts.PanelWidth,
		PanelH:     r.opts.PanelHeight,
		FrameW:     frame.Width,
		FrameH:     frame.Height,
		LeftSrc:    dataURI(left),
		RightSrc:   dataURI(right),
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build artifact: %w", err)
	}

	if err := fsutil.EnsureDir(out); err != nil {
		return "", fmt.Errorf("failed to create output directory for %s: %w", out, err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	if r.log != nil {
		r.log.Debug("artifact written",
			"path", out,
			"bytes", buf.Len(),
			"frame", frameIndex,
			"slice", sl.Filename(),
		)
	}
	return out, nil
}

// ArtifactName normalizes a user-entered output name to its artifact form.
func ArtifactName(name string) string {
	if !strings.HasSuffix(strings.ToLower(name), artifactExt) {
		name += artifactExt
	}
	return filepath.Base(name)
}

func encodeGrayPNG(f imaging.Frame) ([]byte, error) {
	img := &image.Gray{Pix: f.Pix, Stride: f.Width, Rect: image.Rect(0, 0, f.Width, f.Height)}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeRGBAPNG(w, h int, pix []uint8) ([]byte, error) {
	img := &image.RGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func dataURI(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}
