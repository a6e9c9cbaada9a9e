package imaging

import "fmt"

// Frame is one 2D grayscale plane of a Volume: 8-bit intensities in row-major
// order, len(Pix) == Width*Height.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// Volume is a loaded 3D grayscale stack (e.g. micro-CT), indexed by frame.
// Immutable after construction.
type Volume struct {
	filename string
	frames   []Frame
}

// NewVolume builds a Volume from in-memory frames. All frames must share the
// same geometry and carry a pixel buffer matching it.
func NewVolume(filename string, frames []Frame) (*Volume, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: volume has no frames", ErrFormat)
	}
	w, h := frames[0].Width, frames[0].Height
	for i, f := range frames {
		if f.Width != w || f.Height != h {
			return nil, fmt.Errorf("%w: frame %d is %dx%d, expected %dx%d", ErrFormat, i, f.Width, f.Height, w, h)
		}
		if len(f.Pix) != f.Width*f.Height {
			return nil, fmt.Errorf("%w: frame %d has %d pixels for %dx%d", ErrShape, i, len(f.Pix), f.Width, f.Height)
		}
	}
	return &Volume{filename: filename, frames: frames}, nil
}

// Filename returns the source filename the volume was decoded from.
func (v *Volume) Filename() string { return v.filename }

// FrameCount returns the stack depth.
func (v *Volume) FrameCount() int { return len(v.frames) }

// Width returns the per-frame width in pixels.
func (v *Volume) Width() int { return v.frames[0].Width }

// Height returns the per-frame height in pixels.
func (v *Volume) Height() int { return v.frames[0].Height }

// Frame returns the 2D plane at index, failing with ErrRange for indices
// outside [0, FrameCount-1].
func (v *Volume) Frame(index int) (Frame, error) {
	if index < 0 || index >= len(v.frames) {
		return Frame{}, fmt.Errorf("%w: frame %d of %d-frame volume", ErrRange, index, len(v.frames))
	}
	return v.frames[index], nil
}
