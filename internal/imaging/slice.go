package imaging

import "fmt"

// Slice is a loaded 2D color image (e.g. a histology section) together with
// the volume frame it was registered against. 8-bit RGB in row-major order,
// len(Pix) == Width*Height*3.
type Slice struct {
	filename string
	width    int
	height   int
	pix      []uint8
	position float64
}

// NewSlice builds a Slice from in-memory RGB pixels. position is validated
// here, at the data layer, against the active volume's frame count so the
// invariant holds regardless of entry path.
func NewSlice(filename string, width, height int, pix []uint8, position float64, frameCount int) (*Slice, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: slice is %dx%d", ErrFormat, width, height)
	}
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d RGB slice", ErrShape, len(pix), width, height)
	}
	if frameCount > 0 && (position < 0 || position > float64(frameCount-1)) {
		return nil, fmt.Errorf("%w: position %g outside [0, %d]", ErrRange, position, frameCount-1)
	}
	if position < 0 {
		return nil, fmt.Errorf("%w: position %g is negative", ErrRange, position)
	}
	return &Slice{filename: filename, width: width, height: height, pix: pix, position: position}, nil
}

// Filename returns the source filename the slice was decoded from.
func (s *Slice) Filename() string { return s.filename }

// Width returns the slice width in pixels.
func (s *Slice) Width() int { return s.width }

// Height returns the slice height in pixels.
func (s *Slice) Height() int { return s.height }

// Pix returns the raw RGB pixel buffer.
func (s *Slice) Pix() []uint8 { return s.pix }

// Position returns the volume frame this slice was registered against.
func (s *Slice) Position() float64 { return s.position }

// FrameIndex returns the position truncated to an integer frame index.
func (s *Slice) FrameIndex() int { return int(s.position) }
