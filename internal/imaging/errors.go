package imaging

import "errors"

// Error taxonomy shared by the imaging, session and render layers. Callers
// classify failures with errors.Is; messages carry the specifics.
var (
	// ErrFormat means a decoded image has the wrong dimensionality for its
	// role: a volume must be a multi-frame stack, a slice must be a single
	// 3-channel frame.
	ErrFormat = errors.New("image has wrong dimensionality for its role")

	// ErrRange means a frame index or declared position is outside the
	// volume's [0, FrameCount-1] interval.
	ErrRange = errors.New("index out of range")

	// ErrShape means a pixel buffer does not match its declared geometry.
	ErrShape = errors.New("malformed pixel buffer")

	// ErrNotFound means a registry lookup missed.
	ErrNotFound = errors.New("slice not registered")

	// ErrDuplicate means a slice was added to a registry it already lives in.
	ErrDuplicate = errors.New("slice already registered")
)
