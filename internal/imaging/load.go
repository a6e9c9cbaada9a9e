package imaging

import (
	"fmt"
	"path/filepath"

	"gopkg.in/gographics/imagick.v3/imagick"
)

// Info describes a decoded file without keeping its pixels.
type Info struct {
	Path   string
	Format string
	Frames int
	Width  int
	Height int
}

// LoadVolume decodes a multi-frame image file (e.g. a TIFF stack) into an
// 8-bit grayscale Volume. Single-frame files fail with ErrFormat: a plain 2D
// image is not a stack.
func LoadVolume(path string) (*Volume, error) {
	imagick.Initialize()
	defer imagick.Terminate()

	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImage(path); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	n := int(mw.GetNumberImages())
	if n < 2 {
		return nil, fmt.Errorf("%w: %s decodes to a single frame, not a 3D stack", ErrFormat, filepath.Base(path))
	}

	frames := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		mw.SetIteratorIndex(i)
		w := int(mw.GetImageWidth())
		h := int(mw.GetImageHeight())
		pix, err := exportBytes(mw, w, h, "I")
		if err != nil {
			return nil, fmt.Errorf("failed to export frame %d of %s: %w", i, path, err)
		}
		frames = append(frames, Frame{Width: w, Height: h, Pix: pix})
	}

	return NewVolume(filepath.Base(path), frames)
}

// LoadSlice decodes a single-frame image file into an 8-bit RGB Slice
// registered at position against a frameCount-deep volume. Multi-frame files
// fail with ErrFormat: a stack is not a 2D image.
func LoadSlice(path string, position float64, frameCount int) (*Slice, error) {
	imagick.Initialize()
	defer imagick.Terminate()

	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImage(path); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if n := int(mw.GetNumberImages()); n != 1 {
		return nil, fmt.Errorf("%w: %s decodes to %d frames, expected a single 2D image", ErrFormat, filepath.Base(path), n)
	}
	if t := mw.GetImageType(); t == imagick.IMAGE_TYPE_GRAYSCALE || t == imagick.IMAGE_TYPE_GRAYSCALE_ALPHA {
		return nil, fmt.Errorf("%w: %s has no color channels, expected an RGB image", ErrFormat, filepath.Base(path))
	}

	w := int(mw.GetImageWidth())
	h := int(mw.GetImageHeight())
	pix, err := exportBytes(mw, w, h, "RGB")
	if err != nil {
		return nil, fmt.Errorf("failed to export pixels of %s: %w", path, err)
	}

	return NewSlice(filepath.Base(path), w, h, pix, position, frameCount)
}

// Probe decodes only the geometry of a file: frame count, per-frame size and
// container format.
func Probe(path string) (Info, error) {
	imagick.Initialize()
	defer imagick.Terminate()

	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImage(path); err != nil {
		return Info{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	mw.SetIteratorIndex(0)
	return Info{
		Path:   path,
		Format: mw.GetImageFormat(),
		Frames: int(mw.GetNumberImages()),
		Width:  int(mw.GetImageWidth()),
		Height: int(mw.GetImageHeight()),
	}, nil
}

// exportBytes pulls an 8-bit channel export out of the wand. ImageMagick
// returns an interface value; PIXEL_CHAR maps to a byte slice.
func exportBytes(mw *imagick.MagickWand, w, h int, channels string) ([]uint8, error) {
	raw, err := mw.ExportImagePixels(0, 0, uint(w), uint(h), channels, imagick.PIXEL_CHAR)
	if err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case []uint8:
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected pixel type: %T", raw)
	}
}
