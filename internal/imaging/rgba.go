package imaging

import "fmt"

// ToRGBA appends a constant alpha plane to a slice's RGB pixels, producing an
// RGBA buffer suitable for overlay-style rendering. Pure and deterministic:
// the first three channels of every pixel equal the input exactly.
func ToRGBA(sl *Slice, alpha uint8) ([]uint8, error) {
	if sl == nil {
		return nil, fmt.Errorf("%w: nil slice", ErrShape)
	}
	pix := sl.Pix()
	if len(pix) != sl.Width()*sl.Height()*3 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d RGB slice", ErrShape, len(pix), sl.Width(), sl.Height())
	}
	out := make([]uint8, sl.Width()*sl.Height()*4)
	for i := 0; i < sl.Width()*sl.Height(); i++ {
		out[i*4+0] = pix[i*3+0]
		out[i*4+1] = pix[i*3+1]
		out[i*4+2] = pix[i*3+2]
		out[i*4+3] = alpha
	}
	return out, nil
}
