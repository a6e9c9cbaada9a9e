package imaging

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AutoWindow linearly rescales a grayscale frame so that the lowPct and
// highPct percentiles of its intensity distribution map to 0 and 255.
// Micro-CT frames reduced to 8 bits are often low-contrast; this is the usual
// display windowing, applied to a copy. Percentiles are fractions in [0, 1].
func AutoWindow(f Frame, lowPct, highPct float64) Frame {
	out := Frame{Width: f.Width, Height: f.Height, Pix: make([]uint8, len(f.Pix))}
	if len(f.Pix) == 0 || lowPct >= highPct {
		copy(out.Pix, f.Pix)
		return out
	}

	values := make([]float64, len(f.Pix))
	for i, p := range f.Pix {
		values[i] = float64(p)
	}
	sort.Float64s(values)
	lo := stat.Quantile(lowPct, stat.Empirical, values, nil)
	hi := stat.Quantile(highPct, stat.Empirical, values, nil)
	if hi <= lo {
		copy(out.Pix, f.Pix)
		return out
	}

	scale := 255.0 / (hi - lo)
	for i, p := range f.Pix {
		v := (float64(p) - lo) * scale
		switch {
		case v < 0:
			out.Pix[i] = 0
		case v > 255:
			out.Pix[i] = 255
		default:
			out.Pix[i] = uint8(v + 0.5)
		}
	}
	return out
}
