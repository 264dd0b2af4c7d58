package dsp

import "math"

// SSIM and PSNR between two planes of 8- to 16-bit samples. The windowing and
// constants follow libwebp's ssim.c, with the stabilizing constants scaled to
// the sample range.

// Sample is the storage type of a plane.
type Sample interface {
	~uint8 | ~uint16
}

// DistoStats accumulates statistics for SSIM computation over a window.
type DistoStats struct {
	W             float64 // total weight
	Xm, Ym        float64 // weighted sum of x, y
	Xxm, Xym, Yym float64 // weighted sum of x*x, x*y, y*y
}

// AccumulateWeighted adds a sample pair (x, y) with weight w.
func (s *DistoStats) AccumulateWeighted(x, y int, w float64) {
	fx, fy := float64(x), float64(y)
	s.W += w
	s.Xm += w * fx
	s.Ym += w * fy
	s.Xxm += w * fx * fx
	s.Xym += w * fx * fy
	s.Yym += w * fy * fy
}

// ssimKernel is the radius of the hat-shaped window.
const ssimKernel = 3

var ssimWeight = [2*ssimKernel + 1]float64{1, 2, 3, 4, 3, 2, 1}

// SSIMFromStats computes the SSIM of the accumulated window. bitDepth scales
// the stabilizing constants; samples darker than 8 (in 8-bit units) on both
// sides count as identical.
func SSIMFromStats(s *DistoStats, bitDepth int) float64 {
	if s.W == 0 {
		return 0
	}
	scale := float64(uint64(1) << uint(2*(bitDepth-8)))
	w2 := s.W * s.W
	c1 := 20 * w2 * scale
	c2 := 60 * w2 * scale
	c3 := 8 * 8 * w2 * scale

	xmxm := s.Xm * s.Xm
	ymym := s.Ym * s.Ym
	if xmxm+ymym < c3 {
		return 1.0
	}
	xmym := s.Xm * s.Ym
	sxy := math.Max(s.Xym*s.W-xmym, 0)
	sxx := s.Xxm*s.W - xmxm
	syy := s.Yym*s.W - ymym

	fnum := (2*xmym + c1) * (2*sxy + c2)
	fden := (xmxm + ymym + c1) * (sxx + syy + c2)
	if fden == 0 {
		return 1.0
	}
	return fnum / fden
}

// ssimAt returns the SSIM of the window centered on (xo, yo), clipped to the
// w x h plane.
func ssimAt[S Sample](a []S, strideA int, b []S, strideB int, xo, yo, w, h, bitDepth int) float64 {
	var s DistoStats
	ymin, ymax := max(yo-ssimKernel, 0), min(yo+ssimKernel, h-1)
	xmin, xmax := max(xo-ssimKernel, 0), min(xo+ssimKernel, w-1)
	for y := ymin; y <= ymax; y++ {
		for x := xmin; x <= xmax; x++ {
			wt := ssimWeight[ssimKernel+x-xo] * ssimWeight[ssimKernel+y-yo]
			s.AccumulateWeighted(int(a[x+y*strideA]), int(b[x+y*strideB]), wt)
		}
	}
	return SSIMFromStats(&s, bitDepth)
}

// SSIM returns the mean windowed SSIM of two w x h planes.
func SSIM[S Sample](a []S, strideA int, b []S, strideB int, w, h, bitDepth int) float64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += ssimAt(a, strideA, b, strideB, x, y, w, h, bitDepth)
		}
	}
	return sum / float64(w*h)
}

// SSE returns the sum of squared differences of two w x h planes.
func SSE[S Sample](a []S, strideA int, b []S, strideB int, w, h int) uint64 {
	var sse uint64
	for y := 0; y < h; y++ {
		ra := a[y*strideA : y*strideA+w]
		rb := b[y*strideB : y*strideB+w]
		for x := range ra {
			d := int64(ra[x]) - int64(rb[x])
			sse += uint64(d * d)
		}
	}
	return sse
}

// PSNRFromSSE converts an SSE over count samples to PSNR in dB for the given
// bit depth. Identical planes report 99.
func PSNRFromSSE(sse uint64, count, bitDepth int) float64 {
	if sse == 0 || count == 0 {
		return 99.0 // perfect
	}
	peak := float64(int(1)<<uint(bitDepth) - 1)
	mse := float64(sse) / float64(count)
	return 10.0 * math.Log10(peak*peak/mse)
}
