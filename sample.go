package dering

import "github.com/deepteams/dering/internal/dsp"

// sample is the backing store of a frame plane: narrow (8-bit) or wide
// (up to 16-bit) samples.
type sample interface {
	~uint8 | ~uint16
}

// workPlane is the widened working copy of one frame plane. It is sized to the
// plane's subsampled extent and addressed through offset.
type workPlane struct {
	pix    []int16
	stride int
	width  int
	height int
	subX   int
	subY   int
}

func (w *workPlane) offset(row, col int) int {
	return row*w.stride + col
}

// planeExtent returns the sample dimensions of a plane covering the grid.
func planeExtent(mi *ModeInfoGrid, subX, subY int) (w, h int) {
	return (mi.Cols * MIBlockSize) >> uint(subX), (mi.Rows * MIBlockSize) >> uint(subY)
}

// stageSamples copies and widens the w.width x w.height region of src.
func stageSamples[T sample](w *workPlane, src []T, srcStride int) {
	for r := 0; r < w.height; r++ {
		in := src[r*srcStride : r*srcStride+w.width]
		out := w.pix[w.offset(r, 0) : w.offset(r, 0)+w.width]
		for c, v := range in {
			out[c] = int16(v)
		}
	}
}

// commitSamples narrows a width x height block of filtered samples into dst
// at dstOff.
func commitSamples[T sample](dst []T, dstStride, dstOff int, y []int16, yStride, width, height int, clip func(int) T) {
	for r := 0; r < height; r++ {
		in := y[r*yStride : r*yStride+width]
		out := dst[dstOff+r*dstStride : dstOff+r*dstStride+width]
		for c, v := range in {
			out[c] = clip(int(v))
		}
	}
}

// load stages plane p into w. The frame's storage width is chosen here once
// per plane.
func (f *Frame) load(p *Plane, w *workPlane) {
	if f.HighBitDepth {
		stageSamples(w, p.Pix16, p.Stride)
		return
	}
	stageSamples(w, p.Pix, p.Stride)
}

// store writes a width x height block of filtered samples to plane p with its
// top-left sample at (row, col).
func (f *Frame) store(p *Plane, row, col int, y []int16, yStride, width, height int) {
	off := row*p.Stride + col
	if f.HighBitDepth {
		bd := f.BitDepth
		commitSamples(p.Pix16, p.Stride, off, y, yStride, width, height, func(v int) uint16 {
			return dsp.ClipPixel(v, bd)
		})
		return
	}
	commitSamples(p.Pix, p.Stride, off, y, yStride, width, height, dsp.Kclip1)
}

// samplesLen returns the number of samples of the plane's active store.
func (f *Frame) samplesLen(p *Plane) int {
	if f.HighBitDepth {
		return len(p.Pix16)
	}
	return len(p.Pix)
}
