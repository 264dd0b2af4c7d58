package dsp

// Deringing kernel for one plane of one superblock.
//
// Like the loop filter primitives, every function takes full buffers plus
// explicit base offsets, so taps reaching above or left of a block resolve to
// valid non-negative indices.

// directionOffsets holds, per direction, the input-buffer offsets of the three
// taps on one side of the center sample. The other side is the negation.
var directionOffsets = [8][3]int{
	{-1*FiltStride + 1, -2*FiltStride + 2, -3*FiltStride + 3},
	{0*FiltStride + 1, -1*FiltStride + 2, -1*FiltStride + 3},
	{0*FiltStride + 1, 0*FiltStride + 2, 0*FiltStride + 3},
	{0*FiltStride + 1, 1*FiltStride + 2, 1*FiltStride + 3},
	{1*FiltStride + 1, 2*FiltStride + 2, 3*FiltStride + 3},
	{1*FiltStride + 0, 2*FiltStride + 1, 3*FiltStride + 1},
	{1*FiltStride + 0, 2*FiltStride + 0, 3*FiltStride + 0},
	{1*FiltStride + 0, 2*FiltStride - 1, 3*FiltStride - 1},
}

var directionTaps = [3]int16{3, 2, 2}

// DirTable holds the direction of every 8x8 unit of one superblock. It is
// written by the luma pass and read by the chroma passes of the same
// superblock.
type DirTable [NBlocks][NBlocks]int

// Reset clears all directions.
func (d *DirTable) Reset() {
	*d = DirTable{}
}

// Params describes one kernel invocation.
type Params struct {
	NHB, NVB   int // 8x8 units covered horizontally/vertically (clipped at frame edges)
	SBX, SBY   int // superblock column/row
	NHSB, NVSB int // superblock grid dimensions
	DecX, DecY int // plane subsampling; DecX must equal DecY and be 0 or 1
	Plane      int

	// Skip holds the skip flags of the frame starting at the superblock's
	// top-left unit; unit (by, bx) is Skip[by*SkipStride+bx].
	Skip       []uint8
	SkipStride int

	Threshold  int
	CoeffShift int
}

// Dering filters the NHB x NVB unit region of one plane of one superblock.
// x is the unfiltered plane with the superblock origin at xOff; the filtered
// samples are written to y starting at offset 0 with stride yStride. Skip
// units are copied unchanged.
func Dering(y []int16, yStride int, x []int16, xOff, xStride int, dirs *DirTable, p *Params) {
	var inbuf [inbufSize]int16
	var variance [NBlocks][NBlocks]int32
	var thresh [NBlocks][NBlocks]int

	bsize := 3 - p.DecX
	fn := bsize - LogBlockSize0
	in := FiltBorder*FiltStride + FiltBorder

	// Samples outside the frame stay at veryLarge so that no tap can use them.
	for i := range inbuf {
		inbuf[i] = veryLarge
	}
	r0, r1 := 0, p.NVB<<bsize
	if p.SBY != 0 {
		r0 = -FiltBorder
	}
	if p.SBY != p.NVSB-1 {
		r1 += FiltBorder
	}
	c0, c1 := 0, p.NHB<<bsize
	if p.SBX != 0 {
		c0 = -FiltBorder
	}
	if p.SBX != p.NHSB-1 {
		c1 += FiltBorder
	}
	for i := r0; i < r1; i++ {
		copy(inbuf[in+i*FiltStride+c0:in+i*FiltStride+c1], x[xOff+i*xStride+c0:xOff+i*xStride+c1])
	}

	if p.Plane == 0 {
		for by := 0; by < p.NVB; by++ {
			for bx := 0; bx < p.NHB; bx++ {
				dirs[by][bx], variance[by][bx] = FindDirection(x, xOff+8*by*xStride+8*bx, xStride, p.CoeffShift)
				thresh[by][bx] = blockThreshold(p.Threshold, variance[by][bx])
			}
		}
	} else {
		for by := 0; by < p.NVB; by++ {
			for bx := 0; bx < p.NHB; bx++ {
				thresh[by][bx] = p.Threshold
			}
		}
	}

	n := 1 << bsize
	for by := 0; by < p.NVB; by++ {
		for bx := 0; bx < p.NHB; bx++ {
			yOff := (by*yStride)<<bsize + bx<<bsize
			if p.Skip[by*p.SkipStride+bx] == 0 {
				FilterDirection[fn](y, yOff, yStride,
					inbuf[:], in+(by*FiltStride)<<bsize+bx<<bsize,
					thresh[by][bx], dirs[by][bx])
				continue
			}
			src := xOff + (by*xStride)<<bsize + bx<<bsize
			for i := 0; i < n; i++ {
				copy(y[yOff+i*yStride:yOff+i*yStride+n], x[src+i*xStride:src+i*xStride+n])
			}
		}
	}

	// The orthogonal pass reads the output of the directional pass.
	w := p.NHB << bsize
	for i := 0; i < p.NVB<<bsize; i++ {
		copy(inbuf[in+i*FiltStride:in+i*FiltStride+w], y[i*yStride:i*yStride+w])
	}

	for by := 0; by < p.NVB; by++ {
		for bx := 0; bx < p.NHB; bx++ {
			if p.Skip[by*p.SkipStride+bx] != 0 {
				continue
			}
			FilterOrthogonal[fn](y, (by*yStride)<<bsize+bx<<bsize, yStride,
				inbuf[:], in+(by*FiltStride)<<bsize+bx<<bsize,
				x, xOff+(by*xStride)<<bsize+bx<<bsize, xStride,
				thresh[by][bx], dirs[by][bx])
		}
	}
}

// filterDirection smooths a (1<<ln)-sided block along dir with taps {3, 2, 2}
// on each side. Taps differing from the center by threshold or more are
// ignored.
func filterDirection(y []int16, yOff, yStride int, in []int16, inOff int, threshold, dir, ln int) {
	n := 1 << ln
	offs := &directionOffsets[dir]
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c := inOff + i*FiltStride + j
			xx := in[c]
			var sum int16
			for k := 0; k < 3; k++ {
				p0 := in[c+offs[k]] - xx
				p1 := in[c-offs[k]] - xx
				if abs16(p0) < threshold {
					sum += directionTaps[k] * p0
				}
				if abs16(p1) < threshold {
					sum += directionTaps[k] * p1
				}
			}
			y[yOff+i*yStride+j] = xx + int16((int(sum)+8)>>4)
		}
	}
}

// filterOrthogonal smooths a (1<<ln)-sided block across dir, two taps on each
// side. The threshold is tightened to thr/3 plus the change already made by
// the directional pass, so that an edge being crossed is not blurred. Pure
// horizontal and vertical directions filter along the other axis.
func filterOrthogonal(y []int16, yOff, yStride int, in []int16, inOff int, x []int16, xOff, xStride int, threshold, dir, ln int) {
	n := 1 << ln
	offset := 1
	if dir <= 4 {
		offset = FiltStride
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c := inOff + i*FiltStride + j
			yy := in[c]
			athresh := threshold/3 + abs16(yy-x[xOff+i*xStride+j])
			if athresh > threshold {
				athresh = threshold
			}
			var sum int16
			if p := in[c+offset] - yy; abs16(p) < athresh {
				sum += p
			}
			if p := in[c-offset] - yy; abs16(p) < athresh {
				sum += p
			}
			if p := in[c+2*offset] - yy; abs16(p) < athresh {
				sum += p
			}
			if p := in[c-2*offset] - yy; abs16(p) < athresh {
				sum += p
			}
			y[yOff+i*yStride+j] = yy + int16((3*int(sum)+8)>>4)
		}
	}
}

func filterDirection4x4(y []int16, yOff, yStride int, in []int16, inOff int, threshold, dir int) {
	filterDirection(y, yOff, yStride, in, inOff, threshold, dir, 2)
}

func filterDirection8x8(y []int16, yOff, yStride int, in []int16, inOff int, threshold, dir int) {
	filterDirection(y, yOff, yStride, in, inOff, threshold, dir, 3)
}

func filterOrthogonal4x4(y []int16, yOff, yStride int, in []int16, inOff int, x []int16, xOff, xStride int, threshold, dir int) {
	filterOrthogonal(y, yOff, yStride, in, inOff, x, xOff, xStride, threshold, dir, 2)
}

func filterOrthogonal8x8(y []int16, yOff, yStride int, in []int16, inOff int, x []int16, xOff, xStride int, threshold, dir int) {
	filterOrthogonal(y, yOff, yStride, in, inOff, x, xOff, xStride, threshold, dir, 3)
}

func abs16(v int16) int {
	if v < 0 {
		return -int(v)
	}
	return int(v)
}
