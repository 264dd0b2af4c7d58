package dsp

// Geometry of the deringing kernel. All sizes are in luma samples unless noted.
const (
	// LogBlockSize0 is log2 of the smallest filtered block (4x4 chroma).
	LogBlockSize0 = 2

	// BlockSizeMax is the side of a superblock in luma samples.
	BlockSizeMax = 64

	// NBlocks is the number of 8x8 units per superblock side.
	NBlocks = BlockSizeMax >> 3

	// FiltBorder is the padding on each side of the kernel input buffer.
	FiltBorder = 3

	// FiltStride is the row stride of the padded kernel input buffer.
	FiltStride = BlockSizeMax + 2*FiltBorder

	inbufSize = FiltStride * FiltStride

	// veryLarge marks padding outside the frame. No tap threshold can be
	// reached from it, so those samples never contribute to a filtered value.
	veryLarge = 30000
)

// DirectionFilterFunc smooths one block along direction dir.
// y is the full output buffer with the block at yOff; in is the padded input
// buffer (stride FiltStride) with the block at inOff.
type DirectionFilterFunc func(y []int16, yOff, yStride int, in []int16, inOff int, threshold, dir int)

// OrthogonalFilterFunc smooths one block across direction dir, using the
// unfiltered source x to bound the per-sample threshold.
type OrthogonalFilterFunc func(y []int16, yOff, yStride int, in []int16, inOff int, x []int16, xOff, xStride int, threshold, dir int)

// Filter function tables, indexed by log2(block size) - LogBlockSize0.
var (
	FilterDirection  [2]DirectionFilterFunc
	FilterOrthogonal [2]OrthogonalFilterFunc
)

// FindDirection estimates the dominant edge direction of the 8x8 block at
// img[off:] and the directional variance used to scale the block threshold.
var FindDirection func(img []int16, off, stride, coeffShift int) (dir int, variance int32)

// Init initialises all function pointers to their pure-Go implementations.
func Init() {
	initClipTables()

	FilterDirection[0] = filterDirection4x4
	FilterDirection[1] = filterDirection8x8
	FilterOrthogonal[0] = filterOrthogonal4x4
	FilterOrthogonal[1] = filterOrthogonal8x8
	FindDirection = findDir8
}

func init() {
	Init()
}
