// Package dsp provides the low-level routines of the deringing filter: the
// direction search, the directional and orthogonal block filters, and the
// sample clipping used when filtered values are committed back to a frame.
package dsp

// clip1 clips [-255, 511] to [0, 255]. The deringing filters stay within the
// range of their inputs, so 8-bit commits always land inside the table.
var clip1 [255 + 511 + 1]uint8

const clip1Offset = 255

// Kclip1 returns the value of v clipped to [0, 255], for v in [-255, 511].
func Kclip1(v int) uint8 { return clip1[clip1Offset+v] }

// Clip8b clips v to the range [0, 255].
// Uses unsigned comparison for single-branch hot path when v is in [0, 255].
func Clip8b(v int) uint8 {
	if uint(v) <= 255 {
		return uint8(v)
	}
	// Arithmetic right shift: v>>63 is 0 for positive, -1 for negative.
	return uint8(^(v >> 63) & 255)
}

// ClipPixel clips v to [0, (1<<bitDepth)-1].
func ClipPixel(v, bitDepth int) uint16 {
	maxV := 1<<uint(bitDepth) - 1
	if uint(v) <= uint(maxV) {
		return uint16(v)
	}
	if v < 0 {
		return 0
	}
	return uint16(maxV)
}

func initClipTables() {
	for i := -255; i <= 511; i++ {
		clip1[clip1Offset+i] = Clip8b(i)
	}
}
