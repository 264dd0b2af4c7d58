package dsp

import "math/bits"

// Instead of dividing a line sum by its length n (1..8), costs are multiplied
// by 840/n. Everything is 840 times larger, which does not change the argmax.
var divTable = [9]int32{0, 840, 420, 280, 210, 168, 140, 120, 105}

// findDir8 detects the direction of an 8x8 block. 0 is 45 degrees up-right,
// 2 is horizontal, 4 is 45 degrees down-right, 6 is vertical.
//
// For each direction the block is replaced by the mean along each line in that
// direction; the best direction minimizes the squared error against the input.
// The sum(x^2) term is common to all directions and is never computed, so
// maximizing sum(line_sum^2 / line_len) is equivalent.
func findDir8(img []int16, off, stride, coeffShift int) (int, int32) {
	var cost [8]int32
	var partial [8][15]int32

	for i := 0; i < 8; i++ {
		row := img[off+i*stride : off+i*stride+8]
		for j := 0; j < 8; j++ {
			// Centering on 128 keeps the squared partial sums in range.
			x := int32(row[j]>>uint(coeffShift)) - 128
			partial[0][i+j] += x
			partial[1][i+j/2] += x
			partial[2][i] += x
			partial[3][3+i-j/2] += x
			partial[4][7+i-j] += x
			partial[5][3-i/2+j] += x
			partial[6][j] += x
			partial[7][i/2+j] += x
		}
	}

	for i := 0; i < 8; i++ {
		cost[2] += partial[2][i] * partial[2][i]
		cost[6] += partial[6][i] * partial[6][i]
	}
	cost[2] *= divTable[8]
	cost[6] *= divTable[8]

	for i := 0; i < 7; i++ {
		cost[0] += (partial[0][i]*partial[0][i] +
			partial[0][14-i]*partial[0][14-i]) * divTable[i+1]
		cost[4] += (partial[4][i]*partial[4][i] +
			partial[4][14-i]*partial[4][14-i]) * divTable[i+1]
	}
	cost[0] += partial[0][7] * partial[0][7] * divTable[8]
	cost[4] += partial[4][7] * partial[4][7] * divTable[8]

	for i := 1; i < 8; i += 2 {
		for j := 0; j < 4+1; j++ {
			cost[i] += partial[i][3+j] * partial[i][3+j]
		}
		cost[i] *= divTable[8]
		for j := 0; j < 4-1; j++ {
			cost[i] += (partial[i][j]*partial[i][j] +
				partial[i][10-j]*partial[i][10-j]) * divTable[2*j+2]
		}
	}

	var bestCost int32
	bestDir := 0
	for i := 0; i < 8; i++ {
		if cost[i] > bestCost {
			bestCost = cost[i]
			bestDir = i
		}
	}

	// Difference between the best variance and the variance along the
	// orthogonal direction. Dividing by 1024 instead of 840 is close enough.
	v := bestCost - cost[(bestDir+4)&7]
	return bestDir, v >> 10
}

// threshTableQ8 approximates x^0.16 with the index being log2(x), clamped to
// [0.5, 3] in Q8:
// round(256*min(3, max(.5, 1.08*(sqrt(2)*2.^([0:17]+8)/256/256).^.16)))
var threshTableQ8 = [18]int{
	128, 134, 150, 168, 188, 210, 234, 262, 292,
	327, 365, 408, 455, 509, 569, 635, 710, 768,
}

// ilog returns the number of bits needed to represent v (0 for v <= 0).
func ilog(v int32) int {
	if v <= 0 {
		return 0
	}
	return bits.Len32(uint32(v))
}

// blockThreshold scales the superblock threshold by the directional variance
// of one 8x8 block. A large variance difference means a strongly directional
// pattern such as a high contrast edge, which tolerates more deringing; a low
// one means a weak edge or texture that must not be blurred.
func blockThreshold(threshold int, variance int32) int {
	v1 := variance >> 6
	if v1 > 32767 {
		v1 = 32767
	}
	return (threshold*threshTableQ8[ilog(v1)] + 128) >> 8
}
