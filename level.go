package dering

// deringGains maps a gain index to a Q4 multiplier of the frame level.
var deringGains = [RefinementLevels]int{0, 11, 16, 22}

// LevelFromIndex returns the filter level of a superblock from the frame
// level and the superblock's gain index, which must be in
// [0, RefinementLevels-1]. A zero frame level disables the filter regardless
// of the gain index; otherwise the level is clamped to
// [gainIndex, MaxLevel-1] so that levels are ordered by gain index.
func LevelFromIndex(globalLevel, gainIndex int) int {
	if globalLevel == 0 {
		return 0
	}
	level := (globalLevel*deringGains[gainIndex] + 8) >> 4
	if level < gainIndex {
		return gainIndex
	}
	if level > MaxLevel-1 {
		return MaxLevel - 1
	}
	return level
}

// coeffShift aligns thresholds to the sample precision.
func coeffShift(bitDepth int) int {
	if bitDepth > 8 {
		return bitDepth - 8
	}
	return 0
}

// planeThreshold returns the kernel threshold of one plane. Chroma is
// deringed more conservatively at 5/8 of the luma level, rounded before the
// bit-depth shift.
func planeThreshold(plane, level, shift int) int {
	if plane == 0 {
		return level << uint(shift)
	}
	return (level*5 + 4) >> 3 << uint(shift)
}
