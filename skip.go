package dering

// SuperblockAllSkip reports whether every unit of the superblock whose
// top-left unit is (miRow, miCol) is skip-coded. The region is clipped to the
// grid, so edge superblocks only examine in-frame units. Such superblocks
// carry no residual and therefore no ringing to remove.
func SuperblockAllSkip(mi *ModeInfoGrid, miRow, miCol int) bool {
	maxr := min(mi.Rows-miRow, MaxMIBSize)
	maxc := min(mi.Cols-miCol, MaxMIBSize)
	for r := 0; r < maxr; r++ {
		row := mi.Units[(miRow+r)*mi.Stride+miCol:]
		for c := 0; c < maxc; c++ {
			if !row[c].Skip {
				return false
			}
		}
	}
	return true
}

// flattenSkip writes the skip flags of mi into dst, one byte per unit with
// stride mi.Cols.
func flattenSkip(dst []uint8, mi *ModeInfoGrid) {
	for r := 0; r < mi.Rows; r++ {
		row := mi.Units[r*mi.Stride : r*mi.Stride+mi.Cols]
		out := dst[r*mi.Cols : (r+1)*mi.Cols]
		for c := range row {
			if row[c].Skip {
				out[c] = 1
			} else {
				out[c] = 0
			}
		}
	}
}
