package dsp

import (
	"math/rand/v2"
	"testing"
)

// newBlock returns an 8x8 block (stride 8) filled by f.
func newBlock(f func(i, j int) int16) []int16 {
	b := make([]int16, 64)
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			b[i*8+j] = f(i, j)
		}
	}
	return b
}

func TestFindDir8(t *testing.T) {
	tests := []struct {
		name    string
		block   []int16
		wantDir int
	}{
		{"horizontal_stripes", newBlock(func(i, j int) int16 { return int16(40 * (i % 2)) }), 2},
		{"vertical_stripes", newBlock(func(i, j int) int16 { return int16(40 * (j % 2)) }), 6},
		{"vertical_edge", newBlock(func(i, j int) int16 {
			if j < 4 {
				return 20
			}
			return 220
		}), 6},
		{"horizontal_edge", newBlock(func(i, j int) int16 {
			if i < 4 {
				return 20
			}
			return 220
		}), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, v := findDir8(tt.block, 0, 8, 0)
			if dir != tt.wantDir {
				t.Errorf("dir = %d, want %d", dir, tt.wantDir)
			}
			if v <= 0 {
				t.Errorf("variance = %d, want > 0 for a directional block", v)
			}
		})
	}
}

func TestFindDir8_Flat(t *testing.T) {
	flat := newBlock(func(i, j int) int16 { return 128 })
	dir, v := findDir8(flat, 0, 8, 0)
	if dir != 0 || v != 0 {
		t.Errorf("flat block: dir = %d variance = %d, want 0, 0", dir, v)
	}
}

func TestFindDir8_CoeffShift(t *testing.T) {
	// A 10-bit block shifted down by 2 must match the 8-bit block.
	b8 := newBlock(func(i, j int) int16 { return int16((i*31 + j*17) % 256) })
	b10 := make([]int16, len(b8))
	for i, v := range b8 {
		b10[i] = v<<2 | 3
	}
	d8, v8 := findDir8(b8, 0, 8, 0)
	d10, v10 := findDir8(b10, 0, 8, 2)
	if d8 != d10 || v8 != v10 {
		t.Errorf("10-bit (%d, %d) != 8-bit (%d, %d)", d10, v10, d8, v8)
	}
}

func TestIlog(t *testing.T) {
	tests := []struct {
		v    int32
		want int
	}{
		{-5, 0}, {0, 0}, {1, 1}, {2, 2}, {3, 2}, {4, 3}, {255, 8}, {256, 9}, {32767, 15},
	}
	for _, tt := range tests {
		if got := ilog(tt.v); got != tt.want {
			t.Errorf("ilog(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestBlockThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		variance  int32
		want      int
	}{
		{"zero_variance", 16, 0, 8},              // (16*128+128)>>8
		{"small_variance", 16, 64, 8},            // v1=1 -> 134
		{"mid_variance", 16, 64 * 255, 18},       // v1=255 -> ilog 8 -> 292
		{"saturated", 16, 1 << 30, 40},           // v1=32767 -> ilog 15 -> 635
		{"hbd_threshold", 16 << 2, 64 * 255, 73}, // (64*292+128)>>8
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := blockThreshold(tt.threshold, tt.variance); got != tt.want {
				t.Errorf("blockThreshold(%d, %d) = %d, want %d", tt.threshold, tt.variance, got, tt.want)
			}
		})
	}
}

func TestThreshTableMonotonic(t *testing.T) {
	for i := 1; i < len(threshTableQ8); i++ {
		if threshTableQ8[i] < threshTableQ8[i-1] {
			t.Fatalf("threshTableQ8[%d] = %d < threshTableQ8[%d] = %d", i, threshTableQ8[i], i-1, threshTableQ8[i-1])
		}
	}
}

func TestDirectionOffsetsSymmetry(t *testing.T) {
	// Direction d and d+4 are orthogonal; 2 (horizontal) and 6 (vertical)
	// must step along a single axis.
	for k := 0; k < 3; k++ {
		if directionOffsets[2][k] != k+1 {
			t.Errorf("horizontal tap %d = %d, want %d", k, directionOffsets[2][k], k+1)
		}
		if directionOffsets[6][k] != (k+1)*FiltStride {
			t.Errorf("vertical tap %d = %d, want %d", k, directionOffsets[6][k], (k+1)*FiltStride)
		}
	}
}

// plane builds a w x h plane (stride w) from f.
func plane(w, h int, f func(r, c int) int16) []int16 {
	p := make([]int16, w*h)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			p[r*w+c] = f(r, c)
		}
	}
	return p
}

func singleSuperblock(nhb, nvb, threshold int, skip []uint8) *Params {
	return &Params{
		NHB: nhb, NVB: nvb,
		NHSB: 1, NVSB: 1,
		Skip: skip, SkipStride: nhb,
		Threshold: threshold,
	}
}

func TestDering_FlatPlaneUnchanged(t *testing.T) {
	const w, h = 16, 16
	x := plane(w, h, func(r, c int) int16 { return 90 })
	y := make([]int16, w*h)
	var dirs DirTable
	Dering(y, w, x, 0, w, &dirs, singleSuperblock(2, 2, 40, make([]uint8, 4)))
	for i := range x {
		if y[i] != x[i] {
			t.Fatalf("y[%d] = %d, want %d", i, y[i], x[i])
		}
	}
}

func TestDering_SkipBlocksCopied(t *testing.T) {
	const w, h = 16, 16
	rng := rand.New(rand.NewPCG(1, 2))
	x := plane(w, h, func(r, c int) int16 { return int16(rng.IntN(256)) })
	y := make([]int16, w*h)
	var dirs DirTable
	Dering(y, w, x, 0, w, &dirs, singleSuperblock(2, 2, 63, []uint8{1, 1, 1, 1}))
	for i := range x {
		if y[i] != x[i] {
			t.Fatalf("y[%d] = %d, want %d (skip block must be copied)", i, y[i], x[i])
		}
	}
}

func TestDering_NoisyPlaneFilteredWithinRange(t *testing.T) {
	const w, h = 16, 16
	rng := rand.New(rand.NewPCG(7, 11))
	x := plane(w, h, func(r, c int) int16 { return int16(100 + rng.IntN(12)) })
	y := make([]int16, w*h)
	var dirs DirTable
	Dering(y, w, x, 0, w, &dirs, singleSuperblock(2, 2, 63, []uint8{0, 0, 0, 0}))

	changed := 0
	for i := range x {
		if y[i] != x[i] {
			changed++
		}
		if y[i] < 100 || y[i] > 111 {
			t.Errorf("y[%d] = %d, outside input range [100, 111]", i, y[i])
		}
	}
	if changed == 0 {
		t.Error("no sample changed on a noisy non-skip plane")
	}
}

func TestDering_MixedSkip(t *testing.T) {
	const w, h = 16, 16
	rng := rand.New(rand.NewPCG(3, 5))
	x := plane(w, h, func(r, c int) int16 { return int16(60 + rng.IntN(16)) })
	y := make([]int16, w*h)
	var dirs DirTable
	// Only the top-left 8x8 unit is coded with residual.
	Dering(y, w, x, 0, w, &dirs, singleSuperblock(2, 2, 63, []uint8{0, 1, 1, 1}))
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			if r < 8 && c < 8 {
				continue
			}
			if y[r*w+c] != x[r*w+c] {
				t.Fatalf("skip unit sample (%d,%d) = %d, want %d", r, c, y[r*w+c], x[r*w+c])
			}
		}
	}
}

func TestDering_ChromaReusesLumaDirections(t *testing.T) {
	const w, h = 8, 8 // one 4:2:0 chroma superblock of 2x2 units
	x := plane(w, h, func(r, c int) int16 { return int16(50 + 3*((r+c)%2)) })
	y := make([]int16, w*h)
	var dirs DirTable
	dirs[0][0], dirs[0][1], dirs[1][0], dirs[1][1] = 6, 6, 6, 6
	p := singleSuperblock(2, 2, 20, []uint8{0, 0, 0, 0})
	p.Plane, p.DecX, p.DecY = 1, 1, 1
	Dering(y, w, x, 0, w, &dirs, p)
	for by := 0; by < 2; by++ {
		for bx := 0; bx < 2; bx++ {
			if dirs[by][bx] != 6 {
				t.Errorf("chroma pass modified dirs[%d][%d] = %d", by, bx, dirs[by][bx])
			}
		}
	}
}

func TestDering_Deterministic(t *testing.T) {
	const w, h = 24, 24
	rng := rand.New(rand.NewPCG(9, 9))
	x := plane(w, h, func(r, c int) int16 { return int16(rng.IntN(1024)) })
	p := singleSuperblock(3, 3, 40<<2, make([]uint8, 9))
	p.CoeffShift = 2

	var d1, d2 DirTable
	y1 := make([]int16, w*h)
	y2 := make([]int16, w*h)
	Dering(y1, w, x, 0, w, &d1, p)
	Dering(y2, w, x, 0, w, &d2, p)
	for i := range y1 {
		if y1[i] != y2[i] {
			t.Fatalf("run mismatch at %d: %d != %d", i, y1[i], y2[i])
		}
	}
	if d1 != d2 {
		t.Error("direction tables differ between identical runs")
	}
}

func TestDering_InteriorSuperblockReadsBorder(t *testing.T) {
	// A 3x3 superblock grid of 1x1 units; the center superblock must read
	// its neighbours' samples without going out of range.
	const w, h = 24, 24
	rng := rand.New(rand.NewPCG(4, 4))
	x := plane(w, h, func(r, c int) int16 { return int16(rng.IntN(256)) })
	y := make([]int16, 8*8)
	var dirs DirTable
	p := &Params{
		NHB: 1, NVB: 1, SBX: 1, SBY: 1, NHSB: 3, NVSB: 3,
		Skip: []uint8{0}, SkipStride: 3, Threshold: 30,
	}
	Dering(y, 8, x, 8*w+8, w, &dirs, p)
}

func TestClipPixel(t *testing.T) {
	tests := []struct {
		v, bitDepth int
		want        uint16
	}{
		{-1, 8, 0}, {0, 8, 0}, {255, 8, 255}, {256, 8, 255},
		{1023, 10, 1023}, {1024, 10, 1023}, {4095, 12, 4095}, {-40, 12, 0},
	}
	for _, tt := range tests {
		if got := ClipPixel(tt.v, tt.bitDepth); got != tt.want {
			t.Errorf("ClipPixel(%d, %d) = %d, want %d", tt.v, tt.bitDepth, got, tt.want)
		}
	}
}

func TestKclip1(t *testing.T) {
	for v := -255; v <= 511; v++ {
		if got, want := Kclip1(v), Clip8b(v); got != want {
			t.Fatalf("Kclip1(%d) = %d, want %d", v, got, want)
		}
	}
}

func BenchmarkDering8x8(b *testing.B) {
	const w, h = 64, 64
	rng := rand.New(rand.NewPCG(1, 1))
	x := plane(w, h, func(r, c int) int16 { return int16(rng.IntN(256)) })
	y := make([]int16, w*h)
	p := singleSuperblock(8, 8, 32, make([]uint8, 64))
	var dirs DirTable
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Dering(y, w, x, 0, w, &dirs, p)
	}
}
