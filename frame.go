package dering

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/deepteams/dering/internal/dsp"
	"github.com/deepteams/dering/internal/pool"
)

// sbSamples is the largest superblock plane block in samples.
const sbSamples = MaxMIBSize * MIBlockSize

// Apply runs the deringing filter over f in place.
//
// globalLevel is the frame filter strength in [0, MaxLevel-1]; zero leaves
// the frame untouched. Each superblock's level comes from LevelFromIndex with
// the gain index of its top-left unit. Superblocks whose level is zero or
// whose units are all skip-coded are left as they are.
//
// All inputs are validated and all scratch storage is acquired before the
// first sample is written, so a failed call never modifies f.
func Apply(f *Frame, mi *ModeInfoGrid, globalLevel int, opts *Options) (*Stats, error) {
	if f == nil || mi == nil {
		return nil, ErrNilInput
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if globalLevel < 0 || globalLevel > MaxLevel-1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, globalLevel)
	}
	nplanes := activePlanes(f)
	if err := validate(f, mi, nplanes); err != nil {
		return nil, err
	}

	nvsb := (mi.Rows + MaxMIBSize - 1) / MaxMIBSize
	nhsb := (mi.Cols + MaxMIBSize - 1) / MaxMIBSize
	stats := &Stats{Planes: nplanes, Superblocks: nvsb * nhsb}
	if globalLevel == 0 {
		stats.LevelZero = stats.Superblocks
		return stats, nil
	}

	need := scratchBytes(f, mi, nplanes)
	if opts.MaxScratchBytes > 0 && need > opts.MaxScratchBytes {
		return nil, fmt.Errorf("%w: need %d bytes, limit %d", ErrScratchLimit, need, opts.MaxScratchBytes)
	}

	fr := &frameRun{
		f:           f,
		mi:          mi,
		globalLevel: globalLevel,
		nplanes:     nplanes,
		nhsb:        nhsb,
		nvsb:        nvsb,
		shift:       coeffShift(f.BitDepth),
		kernel:      opts.kernel,
	}
	if fr.kernel == nil {
		fr.kernel = dsp.Dering
	}
	fr.acquire()
	defer fr.release()

	workers := opts.Workers
	if workers > nvsb {
		workers = nvsb
	}
	if workers <= 1 {
		var w sbWorker
		for sbr := 0; sbr < nvsb; sbr++ {
			fr.filterRow(&w, sbr)
		}
		stats.add(&w.stats)
		return stats, nil
	}

	// Superblocks write disjoint frame regions and only read the staged
	// copies, so rows can be filtered in any order.
	ws := make([]sbWorker, workers)
	var next atomic.Int64
	var wg sync.WaitGroup
	for i := range ws {
		wg.Add(1)
		go func(w *sbWorker) {
			defer wg.Done()
			for {
				sbr := int(next.Add(1) - 1)
				if sbr >= nvsb {
					return
				}
				fr.filterRow(w, sbr)
			}
		}(&ws[i])
	}
	wg.Wait()
	for i := range ws {
		stats.add(&ws[i].stats)
	}
	return stats, nil
}

// activePlanes returns 3 when both chroma planes have square subsampling of
// at most 2:1 and agree with each other, and 1 otherwise.
func activePlanes(f *Frame) int {
	if len(f.Planes) < 3 {
		return 1
	}
	u, v := &f.Planes[1], &f.Planes[2]
	if u.SubsamplingX != u.SubsamplingY || v.SubsamplingX != v.SubsamplingY {
		return 1
	}
	if u.SubsamplingX != v.SubsamplingX || u.SubsamplingX < 0 || u.SubsamplingX > 1 {
		return 1
	}
	return 3
}

// validate checks everything Apply relies on before any storage is touched.
func validate(f *Frame, mi *ModeInfoGrid, nplanes int) error {
	if mi.Rows <= 0 || mi.Cols <= 0 || mi.Stride < mi.Cols ||
		len(mi.Units) < (mi.Rows-1)*mi.Stride+mi.Cols {
		return fmt.Errorf("%w: grid %dx%d stride %d with %d units",
			ErrInvalidGeometry, mi.Rows, mi.Cols, mi.Stride, len(mi.Units))
	}
	if f.BitDepth < 8 || f.BitDepth > 12 || (f.BitDepth > 8 && !f.HighBitDepth) {
		return fmt.Errorf("%w: %d (high bit depth storage %v)", ErrInvalidBitDepth, f.BitDepth, f.HighBitDepth)
	}
	if len(f.Planes) == 0 {
		return fmt.Errorf("%w: no planes", ErrInvalidGeometry)
	}
	if f.Planes[0].SubsamplingX != 0 || f.Planes[0].SubsamplingY != 0 {
		return fmt.Errorf("%w: subsampled luma plane", ErrInvalidGeometry)
	}
	for pli := 0; pli < nplanes; pli++ {
		p := &f.Planes[pli]
		w, h := planeExtent(mi, p.SubsamplingX, p.SubsamplingY)
		if p.Stride < w || f.samplesLen(p) < (h-1)*p.Stride+w {
			return fmt.Errorf("%w: plane %d needs %dx%d samples, has stride %d and %d samples",
				ErrInvalidGeometry, pli, w, h, p.Stride, f.samplesLen(p))
		}
	}
	for r := 0; r < mi.Rows; r += MaxMIBSize {
		for c := 0; c < mi.Cols; c += MaxMIBSize {
			if g := mi.At(r, c).DeringGain; int(g) >= RefinementLevels {
				return fmt.Errorf("%w: %d at unit (%d, %d)", ErrInvalidGainIndex, g, r, c)
			}
		}
	}
	return nil
}

// scratchBytes returns the working storage one call needs.
func scratchBytes(f *Frame, mi *ModeInfoGrid, nplanes int) int {
	n := mi.Rows * mi.Cols
	for pli := 0; pli < nplanes; pli++ {
		w, h := planeExtent(mi, f.Planes[pli].SubsamplingX, f.Planes[pli].SubsamplingY)
		n += 2 * w * h
	}
	return n
}

// frameRun is the state of one Apply call.
type frameRun struct {
	f           *Frame
	mi          *ModeInfoGrid
	globalLevel int
	nplanes     int
	nhsb, nvsb  int
	shift       int
	kernel      kernelFunc

	planes [3]workPlane
	skip   []uint8
}

// sbWorker holds the per-goroutine state. The direction table is private to
// the worker and reset for every superblock.
type sbWorker struct {
	dirs  dsp.DirTable
	dst   [sbSamples * sbSamples]int16
	stats Stats
}

// acquire allocates the working planes and skip flags and stages the frame.
func (fr *frameRun) acquire() {
	for pli := 0; pli < fr.nplanes; pli++ {
		p := &fr.f.Planes[pli]
		w, h := planeExtent(fr.mi, p.SubsamplingX, p.SubsamplingY)
		fr.planes[pli] = workPlane{
			pix:    pool.GetInt16(w * h),
			stride: w,
			width:  w,
			height: h,
			subX:   p.SubsamplingX,
			subY:   p.SubsamplingY,
		}
		fr.f.load(p, &fr.planes[pli])
	}
	fr.skip = pool.Get(fr.mi.Rows * fr.mi.Cols)
	flattenSkip(fr.skip, fr.mi)
}

// release returns all scratch storage to the pools.
func (fr *frameRun) release() {
	for pli := 0; pli < fr.nplanes; pli++ {
		if fr.planes[pli].pix != nil {
			pool.PutInt16(fr.planes[pli].pix)
			fr.planes[pli].pix = nil
		}
	}
	if fr.skip != nil {
		pool.Put(fr.skip)
		fr.skip = nil
	}
}

func (fr *frameRun) filterRow(w *sbWorker, sbr int) {
	for sbc := 0; sbc < fr.nhsb; sbc++ {
		fr.filterSuperblock(w, sbr, sbc)
	}
}

// filterSuperblock filters every active plane of superblock (sbr, sbc).
func (fr *frameRun) filterSuperblock(w *sbWorker, sbr, sbc int) {
	mi := fr.mi
	miRow, miCol := MaxMIBSize*sbr, MaxMIBSize*sbc
	nhb := min(MaxMIBSize, mi.Cols-miCol)
	nvb := min(MaxMIBSize, mi.Rows-miRow)

	level := LevelFromIndex(fr.globalLevel, int(mi.At(miRow, miCol).DeringGain))
	if level == 0 {
		w.stats.LevelZero++
		return
	}
	if SuperblockAllSkip(mi, miRow, miCol) {
		w.stats.AllSkip++
		return
	}
	w.stats.Filtered++
	w.dirs.Reset()

	for pli := 0; pli < fr.nplanes; pli++ {
		threshold := planeThreshold(pli, level, fr.shift)
		if threshold == 0 {
			continue
		}
		wp := &fr.planes[pli]
		bw := MIBlockSize >> uint(wp.subX)
		bh := MIBlockSize >> uint(wp.subY)
		row, col := miRow*bh, miCol*bw
		yStride := MaxMIBSize * bw

		params := dsp.Params{
			NHB: nhb, NVB: nvb,
			SBX: sbc, SBY: sbr,
			NHSB: fr.nhsb, NVSB: fr.nvsb,
			DecX: wp.subX, DecY: wp.subY,
			Plane:      pli,
			Skip:       fr.skip[miRow*mi.Cols+miCol:],
			SkipStride: mi.Cols,
			Threshold:  threshold,
			CoeffShift: fr.shift,
		}
		fr.kernel(w.dst[:], yStride, wp.pix, wp.offset(row, col), wp.stride, &w.dirs, &params)
		fr.f.store(&fr.f.Planes[pli], row, col, w.dst[:], yStride, nhb*bw, nvb*bh)
		w.stats.PlanePasses++
	}
}
