package dering

import "github.com/deepteams/dering/internal/dsp"

// kernelFunc filters one plane of one superblock. See dsp.Dering.
type kernelFunc func(y []int16, yStride int, x []int16, xOff, xStride int, dirs *dsp.DirTable, p *dsp.Params)

// Options configures Apply. A nil *Options is equivalent to DefaultOptions().
type Options struct {
	// Workers is the number of goroutines filtering superblock rows.
	// Values <= 1 run the single-threaded path.
	Workers int

	// MaxScratchBytes caps the working storage of one call (working planes
	// plus skip flags). Calls needing more fail with ErrScratchLimit before
	// touching the frame. Zero means no limit.
	MaxScratchBytes int

	kernel kernelFunc
}

// DefaultOptions returns the single-threaded, unlimited configuration.
func DefaultOptions() *Options {
	return &Options{Workers: 1}
}

// Stats summarizes one Apply call.
type Stats struct {
	Planes      int // planes considered for filtering (1 or 3)
	Superblocks int // superblocks in the frame
	Filtered    int // superblocks passed to the kernel
	LevelZero   int // superblocks skipped because their level was 0
	AllSkip     int // superblocks skipped because every unit was skip-coded
	PlanePasses int // kernel invocations (superblock x plane)
}

func (s *Stats) add(o *Stats) {
	s.Filtered += o.Filtered
	s.LevelZero += o.LevelZero
	s.AllSkip += o.AllSkip
	s.PlanePasses += o.PlanePasses
}
