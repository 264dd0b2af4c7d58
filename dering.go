package dering

import "errors"

// Filter geometry and strength constants.
const (
	// MaxMIBSize is the number of mode-info units per superblock side.
	MaxMIBSize = 8

	// MIBlockSize is the side of a mode-info unit in luma samples.
	MIBlockSize = 8

	// MaxLevel bounds filter levels: every level lies in [0, MaxLevel-1].
	MaxLevel = 64

	// RefinementLevels is the number of per-superblock gain indices.
	RefinementLevels = 4
)

// Errors returned by Apply.
var (
	ErrNilInput         = errors.New("dering: nil frame or mode-info grid")
	ErrInvalidGeometry  = errors.New("dering: frame planes inconsistent with mode-info grid")
	ErrInvalidBitDepth  = errors.New("dering: unsupported bit depth")
	ErrInvalidLevel     = errors.New("dering: global level out of range")
	ErrInvalidGainIndex = errors.New("dering: gain index out of range")
	ErrScratchLimit     = errors.New("dering: scratch storage exceeds limit")
)

// Subsampling names a chroma layout for NewFrame.
type Subsampling int

const (
	Subsampling420  Subsampling = iota // chroma halved in both directions
	Subsampling444                     // chroma at full resolution
	Subsampling422                     // chroma halved horizontally only
	Subsampling440                     // chroma halved vertically only
	SubsamplingMono                    // luma only
)

// String returns the conventional name of the layout.
func (s Subsampling) String() string {
	switch s {
	case Subsampling420:
		return "4:2:0"
	case Subsampling444:
		return "4:4:4"
	case Subsampling422:
		return "4:2:2"
	case Subsampling440:
		return "4:4:0"
	case SubsamplingMono:
		return "mono"
	default:
		return "unknown"
	}
}

// Factors returns the horizontal and vertical chroma subsampling shifts.
func (s Subsampling) Factors() (x, y int) {
	switch s {
	case Subsampling420:
		return 1, 1
	case Subsampling422:
		return 1, 0
	case Subsampling440:
		return 0, 1
	default:
		return 0, 0
	}
}

// Plane is one color plane of a frame. Exactly one of Pix and Pix16 is used,
// selected by Frame.HighBitDepth. Stride is in samples.
type Plane struct {
	Pix          []uint8
	Pix16        []uint16
	Stride       int
	SubsamplingX int
	SubsamplingY int
}

// Frame is a reconstructed frame, mutated in place by Apply.
// Planes[0] is luma; Planes[1] and Planes[2], when present, are chroma.
type Frame struct {
	Planes   []Plane
	BitDepth int

	// HighBitDepth selects 16-bit sample storage (Plane.Pix16). It must be
	// set when BitDepth > 8 and may be set for 8-bit content.
	HighBitDepth bool
}

// ModeInfo is the per-unit coded side information read by the filter.
type ModeInfo struct {
	Skip       bool  // no residual coefficients
	DeringGain uint8 // gain index in [0, RefinementLevels-1]
}

// ModeInfoGrid is the row-major grid of mode-info units covering a frame.
// Rows and Cols are the frame dimensions in units; Stride may exceed Cols.
type ModeInfoGrid struct {
	Rows   int
	Cols   int
	Stride int
	Units  []ModeInfo
}

// At returns the unit at (row, col).
func (g *ModeInfoGrid) At(row, col int) *ModeInfo {
	return &g.Units[row*g.Stride+col]
}

// NewModeInfoGrid allocates a rows x cols grid with Stride == cols and every
// unit zeroed (coded, gain index 0).
func NewModeInfoGrid(rows, cols int) *ModeInfoGrid {
	return &ModeInfoGrid{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Units:  make([]ModeInfo, rows*cols),
	}
}

// NewFrame allocates a frame covering miRows x miCols mode-info units, with
// planes sized exactly to their subsampled extent.
func NewFrame(miRows, miCols, bitDepth int, s Subsampling) *Frame {
	f := &Frame{BitDepth: bitDepth, HighBitDepth: bitDepth > 8}
	n := 3
	if s == SubsamplingMono {
		n = 1
	}
	f.Planes = make([]Plane, n)
	for i := range f.Planes {
		p := &f.Planes[i]
		if i > 0 {
			p.SubsamplingX, p.SubsamplingY = s.Factors()
		}
		w := (miCols * MIBlockSize) >> p.SubsamplingX
		h := (miRows * MIBlockSize) >> p.SubsamplingY
		p.Stride = w
		if f.HighBitDepth {
			p.Pix16 = make([]uint16, w*h)
		} else {
			p.Pix = make([]uint8, w*h)
		}
	}
	return f
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	c := &Frame{BitDepth: f.BitDepth, HighBitDepth: f.HighBitDepth}
	c.Planes = make([]Plane, len(f.Planes))
	for i, p := range f.Planes {
		c.Planes[i] = p
		if p.Pix != nil {
			c.Planes[i].Pix = append([]uint8(nil), p.Pix...)
		}
		if p.Pix16 != nil {
			c.Planes[i].Pix16 = append([]uint16(nil), p.Pix16...)
		}
	}
	return c
}
