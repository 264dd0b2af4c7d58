package container

import (
	"fmt"
	"io"

	"github.com/deepteams/dering"
)

// Dump is the content of a .drf file.
type Dump struct {
	Frame    *dering.Frame
	ModeInfo *dering.ModeInfoGrid
	Level    int // frame filter level
}

// WriteOptions controls Encode.
type WriteOptions struct {
	Compress bool // wrap the file in a zstd stream
	Level    int  // zstd level (1-22), 0 for the default
}

// Decode parses a .drf file.
func Decode(data []byte) (*Dump, error) {
	p, err := NewParser(data)
	if err != nil {
		return nil, err
	}
	return p.Dump()
}

// Read reads and parses a whole .drf file from r.
func Read(r io.Reader) (*Dump, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("drf: reading: %w", err)
	}
	return Decode(data)
}

// Dump builds the frame and mode-info grid described by the parsed chunks.
func (p *Parser) Dump() (*Dump, error) {
	h := &p.header
	f := &dering.Frame{
		BitDepth:     h.BitDepth,
		HighBitDepth: h.HighBitDepth,
		Planes:       make([]dering.Plane, h.Planes),
	}
	for i := range f.Planes {
		payload, ok := p.Chunk(planeFourCC(i))
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingChunk, FourCCString(planeFourCC(i)))
		}
		w, ht := h.PlaneExtent(i)
		if len(payload) != w*ht*h.SampleSize() {
			return nil, fmt.Errorf("%w: %s has %d bytes, want %d",
				ErrInvalidChunk, FourCCString(planeFourCC(i)), len(payload), w*ht*h.SampleSize())
		}
		pl := dering.Plane{
			Stride:       w,
			SubsamplingX: h.Subsampling[i][0],
			SubsamplingY: h.Subsampling[i][1],
		}
		if h.HighBitDepth {
			pl.Pix16 = make([]uint16, w*ht)
			for j := range pl.Pix16 {
				pl.Pix16[j] = ReadLE16(payload[2*j:])
			}
		} else {
			pl.Pix = append([]uint8(nil), payload...)
		}
		f.Planes[i] = pl
	}

	minf, ok := p.Chunk(FourCCMINF)
	if !ok {
		return nil, fmt.Errorf("%w: MINF", ErrMissingChunk)
	}
	if len(minf) != h.MIRows*h.MICols {
		return nil, fmt.Errorf("%w: MINF has %d units, want %d", ErrInvalidChunk, len(minf), h.MIRows*h.MICols)
	}
	mi := dering.NewModeInfoGrid(h.MIRows, h.MICols)
	for i, b := range minf {
		mi.Units[i] = dering.ModeInfo{
			Skip:       b&ModeSkipBit != 0,
			DeringGain: b & ModeGainMask,
		}
	}
	return &Dump{Frame: f, ModeInfo: mi, Level: h.Level}, nil
}

// Encode serializes d. Plane samples are written row by row, so planes with
// padded strides are stored tightly.
func Encode(d *Dump, opts *WriteOptions) ([]byte, error) {
	h, err := headerOf(d)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, RIFFHeaderSize, 1024)
	buf = AppendChunk(buf, FourCCFHDR, h.marshal())
	for i := 0; i < h.Planes; i++ {
		buf = AppendChunk(buf, planeFourCC(i), planePayload(d.Frame, &h, i))
	}
	minf := make([]byte, 0, h.MIRows*h.MICols)
	for r := 0; r < h.MIRows; r++ {
		for c := 0; c < h.MICols; c++ {
			u := d.ModeInfo.At(r, c)
			if u.DeringGain > ModeGainMask {
				return nil, fmt.Errorf("drf: unit (%d, %d) gain index %d does not fit", r, c, u.DeringGain)
			}
			b := u.DeringGain
			if u.Skip {
				b |= ModeSkipBit
			}
			minf = append(minf, b)
		}
	}
	buf = AppendChunk(buf, FourCCMINF, minf)

	if uint64(len(buf)-ChunkHeaderSize) > uint64(MaxChunkPayload) {
		return nil, ErrTooLarge
	}
	PutLE32(buf[0:4], FourCCRIFF)
	PutLE32(buf[4:8], uint32(len(buf)-ChunkHeaderSize))
	PutLE32(buf[8:12], FourCCDRNG)

	if opts != nil && opts.Compress {
		return compress(buf, opts.Level)
	}
	return buf, nil
}

// Write serializes d to w.
func Write(w io.Writer, d *Dump, opts *WriteOptions) error {
	data, err := Encode(d, opts)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("drf: writing: %w", err)
	}
	return nil
}

func headerOf(d *Dump) (FrameHeader, error) {
	if d == nil || d.Frame == nil || d.ModeInfo == nil {
		return FrameHeader{}, fmt.Errorf("%w: nil frame or mode-info grid", ErrInvalidHeader)
	}
	f, mi := d.Frame, d.ModeInfo
	h := FrameHeader{
		MICols:       mi.Cols,
		MIRows:       mi.Rows,
		BitDepth:     f.BitDepth,
		HighBitDepth: f.HighBitDepth,
		Planes:       len(f.Planes),
		Level:        d.Level,
	}
	if h.Planes > MaxPlanes {
		return FrameHeader{}, fmt.Errorf("%w: %d planes", ErrInvalidHeader, h.Planes)
	}
	for i, p := range f.Planes {
		h.Subsampling[i] = [2]int{p.SubsamplingX, p.SubsamplingY}
	}
	if err := h.validate(); err != nil {
		return FrameHeader{}, err
	}
	for i, p := range f.Planes {
		w, ht := h.PlaneExtent(i)
		n := len(p.Pix)
		if h.HighBitDepth {
			n = len(p.Pix16)
		}
		if p.Stride < w || n < (ht-1)*p.Stride+w {
			return FrameHeader{}, fmt.Errorf("%w: plane %d smaller than %dx%d", ErrInvalidHeader, i, w, ht)
		}
	}
	if mi.Stride < mi.Cols || len(mi.Units) < (mi.Rows-1)*mi.Stride+mi.Cols {
		return FrameHeader{}, fmt.Errorf("%w: mode-info grid too small", ErrInvalidHeader)
	}
	return h, nil
}

func planePayload(f *dering.Frame, h *FrameHeader, i int) []byte {
	p := &f.Planes[i]
	w, ht := h.PlaneExtent(i)
	if !h.HighBitDepth {
		out := make([]byte, 0, w*ht)
		for r := 0; r < ht; r++ {
			out = append(out, p.Pix[r*p.Stride:r*p.Stride+w]...)
		}
		return out
	}
	out := make([]byte, 2*w*ht)
	for r := 0; r < ht; r++ {
		for c, v := range p.Pix16[r*p.Stride : r*p.Stride+w] {
			PutLE16(out[2*(r*w+c):], v)
		}
	}
	return out
}
