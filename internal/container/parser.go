package container

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// FrameHeader is the decoded FHDR chunk.
type FrameHeader struct {
	MICols       int
	MIRows       int
	BitDepth     int
	HighBitDepth bool
	Planes       int // 1 (luma only) or 3
	Level        int // frame filter level
	Subsampling  [MaxPlanes][2]int
}

// PlaneExtent returns the sample dimensions of plane i.
func (h *FrameHeader) PlaneExtent(i int) (w, ht int) {
	return (h.MICols * 8) >> uint(h.Subsampling[i][0]), (h.MIRows * 8) >> uint(h.Subsampling[i][1])
}

// SampleSize returns the stored bytes per sample.
func (h *FrameHeader) SampleSize() int {
	if h.HighBitDepth {
		return 2
	}
	return 1
}

func parseFHDR(payload []byte) (FrameHeader, error) {
	if len(payload) < FHDRChunkSize {
		return FrameHeader{}, ErrInvalidHeader
	}
	flags := payload[9]
	if flags&^AllValidFlags != 0 {
		return FrameHeader{}, ErrInvalidFlags
	}
	h := FrameHeader{
		MICols:       int(ReadLE32(payload[0:4])),
		MIRows:       int(ReadLE32(payload[4:8])),
		BitDepth:     int(payload[8]),
		HighBitDepth: flags&FlagHighBitDepth != 0,
		Planes:       int(payload[10]),
		Level:        int(payload[11]),
	}
	for i := 0; i < MaxPlanes; i++ {
		h.Subsampling[i][0] = int(payload[12+2*i])
		h.Subsampling[i][1] = int(payload[13+2*i])
	}
	if err := h.validate(); err != nil {
		return FrameHeader{}, err
	}
	return h, nil
}

func (h *FrameHeader) validate() error {
	if h.MICols <= 0 || h.MIRows <= 0 || h.MICols > MaxMIDim || h.MIRows > MaxMIDim {
		return fmt.Errorf("%w: %dx%d mode-info units", ErrInvalidHeader, h.MICols, h.MIRows)
	}
	if h.BitDepth < 8 || h.BitDepth > 12 || (h.BitDepth > 8 && !h.HighBitDepth) {
		return fmt.Errorf("%w: bit depth %d", ErrInvalidHeader, h.BitDepth)
	}
	if h.Planes != 1 && h.Planes != MaxPlanes {
		return fmt.Errorf("%w: %d planes", ErrInvalidHeader, h.Planes)
	}
	if h.Level < 0 || h.Level > 63 {
		return fmt.Errorf("%w: level %d", ErrInvalidHeader, h.Level)
	}
	for i := 0; i < MaxPlanes; i++ {
		for _, s := range h.Subsampling[i] {
			if s < 0 || s > 1 || (i == 0 && s != 0) {
				return fmt.Errorf("%w: plane %d subsampling %v", ErrInvalidHeader, i, h.Subsampling[i])
			}
		}
	}
	return nil
}

func (h *FrameHeader) marshal() []byte {
	b := make([]byte, FHDRChunkSize)
	PutLE32(b[0:4], uint32(h.MICols))
	PutLE32(b[4:8], uint32(h.MIRows))
	b[8] = byte(h.BitDepth)
	if h.HighBitDepth {
		b[9] |= FlagHighBitDepth
	}
	b[10] = byte(h.Planes)
	b[11] = byte(h.Level)
	for i := 0; i < MaxPlanes; i++ {
		b[12+2*i] = byte(h.Subsampling[i][0])
		b[13+2*i] = byte(h.Subsampling[i][1])
	}
	return b
}

// Parser splits a .drf file into its header and chunks. It processes the
// file in a single pass over the byte slice.
type Parser struct {
	header     FrameHeader
	chunks     []Chunk
	compressed bool
	size       int // size of the RIFF data after decompression
}

// NewParser creates a parser and immediately parses the provided data,
// which may be zstd-wrapped.
func NewParser(data []byte) (*Parser, error) {
	p := &Parser{}
	if IsCompressed(data) {
		raw, err := decompress(data)
		if err != nil {
			return nil, err
		}
		data = raw
		p.compressed = true
	}
	p.size = len(data)
	if err := p.parse(data); err != nil {
		return nil, err
	}
	return p, nil
}

// Header returns the parsed FHDR chunk.
func (p *Parser) Header() FrameHeader { return p.header }

// Chunks returns every chunk in file order, FHDR included.
func (p *Parser) Chunks() []Chunk { return p.chunks }

// Compressed reports whether the file was zstd-wrapped.
func (p *Parser) Compressed() bool { return p.compressed }

// RawSize returns the size of the uncompressed RIFF data.
func (p *Parser) RawSize() int { return p.size }

// Chunk returns the first chunk tagged fourcc.
func (p *Parser) Chunk(fourcc uint32) ([]byte, bool) {
	for _, c := range p.chunks {
		if c.FourCC == fourcc {
			return c.Payload, true
		}
	}
	return nil, false
}

func (p *Parser) parse(data []byte) error {
	hdr, consumed, err := ParseRIFFHeader(data)
	if err != nil {
		return err
	}

	// Limit parsing to the declared RIFF size.
	riffEnd := int(hdr.FileSize) + ChunkHeaderSize
	if riffEnd > len(data) {
		return ErrTruncated
	}
	chunks, err := SplitChunks(data[consumed:riffEnd])
	if err != nil {
		return err
	}
	if len(chunks) == 0 || chunks[0].FourCC != FourCCFHDR {
		return fmt.Errorf("%w: FHDR must be the first chunk", ErrInvalidChunk)
	}
	p.header, err = parseFHDR(chunks[0].Payload)
	if err != nil {
		return err
	}
	p.chunks = chunks
	return nil
}

// IsCompressed reports whether data starts with a zstd frame.
func IsCompressed(data []byte) bool {
	return len(data) >= 4 && ReadLE32(data) == zstdMagic
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

var zstdDecPool = sync.Pool{
	New: func() any {
		return mustNewZstdDecoder()
	},
}

func decompress(data []byte) ([]byte, error) {
	dec := zstdDecPool.Get().(*zstd.Decoder)
	out, err := dec.DecodeAll(data, nil)
	zstdDecPool.Put(dec)
	if err != nil {
		return nil, fmt.Errorf("drf: zstd: %w", err)
	}
	return out, nil
}

// compress wraps data in a zstd frame at the given zstd level (1-22); zero
// selects the library default.
func compress(data []byte, level int) ([]byte, error) {
	opts := []zstd.EOption{zstd.WithEncoderConcurrency(1)}
	if level > 0 {
		opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
	enc, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("drf: zstd: %w", err)
	}
	out := enc.EncodeAll(data, nil)
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("drf: zstd: %w", err)
	}
	return out, nil
}
