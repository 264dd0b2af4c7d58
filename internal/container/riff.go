package container

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidRIFF   = errors.New("drf: invalid RIFF header")
	ErrInvalidForm   = errors.New("drf: invalid DRNG signature")
	ErrTruncated     = errors.New("drf: truncated data")
	ErrInvalidChunk  = errors.New("drf: invalid chunk")
	ErrTooLarge      = errors.New("drf: file too large")
	ErrInvalidHeader = errors.New("drf: invalid FHDR chunk")
	ErrInvalidFlags  = errors.New("drf: invalid header flags")
	ErrMissingChunk  = errors.New("drf: missing chunk")
)

// Chunk represents a single RIFF chunk with its FourCC tag and payload.
type Chunk struct {
	FourCC  uint32
	Payload []byte
}

// RIFFHeader holds the parsed RIFF container header.
type RIFFHeader struct {
	FileSize uint32 // total RIFF file size (excluding 8-byte RIFF header)
}

// ParseRIFFHeader validates and parses the 12-byte RIFF/DRNG header from data.
// Returns the header and the number of bytes consumed.
func ParseRIFFHeader(data []byte) (RIFFHeader, int, error) {
	if len(data) < RIFFHeaderSize {
		return RIFFHeader{}, 0, ErrTruncated
	}

	riffTag := binary.LittleEndian.Uint32(data[0:4])
	if riffTag != FourCCRIFF {
		return RIFFHeader{}, 0, ErrInvalidRIFF
	}

	fileSize := binary.LittleEndian.Uint32(data[4:8])
	if fileSize < 4 {
		return RIFFHeader{}, 0, ErrInvalidRIFF
	}
	if fileSize > MaxChunkPayload {
		return RIFFHeader{}, 0, ErrTooLarge
	}

	formTag := binary.LittleEndian.Uint32(data[8:12])
	if formTag != FourCCDRNG {
		return RIFFHeader{}, 0, ErrInvalidForm
	}

	return RIFFHeader{FileSize: fileSize}, RIFFHeaderSize, nil
}

// ReadChunkHeader reads a chunk's FourCC tag and payload size from data.
func ReadChunkHeader(data []byte) (fourcc uint32, payloadSize uint32, err error) {
	if len(data) < ChunkHeaderSize {
		return 0, 0, ErrTruncated
	}
	fourcc = binary.LittleEndian.Uint32(data[0:4])
	payloadSize = binary.LittleEndian.Uint32(data[4:8])
	if payloadSize > MaxChunkPayload {
		return 0, 0, ErrTooLarge
	}
	return fourcc, payloadSize, nil
}

// PaddedSize returns the payload size padded to an even number of bytes,
// as required by the RIFF format.
func PaddedSize(size uint32) uint32 {
	return size + (size & 1)
}

// FourCCString returns a human-readable string for a FourCC value.
func FourCCString(fourcc uint32) string {
	b := [4]byte{
		byte(fourcc),
		byte(fourcc >> 8),
		byte(fourcc >> 16),
		byte(fourcc >> 24),
	}
	return string(b[:])
}

// AppendChunk appends the chunk header, payload and padding byte to dst.
func AppendChunk(dst []byte, fourcc uint32, payload []byte) []byte {
	var hdr [ChunkHeaderSize]byte
	PutLE32(hdr[0:4], fourcc)
	PutLE32(hdr[4:8], uint32(len(payload)))
	dst = append(dst, hdr[:]...)
	dst = append(dst, payload...)
	if len(payload)&1 != 0 {
		dst = append(dst, 0)
	}
	return dst
}

// SplitChunks walks the chunks of a RIFF body in order. The declared size of
// the last chunk must fit in buf.
func SplitChunks(buf []byte) ([]Chunk, error) {
	var chunks []Chunk
	for len(buf) > 0 {
		fourcc, size, err := ReadChunkHeader(buf)
		if err != nil {
			return nil, err
		}
		end := uint64(ChunkHeaderSize) + uint64(size)
		if end > uint64(len(buf)) {
			return nil, fmt.Errorf("%w: chunk %s declares %d bytes", ErrTruncated, FourCCString(fourcc), size)
		}
		chunks = append(chunks, Chunk{FourCC: fourcc, Payload: buf[ChunkHeaderSize:end]})
		next := uint64(ChunkHeaderSize) + uint64(PaddedSize(size))
		if next > uint64(len(buf)) {
			// A missing trailing pad byte is tolerated.
			next = uint64(len(buf))
		}
		buf = buf[next:]
	}
	return chunks, nil
}
