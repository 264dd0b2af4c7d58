// Package container reads and writes .drf frame dumps: a RIFF form holding one
// reconstructed frame, its mode-info grid and the frame filter level, so the
// deringing stage can be run and inspected offline. Files may be wrapped in a
// zstd stream; readers detect this from the leading magic number.
package container

import "encoding/binary"

// FourCC creates a FourCC value from four bytes (little-endian).
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// Container FourCC values.
var (
	FourCCRIFF = FourCC('R', 'I', 'F', 'F')
	FourCCDRNG = FourCC('D', 'R', 'N', 'G')
	FourCCFHDR = FourCC('F', 'H', 'D', 'R')
	FourCCPLN0 = FourCC('P', 'L', 'N', '0')
	FourCCPLN1 = FourCC('P', 'L', 'N', '1')
	FourCCPLN2 = FourCC('P', 'L', 'N', '2')
	FourCCMINF = FourCC('M', 'I', 'N', 'F')
)

// planeFourCC returns the chunk tag of plane i.
func planeFourCC(i int) uint32 {
	return FourCC('P', 'L', 'N', byte('0'+i))
}

// Container structure sizes.
const (
	ChunkHeaderSize = 8  // Size of a chunk header
	RIFFHeaderSize  = 12 // Size of the RIFF header ("RIFFnnnnDRNG")
	FHDRChunkSize   = 20 // Size of an FHDR payload
)

// FHDR flags.
const (
	FlagHighBitDepth uint8 = 0x01 // samples stored as little-endian uint16
	AllValidFlags    uint8 = 0x01
)

// MINF unit byte layout.
const (
	ModeSkipBit  uint8 = 0x80
	ModeGainMask uint8 = 0x03
)

// Limits.
const (
	MaxChunkPayload = ^uint32(0) - ChunkHeaderSize - 1
	MaxMIDim        = 1 << 16 // mode-info units per side
	MaxPlanes       = 3
)

// zstdMagic is the little-endian frame magic of a zstd stream.
const zstdMagic = 0xFD2FB528

// ReadLE16 reads a little-endian uint16 from data.
func ReadLE16(data []byte) uint16 {
	return binary.LittleEndian.Uint16(data)
}

// ReadLE32 reads a little-endian uint32 from data.
func ReadLE32(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data)
}

// PutLE16 writes a little-endian uint16 to data.
func PutLE16(data []byte, v uint16) {
	binary.LittleEndian.PutUint16(data, v)
}

// PutLE32 writes a little-endian uint32 to data.
func PutLE32(data []byte, v uint32) {
	binary.LittleEndian.PutUint32(data, v)
}
