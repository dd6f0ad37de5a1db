package poifs

import (
	"bytes"
	"encoding/binary"
)

// SIGNATURE is the magic cookie that opens every compound document.
var SIGNATURE = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// HEADER_SIZE is the size of the compound document header in bytes.
const HEADER_SIZE = 512

// Sector constants. Version 3 documents use 512 byte sectors; version 4
// documents use 4096. Mini sectors are always 64 bytes, and streams shorter
// than MINI_STREAM_CUTOFF live in the mini stream.
const (
	SECTOR_SIZE        = 512
	MINI_SECTOR_SIZE   = 64
	MINI_STREAM_CUTOFF = 4096
)

// Special sector IDs used in the FAT and DIFAT.
const (
	FREE_SECTOR  = 0xFFFFFFFF
	END_OF_CHAIN = 0xFFFFFFFE
	FAT_SECTOR   = 0xFFFFFFFD
	DIFAT_SECTOR = 0xFFFFFFFC
)

// MAX_HEADER_DIFAT is the number of FAT sector IDs held directly in the header.
const MAX_HEADER_DIFAT = 109

type header struct {
	sectorShift  uint16
	miniShift    uint16
	numFAT       uint32
	firstDir     uint32
	miniCutoff   uint32
	firstMiniFAT uint32
	numMiniFAT   uint32
	firstDIFAT   uint32
	numDIFAT     uint32
	difat        [MAX_HEADER_DIFAT]uint32
}

func (h *header) sectorSize() int {
	return 1 << h.sectorShift
}

func parseHeader(data []byte) (*header, error) {
	if len(data) < HEADER_SIZE {
		return nil, NewFormatError("compound document is truncated: %d bytes is too short for the %d byte header", len(data), HEADER_SIZE)
	}
	if !bytes.Equal(data[:8], SIGNATURE) {
		return nil, NewFormatError("invalid compound document signature; read 0x%016X, expected 0x%016X",
			binary.LittleEndian.Uint64(data[:8]), binary.LittleEndian.Uint64(SIGNATURE))
	}

	h := &header{}
	h.sectorShift = binary.LittleEndian.Uint16(data[30:32])
	h.miniShift = binary.LittleEndian.Uint16(data[32:34])
	h.numFAT = binary.LittleEndian.Uint32(data[44:48])
	h.firstDir = binary.LittleEndian.Uint32(data[48:52])
	h.miniCutoff = binary.LittleEndian.Uint32(data[56:60])
	h.firstMiniFAT = binary.LittleEndian.Uint32(data[60:64])
	h.numMiniFAT = binary.LittleEndian.Uint32(data[64:68])
	h.firstDIFAT = binary.LittleEndian.Uint32(data[68:72])
	h.numDIFAT = binary.LittleEndian.Uint32(data[72:76])
	for i := 0; i < MAX_HEADER_DIFAT; i++ {
		h.difat[i] = binary.LittleEndian.Uint32(data[76+i*4 : 80+i*4])
	}

	if h.sectorShift != 9 && h.sectorShift != 12 {
		return nil, NewFormatError("unsupported sector shift %d; only 512 and 4096 byte sectors exist", h.sectorShift)
	}
	if h.miniShift != 6 {
		return nil, NewFormatError("unsupported mini sector shift %d; mini sectors are 64 bytes", h.miniShift)
	}
	return h, nil
}

// writeHeader emits a version 3 header (512 byte sectors) into a HEADER_SIZE
// byte slice.
func writeHeader(buf []byte, h *header) {
	copy(buf[0:8], SIGNATURE)
	// bytes 8..23 hold the header CLSID, always zero; the root class ID
	// lives in the root directory entry instead.
	binary.LittleEndian.PutUint16(buf[24:26], 0x003E) // minor version
	binary.LittleEndian.PutUint16(buf[26:28], 0x0003) // major version
	binary.LittleEndian.PutUint16(buf[28:30], 0xFFFE) // little-endian marker
	binary.LittleEndian.PutUint16(buf[30:32], 9)
	binary.LittleEndian.PutUint16(buf[32:34], 6)
	binary.LittleEndian.PutUint32(buf[44:48], h.numFAT)
	binary.LittleEndian.PutUint32(buf[48:52], h.firstDir)
	binary.LittleEndian.PutUint32(buf[56:60], MINI_STREAM_CUTOFF)
	binary.LittleEndian.PutUint32(buf[60:64], h.firstMiniFAT)
	binary.LittleEndian.PutUint32(buf[64:68], h.numMiniFAT)
	binary.LittleEndian.PutUint32(buf[68:72], h.firstDIFAT)
	binary.LittleEndian.PutUint32(buf[72:76], h.numDIFAT)
	for i := 0; i < MAX_HEADER_DIFAT; i++ {
		binary.LittleEndian.PutUint32(buf[76+i*4:80+i*4], h.difat[i])
	}
}
