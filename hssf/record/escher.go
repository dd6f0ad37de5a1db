package record

import (
	"encoding/binary"
)

// Escher record types this package looks into. Drawing data is otherwise
// carried as raw bytes.
const (
	escherDggContainer    = 0xF000
	escherBStoreContainer = 0xF001
	escherBSE             = 0xF007
	escherOpt             = 0xF00B
)

// pib is the shape property naming which picture in the blip store a shape
// displays, as a 1-based index.
const escherPropPib = 0x0104

const escherHeaderSize = 8

// escherContainer reports whether an escher record with the given options
// field holds child records rather than atom data.
func escherContainer(options uint16) bool {
	return options&0x000F == 0x000F
}

// DrawingGroupRecord holds the workbook-global drawing state: the blip
// store with one entry per picture, each carrying a reference count of the
// shapes that use it. The escher stream is kept raw; only the reference
// counts are edited.
type DrawingGroupRecord struct {
	Data []byte
}

func parseDrawingGroup(data []byte) (Record, error) {
	d := make([]byte, len(data))
	copy(d, data)
	return &DrawingGroupRecord{Data: d}, nil
}

func (r *DrawingGroupRecord) Sid() uint16 { return XL_MSO_DRAWING_GROUP }

// Oversized drawing group data is written as repeated records of the same
// sid, not as CONTINUE records.
func (r *DrawingGroupRecord) RecordSize() int {
	frames := (len(r.Data) + MAX_RECORD_DATA - 1) / MAX_RECORD_DATA
	if frames == 0 {
		frames = 1
	}
	return frames*4 + len(r.Data)
}

func (r *DrawingGroupRecord) Serialize(buf []byte) int {
	pos := 0
	data := r.Data
	for {
		chunk := data
		if len(chunk) > MAX_RECORD_DATA {
			chunk = chunk[:MAX_RECORD_DATA]
		}
		putHeader(buf[pos:], XL_MSO_DRAWING_GROUP, len(chunk))
		copy(buf[pos+4:], chunk)
		pos += 4 + len(chunk)
		data = data[len(chunk):]
		if len(data) == 0 {
			break
		}
	}
	return pos
}

func (r *DrawingGroupRecord) Clone() Record {
	c := &DrawingGroupRecord{}
	mustCopy(c, r)
	return c
}

// blipStoreEntries returns the payloads of the BSE atoms in blip store
// order. The slices alias r.Data so callers can edit counts in place.
func (r *DrawingGroupRecord) blipStoreEntries() [][]byte {
	var entries [][]byte
	var walk func(data []byte, inBStore bool)
	walk = func(data []byte, inBStore bool) {
		pos := 0
		for pos+escherHeaderSize <= len(data) {
			options := binary.LittleEndian.Uint16(data[pos : pos+2])
			recid := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
			length := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
			body := data[pos+escherHeaderSize:]
			if length > len(body) {
				length = len(body)
			}
			body = body[:length]
			if escherContainer(options) {
				walk(body, recid == escherBStoreContainer)
			} else if inBStore && recid == escherBSE {
				entries = append(entries, body)
			}
			pos += escherHeaderSize + length
		}
	}
	walk(r.Data, false)
	return entries
}

// IncrementBlipRef bumps the shape reference count of the pib'th picture.
// It reports whether such a picture exists.
func (r *DrawingGroupRecord) IncrementBlipRef(pib int) bool {
	entries := r.blipStoreEntries()
	if pib < 1 || pib > len(entries) {
		return false
	}
	bse := entries[pib-1]
	if len(bse) < 28 {
		return false
	}
	cref := binary.LittleEndian.Uint32(bse[24:28])
	binary.LittleEndian.PutUint32(bse[24:28], cref+1)
	return true
}

// DecrementBlipRef drops the shape reference count of the pib'th picture,
// stopping at zero. It reports whether such a picture exists.
func (r *DrawingGroupRecord) DecrementBlipRef(pib int) bool {
	entries := r.blipStoreEntries()
	if pib < 1 || pib > len(entries) {
		return false
	}
	bse := entries[pib-1]
	if len(bse) < 28 {
		return false
	}
	cref := binary.LittleEndian.Uint32(bse[24:28])
	if cref > 0 {
		binary.LittleEndian.PutUint32(bse[24:28], cref-1)
	}
	return true
}

// BlipRefCount returns the shape reference count of the pib'th picture, or
// 0 when out of range.
func (r *DrawingGroupRecord) BlipRefCount(pib int) uint32 {
	entries := r.blipStoreEntries()
	if pib < 1 || pib > len(entries) || len(entries[pib-1]) < 28 {
		return 0
	}
	return binary.LittleEndian.Uint32(entries[pib-1][24:28])
}

// DrawingRecord holds one sheet's escher shape data, raw.
type DrawingRecord struct {
	Data []byte
}

func parseDrawing(data []byte) (Record, error) {
	d := make([]byte, len(data))
	copy(d, data)
	return &DrawingRecord{Data: d}, nil
}

func (r *DrawingRecord) Sid() uint16 { return XL_MSO_DRAWING }

func (r *DrawingRecord) RecordSize() int {
	n := len(r.Data)
	if n <= MAX_RECORD_DATA {
		return 4 + n
	}
	frames := (n + MAX_RECORD_DATA - 1) / MAX_RECORD_DATA
	return frames*4 + n
}

func (r *DrawingRecord) Serialize(buf []byte) int {
	pos := 0
	data := r.Data
	sid := uint16(XL_MSO_DRAWING)
	for {
		chunk := data
		if len(chunk) > MAX_RECORD_DATA {
			chunk = chunk[:MAX_RECORD_DATA]
		}
		putHeader(buf[pos:], sid, len(chunk))
		copy(buf[pos+4:], chunk)
		pos += 4 + len(chunk)
		data = data[len(chunk):]
		if len(data) == 0 {
			break
		}
		sid = XL_CONTINUE
	}
	return pos
}

func (r *DrawingRecord) Clone() Record {
	c := &DrawingRecord{}
	mustCopy(c, r)
	return c
}

// BlipRefs lists the 1-based picture indexes the sheet's shapes display, in
// the order their properties appear.
func (r *DrawingRecord) BlipRefs() []int {
	var pibs []int
	var walk func(data []byte)
	walk = func(data []byte) {
		pos := 0
		for pos+escherHeaderSize <= len(data) {
			options := binary.LittleEndian.Uint16(data[pos : pos+2])
			recid := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
			length := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
			body := data[pos+escherHeaderSize:]
			if length > len(body) {
				length = len(body)
			}
			body = body[:length]
			if escherContainer(options) {
				walk(body)
			} else if recid == escherOpt {
				count := int(options >> 4)
				for i := 0; i < count && (i+1)*6 <= len(body); i++ {
					propid := binary.LittleEndian.Uint16(body[i*6 : i*6+2])
					value := binary.LittleEndian.Uint32(body[i*6+2 : i*6+6])
					if propid&0x3FFF == escherPropPib {
						pibs = append(pibs, int(value))
					}
				}
			}
			pos += escherHeaderSize + length
		}
	}
	walk(r.Data)
	return pibs
}
