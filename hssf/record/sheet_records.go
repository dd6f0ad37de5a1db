package record

import (
	"encoding/binary"
)

// WindowTwoRecord holds per-sheet window state. The selected and active bits
// live here; the workbook window record holds the active tab index. The two
// are maintained independently.
type WindowTwoRecord struct {
	Options       uint16
	TopRow        uint16
	LeftCol       uint16
	HeaderColor   uint32
	PageBreakZoom uint16
	NormalZoom    uint16
	Reserved      uint32
}

const (
	w2Selected = 0x0200
	w2Active   = 0x0400
)

// NewWindowTwoRecord creates the window record of a fresh sheet. New sheets
// start with both the selected and active bits set; callers clear them when
// the sheet is not the only one.
func NewWindowTwoRecord() *WindowTwoRecord {
	return &WindowTwoRecord{Options: 0x06B6, HeaderColor: 0x40}
}

func parseWindowTwo(data []byte) (Record, error) {
	if len(data) < 18 {
		return nil, NewRecordFormatError("WINDOW2 record payload is %d bytes, expected 18", len(data))
	}
	return &WindowTwoRecord{
		Options:       binary.LittleEndian.Uint16(data[0:2]),
		TopRow:        binary.LittleEndian.Uint16(data[2:4]),
		LeftCol:       binary.LittleEndian.Uint16(data[4:6]),
		HeaderColor:   binary.LittleEndian.Uint32(data[6:10]),
		PageBreakZoom: binary.LittleEndian.Uint16(data[10:12]),
		NormalZoom:    binary.LittleEndian.Uint16(data[12:14]),
		Reserved:      binary.LittleEndian.Uint32(data[14:18]),
	}, nil
}

func (r *WindowTwoRecord) Sid() uint16     { return XL_WINDOW2 }
func (r *WindowTwoRecord) RecordSize() int { return 4 + 18 }

func (r *WindowTwoRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_WINDOW2, 18)
	binary.LittleEndian.PutUint16(buf[4:6], r.Options)
	binary.LittleEndian.PutUint16(buf[6:8], r.TopRow)
	binary.LittleEndian.PutUint16(buf[8:10], r.LeftCol)
	binary.LittleEndian.PutUint32(buf[10:14], r.HeaderColor)
	binary.LittleEndian.PutUint16(buf[14:16], r.PageBreakZoom)
	binary.LittleEndian.PutUint16(buf[16:18], r.NormalZoom)
	binary.LittleEndian.PutUint32(buf[18:22], r.Reserved)
	return 22
}

func (r *WindowTwoRecord) Clone() Record {
	c := &WindowTwoRecord{}
	mustCopy(c, r)
	return c
}

// Selected reports whether the sheet's tab is selected.
func (r *WindowTwoRecord) Selected() bool {
	return r.Options&w2Selected != 0
}

func (r *WindowTwoRecord) SetSelected(selected bool) {
	if selected {
		r.Options |= w2Selected
	} else {
		r.Options &^= w2Selected
	}
}

// Active reports whether this sheet is the one displayed.
func (r *WindowTwoRecord) Active() bool {
	return r.Options&w2Active != 0
}

func (r *WindowTwoRecord) SetActive(active bool) {
	if active {
		r.Options |= w2Active
	} else {
		r.Options &^= w2Active
	}
}

// SelectionRef is one rectangle of a sheet selection.
type SelectionRef struct {
	FirstRow uint16
	LastRow  uint16
	FirstCol byte
	LastCol  byte
}

// SelectionRecord stores the selected cell ranges and the active cell of
// one pane.
type SelectionRecord struct {
	Pane          byte
	ActiveCellRow uint16
	ActiveCellCol uint16
	ActiveCellRef uint16
	Refs          []SelectionRef
}

// NewSelectionRecord creates the default selection: cell A1 in pane 3.
func NewSelectionRecord() *SelectionRecord {
	return &SelectionRecord{Pane: 3, Refs: []SelectionRef{{}}}
}

func parseSelection(data []byte) (Record, error) {
	if len(data) < 9 {
		return nil, NewRecordFormatError("SELECTION record payload is %d bytes, expected at least 9", len(data))
	}
	count := int(binary.LittleEndian.Uint16(data[7:9]))
	if len(data) < 9+count*6 {
		return nil, NewRecordFormatError("SELECTION record declares %d refs but holds %d bytes", count, len(data))
	}
	r := &SelectionRecord{
		Pane:          data[0],
		ActiveCellRow: binary.LittleEndian.Uint16(data[1:3]),
		ActiveCellCol: binary.LittleEndian.Uint16(data[3:5]),
		ActiveCellRef: binary.LittleEndian.Uint16(data[5:7]),
		Refs:          make([]SelectionRef, count),
	}
	for i := 0; i < count; i++ {
		off := 9 + i*6
		r.Refs[i] = SelectionRef{
			FirstRow: binary.LittleEndian.Uint16(data[off : off+2]),
			LastRow:  binary.LittleEndian.Uint16(data[off+2 : off+4]),
			FirstCol: data[off+4],
			LastCol:  data[off+5],
		}
	}
	return r, nil
}

func (r *SelectionRecord) Sid() uint16 { return XL_SELECTION }

func (r *SelectionRecord) RecordSize() int {
	return 4 + 9 + len(r.Refs)*6
}

func (r *SelectionRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_SELECTION, 9+len(r.Refs)*6)
	buf[4] = r.Pane
	binary.LittleEndian.PutUint16(buf[5:7], r.ActiveCellRow)
	binary.LittleEndian.PutUint16(buf[7:9], r.ActiveCellCol)
	binary.LittleEndian.PutUint16(buf[9:11], r.ActiveCellRef)
	binary.LittleEndian.PutUint16(buf[11:13], uint16(len(r.Refs)))
	for i, ref := range r.Refs {
		off := 13 + i*6
		binary.LittleEndian.PutUint16(buf[off:off+2], ref.FirstRow)
		binary.LittleEndian.PutUint16(buf[off+2:off+4], ref.LastRow)
		buf[off+4] = ref.FirstCol
		buf[off+5] = ref.LastCol
	}
	return 13 + len(r.Refs)*6
}

func (r *SelectionRecord) Clone() Record {
	c := &SelectionRecord{}
	mustCopy(c, r)
	return c
}

// DimensionsRecord bounds the used area of a sheet. The last row and column
// are exclusive.
type DimensionsRecord struct {
	FirstRow uint32
	LastRow  uint32
	FirstCol uint16
	LastCol  uint16
	Reserved uint16
}

func parseDimensions(data []byte) (Record, error) {
	if len(data) < 14 {
		return nil, NewRecordFormatError("DIMENSIONS record payload is %d bytes, expected 14", len(data))
	}
	return &DimensionsRecord{
		FirstRow: binary.LittleEndian.Uint32(data[0:4]),
		LastRow:  binary.LittleEndian.Uint32(data[4:8]),
		FirstCol: binary.LittleEndian.Uint16(data[8:10]),
		LastCol:  binary.LittleEndian.Uint16(data[10:12]),
		Reserved: binary.LittleEndian.Uint16(data[12:14]),
	}, nil
}

func (r *DimensionsRecord) Sid() uint16     { return XL_DIMENSION }
func (r *DimensionsRecord) RecordSize() int { return 4 + 14 }

func (r *DimensionsRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_DIMENSION, 14)
	binary.LittleEndian.PutUint32(buf[4:8], r.FirstRow)
	binary.LittleEndian.PutUint32(buf[8:12], r.LastRow)
	binary.LittleEndian.PutUint16(buf[12:14], r.FirstCol)
	binary.LittleEndian.PutUint16(buf[14:16], r.LastCol)
	binary.LittleEndian.PutUint16(buf[16:18], r.Reserved)
	return 18
}

func (r *DimensionsRecord) Clone() Record {
	c := &DimensionsRecord{}
	mustCopy(c, r)
	return c
}
