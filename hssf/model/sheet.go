package model

import (
	"encoding/binary"
	"math"

	"github.com/HasaanA16/poi/hssf/record"
)

// Sheet is one worksheet substream: the records between a BOF and its
// matching EOF. Cell and row records stay in their decoded form; this layer
// only tracks the records that structural operations touch.
type Sheet struct {
	records    []record.Record
	bof        *record.BOFRecord
	windowTwo  *record.WindowTwoRecord
	selection  *record.SelectionRecord
	dimensions *record.DimensionsRecord
	drawing    *record.DrawingRecord
}

// NewSheet builds an empty worksheet with the stock calculation, print and
// view settings.
func NewSheet() *Sheet {
	records := []record.Record{
		record.NewBOFRecord(record.XL_WORKSHEET),
		record.NewRawRecord(record.XL_CALCMODE, []byte{1, 0}),
		record.NewRawRecord(record.XL_CALCCOUNT, []byte{100, 0}),
		record.NewRawRecord(record.XL_REFMODE, []byte{1, 0}),
		record.NewRawRecord(record.XL_ITERATION, []byte{0, 0}),
		record.NewRawRecord(record.XL_DELTA, doubleBytes(0.001)),
		record.NewRawRecord(record.XL_SAVERECALC, []byte{1, 0}),
		record.NewRawRecord(record.XL_PRINTHEADERS, []byte{0, 0}),
		record.NewRawRecord(record.XL_PRINTGRIDLINES, []byte{0, 0}),
		record.NewRawRecord(record.XL_GRIDSET, []byte{1, 0}),
		record.NewRawRecord(record.XL_GUTS, make([]byte, 8)),
		record.NewRawRecord(record.XL_DEFAULTROWHEIGHT, []byte{0x00, 0x00, 0xFF, 0x00}),
		record.NewRawRecord(record.XL_WSBOOL, []byte{0xC1, 0x04}),
		record.NewRawRecord(record.XL_HEADER, nil),
		record.NewRawRecord(record.XL_FOOTER, nil),
		record.NewRawRecord(record.XL_HCENTER, []byte{0, 0}),
		record.NewRawRecord(record.XL_VCENTER, []byte{0, 0}),
		defaultPageSetup(),
		record.NewRawRecord(record.XL_DEFCOLWIDTH, []byte{8, 0}),
		&record.DimensionsRecord{},
		record.NewWindowTwoRecord(),
		record.NewSelectionRecord(),
		&record.EOFRecord{},
	}
	return ReadSheet(records)
}

func doubleBytes(v float64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return b
}

func defaultPageSetup() *record.RawRecord {
	b := make([]byte, 34)
	binary.LittleEndian.PutUint16(b[2:], 100) // scale
	binary.LittleEndian.PutUint16(b[4:], 1)   // page start
	binary.LittleEndian.PutUint16(b[6:], 1)   // fit width
	binary.LittleEndian.PutUint16(b[8:], 1)   // fit height
	binary.LittleEndian.PutUint16(b[10:], 2)  // options
	binary.LittleEndian.PutUint16(b[12:], 300)
	binary.LittleEndian.PutUint16(b[14:], 300)
	copy(b[16:], doubleBytes(0.3)) // header margin
	copy(b[24:], doubleBytes(0.3)) // footer margin
	binary.LittleEndian.PutUint16(b[32:], 1) // copies
	return record.NewRawRecord(record.XL_PAGESETUP, b)
}

// ReadSheet wires up a decoded sheet substream. Only records at the top
// level of the substream are captured; charts and other nested substreams
// pass through untouched.
func ReadSheet(records []record.Record) *Sheet {
	s := &Sheet{records: records}
	depth := 0
	for _, r := range records {
		if r.Sid() == record.XL_BOF {
			depth++
			if depth == 1 {
				if bof, ok := r.(*record.BOFRecord); ok && s.bof == nil {
					s.bof = bof
				}
			}
			continue
		}
		if r.Sid() == record.XL_EOF {
			depth--
			continue
		}
		if depth != 1 {
			continue
		}
		switch t := r.(type) {
		case *record.WindowTwoRecord:
			if s.windowTwo == nil {
				s.windowTwo = t
			}
		case *record.SelectionRecord:
			if s.selection == nil {
				s.selection = t
			}
		case *record.DimensionsRecord:
			if s.dimensions == nil {
				s.dimensions = t
			}
		case *record.DrawingRecord:
			if s.drawing == nil {
				s.drawing = t
			}
		}
	}
	return s
}

// Records exposes the substream in serialization order.
func (s *Sheet) Records() []record.Record {
	return s.records
}

// Clone deep-copies the sheet, records and captured pointers both.
func (s *Sheet) Clone() *Sheet {
	records := make([]record.Record, len(s.records))
	for i, r := range s.records {
		records[i] = r.Clone()
	}
	return ReadSheet(records)
}

// WindowTwo returns the sheet window record, or nil for substreams that
// carry none.
func (s *Sheet) WindowTwo() *record.WindowTwoRecord {
	return s.windowTwo
}

// Selection returns the selection record, or nil when the substream has
// none.
func (s *Sheet) Selection() *record.SelectionRecord {
	return s.selection
}

// Dimensions returns the used-area record, or nil when the substream has
// none.
func (s *Sheet) Dimensions() *record.DimensionsRecord {
	return s.dimensions
}

// Drawing returns the sheet's drawing container, or nil when the sheet has
// no drawings.
func (s *Sheet) Drawing() *record.DrawingRecord {
	return s.drawing
}

// Size returns the serialized size of the substream.
func (s *Sheet) Size() int {
	return record.StreamSize(s.records)
}

// Serialize encodes the substream.
func (s *Sheet) Serialize() ([]byte, error) {
	return record.EncodeStream(s.records)
}

// SplitStream cuts a decoded workbook stream into the globals block and one
// block per sheet substream. The stream decoder guarantees balanced BOF/EOF
// pairs, so the split cannot fail on decoded input; an empty stream is still
// rejected.
func SplitStream(records []record.Record) ([]record.Record, [][]record.Record, error) {
	var blocks [][]record.Record
	depth := 0
	start := 0
	for i, r := range records {
		switch r.Sid() {
		case record.XL_BOF:
			if depth == 0 {
				start = i
			}
			depth++
		case record.XL_EOF:
			depth--
			if depth == 0 {
				blocks = append(blocks, records[start:i+1])
			}
		}
	}
	if len(blocks) == 0 {
		return nil, nil, record.NewRecordFormatError("workbook stream holds no BOF/EOF block")
	}
	return blocks[0], blocks[1:], nil
}
