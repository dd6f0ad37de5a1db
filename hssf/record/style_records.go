package record

import (
	"encoding/binary"
)

// FontRecord describes one font. Fonts are shared by index from the
// extended format records; index 4 is skipped for historical reasons.
type FontRecord struct {
	FontHeight     uint16
	Attributes     uint16
	ColorPalette   uint16
	BoldWeight     uint16
	SuperSubScript uint16
	Underline      byte
	Family         byte
	Charset        byte
	Reserved       byte
	FontName       string
}

// NewFontRecord creates the stock font written into fresh workbooks.
func NewFontRecord() *FontRecord {
	return &FontRecord{
		FontHeight:   0x00C8,
		ColorPalette: 0x7FFF,
		BoldWeight:   0x0190,
		FontName:     "Arial",
	}
}

func parseFont(data []byte) (Record, error) {
	if len(data) < 16 {
		return nil, NewRecordFormatError("FONT record payload is %d bytes, expected at least 16", len(data))
	}
	name, _, err := ReadShortUnicodeString(data[14:])
	if err != nil {
		return nil, err
	}
	return &FontRecord{
		FontHeight:     binary.LittleEndian.Uint16(data[0:2]),
		Attributes:     binary.LittleEndian.Uint16(data[2:4]),
		ColorPalette:   binary.LittleEndian.Uint16(data[4:6]),
		BoldWeight:     binary.LittleEndian.Uint16(data[6:8]),
		SuperSubScript: binary.LittleEndian.Uint16(data[8:10]),
		Underline:      data[10],
		Family:         data[11],
		Charset:        data[12],
		Reserved:       data[13],
		FontName:       name,
	}, nil
}

func (r *FontRecord) Sid() uint16 { return XL_FONT }

func (r *FontRecord) RecordSize() int {
	return 4 + 14 + ShortUnicodeStringSize(r.FontName)
}

func (r *FontRecord) Serialize(buf []byte) int {
	length := 14 + ShortUnicodeStringSize(r.FontName)
	putHeader(buf, XL_FONT, length)
	binary.LittleEndian.PutUint16(buf[4:6], r.FontHeight)
	binary.LittleEndian.PutUint16(buf[6:8], r.Attributes)
	binary.LittleEndian.PutUint16(buf[8:10], r.ColorPalette)
	binary.LittleEndian.PutUint16(buf[10:12], r.BoldWeight)
	binary.LittleEndian.PutUint16(buf[12:14], r.SuperSubScript)
	buf[14] = r.Underline
	buf[15] = r.Family
	buf[16] = r.Charset
	buf[17] = r.Reserved
	n := WriteShortUnicodeString(buf[18:], r.FontName)
	return 18 + n
}

func (r *FontRecord) Clone() Record {
	c := &FontRecord{}
	mustCopy(c, r)
	return c
}

// FormatRecord maps a format index to a number format string.
type FormatRecord struct {
	FormatIndex  uint16
	FormatString string
}

func parseFormat(data []byte) (Record, error) {
	if len(data) < 5 {
		return nil, NewRecordFormatError("FORMAT record payload is %d bytes, expected at least 5", len(data))
	}
	s, _, err := ReadUnicodeString(data[2:])
	if err != nil {
		return nil, err
	}
	return &FormatRecord{
		FormatIndex:  binary.LittleEndian.Uint16(data[0:2]),
		FormatString: s,
	}, nil
}

func (r *FormatRecord) Sid() uint16 { return XL_FORMAT }

func (r *FormatRecord) RecordSize() int {
	return 4 + 2 + UnicodeStringSize(r.FormatString)
}

func (r *FormatRecord) Serialize(buf []byte) int {
	length := 2 + UnicodeStringSize(r.FormatString)
	putHeader(buf, XL_FORMAT, length)
	binary.LittleEndian.PutUint16(buf[4:6], r.FormatIndex)
	n := WriteUnicodeString(buf[6:], r.FormatString)
	return 6 + n
}

func (r *FormatRecord) Clone() Record {
	c := &FormatRecord{}
	mustCopy(c, r)
	return c
}

// ExtendedFormatRecord is one cell or style format. The workbook caps how
// many of these it will hold; see the structural manager.
type ExtendedFormatRecord struct {
	FontIndex          uint16
	FormatIndex        uint16
	CellOptions        uint16
	AlignmentOptions   uint16
	IndentionOptions   uint16
	BorderOptions      uint16
	PaletteOptions     uint16
	AdtlPaletteOptions uint32
	FillPaletteOptions uint16
}

func parseExtendedFormat(data []byte) (Record, error) {
	if len(data) < 20 {
		return nil, NewRecordFormatError("XF record payload is %d bytes, expected 20", len(data))
	}
	return &ExtendedFormatRecord{
		FontIndex:          binary.LittleEndian.Uint16(data[0:2]),
		FormatIndex:        binary.LittleEndian.Uint16(data[2:4]),
		CellOptions:        binary.LittleEndian.Uint16(data[4:6]),
		AlignmentOptions:   binary.LittleEndian.Uint16(data[6:8]),
		IndentionOptions:   binary.LittleEndian.Uint16(data[8:10]),
		BorderOptions:      binary.LittleEndian.Uint16(data[10:12]),
		PaletteOptions:     binary.LittleEndian.Uint16(data[12:14]),
		AdtlPaletteOptions: binary.LittleEndian.Uint32(data[14:18]),
		FillPaletteOptions: binary.LittleEndian.Uint16(data[18:20]),
	}, nil
}

func (r *ExtendedFormatRecord) Sid() uint16     { return XL_XF }
func (r *ExtendedFormatRecord) RecordSize() int { return 4 + 20 }

func (r *ExtendedFormatRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_XF, 20)
	binary.LittleEndian.PutUint16(buf[4:6], r.FontIndex)
	binary.LittleEndian.PutUint16(buf[6:8], r.FormatIndex)
	binary.LittleEndian.PutUint16(buf[8:10], r.CellOptions)
	binary.LittleEndian.PutUint16(buf[10:12], r.AlignmentOptions)
	binary.LittleEndian.PutUint16(buf[12:14], r.IndentionOptions)
	binary.LittleEndian.PutUint16(buf[14:16], r.BorderOptions)
	binary.LittleEndian.PutUint16(buf[16:18], r.PaletteOptions)
	binary.LittleEndian.PutUint32(buf[18:22], r.AdtlPaletteOptions)
	binary.LittleEndian.PutUint16(buf[22:24], r.FillPaletteOptions)
	return 24
}

func (r *ExtendedFormatRecord) Clone() Record {
	c := &ExtendedFormatRecord{}
	mustCopy(c, r)
	return c
}

// StyleRecord names an extended format, either one of the builtin styles or
// a user defined one.
type StyleRecord struct {
	XFIndex      uint16
	BuiltinStyle byte
	OutlineLevel byte
	StyleName    string
}

const styleBuiltinFlag = 0x8000

// NewBuiltinStyle creates a builtin style entry for the given XF index.
func NewBuiltinStyle(xfIndex uint16, builtinID byte) *StyleRecord {
	return &StyleRecord{
		XFIndex:      xfIndex | styleBuiltinFlag,
		BuiltinStyle: builtinID,
		OutlineLevel: 0xFF,
	}
}

// IsBuiltin reports whether this style entry names a builtin style.
func (r *StyleRecord) IsBuiltin() bool {
	return r.XFIndex&styleBuiltinFlag != 0
}

func parseStyle(data []byte) (Record, error) {
	if len(data) < 4 {
		return nil, NewRecordFormatError("STYLE record payload is %d bytes, expected at least 4", len(data))
	}
	r := &StyleRecord{XFIndex: binary.LittleEndian.Uint16(data[0:2])}
	if r.IsBuiltin() {
		r.BuiltinStyle = data[2]
		r.OutlineLevel = data[3]
		return r, nil
	}
	s, _, err := ReadUnicodeString(data[2:])
	if err != nil {
		return nil, err
	}
	r.StyleName = s
	return r, nil
}

func (r *StyleRecord) Sid() uint16 { return XL_STYLE }

func (r *StyleRecord) RecordSize() int {
	if r.IsBuiltin() {
		return 4 + 4
	}
	return 4 + 2 + UnicodeStringSize(r.StyleName)
}

func (r *StyleRecord) Serialize(buf []byte) int {
	if r.IsBuiltin() {
		putHeader(buf, XL_STYLE, 4)
		binary.LittleEndian.PutUint16(buf[4:6], r.XFIndex)
		buf[6] = r.BuiltinStyle
		buf[7] = r.OutlineLevel
		return 8
	}
	length := 2 + UnicodeStringSize(r.StyleName)
	putHeader(buf, XL_STYLE, length)
	binary.LittleEndian.PutUint16(buf[4:6], r.XFIndex)
	n := WriteUnicodeString(buf[6:], r.StyleName)
	return 6 + n
}

func (r *StyleRecord) Clone() Record {
	c := &StyleRecord{}
	mustCopy(c, r)
	return c
}
