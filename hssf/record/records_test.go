package record

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedRecordRoundTrip(t *testing.T) {
	records := []Record{
		NewBOFRecord(XL_WORKBOOK_GLOBALS),
		NewWriteAccessRecord("poi"),
		NewCodepageRecord(),
		&TabIDRecord{TabIDs: []uint16{0, 1, 2}},
		NewWindowOneRecord(),
		&DateModeRecord{Mode: 1},
		NewFontRecord(),
		&FormatRecord{FormatIndex: 0x2C, FormatString: `_("$"* #,##0.00_)`},
		&ExtendedFormatRecord{CellOptions: 0xFFF5, AlignmentOptions: 0x20, FillPaletteOptions: 0x20C0},
		NewBuiltinStyle(0x0010, 3),
		&StyleRecord{XFIndex: 0x0015, StyleName: "My Style"},
		NewBoundSheetRecord("Sheet1"),
		NewInternalSupBook(1),
		&ExternSheetRecord{Entries: []ExternSheetEntry{{0, 0, 0}, {0, DELETED_SHEET_INDEX, DELETED_SHEET_INDEX}}},
		NewCountryRecord(),
		&EOFRecord{},
	}
	decoded := encodeDecode(t, records)
	assert.Equal(t, records, decoded)
}

func TestSheetRecordRoundTrip(t *testing.T) {
	records := []Record{
		NewBOFRecord(XL_WORKSHEET),
		&DimensionsRecord{FirstRow: 2, LastRow: 10, FirstCol: 1, LastCol: 5},
		NewWindowTwoRecord(),
		NewSelectionRecord(),
		&SelectionRecord{
			Pane:          3,
			ActiveCellRow: 4,
			ActiveCellCol: 2,
			Refs:          []SelectionRef{{FirstRow: 4, LastRow: 8, FirstCol: 2, LastCol: 3}},
		},
		&EOFRecord{},
	}
	decoded := encodeDecode(t, records)
	assert.Equal(t, records, decoded)
}

func TestBoundSheetWideName(t *testing.T) {
	records := []Record{
		NewBOFRecord(XL_WORKBOOK_GLOBALS),
		NewBoundSheetRecord("Лист данных"),
		&EOFRecord{},
	}
	decoded := encodeDecode(t, records)
	bs, ok := decoded[1].(*BoundSheetRecord)
	require.True(t, ok)
	assert.Equal(t, "Лист данных", bs.Sheetname)
	assert.False(t, bs.Hidden())

	bs.Visibility = SHEET_VERY_HIDDEN
	assert.True(t, bs.Hidden())
}

func TestWriteAccessField(t *testing.T) {
	r := NewWriteAccessRecord("poi")
	require.Len(t, r.Raw, 112)
	assert.Equal(t, "poi", r.Username())
	for _, b := range r.Raw[UnicodeStringSize("poi"):] {
		assert.Equal(t, byte(0x20), b)
	}

	r.SetUsername(strings.Repeat("x", 200))
	require.Len(t, r.Raw, 112)
	assert.Equal(t, strings.Repeat("x", 109), r.Username())
}

func TestWindowOneHiddenFlag(t *testing.T) {
	w := NewWindowOneRecord()
	assert.False(t, w.Hidden())
	w.SetHidden(true)
	assert.True(t, w.Hidden())
	assert.Equal(t, uint16(0x0039), w.Options)
	w.SetHidden(false)
	assert.Equal(t, uint16(0x0038), w.Options)
}

func TestWindowTwoBits(t *testing.T) {
	w := NewWindowTwoRecord()
	assert.True(t, w.Selected())
	assert.True(t, w.Active())

	w.SetSelected(false)
	assert.False(t, w.Selected())
	assert.True(t, w.Active(), "clearing selection must not clear the active bit")

	w.SetActive(false)
	assert.False(t, w.Active())
	assert.Equal(t, uint16(0x00B6), w.Options)
}

func TestTabIDSetTabCount(t *testing.T) {
	r := &TabIDRecord{}
	r.SetTabCount(3)
	assert.Equal(t, []uint16{0, 1, 2}, r.TabIDs)
}

func TestStringCodecs(t *testing.T) {
	tests := []string{
		"",
		"poi",
		"héllo wörld",
		"日本語シート",
		strings.Repeat("long ascii string ", 20),
	}
	for _, s := range tests {
		buf := make([]byte, UnicodeStringSize(s))
		n := WriteUnicodeString(buf, s)
		require.Equal(t, len(buf), n, "string %q", s)
		got, consumed, err := ReadUnicodeString(buf)
		require.NoError(t, err)
		assert.Equal(t, s, got)
		assert.Equal(t, n, consumed)

		if unicodeCharCount(s) <= 255 {
			sbuf := make([]byte, ShortUnicodeStringSize(s))
			n = WriteShortUnicodeString(sbuf, s)
			require.Equal(t, len(sbuf), n)
			got, consumed, err = ReadShortUnicodeString(sbuf)
			require.NoError(t, err)
			assert.Equal(t, s, got)
			assert.Equal(t, n, consumed)
		}
	}
}

func TestReadUnicodeBodySkipsRichTextRuns(t *testing.T) {
	data := []byte{strRichText, 2, 0, 'h', 'i', 1, 2, 3, 4, 5, 6, 7, 8}
	s, n, err := ReadUnicodeBody(data, 2)
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
	assert.Equal(t, len(data), n)
}

func TestReadUnicodeBodySkipsPhoneticBlock(t *testing.T) {
	data := []byte{strUTF16 | strPhonetic, 3, 0, 0, 0, 0x42, 0x30, 9, 9, 9}
	s, n, err := ReadUnicodeBody(data, 1)
	require.NoError(t, err)
	assert.Equal(t, "あ", s)
	assert.Equal(t, len(data), n)
}

func TestReadUnicodeBodyTruncated(t *testing.T) {
	_, _, err := ReadUnicodeBody([]byte{0x00, 'a'}, 5)
	require.Error(t, err)
	assert.True(t, IsRecordFormatError(err))
}

func TestNameRecordRoundTrip(t *testing.T) {
	name := &NameRecord{
		NameText:        "SalesData",
		SheetNumber:     0,
		Ptgs:            []Ptg{NewArea3DPtg(0, 0, 9, 0, 1)},
		DescriptionText: "quarterly sales block",
	}
	decoded := encodeDecode(t, []Record{NewBOFRecord(XL_WORKBOOK_GLOBALS), name, &EOFRecord{}})
	got, ok := decoded[1].(*NameRecord)
	require.True(t, ok)
	assert.Equal(t, name, got)
	assert.Equal(t, "SalesData", got.Name())
	assert.False(t, got.IsBuiltin())
}

func TestBuiltinNameRoundTrip(t *testing.T) {
	name := &NameRecord{
		OptionFlags: nameFlagBuiltin | nameFlagHidden,
		BuiltinID:   BUILTIN_FILTER_DB,
		SheetNumber: 1,
		Ptgs:        []Ptg{NewArea3DPtg(0, 0, 99, 0, 3)},
	}
	decoded := encodeDecode(t, []Record{NewBOFRecord(XL_WORKBOOK_GLOBALS), name, &EOFRecord{}})
	got, ok := decoded[1].(*NameRecord)
	require.True(t, ok)
	assert.True(t, got.IsBuiltin())
	assert.True(t, got.IsHidden())
	assert.Equal(t, "_FilterDatabase", got.Name())
	assert.Equal(t, uint16(1), got.SheetNumber)
	assert.Equal(t, name.Ptgs, got.Ptgs)
}

func TestNameRecordClone(t *testing.T) {
	name := &NameRecord{
		NameText: "Original",
		Ptgs:     []Ptg{NewRef3DPtg(0, 5, 2)},
	}
	clone := name.Clone().(*NameRecord)
	name.Ptgs[0].(*Ref3DPtg).Row = 99
	name.NameText = "Changed"
	assert.Equal(t, "Original", clone.NameText)
	assert.Equal(t, uint16(5), clone.Ptgs[0].(*Ref3DPtg).Row)
}

func escherAtom(recid uint16, options uint16, body []byte) []byte {
	out := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint16(out[0:2], options)
	binary.LittleEndian.PutUint16(out[2:4], recid)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(body)))
	copy(out[8:], body)
	return out
}

func escherContainerBytes(recid uint16, children ...[]byte) []byte {
	var body []byte
	for _, c := range children {
		body = append(body, c...)
	}
	return escherAtom(recid, 0x000F, body)
}

func testDrawingGroup(refCounts ...uint32) *DrawingGroupRecord {
	var bses [][]byte
	for _, c := range refCounts {
		bse := make([]byte, 36)
		binary.LittleEndian.PutUint32(bse[24:28], c)
		bses = append(bses, escherAtom(escherBSE, 0x0002, bse))
	}
	dgg := escherContainerBytes(escherDggContainer, escherContainerBytes(escherBStoreContainer, bses...))
	return &DrawingGroupRecord{Data: dgg}
}

func TestDrawingGroupBlipRefCounts(t *testing.T) {
	dg := testDrawingGroup(1, 5)
	assert.Equal(t, uint32(1), dg.BlipRefCount(1))
	assert.Equal(t, uint32(5), dg.BlipRefCount(2))
	assert.Equal(t, uint32(0), dg.BlipRefCount(3))

	assert.True(t, dg.IncrementBlipRef(1))
	assert.Equal(t, uint32(2), dg.BlipRefCount(1))
	assert.False(t, dg.IncrementBlipRef(0))
	assert.False(t, dg.IncrementBlipRef(3))
}

func TestDrawingBlipRefs(t *testing.T) {
	opt := make([]byte, 12)
	binary.LittleEndian.PutUint16(opt[0:2], 0x4000|escherPropPib)
	binary.LittleEndian.PutUint32(opt[2:6], 2)
	binary.LittleEndian.PutUint16(opt[6:8], 0x01BF)
	binary.LittleEndian.PutUint32(opt[8:12], 0x00010000)
	sp := escherContainerBytes(0xF004, escherAtom(escherOpt, 2<<4|0x3, opt))
	dr := &DrawingRecord{Data: sp}
	assert.Equal(t, []int{2}, dr.BlipRefs())
}

func TestDrawingGroupResplitsAsRepeatedRecords(t *testing.T) {
	dg := &DrawingGroupRecord{Data: make([]byte, 9000)}
	require.Equal(t, 2*4+9000, dg.RecordSize())
	buf := make([]byte, dg.RecordSize())
	n := dg.Serialize(buf)
	require.Equal(t, len(buf), n)
	assert.Equal(t, uint16(XL_MSO_DRAWING_GROUP), binary.LittleEndian.Uint16(buf[0:2]))
	assert.Equal(t, uint16(MAX_RECORD_DATA), binary.LittleEndian.Uint16(buf[2:4]))
	second := 4 + MAX_RECORD_DATA
	assert.Equal(t, uint16(XL_MSO_DRAWING_GROUP), binary.LittleEndian.Uint16(buf[second:second+2]))
	assert.Equal(t, uint16(9000-MAX_RECORD_DATA), binary.LittleEndian.Uint16(buf[second+2:second+4]))
}

func TestDrawingResplitsWithContinue(t *testing.T) {
	dr := &DrawingRecord{Data: make([]byte, 9000)}
	buf := make([]byte, dr.RecordSize())
	n := dr.Serialize(buf)
	require.Equal(t, len(buf), n)
	assert.Equal(t, uint16(XL_MSO_DRAWING), binary.LittleEndian.Uint16(buf[0:2]))
	second := 4 + MAX_RECORD_DATA
	assert.Equal(t, uint16(XL_CONTINUE), binary.LittleEndian.Uint16(buf[second:second+2]))
}
