package record

import (
	"encoding/binary"
)

// BOFRecord opens every substream: the workbook globals and each sheet block.
type BOFRecord struct {
	Version         uint16
	StreamType      uint16
	Build           uint16
	BuildYear       uint16
	History         uint32
	RequiredVersion uint32
}

// BIFF8 BOF defaults.
const (
	bofVersion         = 0x0600
	bofBuild           = 0x10D3
	bofBuildYear       = 0x07CC
	bofHistory         = 0x41
	bofRequiredVersion = 0x0006
)

// NewBOFRecord creates a BOF for the given stream type with the usual
// build metadata.
func NewBOFRecord(streamType uint16) *BOFRecord {
	return &BOFRecord{
		Version:         bofVersion,
		StreamType:      streamType,
		Build:           bofBuild,
		BuildYear:       bofBuildYear,
		History:         bofHistory,
		RequiredVersion: bofRequiredVersion,
	}
}

func parseBOF(data []byte) (Record, error) {
	// Old writers emit the 8 byte form without the history fields.
	if len(data) < 8 {
		return nil, NewRecordFormatError("BOF record payload is %d bytes, expected at least 8", len(data))
	}
	r := &BOFRecord{
		Version:    binary.LittleEndian.Uint16(data[0:2]),
		StreamType: binary.LittleEndian.Uint16(data[2:4]),
		Build:      binary.LittleEndian.Uint16(data[4:6]),
		BuildYear:  binary.LittleEndian.Uint16(data[6:8]),
	}
	if len(data) >= 16 {
		r.History = binary.LittleEndian.Uint32(data[8:12])
		r.RequiredVersion = binary.LittleEndian.Uint32(data[12:16])
	}
	return r, nil
}

func (r *BOFRecord) Sid() uint16     { return XL_BOF }
func (r *BOFRecord) RecordSize() int { return 4 + 16 }

func (r *BOFRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_BOF, 16)
	binary.LittleEndian.PutUint16(buf[4:6], r.Version)
	binary.LittleEndian.PutUint16(buf[6:8], r.StreamType)
	binary.LittleEndian.PutUint16(buf[8:10], r.Build)
	binary.LittleEndian.PutUint16(buf[10:12], r.BuildYear)
	binary.LittleEndian.PutUint32(buf[12:16], r.History)
	binary.LittleEndian.PutUint32(buf[16:20], r.RequiredVersion)
	return 20
}

func (r *BOFRecord) Clone() Record {
	c := &BOFRecord{}
	mustCopy(c, r)
	return c
}

// EOFRecord closes a substream.
type EOFRecord struct{}

func parseEOF(data []byte) (Record, error) {
	// Payload bytes after an EOF sid are meaningless and dropped.
	return &EOFRecord{}, nil
}

func (r *EOFRecord) Sid() uint16     { return XL_EOF }
func (r *EOFRecord) RecordSize() int { return 4 }

func (r *EOFRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_EOF, 0)
	return 4
}

func (r *EOFRecord) Clone() Record { return &EOFRecord{} }

// BoundSheetRecord names one sheet and points at its block in the stream.
// The offsets are recomputed from declared record sizes just before a
// workbook is serialized.
type BoundSheetRecord struct {
	PositionOfBof uint32
	Visibility    byte
	SheetType     byte
	Sheetname     string
}

func NewBoundSheetRecord(name string) *BoundSheetRecord {
	return &BoundSheetRecord{SheetType: XL_BOUNDSHEET_WORKSHEET, Sheetname: name}
}

func parseBoundSheet(data []byte) (Record, error) {
	if len(data) < 8 {
		return nil, NewRecordFormatError("BOUNDSHEET record payload is %d bytes, expected at least 8", len(data))
	}
	name, _, err := ReadShortUnicodeString(data[6:])
	if err != nil {
		return nil, err
	}
	return &BoundSheetRecord{
		PositionOfBof: binary.LittleEndian.Uint32(data[0:4]),
		Visibility:    data[4] & 0x03,
		SheetType:     data[5],
		Sheetname:     name,
	}, nil
}

func (r *BoundSheetRecord) Sid() uint16 { return XL_BOUNDSHEET }

func (r *BoundSheetRecord) RecordSize() int {
	return 4 + 6 + ShortUnicodeStringSize(r.Sheetname)
}

func (r *BoundSheetRecord) Serialize(buf []byte) int {
	length := 6 + ShortUnicodeStringSize(r.Sheetname)
	putHeader(buf, XL_BOUNDSHEET, length)
	binary.LittleEndian.PutUint32(buf[4:8], r.PositionOfBof)
	buf[8] = r.Visibility
	buf[9] = r.SheetType
	n := WriteShortUnicodeString(buf[10:], r.Sheetname)
	return 10 + n
}

func (r *BoundSheetRecord) Clone() Record {
	c := &BoundSheetRecord{}
	mustCopy(c, r)
	return c
}

// Hidden reports whether the sheet is hidden or very hidden.
func (r *BoundSheetRecord) Hidden() bool {
	return r.Visibility != SHEET_VISIBLE
}

// WindowOneRecord holds the workbook window geometry and the tab state: the
// active tab, the first visible tab, and the selected tab count.
type WindowOneRecord struct {
	HorizontalHold   uint16
	VerticalHold     uint16
	Width            uint16
	Height           uint16
	Options          uint16
	ActiveSheetIndex uint16
	FirstVisibleTab  uint16
	NumSelectedTabs  uint16
	TabWidthRatio    uint16
}

const w1Hidden = 0x0001

// NewWindowOneRecord creates the window record of a fresh workbook.
func NewWindowOneRecord() *WindowOneRecord {
	return &WindowOneRecord{
		HorizontalHold:  0x0168,
		VerticalHold:    0x010E,
		Width:           0x3A5C,
		Height:          0x23BE,
		Options:         0x0038,
		NumSelectedTabs: 1,
		TabWidthRatio:   0x0258,
	}
}

func parseWindowOne(data []byte) (Record, error) {
	if len(data) < 18 {
		return nil, NewRecordFormatError("WINDOW1 record payload is %d bytes, expected 18", len(data))
	}
	return &WindowOneRecord{
		HorizontalHold:   binary.LittleEndian.Uint16(data[0:2]),
		VerticalHold:     binary.LittleEndian.Uint16(data[2:4]),
		Width:            binary.LittleEndian.Uint16(data[4:6]),
		Height:           binary.LittleEndian.Uint16(data[6:8]),
		Options:          binary.LittleEndian.Uint16(data[8:10]),
		ActiveSheetIndex: binary.LittleEndian.Uint16(data[10:12]),
		FirstVisibleTab:  binary.LittleEndian.Uint16(data[12:14]),
		NumSelectedTabs:  binary.LittleEndian.Uint16(data[14:16]),
		TabWidthRatio:    binary.LittleEndian.Uint16(data[16:18]),
	}, nil
}

func (r *WindowOneRecord) Sid() uint16     { return XL_WINDOW1 }
func (r *WindowOneRecord) RecordSize() int { return 4 + 18 }

func (r *WindowOneRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_WINDOW1, 18)
	binary.LittleEndian.PutUint16(buf[4:6], r.HorizontalHold)
	binary.LittleEndian.PutUint16(buf[6:8], r.VerticalHold)
	binary.LittleEndian.PutUint16(buf[8:10], r.Width)
	binary.LittleEndian.PutUint16(buf[10:12], r.Height)
	binary.LittleEndian.PutUint16(buf[12:14], r.Options)
	binary.LittleEndian.PutUint16(buf[14:16], r.ActiveSheetIndex)
	binary.LittleEndian.PutUint16(buf[16:18], r.FirstVisibleTab)
	binary.LittleEndian.PutUint16(buf[18:20], r.NumSelectedTabs)
	binary.LittleEndian.PutUint16(buf[20:22], r.TabWidthRatio)
	return 22
}

func (r *WindowOneRecord) Clone() Record {
	c := &WindowOneRecord{}
	mustCopy(c, r)
	return c
}

// Hidden reports whether the workbook window is hidden.
func (r *WindowOneRecord) Hidden() bool {
	return r.Options&w1Hidden != 0
}

func (r *WindowOneRecord) SetHidden(hidden bool) {
	if hidden {
		r.Options |= w1Hidden
	} else {
		r.Options &^= w1Hidden
	}
}

// SupBookRecord describes one supporting book. The only form this package
// edits is the internal self-reference; external and add-in books pass
// through untouched.
type SupBookRecord struct {
	SheetCount uint16
	Internal   bool
	Extra      []byte
}

const supBookInternalTag = 0x0401

// NewInternalSupBook creates the workbook's self-referencing supporting book.
func NewInternalSupBook(sheetCount uint16) *SupBookRecord {
	return &SupBookRecord{SheetCount: sheetCount, Internal: true}
}

func parseSupBook(data []byte) (Record, error) {
	if len(data) == 4 && binary.LittleEndian.Uint16(data[2:4]) == supBookInternalTag {
		return &SupBookRecord{
			SheetCount: binary.LittleEndian.Uint16(data[0:2]),
			Internal:   true,
		}, nil
	}
	extra := make([]byte, len(data))
	copy(extra, data)
	return &SupBookRecord{Extra: extra}, nil
}

func (r *SupBookRecord) Sid() uint16 { return XL_SUPBOOK }

func (r *SupBookRecord) RecordSize() int {
	if r.Internal {
		return 4 + 4
	}
	return 4 + len(r.Extra)
}

func (r *SupBookRecord) Serialize(buf []byte) int {
	if r.Internal {
		putHeader(buf, XL_SUPBOOK, 4)
		binary.LittleEndian.PutUint16(buf[4:6], r.SheetCount)
		binary.LittleEndian.PutUint16(buf[6:8], supBookInternalTag)
		return 8
	}
	putHeader(buf, XL_SUPBOOK, len(r.Extra))
	copy(buf[4:], r.Extra)
	return 4 + len(r.Extra)
}

func (r *SupBookRecord) Clone() Record {
	c := &SupBookRecord{}
	mustCopy(c, r)
	return c
}

// ExternSheetEntry is one (book, first sheet, last sheet) triplet. A sheet
// index of 0xFFFF marks a reference whose sheet was deleted.
type ExternSheetEntry struct {
	SupBookIndex    uint16
	FirstSheetIndex uint16
	LastSheetIndex  uint16
}

// DELETED_SHEET_INDEX marks an extern entry whose sheet no longer exists.
const DELETED_SHEET_INDEX = 0xFFFF

// ExternSheetRecord is the indirection table between reference tokens and
// sheets: tokens carry an index into this table, never a sheet ordinal.
type ExternSheetRecord struct {
	Entries []ExternSheetEntry
}

func parseExternSheet(data []byte) (Record, error) {
	if len(data) < 2 {
		return nil, NewRecordFormatError("EXTERNSHEET record payload is %d bytes, expected at least 2", len(data))
	}
	count := int(binary.LittleEndian.Uint16(data[0:2]))
	if len(data) < 2+count*6 {
		return nil, NewRecordFormatError("EXTERNSHEET record declares %d entries but holds %d bytes", count, len(data))
	}
	r := &ExternSheetRecord{Entries: make([]ExternSheetEntry, count)}
	for i := 0; i < count; i++ {
		off := 2 + i*6
		r.Entries[i] = ExternSheetEntry{
			SupBookIndex:    binary.LittleEndian.Uint16(data[off : off+2]),
			FirstSheetIndex: binary.LittleEndian.Uint16(data[off+2 : off+4]),
			LastSheetIndex:  binary.LittleEndian.Uint16(data[off+4 : off+6]),
		}
	}
	return r, nil
}

func (r *ExternSheetRecord) Sid() uint16 { return XL_EXTERNSHEET }

func (r *ExternSheetRecord) RecordSize() int {
	return 4 + 2 + len(r.Entries)*6
}

func (r *ExternSheetRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_EXTERNSHEET, 2+len(r.Entries)*6)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(r.Entries)))
	for i, e := range r.Entries {
		off := 6 + i*6
		binary.LittleEndian.PutUint16(buf[off:off+2], e.SupBookIndex)
		binary.LittleEndian.PutUint16(buf[off+2:off+4], e.FirstSheetIndex)
		binary.LittleEndian.PutUint16(buf[off+4:off+6], e.LastSheetIndex)
	}
	return 6 + len(r.Entries)*6
}

func (r *ExternSheetRecord) Clone() Record {
	c := &ExternSheetRecord{}
	mustCopy(c, r)
	return c
}

// CountryRecord carries the default and current country codes.
type CountryRecord struct {
	DefaultCountry uint16
	CurrentCountry uint16
}

func NewCountryRecord() *CountryRecord {
	return &CountryRecord{DefaultCountry: 1, CurrentCountry: 1}
}

func parseCountry(data []byte) (Record, error) {
	if len(data) < 4 {
		return nil, NewRecordFormatError("COUNTRY record payload is %d bytes, expected 4", len(data))
	}
	return &CountryRecord{
		DefaultCountry: binary.LittleEndian.Uint16(data[0:2]),
		CurrentCountry: binary.LittleEndian.Uint16(data[2:4]),
	}, nil
}

func (r *CountryRecord) Sid() uint16     { return XL_COUNTRY }
func (r *CountryRecord) RecordSize() int { return 4 + 4 }

func (r *CountryRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_COUNTRY, 4)
	binary.LittleEndian.PutUint16(buf[4:6], r.DefaultCountry)
	binary.LittleEndian.PutUint16(buf[6:8], r.CurrentCountry)
	return 8
}

func (r *CountryRecord) Clone() Record {
	c := &CountryRecord{}
	mustCopy(c, r)
	return c
}

// DateModeRecord selects the 1900 or 1904 date system.
type DateModeRecord struct {
	Mode uint16
}

func parseDateMode(data []byte) (Record, error) {
	if len(data) < 2 {
		return nil, NewRecordFormatError("DATEMODE record payload is %d bytes, expected 2", len(data))
	}
	return &DateModeRecord{Mode: binary.LittleEndian.Uint16(data[0:2])}, nil
}

func (r *DateModeRecord) Sid() uint16     { return XL_DATEMODE }
func (r *DateModeRecord) RecordSize() int { return 4 + 2 }

func (r *DateModeRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_DATEMODE, 2)
	binary.LittleEndian.PutUint16(buf[4:6], r.Mode)
	return 6
}

func (r *DateModeRecord) Clone() Record {
	c := &DateModeRecord{}
	mustCopy(c, r)
	return c
}

// CodepageRecord names the codepage legacy strings were written in. BIFF8
// always writes 0x04B0 (UTF-16).
type CodepageRecord struct {
	Codepage uint16
}

func NewCodepageRecord() *CodepageRecord {
	return &CodepageRecord{Codepage: 0x04B0}
}

func parseCodepage(data []byte) (Record, error) {
	if len(data) < 2 {
		return nil, NewRecordFormatError("CODEPAGE record payload is %d bytes, expected 2", len(data))
	}
	return &CodepageRecord{Codepage: binary.LittleEndian.Uint16(data[0:2])}, nil
}

func (r *CodepageRecord) Sid() uint16     { return XL_CODEPAGE }
func (r *CodepageRecord) RecordSize() int { return 4 + 2 }

func (r *CodepageRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_CODEPAGE, 2)
	binary.LittleEndian.PutUint16(buf[4:6], r.Codepage)
	return 6
}

func (r *CodepageRecord) Clone() Record {
	c := &CodepageRecord{}
	mustCopy(c, r)
	return c
}

// TabIDRecord lists one internal ID per sheet tab.
type TabIDRecord struct {
	TabIDs []uint16
}

func parseTabID(data []byte) (Record, error) {
	r := &TabIDRecord{TabIDs: make([]uint16, len(data)/2)}
	for i := range r.TabIDs {
		r.TabIDs[i] = binary.LittleEndian.Uint16(data[i*2 : i*2+2])
	}
	return r, nil
}

func (r *TabIDRecord) Sid() uint16     { return XL_TABID }
func (r *TabIDRecord) RecordSize() int { return 4 + len(r.TabIDs)*2 }

func (r *TabIDRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_TABID, len(r.TabIDs)*2)
	for i, id := range r.TabIDs {
		binary.LittleEndian.PutUint16(buf[4+i*2:6+i*2], id)
	}
	return 4 + len(r.TabIDs)*2
}

func (r *TabIDRecord) Clone() Record {
	c := &TabIDRecord{}
	mustCopy(c, r)
	return c
}

// SetTabCount rewrites the tab IDs to 0..n-1, the layout used after any
// sheet count change.
func (r *TabIDRecord) SetTabCount(n int) {
	r.TabIDs = make([]uint16, n)
	for i := range r.TabIDs {
		r.TabIDs[i] = uint16(i)
	}
}

// WriteAccessRecord holds the last-writer name in a fixed 112 byte field
// padded with spaces. The raw field is preserved so foreign padding styles
// round-trip.
type WriteAccessRecord struct {
	Raw []byte
}

const writeAccessLength = 112

// NewWriteAccessRecord builds the field for the given user name.
func NewWriteAccessRecord(username string) *WriteAccessRecord {
	r := &WriteAccessRecord{}
	r.SetUsername(username)
	return r
}

func parseWriteAccess(data []byte) (Record, error) {
	raw := make([]byte, len(data))
	copy(raw, data)
	return &WriteAccessRecord{Raw: raw}, nil
}

func (r *WriteAccessRecord) Sid() uint16     { return XL_WRITEACCESS }
func (r *WriteAccessRecord) RecordSize() int { return 4 + len(r.Raw) }

func (r *WriteAccessRecord) Serialize(buf []byte) int {
	putHeader(buf, XL_WRITEACCESS, len(r.Raw))
	copy(buf[4:], r.Raw)
	return 4 + len(r.Raw)
}

func (r *WriteAccessRecord) Clone() Record {
	c := &WriteAccessRecord{}
	mustCopy(c, r)
	return c
}

// Username decodes the stored user name, without the padding.
func (r *WriteAccessRecord) Username() string {
	s, _, err := ReadUnicodeString(r.Raw)
	if err != nil {
		return ""
	}
	return s
}

func (r *WriteAccessRecord) SetUsername(username string) {
	runes := []rune(username)
	for UnicodeStringSize(string(runes)) > writeAccessLength {
		runes = runes[:len(runes)-1]
	}
	buf := make([]byte, writeAccessLength)
	n := WriteUnicodeString(buf, string(runes))
	for i := n; i < writeAccessLength; i++ {
		buf[i] = 0x20
	}
	r.Raw = buf
}
