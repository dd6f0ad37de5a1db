// Package model holds the record-level form of a workbook: the globals
// stream and the per-sheet record blocks, with the bookkeeping that keeps
// both consistent while sheets are created, removed, cloned and reordered.
package model

import (
	"strings"

	"github.com/HasaanA16/poi/hssf/record"
)

// MAX_STYLES caps how many extended format records a workbook may hold.
// The file format runs out of usable style slots well before the 16 bit
// index does.
const MAX_STYLES = 4030

const defaultUsername = "poi"

// Workbook is the decoded globals stream. The records slice is the one
// source of truth; the typed fields alias records inside it.
type Workbook struct {
	records []record.Record

	bof          *record.BOFRecord
	windowOne    *record.WindowOneRecord
	tabID        *record.TabIDRecord
	boundSheets  []*record.BoundSheetRecord
	handles      []*sheetHandle
	names        []*record.NameRecord
	numFonts     int
	numXFs       int
	linkTable    *LinkTable
	drawingGroup *record.DrawingGroupRecord
}

type builtinFormat struct {
	index uint16
	text  string
}

var builtinWrittenFormats = []builtinFormat{
	{5, `"$"#,##0_);("$"#,##0)`},
	{6, `"$"#,##0_);[Red]("$"#,##0)`},
	{7, `"$"#,##0.00_);("$"#,##0.00)`},
	{8, `"$"#,##0.00_);[Red]("$"#,##0.00)`},
	{0x2A, `_("$"* #,##0_);_("$"* (#,##0);_("$"* "-"_);_(@_)`},
	{0x29, `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`},
	{0x2C, `_("$"* #,##0.00_);_("$"* (#,##0.00);_("$"* "-"??_);_(@_)`},
	{0x2B, `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`},
}

// CreateWorkbook builds the globals stream of a fresh workbook: window
// state, the stock fonts, formats and styles, and no sheets.
func CreateWorkbook() *Workbook {
	w := &Workbook{}
	w.bof = record.NewBOFRecord(record.XL_WORKBOOK_GLOBALS)
	w.add(w.bof)
	w.add(record.NewRawRecord(record.XL_INTERFACEHDR, []byte{0xB0, 0x04}))
	w.add(record.NewRawRecord(record.XL_MMS, []byte{0, 0}))
	w.add(record.NewRawRecord(record.XL_INTERFACEEND, nil))
	w.add(record.NewWriteAccessRecord(defaultUsername))
	w.add(record.NewCodepageRecord())
	w.add(record.NewRawRecord(record.XL_DSF, []byte{0, 0}))
	w.tabID = &record.TabIDRecord{}
	w.add(w.tabID)
	w.add(record.NewRawRecord(record.XL_FNGROUPCOUNT, []byte{0x0E, 0}))
	w.add(record.NewRawRecord(record.XL_WINDOWPROTECT, []byte{0, 0}))
	w.add(record.NewRawRecord(record.XL_PROTECT, []byte{0, 0}))
	w.add(record.NewRawRecord(record.XL_PASSWORD, []byte{0, 0}))
	w.add(record.NewRawRecord(record.XL_PROT4REV, []byte{0, 0}))
	w.add(record.NewRawRecord(record.XL_PROT4REVPASS, []byte{0, 0}))
	w.windowOne = record.NewWindowOneRecord()
	w.add(w.windowOne)
	w.add(record.NewRawRecord(record.XL_BACKUP, []byte{0, 0}))
	w.add(record.NewRawRecord(record.XL_HIDEOBJ, []byte{0, 0}))
	w.add(&record.DateModeRecord{})
	w.add(record.NewRawRecord(record.XL_PRECISION, []byte{1, 0}))
	w.add(record.NewRawRecord(record.XL_REFRESHALL, []byte{0, 0}))
	w.add(record.NewRawRecord(record.XL_BOOKBOOL, []byte{0, 0}))
	for i := 0; i < 4; i++ {
		w.add(record.NewFontRecord())
	}
	w.numFonts = 4
	for _, f := range builtinWrittenFormats {
		w.add(&record.FormatRecord{FormatIndex: f.index, FormatString: f.text})
	}
	for k := 0; k < 21; k++ {
		w.add(defaultXF(k))
	}
	w.numXFs = 21
	w.add(record.NewBuiltinStyle(0x0010, 3))
	w.add(record.NewBuiltinStyle(0x0011, 6))
	w.add(record.NewBuiltinStyle(0x0000, 0))
	w.add(record.NewBuiltinStyle(0x0013, 4))
	w.add(record.NewBuiltinStyle(0x0014, 7))
	w.add(record.NewBuiltinStyle(0x0015, 5))
	w.add(record.NewRawRecord(record.XL_USESELFS, []byte{1, 0}))
	w.add(record.NewCountryRecord())
	w.add(&record.EOFRecord{})
	return w
}

// defaultXF builds the k'th stock extended format. Slot 15 is the default
// cell format; 16 through 20 are the style slots behind the builtin
// currency, comma and percent styles.
func defaultXF(k int) *record.ExtendedFormatRecord {
	xf := &record.ExtendedFormatRecord{
		CellOptions:        0xFFF5,
		AlignmentOptions:   0x0020,
		FillPaletteOptions: 0x20C0,
	}
	if k == 15 {
		xf.CellOptions = 0x0001
	}
	switch k {
	case 1, 2, 16, 17:
		xf.FontIndex = 1
	case 3, 4, 18, 19:
		xf.FontIndex = 2
	}
	switch k {
	case 16:
		xf.FormatIndex = 0x2B
	case 17:
		xf.FormatIndex = 0x29
	case 18:
		xf.FormatIndex = 0x2C
	case 19:
		xf.FormatIndex = 0x2A
	case 20:
		xf.FormatIndex = 0x09
	}
	return xf
}

// ReadWorkbook wires up a decoded globals stream. Records this layer does
// not manage stay in place untouched.
func ReadWorkbook(records []record.Record) (*Workbook, error) {
	w := &Workbook{records: records}
	var supBooks []*record.SupBookRecord
	var externSheet *record.ExternSheetRecord
	for _, r := range records {
		switch t := r.(type) {
		case *record.BOFRecord:
			if w.bof == nil {
				w.bof = t
			}
		case *record.WindowOneRecord:
			if w.windowOne == nil {
				w.windowOne = t
			}
		case *record.TabIDRecord:
			if w.tabID == nil {
				w.tabID = t
			}
		case *record.BoundSheetRecord:
			w.boundSheets = append(w.boundSheets, t)
		case *record.FontRecord:
			w.numFonts++
		case *record.ExtendedFormatRecord:
			w.numXFs++
		case *record.NameRecord:
			w.names = append(w.names, t)
		case *record.SupBookRecord:
			supBooks = append(supBooks, t)
		case *record.ExternSheetRecord:
			if externSheet == nil {
				externSheet = t
			}
		case *record.DrawingGroupRecord:
			if w.drawingGroup == nil {
				w.drawingGroup = t
			}
		}
	}
	if w.bof == nil {
		return nil, record.NewRecordFormatError("workbook globals stream holds no BOF record")
	}
	for i := range w.boundSheets {
		w.handles = append(w.handles, &sheetHandle{ordinal: i})
	}
	if w.windowOne == nil {
		w.windowOne = record.NewWindowOneRecord()
		w.insertAt(w.eofPos(), w.windowOne)
	}
	if w.tabID == nil {
		w.tabID = &record.TabIDRecord{}
		w.tabID.SetTabCount(len(w.boundSheets))
		pos := w.indexOfFirst(record.XL_BOUNDSHEET)
		if pos < 0 {
			pos = w.eofPos()
		}
		w.insertAt(pos, w.tabID)
	}
	if len(supBooks) > 0 {
		if externSheet == nil {
			externSheet = &record.ExternSheetRecord{}
			w.insertAt(w.indexOfLast(record.XL_SUPBOOK)+1, externSheet)
		}
		w.linkTable = readLinkTable(supBooks, externSheet, w.handles)
	}
	return w, nil
}

func (w *Workbook) add(r record.Record) {
	w.records = append(w.records, r)
}

func (w *Workbook) insertAt(ix int, r record.Record) {
	w.records = append(w.records, nil)
	copy(w.records[ix+1:], w.records[ix:])
	w.records[ix] = r
}

func (w *Workbook) removeAt(ix int) {
	w.records = append(w.records[:ix], w.records[ix+1:]...)
}

func (w *Workbook) indexOfFirst(sid uint16) int {
	for i, r := range w.records {
		if r.Sid() == sid {
			return i
		}
	}
	return -1
}

func (w *Workbook) indexOfLast(sid uint16) int {
	for i := len(w.records) - 1; i >= 0; i-- {
		if w.records[i].Sid() == sid {
			return i
		}
	}
	return -1
}

// eofPos returns the index of the closing EOF, or the list end when a
// malformed stream lacks one.
func (w *Workbook) eofPos() int {
	if ix := w.indexOfLast(record.XL_EOF); ix >= 0 {
		return ix
	}
	return len(w.records)
}

// Records exposes the globals stream in serialization order.
func (w *Workbook) Records() []record.Record {
	return w.records
}

// NumSheets returns the number of bound sheets.
func (w *Workbook) NumSheets() int {
	return len(w.boundSheets)
}

// BoundSheet returns the ix'th sheet descriptor.
func (w *Workbook) BoundSheet(ix int) *record.BoundSheetRecord {
	return w.boundSheets[ix]
}

// SheetName returns the ix'th sheet name.
func (w *Workbook) SheetName(ix int) string {
	return w.boundSheets[ix].Sheetname
}

// SetSheetName renames the ix'th sheet. Validation happens above this
// layer.
func (w *Workbook) SetSheetName(ix int, name string) {
	w.boundSheets[ix].Sheetname = name
}

// ContainsSheetName reports whether another sheet already uses name,
// compared case-insensitively. excludeIx names the sheet allowed to keep
// it; pass -1 to check them all.
func (w *Workbook) ContainsSheetName(name string, excludeIx int) bool {
	for i, bs := range w.boundSheets {
		if i == excludeIx {
			continue
		}
		if strings.EqualFold(bs.Sheetname, name) {
			return true
		}
	}
	return false
}

// AddSheet appends a bound sheet and returns its index.
func (w *Workbook) AddSheet(name string) int {
	bs := record.NewBoundSheetRecord(name)
	pos := w.indexOfLast(record.XL_BOUNDSHEET)
	if pos >= 0 {
		pos++
	} else if c := w.indexOfFirst(record.XL_COUNTRY); c >= 0 {
		pos = c
	} else {
		pos = w.eofPos()
	}
	w.insertAt(pos, bs)
	w.boundSheets = append(w.boundSheets, bs)
	w.handles = append(w.handles, &sheetHandle{ordinal: len(w.handles)})
	w.fixTabIDs()
	return len(w.boundSheets) - 1
}

// RemoveSheet drops the ix'th bound sheet. Its handle goes dead, so extern
// entries pointing at it degrade instead of shifting to a neighbor. Names
// scoped to it fall back to workbook scope.
func (w *Workbook) RemoveSheet(ix int) {
	w.removeAt(w.boundSheetPos(ix))
	w.boundSheets = append(w.boundSheets[:ix], w.boundSheets[ix+1:]...)
	w.handles[ix].ordinal = -1
	w.handles = append(w.handles[:ix], w.handles[ix+1:]...)
	w.renumberHandles()
	for _, n := range w.names {
		s := int(n.SheetNumber)
		switch {
		case s == ix+1:
			n.SheetNumber = 0
		case s > ix+1:
			n.SheetNumber = uint16(s - 1)
		}
	}
	w.fixTabIDs()
}

// MoveSheet moves the sheet at from to position to, carrying its records
// slot, its handle and the scopes of sheet-local names along.
func (w *Workbook) MoveSheet(from, to int) {
	if from == to {
		return
	}
	fromPos := w.boundSheetPos(from)
	toPos := w.boundSheetPos(to)
	r := w.records[fromPos]
	w.removeAt(fromPos)
	w.insertAt(toPos, r)

	bs := w.boundSheets[from]
	w.boundSheets = append(w.boundSheets[:from], w.boundSheets[from+1:]...)
	w.boundSheets = append(w.boundSheets[:to], append([]*record.BoundSheetRecord{bs}, w.boundSheets[to:]...)...)

	h := w.handles[from]
	w.handles = append(w.handles[:from], w.handles[from+1:]...)
	w.handles = append(w.handles[:to], append([]*sheetHandle{h}, w.handles[to:]...)...)
	w.renumberHandles()

	for _, n := range w.names {
		if n.SheetNumber == 0 {
			continue
		}
		s := int(n.SheetNumber) - 1
		switch {
		case s == from:
			s = to
		case from < to && s > from && s <= to:
			s--
		case to < from && s >= to && s < from:
			s++
		}
		n.SheetNumber = uint16(s + 1)
	}
}

func (w *Workbook) boundSheetPos(ix int) int {
	n := 0
	for i, r := range w.records {
		if r.Sid() == record.XL_BOUNDSHEET {
			if n == ix {
				return i
			}
			n++
		}
	}
	return -1
}

func (w *Workbook) renumberHandles() {
	for i, h := range w.handles {
		h.ordinal = i
	}
}

func (w *Workbook) fixTabIDs() {
	if w.tabID != nil {
		w.tabID.SetTabCount(len(w.boundSheets))
	}
}

// WindowOne returns the workbook window record.
func (w *Workbook) WindowOne() *record.WindowOneRecord {
	return w.windowOne
}

// DrawingGroup returns the workbook drawing group, or nil when the
// workbook has no drawings.
func (w *Workbook) DrawingGroup() *record.DrawingGroupRecord {
	return w.drawingGroup
}

// NumXFs returns the number of extended format records.
func (w *Workbook) NumXFs() int {
	return w.numXFs
}

// AddCellXF appends a fresh user cell format and returns its index. The
// style table is bounded; a full table is left unmodified.
func (w *Workbook) AddCellXF() (int, *record.ExtendedFormatRecord, error) {
	if w.numXFs == MAX_STYLES {
		return 0, nil, NewCapacityExceededError(
			"The maximum number of cell styles was exceeded. You can define up to 4000 styles in a .xls workbook")
	}
	xf := &record.ExtendedFormatRecord{
		CellOptions:        0x0001,
		AlignmentOptions:   0x0020,
		FillPaletteOptions: 0x20C0,
	}
	w.insertAt(w.indexOfLast(record.XL_XF)+1, xf)
	w.numXFs++
	return w.numXFs - 1, xf, nil
}

// XFAt returns the ix'th extended format record, or nil when out of range.
func (w *Workbook) XFAt(ix int) *record.ExtendedFormatRecord {
	n := 0
	for _, r := range w.records {
		if xf, ok := r.(*record.ExtendedFormatRecord); ok {
			if n == ix {
				return xf
			}
			n++
		}
	}
	return nil
}

// NumFonts returns the number of font records.
func (w *Workbook) NumFonts() int {
	return w.numFonts
}

// AddFont appends a fresh font and returns its index. Font indexes skip 4,
// which the file format never uses.
func (w *Workbook) AddFont() (int, *record.FontRecord) {
	f := record.NewFontRecord()
	w.insertAt(w.indexOfLast(record.XL_FONT)+1, f)
	w.numFonts++
	ix := w.numFonts - 1
	if ix > 3 {
		ix++
	}
	return ix, f
}

// FontAt returns the font with the given index, or nil when out of range.
func (w *Workbook) FontAt(index int) *record.FontRecord {
	if index == 4 {
		return nil
	}
	if index > 4 {
		index--
	}
	n := 0
	for _, r := range w.records {
		if f, ok := r.(*record.FontRecord); ok {
			if n == index {
				return f
			}
			n++
		}
	}
	return nil
}

// AddFormat returns the index of the number format with the given text,
// creating a record for it if none exists. User formats start above the
// builtin index range.
func (w *Workbook) AddFormat(text string) int {
	next := 0xA4
	for _, r := range w.records {
		if f, ok := r.(*record.FormatRecord); ok {
			if f.FormatString == text {
				return int(f.FormatIndex)
			}
			if int(f.FormatIndex) >= next {
				next = int(f.FormatIndex) + 1
			}
		}
	}
	fr := &record.FormatRecord{FormatIndex: uint16(next), FormatString: text}
	w.insertAt(w.indexOfLast(record.XL_FORMAT)+1, fr)
	return next
}

// FormatStringAt returns the format text recorded for an index, or "" when
// the workbook holds no record for it.
func (w *Workbook) FormatStringAt(index int) string {
	for _, r := range w.records {
		if f, ok := r.(*record.FormatRecord); ok && int(f.FormatIndex) == index {
			return f.FormatString
		}
	}
	return ""
}

// NumNames returns the number of defined names.
func (w *Workbook) NumNames() int {
	return len(w.names)
}

// NameAt returns the ix'th defined name.
func (w *Workbook) NameAt(ix int) *record.NameRecord {
	return w.names[ix]
}

// AddName appends a defined name record after the extern sheet table.
func (w *Workbook) AddName(n *record.NameRecord) {
	w.ensureLinkTable()
	pos := w.indexOfLast(record.XL_NAME)
	if pos >= 0 {
		pos++
	} else {
		pos = w.indexOfFirst(record.XL_EXTERNSHEET) + 1
	}
	w.insertAt(pos, n)
	w.names = append(w.names, n)
}

// RemoveName drops the ix'th defined name.
func (w *Workbook) RemoveName(ix int) {
	n := 0
	for i, r := range w.records {
		if _, ok := r.(*record.NameRecord); ok {
			if n == ix {
				w.removeAt(i)
				break
			}
			n++
		}
	}
	w.names = append(w.names[:ix], w.names[ix+1:]...)
}

// ensureLinkTable returns the link table, inserting the supporting book
// and extern sheet records on first use.
func (w *Workbook) ensureLinkTable() *LinkTable {
	if w.linkTable != nil {
		return w.linkTable
	}
	lt := newLinkTable(len(w.boundSheets))
	pos := w.eofPos()
	if c := w.indexOfFirst(record.XL_COUNTRY); c >= 0 {
		pos = c + 1
	}
	w.insertAt(pos, lt.externSheet)
	w.insertAt(pos, lt.internal)
	w.linkTable = lt
	return lt
}

// CheckExternSheet returns the extern index for a same-workbook sheet,
// creating the entry and the link table as needed.
func (w *Workbook) CheckExternSheet(sheetIx int) (int, error) {
	lt := w.ensureLinkTable()
	if lt.internalIdx < 0 {
		return 0, NewInvalidStateError("workbook has no internal references supporting book")
	}
	return lt.AddInternalEntry(w.handles[sheetIx]), nil
}

// ResolveExtern maps an extern index to sheet names for formula rendering.
// ok is false when the entry's sheet is gone or lives in another book.
func (w *Workbook) ResolveExtern(externIdx int) (first, last string, ok bool) {
	if w.linkTable == nil {
		return "", "", false
	}
	f, l, ok := w.linkTable.Resolve(externIdx)
	if !ok {
		return "", "", false
	}
	return w.boundSheets[f].Sheetname, w.boundSheets[l].Sheetname, true
}

// Prepare syncs derived record state before serialization: the extern
// sheet table and the internal supporting book's sheet count.
func (w *Workbook) Prepare() {
	if w.linkTable != nil {
		w.linkTable.Refresh(len(w.boundSheets))
	}
}

// SetBofOffsets stores each sheet's stream offset into its descriptor.
func (w *Workbook) SetBofOffsets(offsets []uint32) {
	for i, bs := range w.boundSheets {
		bs.PositionOfBof = offsets[i]
	}
}

// Size returns the serialized size of the globals stream. Call Prepare
// first; refreshing the link table can change record sizes.
func (w *Workbook) Size() int {
	return record.StreamSize(w.records)
}

// Serialize encodes the globals stream.
func (w *Workbook) Serialize() ([]byte, error) {
	return record.EncodeStream(w.records)
}
