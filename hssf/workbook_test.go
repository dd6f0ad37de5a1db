package hssf

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HasaanA16/poi/hssf/model"
	"github.com/HasaanA16/poi/hssf/record"
	"github.com/HasaanA16/poi/poifs"
)

func writeAndReopen(t *testing.T, w *Workbook) *Workbook {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf))
	back, err := OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	return back
}

func sheetNames(t *testing.T, w *Workbook) []string {
	t.Helper()
	var names []string
	for i := 0; i < w.SheetCount(); i++ {
		name, err := w.SheetName(i)
		require.NoError(t, err)
		names = append(names, name)
	}
	return names
}

func addSheets(t *testing.T, w *Workbook, names ...string) []*Sheet {
	t.Helper()
	sheets := make([]*Sheet, len(names))
	for i, name := range names {
		s, err := w.CreateSheet(name)
		require.NoError(t, err)
		sheets[i] = s
	}
	return sheets
}

func confirmActiveSelected(t *testing.T, s *Sheet, active, selected bool) {
	t.Helper()
	assert.Equal(t, active, s.Active(), "active flag of %q", s.Name())
	assert.Equal(t, selected, s.Selected(), "selected flag of %q", s.Name())
}

// containerBytes wraps a workbook stream in a fresh container under the
// given stream name.
func containerBytes(t *testing.T, streamName string, stream []byte) []byte {
	t.Helper()
	fs := poifs.New()
	require.NoError(t, fs.SetStream(streamName, stream))
	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))
	return buf.Bytes()
}

func TestNewWorkbookStockTables(t *testing.T) {
	w := NewWorkbook()
	assert.Equal(t, 0, w.SheetCount())
	assert.Equal(t, 21, w.NumCellStyles())
	assert.Equal(t, 4, w.NumberOfFonts())

	back := writeAndReopen(t, w)
	assert.Equal(t, 0, back.SheetCount())
	assert.Equal(t, 21, back.NumCellStyles())
	assert.Equal(t, 4, back.NumberOfFonts())
}

func TestCreateSheet(t *testing.T) {
	w := NewWorkbook()
	s1, err := w.CreateSheet("Sheet1")
	require.NoError(t, err)
	confirmActiveSelected(t, s1, true, true)

	s2, err := w.CreateSheet("Sheet2")
	require.NoError(t, err)
	confirmActiveSelected(t, s2, false, false)

	assert.Equal(t, 2, w.SheetCount())
	assert.Equal(t, 0, s1.Index())
	assert.Equal(t, 1, s2.Index())
	assert.Equal(t, w, s2.Workbook())

	_, err = w.CreateSheet("sheet1")
	require.Error(t, err)
	assert.True(t, IsInvalidArgumentError(err))
	assert.EqualError(t, err, "The workbook already contains a sheet named 'sheet1'")
	assert.Equal(t, 2, w.SheetCount())

	assert.Equal(t, 1, w.SheetIndex("SHEET2"))
	assert.Equal(t, -1, w.SheetIndex("nope"))

	name, err := w.SheetName(1)
	require.NoError(t, err)
	assert.Equal(t, "Sheet2", name)

	_, err = w.SheetAt(5)
	require.Error(t, err)
	assert.EqualError(t, err, "Sheet index (5) is out of range (0..1)")
	_, err = w.SheetAt(-1)
	require.Error(t, err)
}

func TestSheetNameValidation(t *testing.T) {
	w := NewWorkbook()
	_, err := w.CreateSheet("good")
	require.NoError(t, err)

	bad := []string{
		"",
		strings.Repeat("x", 32),
		"a/b", "a\\b", "a?b", "a*b", "a]b", "a[b", "a:b",
		"'leading",
		"trailing'",
	}
	for _, name := range bad {
		err := w.SetSheetName(0, name)
		require.Error(t, err, "name %q", name)
		assert.True(t, IsInvalidArgumentError(err), "name %q", name)

		_, err = w.CreateSheet(name)
		require.Error(t, err, "name %q", name)
	}
	got, err := w.SheetName(0)
	require.NoError(t, err)
	assert.Equal(t, "good", got)
	assert.Equal(t, 1, w.SheetCount())

	err = w.SetSheetName(0, "a/b")
	assert.EqualError(t, err, "Invalid char (/) found at index (1) in sheet name 'a/b'")
	err = w.SetSheetName(0, "'leading")
	assert.EqualError(t, err, "Invalid sheet name ''leading'. Sheet names must not begin or end with (')")
	err = w.SetSheetName(0, "")
	assert.EqualError(t, err,
		"sheetName '' is invalid - character count MUST be greater than or equal to 1 and less than or equal to 31")

	require.NoError(t, w.SetSheetName(0, strings.Repeat("n", 31)))
	require.NoError(t, w.SetSheetName(0, "it's fine"))
}

func TestRenameRejectsDuplicate(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "One", "Two")
	err := w.SetSheetName(1, "ONE")
	require.Error(t, err)
	assert.EqualError(t, err, "The workbook already contains a sheet named 'ONE'")
	assert.Equal(t, []string{"One", "Two"}, sheetNames(t, w))

	// renaming a sheet to its own name only collides with the others
	require.NoError(t, w.SetSheetName(1, "two"))
	assert.Equal(t, []string{"One", "two"}, sheetNames(t, w))
}

func TestHiddenRoundTrip(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")
	assert.False(t, w.Hidden())

	w.SetHidden(true)
	assert.True(t, w.Hidden())

	back := writeAndReopen(t, w)
	assert.True(t, back.Hidden())

	back.SetHidden(false)
	back2 := writeAndReopen(t, back)
	assert.False(t, back2.Hidden())
}

func TestSheetHiddenRoundTrip(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Visible", "ToHide")

	hidden, err := w.IsSheetHidden(1)
	require.NoError(t, err)
	assert.False(t, hidden)

	require.NoError(t, w.SetSheetHidden(1, true))
	back := writeAndReopen(t, w)

	hidden, err = back.IsSheetHidden(1)
	require.NoError(t, err)
	assert.True(t, hidden)
	hidden, err = back.IsSheetHidden(0)
	require.NoError(t, err)
	assert.False(t, hidden)

	require.NoError(t, back.SetSheetHidden(1, false))
	hidden, err = back.IsSheetHidden(1)
	require.NoError(t, err)
	assert.False(t, hidden)

	err = w.SetSheetHidden(7, true)
	require.Error(t, err)
}

func TestSelectionDoesNotMoveActiveSheet(t *testing.T) {
	w := NewWorkbook()
	sheets := addSheets(t, w, "Sheet1", "Sheet2", "Sheet3", "Sheet4")

	confirmActiveSelected(t, sheets[0], true, true)
	confirmActiveSelected(t, sheets[1], false, false)
	confirmActiveSelected(t, sheets[2], false, false)
	confirmActiveSelected(t, sheets[3], false, false)

	require.NoError(t, w.SetSelectedTab(1))
	assert.False(t, sheets[0].Selected())
	assert.True(t, sheets[0].Active(), "changing the tab selection must not move activation")

	require.NoError(t, w.SetActiveSheet(1))
	assert.False(t, sheets[0].Active())

	confirmActiveSelected(t, sheets[0], false, false)
	confirmActiveSelected(t, sheets[1], true, true)
	confirmActiveSelected(t, sheets[2], false, false)
	confirmActiveSelected(t, sheets[3], false, false)
	assert.Equal(t, 1, w.ActiveSheetIndex())
}

func TestSelectMultipleTabs(t *testing.T) {
	w := NewWorkbook()
	sheets := addSheets(t, w, "Sheet0", "Sheet1", "Sheet2", "Sheet3", "Sheet4", "Sheet5")

	require.NoError(t, w.SetSelectedTabs([]int{0, 2, 3}))
	assert.Equal(t, []int{0, 2, 3}, w.SelectedTabs())
	assert.True(t, sheets[0].Selected())
	assert.False(t, sheets[1].Selected())
	assert.True(t, sheets[2].Selected())
	assert.True(t, sheets[3].Selected())
	assert.False(t, sheets[4].Selected())
	assert.False(t, sheets[5].Selected())

	// replacing the selection clears the previous one
	require.NoError(t, w.SetSelectedTabs([]int{1, 3, 5}))
	assert.Equal(t, []int{1, 3, 5}, w.SelectedTabs())
	assert.False(t, sheets[0].Selected())
	assert.True(t, sheets[1].Selected())
	assert.False(t, sheets[2].Selected())
	assert.True(t, sheets[3].Selected())
	assert.False(t, sheets[4].Selected())
	assert.True(t, sheets[5].Selected())

	assert.True(t, sheets[0].Active())
	require.NoError(t, w.SetActiveSheet(2))
	assert.False(t, sheets[0].Active())
	assert.True(t, sheets[2].Active())

	// duplicates collapse to one tab
	require.NoError(t, w.SetSelectedTabs([]int{1, 1, 3}))
	assert.Equal(t, []int{1, 3}, w.SelectedTabs())
	assert.Equal(t, uint16(2), w.wb.WindowOne().NumSelectedTabs)

	err := w.SetSelectedTabs([]int{0, 9})
	require.Error(t, err)
	assert.EqualError(t, err, "Sheet index (9) is out of range (0..5)")
}

func TestRemoveSheetReassignsActiveAndSelected(t *testing.T) {
	w := NewWorkbook()
	sheets := addSheets(t, w, "Sheet0", "Sheet1", "Sheet2", "Sheet3", "Sheet4")

	require.NoError(t, w.SetActiveSheet(3))
	require.NoError(t, w.SetSelectedTab(3))
	confirmActiveSelected(t, sheets[3], true, true)

	// removing the active and selected sheet promotes its successor
	require.NoError(t, w.RemoveSheetAt(3))
	confirmActiveSelected(t, sheets[4], true, true)
	confirmActiveSelected(t, sheets[0], false, false)

	// multiple selection with a different active sheet
	require.NoError(t, w.SetSelectedTabs([]int{1, 3}))
	require.NoError(t, w.SetActiveSheet(2))
	confirmActiveSelected(t, sheets[0], false, false)
	confirmActiveSelected(t, sheets[1], false, true)
	confirmActiveSelected(t, sheets[2], true, false)
	confirmActiveSelected(t, sheets[4], false, true)

	// removing a selected sheet that is neither active nor the only
	// selected one leaves the rest alone
	require.NoError(t, w.RemoveSheetAt(3))
	confirmActiveSelected(t, sheets[0], false, false)
	confirmActiveSelected(t, sheets[1], false, true)
	confirmActiveSelected(t, sheets[2], true, false)

	// removing the only selected sheet moves the selection
	require.NoError(t, w.RemoveSheetAt(1))
	confirmActiveSelected(t, sheets[0], false, false)
	confirmActiveSelected(t, sheets[2], true, true)

	// the last remaining sheet is always active and selected
	require.NoError(t, w.RemoveSheetAt(1))
	confirmActiveSelected(t, sheets[0], true, true)

	err := w.RemoveSheetAt(1)
	require.Error(t, err)
	assert.EqualError(t, err, "Sheet index (1) is out of range (0..0)")
}

func TestSetSheetOrder(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "A", "B", "C", "D")
	require.NoError(t, w.SetActiveSheet(2))

	require.NoError(t, w.SetSheetOrder("D", 0))
	assert.Equal(t, []string{"D", "A", "B", "C"}, sheetNames(t, w))
	// the active sheet is still sheet C
	assert.Equal(t, 3, w.ActiveSheetIndex())

	require.NoError(t, w.SetSheetOrder("D", 3))
	assert.Equal(t, []string{"A", "B", "C", "D"}, sheetNames(t, w))
	assert.Equal(t, 2, w.ActiveSheetIndex())

	require.NoError(t, w.SetSheetOrder("C", 0))
	assert.Equal(t, []string{"C", "A", "B", "D"}, sheetNames(t, w))
	assert.Equal(t, 0, w.ActiveSheetIndex())

	err := w.SetSheetOrder("missing", 0)
	require.Error(t, err)
	assert.EqualError(t, err, "Sheet 'missing' does not exist in this workbook")
	err = w.SetSheetOrder("C", 9)
	require.Error(t, err)

	back := writeAndReopen(t, w)
	assert.Equal(t, []string{"C", "A", "B", "D"}, sheetNames(t, back))
}

func TestCellStylesAreBounded(t *testing.T) {
	w := NewWorkbook()
	numBuiltin := w.NumCellStyles()
	limit := model.MAX_STYLES - numBuiltin
	for i := 0; i < limit; i++ {
		_, err := w.CreateCellStyle()
		require.NoError(t, err)
	}
	assert.Equal(t, model.MAX_STYLES, w.NumCellStyles())

	_, err := w.CreateCellStyle()
	require.Error(t, err)
	assert.True(t, IsCapacityExceededError(err))
	assert.EqualError(t, err,
		"The maximum number of cell styles was exceeded. You can define up to 4000 styles in a .xls workbook")
	assert.Equal(t, model.MAX_STYLES, w.NumCellStyles())
}

func TestCellStyleFontAndFormat(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")

	font := w.CreateFont()
	assert.Equal(t, 5, font.Index(), "the font table never hands out index four")
	font.SetFontName("Courier New")
	font.SetFontHeight(240)
	font.SetBold(true)
	font.SetItalic(true)

	style, err := w.CreateCellStyle()
	require.NoError(t, err)
	style.SetFont(font)
	df := w.CreateDataFormat()
	style.SetDataFormat(df.Format("0.00%"))

	back := writeAndReopen(t, w)
	bs, err := back.CellStyleAt(style.Index())
	require.NoError(t, err)
	assert.Equal(t, font.Index(), bs.FontIndex())
	assert.Equal(t, "0.00%", bs.DataFormatString())

	bf, err := back.FontAt(bs.FontIndex())
	require.NoError(t, err)
	assert.Equal(t, "Courier New", bf.FontName())
	assert.Equal(t, uint16(240), bf.FontHeight())
	assert.True(t, bf.Bold())
	assert.True(t, bf.Italic())

	_, err = back.FontAt(4)
	require.Error(t, err)
	assert.EqualError(t, err, "There are only 5 font records, you asked for 4")
}

func TestCloneSheetNaming(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Invoice", "Invoice1", "Digest", "Deferred", "Received")

	clone, err := w.CloneSheet(0)
	require.NoError(t, err)
	assert.Equal(t, "Invoice (2)", clone.Name())
	confirmActiveSelected(t, clone, false, false)

	clone2, err := w.CloneSheet(0)
	require.NoError(t, err)
	assert.Equal(t, "Invoice (3)", clone2.Name())

	assert.Equal(t,
		[]string{"Invoice", "Invoice1", "Digest", "Deferred", "Received", "Invoice (2)", "Invoice (3)"},
		sheetNames(t, w))

	require.NoError(t, w.SetSheetName(clone2.Index(), "copy"))
	require.NoError(t, w.SetSheetOrder("copy", 0))
	require.NoError(t, w.RemoveSheetAt(0))
	assert.Equal(t,
		[]string{"Invoice", "Invoice1", "Digest", "Deferred", "Received", "Invoice (2)"},
		sheetNames(t, w))

	back := writeAndReopen(t, w)
	assert.Equal(t,
		[]string{"Invoice", "Invoice1", "Digest", "Deferred", "Received", "Invoice (2)"},
		sheetNames(t, back))
}

func TestCloneSheetSqueezesLongNames(t *testing.T) {
	w := NewWorkbook()
	long := strings.Repeat("N", 31)
	addSheets(t, w, long)

	clone, err := w.CloneSheet(0)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("N", 28)+"(2)", clone.Name())
	assert.Len(t, []rune(clone.Name()), 31)
}

func TestWriteReopenPreservesSelectionState(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "One", "Two", "Three")
	require.NoError(t, w.SetSelectedTab(2))
	require.NoError(t, w.SetActiveSheet(2))
	w.SetFirstVisibleTab(1)

	back := writeAndReopen(t, w)
	assert.Equal(t, 2, back.ActiveSheetIndex())
	assert.Equal(t, 1, back.FirstVisibleTab())
	assert.Equal(t, []int{2}, back.SelectedTabs())

	s, err := back.SheetAt(2)
	require.NoError(t, err)
	confirmActiveSelected(t, s, true, true)
	s, err = back.SheetAt(0)
	require.NoError(t, err)
	confirmActiveSelected(t, s, false, false)
}

func TestOpenRejectsOldGenerations(t *testing.T) {
	rawBOF := func(sid, vers uint16) []byte {
		b := make([]byte, 12)
		binary.LittleEndian.PutUint16(b[0:2], sid)
		binary.LittleEndian.PutUint16(b[2:4], 8)
		binary.LittleEndian.PutUint16(b[4:6], vers)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"raw BIFF2", rawBOF(0x0009, 0), "BIFF2"},
		{"raw BIFF3", rawBOF(0x0209, 0), "BIFF3"},
		{"raw BIFF4", rawBOF(0x0409, 0), "BIFF4"},
		{"raw BIFF5", rawBOF(0x0809, 0x0500), "BIFF5"},
		{"container BIFF5 BOF", containerBytes(t, "Workbook", rawBOF(0x0809, 0x0500)), "BIFF5"},
		{"container Book stream", containerBytes(t, "Book", rawBOF(0x0809, 0x0500)), "BIFF5"},
	}
	for _, test := range tests {
		_, err := OpenReader(bytes.NewReader(test.data))
		require.Error(t, err, test.name)
		assert.True(t, IsOldFormatError(err), test.name)
		assert.Contains(t, err.Error(), test.want, test.name)
	}
}

func TestOpenRejectsNakedRecordStream(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")
	stream, err := w.workbookStream()
	require.NoError(t, err)

	_, err = OpenReader(bytes.NewReader(stream))
	require.Error(t, err)
	assert.True(t, poifs.IsFormatError(err))
	assert.Contains(t, err.Error(), "without a compound container")
}

func TestOpenRejectsContainerWithoutWorkbook(t *testing.T) {
	data := containerBytes(t, "SomethingElse", []byte{1, 2, 3})
	_, err := OpenReader(bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, IsInvalidArgumentError(err))
	assert.Contains(t, err.Error(), "is it really a workbook file?")
}

func TestOpenChecksDeclaredSheetCount(t *testing.T) {
	m := model.CreateWorkbook()
	m.AddSheet("Sheet1")
	m.AddSheet("Sheet2")
	globals, err := m.Serialize()
	require.NoError(t, err)
	oneSheet, err := model.NewSheet().Serialize()
	require.NoError(t, err)

	data := containerBytes(t, "Workbook", append(globals, oneSheet...))
	_, err = OpenReader(bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, record.IsRecordFormatError(err))
	assert.EqualError(t, err, "workbook declares 2 sheets but the stream holds 1 substreams")
}

func TestOpenToleratesTrailingData(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")
	stream, err := w.workbookStream()
	require.NoError(t, err)

	// a stray empty record and a truncated header after the final EOF
	stream = append(stream, 0x00, 0x00, 0x00, 0x00, 0xFF)
	back, err := OpenReader(bytes.NewReader(containerBytes(t, "Workbook", stream)))
	require.NoError(t, err)
	assert.Equal(t, 1, back.SheetCount())

	again := writeAndReopen(t, back)
	assert.Equal(t, []string{"Sheet1"}, sheetNames(t, again))
}

func TestOpenFallsBackToUppercaseStreamName(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")
	stream, err := w.workbookStream()
	require.NoError(t, err)

	back, err := OpenReader(bytes.NewReader(containerBytes(t, "WORKBOOK", stream)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1"}, sheetNames(t, back))

	// a full rewrite normalizes the stream name
	var out bytes.Buffer
	require.NoError(t, back.Write(&out))
	fs, err := poifs.Open(out.Bytes())
	require.NoError(t, err)
	assert.True(t, fs.HasStream("Workbook"))
	assert.False(t, fs.HasStream("WORKBOOK"))
}

func TestWritePreservesContainerContent(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")
	stream, err := w.workbookStream()
	require.NoError(t, err)

	rootID := uuid.MustParse("00020819-0000-0000-c000-000000000046")
	objID := uuid.MustParse("00020820-0000-0000-c000-000000000046")

	fs := poifs.New()
	fs.SetRootClassID(rootID)
	require.NoError(t, fs.SetStream("Workbook", stream))
	require.NoError(t, fs.SetStream("Custom Stream", []byte("custom-bytes")))
	st, err := fs.Root().AddStorage("MBD01234567")
	require.NoError(t, err)
	st.SetClassID(objID)
	_, err = st.AddStream("\x01Ole", []byte{1, 2, 3})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))

	wb, err := OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	_, err = wb.CreateSheet("Added")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, wb.Write(&out))

	re, err := poifs.Open(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, rootID, re.RootClassID())

	data, err := re.Stream("Custom Stream")
	require.NoError(t, err)
	assert.Equal(t, []byte("custom-bytes"), data)

	storage := re.Root().Child("MBD01234567")
	require.NotNil(t, storage)
	assert.True(t, storage.IsStorage())
	assert.Equal(t, objID, storage.ClassID())
	ole := storage.Child("\x01Ole")
	require.NotNil(t, ole)
	assert.Equal(t, []byte{1, 2, 3}, ole.Data())

	reback, err := OpenReader(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Added"}, sheetNames(t, reback))
}

func TestWriteFileAndOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xls")
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")
	require.NoError(t, w.WriteFile(path))

	back, err := OpenFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1"}, sheetNames(t, back))
	require.NoError(t, back.Close())
}

func TestCloseNeverWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xls")
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")
	require.NoError(t, w.WriteFile(path))

	wb, err := OpenFile(path, false)
	require.NoError(t, err)
	_, err = wb.CreateSheet("Sheet2")
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	back, err := OpenFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, 1, back.SheetCount())
	require.NoError(t, back.Close())
}

func TestSaveInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xls")

	w := NewWorkbook()
	addSheets(t, w, "Sheet1")
	stream, err := w.workbookStream()
	require.NoError(t, err)

	fs := poifs.New()
	require.NoError(t, fs.SetStream("WORKBOOK", stream))
	require.NoError(t, fs.SetStream("Extra", []byte("keep me")))
	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	wb, err := OpenFile(path, false)
	require.NoError(t, err)
	_, err = wb.CreateSheet("Second")
	require.NoError(t, err)
	require.NoError(t, wb.SaveInPlace())
	require.NoError(t, wb.Close())

	re, err := poifs.OpenFile(path, true)
	require.NoError(t, err)
	defer re.Close()
	// the original stream name is kept, and untouched streams survive
	assert.True(t, re.HasStream("WORKBOOK"))
	assert.False(t, re.HasStream("Workbook"))
	data, err := re.Stream("Extra")
	require.NoError(t, err)
	assert.Equal(t, []byte("keep me"), data)

	back, err := OpenFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Second"}, sheetNames(t, back))
	require.NoError(t, back.Close())
}

func TestSaveInPlaceNeedsWritableFile(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")
	err := w.SaveInPlace()
	require.Error(t, err)
	assert.True(t, IsInvalidStateError(err))
	assert.Contains(t, err.Error(), "cannot write in place")

	back := writeAndReopen(t, w)
	err = back.SaveInPlace()
	require.Error(t, err)
	assert.True(t, poifs.IsInvalidStateError(err))

	path := filepath.Join(t.TempDir(), "book.xls")
	require.NoError(t, w.WriteFile(path))
	ro, err := OpenFile(path, true)
	require.NoError(t, err)
	defer ro.Close()
	err = ro.SaveInPlace()
	require.Error(t, err)
	assert.True(t, poifs.IsInvalidStateError(err))
}

// misreportingRecord writes fewer bytes than it declares.
type misreportingRecord struct{}

func (r *misreportingRecord) Sid() uint16     { return 0x5555 }
func (r *misreportingRecord) RecordSize() int { return 12 }

func (r *misreportingRecord) Serialize(buf []byte) int {
	binary.LittleEndian.PutUint16(buf[0:2], 0x5555)
	binary.LittleEndian.PutUint16(buf[2:4], 4)
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	return 8
}

func (r *misreportingRecord) Clone() record.Record { return &misreportingRecord{} }

// driftingRecord declares a larger size once encoding starts than it did
// when the stream was measured, imitating a record mutated mid-write.
type driftingRecord struct {
	measured bool
}

func (r *driftingRecord) Sid() uint16 { return 0x5556 }

func (r *driftingRecord) RecordSize() int {
	if !r.measured {
		r.measured = true
		return 4
	}
	return 8
}

func (r *driftingRecord) Serialize(buf []byte) int {
	binary.LittleEndian.PutUint16(buf[0:2], 0x5556)
	binary.LittleEndian.PutUint16(buf[2:4], 4)
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	return 8
}

func (r *driftingRecord) Clone() record.Record { return &driftingRecord{measured: r.measured} }

func insertBeforeLast(records []record.Record, r record.Record) []record.Record {
	out := make([]record.Record, 0, len(records)+1)
	out = append(out, records[:len(records)-1]...)
	out = append(out, r, records[len(records)-1])
	return out
}

func TestWriteAbortsOnRecordSizeMismatch(t *testing.T) {
	w := NewWorkbook()
	sheets := addSheets(t, w, "Sheet1")
	sheets[0].model = model.ReadSheet(insertBeforeLast(sheets[0].model.Records(), &misreportingRecord{}))

	err := w.Write(io.Discard)
	require.Error(t, err)
	assert.True(t, record.IsSizeMismatchError(err))
	assert.Contains(t, err.Error(), "declared 12 bytes but serialized 8")
}

func TestWriteAbortsOnSheetSizeDrift(t *testing.T) {
	w := NewWorkbook()
	sheets := addSheets(t, w, "Sheet1")
	sheets[0].model = model.ReadSheet(insertBeforeLast(sheets[0].model.Records(), &driftingRecord{}))

	err := w.Write(io.Discard)
	require.Error(t, err)
	assert.True(t, IsInvalidStateError(err))
	assert.Contains(t, err.Error(), "Actual serialized sheet size")
	assert.Contains(t, err.Error(), "for sheet (0)")
}

func escherAtomBytes(recid, options uint16, body []byte) []byte {
	b := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint16(b[0:2], options)
	binary.LittleEndian.PutUint16(b[2:4], recid)
	binary.LittleEndian.PutUint32(b[4:8], uint32(len(body)))
	copy(b[8:], body)
	return b
}

func escherContainerAtom(recid uint16, children ...[]byte) []byte {
	var body []byte
	for _, c := range children {
		body = append(body, c...)
	}
	return escherAtomBytes(recid, 0x000F, body)
}

func serializeRecords(t *testing.T, records []record.Record) []byte {
	t.Helper()
	var out []byte
	for _, r := range records {
		buf := make([]byte, r.RecordSize())
		n := r.Serialize(buf)
		require.Equal(t, len(buf), n)
		out = append(out, buf...)
	}
	return out
}

// pictureWorkbookBytes builds a container holding one sheet whose drawing
// shows picture one, with a blip store entry counting a single reference.
func pictureWorkbookBytes(t *testing.T) []byte {
	t.Helper()
	bse := make([]byte, 36)
	binary.LittleEndian.PutUint32(bse[24:28], 1)
	dgg := escherContainerAtom(0xF000,
		escherContainerAtom(0xF001, escherAtomBytes(0xF007, 0x0002, bse)))

	prop := make([]byte, 6)
	binary.LittleEndian.PutUint16(prop[0:2], 0x4000|0x0104)
	binary.LittleEndian.PutUint32(prop[2:6], 1)
	sp := escherContainerAtom(0xF004, escherAtomBytes(0xF00B, 1<<4|0x3, prop))

	m := model.CreateWorkbook()
	m.AddSheet("Pictures")
	globals := serializeRecords(t, insertBeforeLast(m.Records(), &record.DrawingGroupRecord{Data: dgg}))
	sheet := serializeRecords(t, insertBeforeLast(model.NewSheet().Records(), &record.DrawingRecord{Data: sp}))

	return containerBytes(t, "Workbook", append(globals, sheet...))
}

func TestCloneAndRemoveSheetAdjustPictureRefs(t *testing.T) {
	w, err := OpenReader(bytes.NewReader(pictureWorkbookBytes(t)))
	require.NoError(t, err)

	dg := w.wb.DrawingGroup()
	require.NotNil(t, dg)
	require.Equal(t, uint32(1), dg.BlipRefCount(1))

	clone, err := w.CloneSheet(0)
	require.NoError(t, err)
	assert.Equal(t, "Pictures (2)", clone.Name())
	assert.Equal(t, uint32(2), dg.BlipRefCount(1))

	_, err = w.CloneSheet(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), dg.BlipRefCount(1))

	require.NoError(t, w.RemoveSheetAt(2))
	assert.Equal(t, uint32(2), dg.BlipRefCount(1))
}
