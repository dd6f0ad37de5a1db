// Package hssf reads and writes legacy binary workbooks: BIFF8 record
// streams held in an OLE2 compound container. It keeps sheet ordering, tab
// selection and activation, named ranges and cross-sheet references
// consistent under structural edits, and preserves everything it does not
// model byte for byte.
package hssf

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/HasaanA16/poi/hssf/model"
	"github.com/HasaanA16/poi/hssf/record"
	"github.com/HasaanA16/poi/poifs"
)

// Stream names a BIFF8 workbook may live under in its container, in probe
// order. Fresh containers are always written with the first.
var workbookStreamNames = []string{"Workbook", "WORKBOOK", "BOOK"}

// The BIFF5 generation stored its workbook under this name.
const oldStreamName = "Book"

const biff5Version = 0x0500

var oldGenerations = map[uint16]string{
	record.XL_BOF_B2: "BIFF2",
	record.XL_BOF_B3: "BIFF3",
	record.XL_BOF_B4: "BIFF4",
}

// Workbook is an open workbook document. A workbook opened from a writable
// file keeps its container handle for SaveInPlace; Close releases it.
type Workbook struct {
	fs         *poifs.FileSystem
	streamName string
	wb         *model.Workbook
	sheets     []*Sheet
}

// NewWorkbook creates an empty in-memory workbook with the format's
// default font, format and style tables and no sheets.
func NewWorkbook() *Workbook {
	return &Workbook{
		streamName: workbookStreamNames[0],
		wb:         model.CreateWorkbook(),
	}
}

// OpenFile opens a workbook file. When readOnly is false the container
// handle stays open read-write so SaveInPlace can rewrite the file. The
// handle is released on Close, and on any error before OpenFile returns.
func OpenFile(path string, readOnly bool) (*Workbook, error) {
	fs, err := poifs.OpenFile(path, readOnly)
	if err != nil {
		return nil, err
	}
	w, err := fromFileSystem(fs)
	if err != nil {
		fs.Close()
		return nil, err
	}
	return w, nil
}

// OpenReader reads a workbook from a stream. The result has no backing
// file, so it cannot be saved in place.
func OpenReader(r io.Reader) (*Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, poifs.SIGNATURE) {
		// record streams predate the container; name the generation when
		// one of those is fed in raw
		if err := sniffRawStream(data); err != nil {
			return nil, err
		}
	}
	fs, err := poifs.Open(data)
	if err != nil {
		return nil, err
	}
	return fromFileSystem(fs)
}

func fromFileSystem(fs *poifs.FileSystem) (*Workbook, error) {
	name, err := workbookStreamName(fs)
	if err != nil {
		return nil, err
	}
	data, err := fs.Stream(name)
	if err != nil {
		return nil, err
	}
	if err := sniffOldBOF(data); err != nil {
		return nil, err
	}
	records, err := record.DecodeStream(data)
	if err != nil {
		return nil, err
	}
	globals, blocks, err := model.SplitStream(records)
	if err != nil {
		return nil, err
	}
	wbm, err := model.ReadWorkbook(globals)
	if err != nil {
		return nil, err
	}
	if len(blocks) != wbm.NumSheets() {
		return nil, record.NewRecordFormatError(
			"workbook declares %d sheets but the stream holds %d substreams", wbm.NumSheets(), len(blocks))
	}
	w := &Workbook{fs: fs, streamName: name, wb: wbm}
	for _, block := range blocks {
		w.sheets = append(w.sheets, &Sheet{wb: w, model: model.ReadSheet(block)})
	}
	return w, nil
}

func workbookStreamName(fs *poifs.FileSystem) (string, error) {
	for _, name := range workbookStreamNames {
		if fs.HasStream(name) {
			return name, nil
		}
	}
	if fs.HasStream(oldStreamName) {
		return "", NewOldFormatError(
			"the workbook stream is named 'Book': the file is Excel 5.0/7.0 (BIFF5) format; only BIFF8 workbooks (Excel 97 and later) are supported")
	}
	return "", model.NewInvalidArgumentError(
		"the compound document does not contain a BIFF8 'Workbook' stream; is it really a workbook file?")
}

// sniffOldBOF rejects streams whose leading BOF belongs to an older
// generation, before any record decoding.
func sniffOldBOF(data []byte) error {
	if len(data) < 2 {
		return nil
	}
	sid := binary.LittleEndian.Uint16(data[0:2])
	if gen, ok := oldGenerations[sid]; ok {
		return NewOldFormatError(
			"the workbook stream begins with a %s BOF record; only BIFF8 workbooks (Excel 97 and later) are supported", gen)
	}
	if sid == record.XL_BOF && len(data) >= 6 &&
		binary.LittleEndian.Uint16(data[4:6]) == biff5Version {
		return NewOldFormatError(
			"the workbook stream seems to be Excel 5.0/7.0 (BIFF5) format; only BIFF8 workbooks (Excel 97 and later) are supported")
	}
	return nil
}

func sniffRawStream(data []byte) error {
	if err := sniffOldBOF(data); err != nil {
		return err
	}
	if len(data) >= 2 && binary.LittleEndian.Uint16(data[0:2]) == record.XL_BOF {
		return poifs.NewFormatError("the data is a raw workbook record stream without a compound container")
	}
	return nil
}

// Close releases the container handle, if any. It never writes.
func (w *Workbook) Close() error {
	if w.fs != nil {
		return w.fs.Close()
	}
	return nil
}

// workbookStream encodes the globals and every sheet block into one
// stream. Each sheet's declared size fixes its BOF offset before encoding,
// and the encode proves every block serialized to exactly that size.
func (w *Workbook) workbookStream() ([]byte, error) {
	w.wb.Prepare()
	pos := w.wb.Size()
	offsets := make([]uint32, len(w.sheets))
	sizes := make([]int, len(w.sheets))
	for i, s := range w.sheets {
		offsets[i] = uint32(pos)
		sizes[i] = s.model.Size()
		pos += sizes[i]
	}
	w.wb.SetBofOffsets(offsets)

	out := make([]byte, 0, pos)
	globals, err := w.wb.Serialize()
	if err != nil {
		return nil, err
	}
	out = append(out, globals...)
	for i, s := range w.sheets {
		block, err := s.model.Serialize()
		if err != nil {
			return nil, err
		}
		if len(block) != sizes[i] {
			return nil, model.NewInvalidStateError(
				"Actual serialized sheet size (%d) differs from pre-calculated size (%d) for sheet (%d)",
				len(block), sizes[i], i)
		}
		out = append(out, block...)
	}
	return out, nil
}

// Write lays the workbook out into a fresh container on any sink. Every
// stream of the source container other than the workbook stream itself is
// carried over, along with the root class ID.
func (w *Workbook) Write(out io.Writer) error {
	data, err := w.workbookStream()
	if err != nil {
		return err
	}
	target := poifs.New()
	if w.fs != nil {
		target.SetRootClassID(w.fs.RootClassID())
		if err := copyChildren(target.Root(), w.fs.Root(), w.streamName); err != nil {
			return err
		}
	}
	if err := target.SetStream(workbookStreamNames[0], data); err != nil {
		return err
	}
	return target.WriteTo(out)
}

// WriteFile writes the workbook to a new file at path.
func (w *Workbook) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := w.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SaveInPlace rewrites the backing file, replacing only the workbook
// stream; every other container stream round-trips byte for byte. Only a
// workbook opened from a writable file can do this.
func (w *Workbook) SaveInPlace() error {
	if w.fs == nil {
		return model.NewInvalidStateError("cannot write in place: the workbook is not backed by a file")
	}
	data, err := w.workbookStream()
	if err != nil {
		return err
	}
	if err := w.fs.SetStream(w.streamName, data); err != nil {
		return err
	}
	return w.fs.Commit()
}

func copyChildren(dst, src *poifs.Entry, skip string) error {
	for _, c := range src.Children() {
		if c.Name() == skip {
			continue
		}
		if c.IsStream() {
			e, err := dst.AddStream(c.Name(), c.Data())
			if err != nil {
				return err
			}
			e.SetClassID(c.ClassID())
			continue
		}
		st, err := dst.AddStorage(c.Name())
		if err != nil {
			return err
		}
		st.SetClassID(c.ClassID())
		if err := copyChildren(st, c, ""); err != nil {
			return err
		}
	}
	return nil
}

// SheetCount returns the number of sheets.
func (w *Workbook) SheetCount() int {
	return len(w.sheets)
}

func (w *Workbook) validateSheetIndex(ix int) error {
	last := len(w.sheets) - 1
	if ix < 0 || ix > last {
		return model.NewInvalidArgumentError("Sheet index (%d) is out of range (0..%d)", ix, last)
	}
	return nil
}

// SheetAt returns the sheet at the given position.
func (w *Workbook) SheetAt(ix int) (*Sheet, error) {
	if err := w.validateSheetIndex(ix); err != nil {
		return nil, err
	}
	return w.sheets[ix], nil
}

// SheetName returns the name of the sheet at the given position.
func (w *Workbook) SheetName(ix int) (string, error) {
	if err := w.validateSheetIndex(ix); err != nil {
		return "", err
	}
	return w.wb.SheetName(ix), nil
}

// SheetIndex returns the position of the named sheet, compared
// case-insensitively, or -1 when no sheet has the name.
func (w *Workbook) SheetIndex(name string) int {
	for i := range w.sheets {
		if strings.EqualFold(w.wb.SheetName(i), name) {
			return i
		}
	}
	return -1
}

func validateSheetName(name string) error {
	runes := []rune(name)
	if len(runes) < 1 || len(runes) > 31 {
		return model.NewInvalidArgumentError(
			"sheetName '%s' is invalid - character count MUST be greater than or equal to 1 and less than or equal to 31", name)
	}
	for i, ch := range runes {
		switch ch {
		case '/', '\\', '?', '*', ']', '[', ':':
			return model.NewInvalidArgumentError(
				"Invalid char (%c) found at index (%d) in sheet name '%s'", ch, i, name)
		}
	}
	if runes[0] == '\'' || runes[len(runes)-1] == '\'' {
		return model.NewInvalidArgumentError(
			"Invalid sheet name '%s'. Sheet names must not begin or end with (')", name)
	}
	return nil
}

// CreateSheet appends a fresh sheet. The new sheet becomes selected and
// active only when it is the workbook's first.
func (w *Workbook) CreateSheet(name string) (*Sheet, error) {
	if err := validateSheetName(name); err != nil {
		return nil, err
	}
	if w.wb.ContainsSheetName(name, -1) {
		return nil, model.NewInvalidArgumentError("The workbook already contains a sheet named '%s'", name)
	}
	sm := model.NewSheet()
	w.wb.AddSheet(name)
	s := &Sheet{wb: w, model: sm}
	w.sheets = append(w.sheets, s)
	only := len(w.sheets) == 1
	sm.WindowTwo().SetSelected(only)
	sm.WindowTwo().SetActive(only)
	return s, nil
}

// SetSheetName renames the sheet at ix after validating the new name and
// checking it against every other sheet, case-insensitively. Nothing is
// mutated on rejection.
func (w *Workbook) SetSheetName(ix int, name string) error {
	if err := w.validateSheetIndex(ix); err != nil {
		return err
	}
	if err := validateSheetName(name); err != nil {
		return err
	}
	if w.wb.ContainsSheetName(name, ix) {
		return model.NewInvalidArgumentError("The workbook already contains a sheet named '%s'", name)
	}
	w.wb.SetSheetName(ix, name)
	return nil
}

// RemoveSheetAt removes the sheet at ix. Activation and selection move to
// the sheet now occupying the removed position, or the new last sheet;
// positions above the removed one shift down so the same sheets stay
// active and selected. References to the removed sheet degrade to #REF!.
func (w *Workbook) RemoveSheetAt(ix int) error {
	if err := w.validateSheetIndex(ix); err != nil {
		return err
	}
	wasSelected := w.sheets[ix].Selected()
	if d := w.sheets[ix].model.Drawing(); d != nil {
		if dg := w.wb.DrawingGroup(); dg != nil {
			for _, pib := range d.BlipRefs() {
				dg.DecrementBlipRef(pib)
			}
		}
	}
	w.sheets = append(w.sheets[:ix], w.sheets[ix+1:]...)
	w.wb.RemoveSheet(ix)

	n := len(w.sheets)
	if n == 0 {
		return nil
	}
	newIx := ix
	if newIx >= n {
		newIx = n - 1
	}
	if wasSelected {
		anySelected := false
		for _, s := range w.sheets {
			if s.Selected() {
				anySelected = true
				break
			}
		}
		if !anySelected {
			w.setSelectedTab(newIx)
		}
	}
	if active := w.ActiveSheetIndex(); active == ix {
		w.setActiveSheet(newIx)
	} else if active > ix {
		w.setActiveSheet(active - 1)
	}
	return nil
}

// SetSheetOrder moves the named sheet to position to. Every extern-indexed
// reference keeps its meaning, and the active sheet stays the same sheet.
func (w *Workbook) SetSheetOrder(name string, to int) error {
	ix := w.SheetIndex(name)
	if ix < 0 {
		return model.NewInvalidArgumentError("Sheet '%s' does not exist in this workbook", name)
	}
	if err := w.validateSheetIndex(to); err != nil {
		return err
	}
	if ix == to {
		return nil
	}
	s := w.sheets[ix]
	w.sheets = append(w.sheets[:ix], w.sheets[ix+1:]...)
	w.sheets = append(w.sheets[:to], append([]*Sheet{s}, w.sheets[to:]...)...)
	w.wb.MoveSheet(ix, to)

	active := w.ActiveSheetIndex()
	switch {
	case active == ix:
		w.setActiveSheet(to)
	case (active < ix && active < to) || (active > ix && active > to):
		// unaffected
	case to > ix:
		w.setActiveSheet(active - 1)
	default:
		w.setActiveSheet(active + 1)
	}
	return nil
}

// CloneSheet appends a deep copy of the sheet at ix. The clone's name gets
// the format's " (2)" counter suffix, counting up until unique; the clone
// is neither selected nor active, and every picture its drawing references
// gains a reference count.
func (w *Workbook) CloneSheet(ix int) (*Sheet, error) {
	if err := w.validateSheetIndex(ix); err != nil {
		return nil, err
	}
	cm := w.sheets[ix].model.Clone()
	if w2 := cm.WindowTwo(); w2 != nil {
		w2.SetSelected(false)
		w2.SetActive(false)
	}
	name := w.uniqueSheetName(w.wb.SheetName(ix))
	srcScope := uint16(ix + 1)
	w.wb.AddSheet(name)
	clone := &Sheet{wb: w, model: cm}
	w.sheets = append(w.sheets, clone)

	if d := cm.Drawing(); d != nil {
		if dg := w.wb.DrawingGroup(); dg != nil {
			for _, pib := range d.BlipRefs() {
				dg.IncrementBlipRef(pib)
			}
		}
	}
	// an autofilter on the source sheet lives as a sheet-scoped builtin
	// name; the clone needs its own
	for i := 0; i < w.wb.NumNames(); i++ {
		nr := w.wb.NameAt(i)
		if nr.IsBuiltin() && nr.BuiltinID == record.BUILTIN_FILTER_DB && nr.SheetNumber == srcScope {
			c := nr.Clone().(*record.NameRecord)
			c.SheetNumber = uint16(len(w.sheets))
			w.wb.AddName(c)
			break
		}
	}
	return clone, nil
}

func (w *Workbook) uniqueSheetName(srcName string) string {
	base := srcName
	n := 2
	if open := strings.LastIndex(srcName, "("); open > 0 && strings.HasSuffix(srcName, ")") {
		if v, err := strconv.Atoi(strings.TrimSpace(srcName[open+1 : len(srcName)-1])); err == nil {
			n = v + 1
			base = strings.TrimSpace(srcName[:open])
		}
	}
	baseRunes := []rune(base)
	for {
		suffix := strconv.Itoa(n)
		n++
		var name string
		if len(baseRunes)+len(suffix)+2 < 31 {
			name = base + " (" + suffix + ")"
		} else {
			name = string(baseRunes[:31-len(suffix)-2]) + "(" + suffix + ")"
		}
		if w.SheetIndex(name) < 0 {
			return name
		}
	}
}

// ActiveSheetIndex returns the position of the displayed sheet.
func (w *Workbook) ActiveSheetIndex() int {
	return int(w.wb.WindowOne().ActiveSheetIndex)
}

// SetActiveSheet makes the sheet at ix the displayed one. Tab selection is
// not touched; the two states are maintained independently.
func (w *Workbook) SetActiveSheet(ix int) error {
	if err := w.validateSheetIndex(ix); err != nil {
		return err
	}
	w.setActiveSheet(ix)
	return nil
}

func (w *Workbook) setActiveSheet(ix int) {
	for i, s := range w.sheets {
		s.setActive(i == ix)
	}
	w.wb.WindowOne().ActiveSheetIndex = uint16(ix)
}

// SetSelectedTab selects exactly the tab at ix, deselecting every other.
// The active sheet is not touched.
func (w *Workbook) SetSelectedTab(ix int) error {
	if err := w.validateSheetIndex(ix); err != nil {
		return err
	}
	w.setSelectedTab(ix)
	return nil
}

func (w *Workbook) setSelectedTab(ix int) {
	for i, s := range w.sheets {
		s.setSelected(i == ix)
	}
	w.wb.WindowOne().NumSelectedTabs = 1
}

// SetSelectedTabs replaces the tab selection with the given positions.
// Duplicates collapse; the active sheet is not touched.
func (w *Workbook) SetSelectedTabs(ixs []int) error {
	for _, ix := range ixs {
		if err := w.validateSheetIndex(ix); err != nil {
			return err
		}
	}
	set := make(map[int]bool, len(ixs))
	for _, ix := range ixs {
		set[ix] = true
	}
	for i, s := range w.sheets {
		s.setSelected(set[i])
	}
	w.wb.WindowOne().NumSelectedTabs = uint16(len(set))
	return nil
}

// SelectedTabs returns the positions of the selected tabs, in order.
func (w *Workbook) SelectedTabs() []int {
	var ixs []int
	for i, s := range w.sheets {
		if s.Selected() {
			ixs = append(ixs, i)
		}
	}
	return ixs
}

// FirstVisibleTab returns the leftmost tab shown in the tab bar.
func (w *Workbook) FirstVisibleTab() int {
	return int(w.wb.WindowOne().FirstVisibleTab)
}

// SetFirstVisibleTab scrolls the tab bar so ix is the leftmost tab shown.
func (w *Workbook) SetFirstVisibleTab(ix int) {
	w.wb.WindowOne().FirstVisibleTab = uint16(ix)
}

// Hidden reports whether the workbook window is hidden.
func (w *Workbook) Hidden() bool {
	return w.wb.WindowOne().Hidden()
}

// SetHidden hides or shows the workbook window.
func (w *Workbook) SetHidden(hidden bool) {
	w.wb.WindowOne().SetHidden(hidden)
}

// IsSheetHidden reports whether the sheet at ix is hidden.
func (w *Workbook) IsSheetHidden(ix int) (bool, error) {
	if err := w.validateSheetIndex(ix); err != nil {
		return false, err
	}
	return w.wb.BoundSheet(ix).Visibility != record.SHEET_VISIBLE, nil
}

// SetSheetHidden hides or shows the sheet at ix.
func (w *Workbook) SetSheetHidden(ix int, hidden bool) error {
	if err := w.validateSheetIndex(ix); err != nil {
		return err
	}
	if hidden {
		w.wb.BoundSheet(ix).Visibility = record.SHEET_HIDDEN
	} else {
		w.wb.BoundSheet(ix).Visibility = record.SHEET_VISIBLE
	}
	return nil
}

func (w *Workbook) sheetResolver() record.SheetResolver {
	return w.wb.ResolveExtern
}
