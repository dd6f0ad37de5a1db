package hssf

import (
	"github.com/HasaanA16/poi/hssf/model"
)

// Sheet is one worksheet of an open workbook. Selection and activation
// flags live on the sheet's window record; the workbook-level setters keep
// them consistent with the window record of the workbook itself.
type Sheet struct {
	wb    *Workbook
	model *model.Sheet
}

// Workbook returns the workbook this sheet belongs to.
func (s *Sheet) Workbook() *Workbook {
	return s.wb
}

// Index returns the sheet's current position in the workbook, or -1 when
// it has been removed.
func (s *Sheet) Index() int {
	for i, c := range s.wb.sheets {
		if c == s {
			return i
		}
	}
	return -1
}

// Name returns the sheet's display name.
func (s *Sheet) Name() string {
	ix := s.Index()
	if ix < 0 {
		return ""
	}
	return s.wb.wb.SheetName(ix)
}

// Selected reports whether the sheet's tab is part of the tab selection.
func (s *Sheet) Selected() bool {
	w2 := s.model.WindowTwo()
	return w2 != nil && w2.Selected()
}

// SetSelected adds or removes this sheet's tab from the selection without
// touching any other sheet. Workbook.SetSelectedTab is the exclusive form.
func (s *Sheet) SetSelected(sel bool) {
	s.setSelected(sel)
}

// Active reports whether this is the displayed sheet.
func (s *Sheet) Active() bool {
	w2 := s.model.WindowTwo()
	return w2 != nil && w2.Active()
}

func (s *Sheet) setSelected(sel bool) {
	if w2 := s.model.WindowTwo(); w2 != nil {
		w2.SetSelected(sel)
	}
}

func (s *Sheet) setActive(act bool) {
	if w2 := s.model.WindowTwo(); w2 != nil {
		w2.SetActive(act)
	}
}
