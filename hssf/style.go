package hssf

import (
	"github.com/HasaanA16/poi/hssf/model"
	"github.com/HasaanA16/poi/hssf/record"
)

// Font boldness weights.
const (
	BOLDWEIGHT_NORMAL = 0x0190
	BOLDWEIGHT_BOLD   = 0x02BC
)

const fontAttrItalic = 0x0002

// CellStyle is a handle on one cell format. The table holding them is
// bounded; CreateCellStyle fails once it is full.
type CellStyle struct {
	wb    *Workbook
	index int
	xf    *record.ExtendedFormatRecord
}

// CreateCellStyle adds a cell format to the workbook's style table.
func (w *Workbook) CreateCellStyle() (*CellStyle, error) {
	ix, xf, err := w.wb.AddCellXF()
	if err != nil {
		return nil, err
	}
	return &CellStyle{wb: w, index: ix, xf: xf}, nil
}

// NumCellStyles returns the number of cell formats, the stock ones
// included.
func (w *Workbook) NumCellStyles() int {
	return w.wb.NumXFs()
}

// CellStyleAt returns the cell format at the given position.
func (w *Workbook) CellStyleAt(ix int) (*CellStyle, error) {
	xf := w.wb.XFAt(ix)
	if xf == nil {
		return nil, model.NewInvalidArgumentError(
			"cell style index (%d) is out of range (0..%d)", ix, w.wb.NumXFs()-1)
	}
	return &CellStyle{wb: w, index: ix, xf: xf}, nil
}

// Index returns the style's position in the style table.
func (s *CellStyle) Index() int {
	return s.index
}

// SetFont points the style at a font.
func (s *CellStyle) SetFont(f *Font) {
	s.xf.FontIndex = uint16(f.index)
}

// FontIndex returns the style's font table position.
func (s *CellStyle) FontIndex() int {
	return int(s.xf.FontIndex)
}

// SetDataFormat points the style at a number format index.
func (s *CellStyle) SetDataFormat(ix uint16) {
	s.xf.FormatIndex = ix
}

// DataFormat returns the style's number format index.
func (s *CellStyle) DataFormat() uint16 {
	return s.xf.FormatIndex
}

// DataFormatString returns the style's number format text.
func (s *CellStyle) DataFormatString() string {
	return s.wb.CreateDataFormat().FormatString(s.xf.FormatIndex)
}

// Font is a handle on one font table entry.
type Font struct {
	index int
	rec   *record.FontRecord
}

// CreateFont adds a font to the workbook's font table. The table's index
// four is never handed out; the format reserves it.
func (w *Workbook) CreateFont() *Font {
	ix, rec := w.wb.AddFont()
	return &Font{index: ix, rec: rec}
}

// NumberOfFonts returns the number of font records.
func (w *Workbook) NumberOfFonts() int {
	return w.wb.NumFonts()
}

// FontAt returns the font at the given index.
func (w *Workbook) FontAt(ix int) (*Font, error) {
	rec := w.wb.FontAt(ix)
	if rec == nil {
		return nil, model.NewInvalidArgumentError(
			"There are only %d font records, you asked for %d", w.wb.NumFonts(), ix)
	}
	return &Font{index: ix, rec: rec}, nil
}

// Index returns the font's table index, skipping the reserved slot.
func (f *Font) Index() int {
	return f.index
}

// FontName returns the font's face name.
func (f *Font) FontName() string {
	return f.rec.FontName
}

// SetFontName sets the font's face name.
func (f *Font) SetFontName(name string) {
	f.rec.FontName = name
}

// FontHeight returns the font height in twentieths of a point.
func (f *Font) FontHeight() uint16 {
	return f.rec.FontHeight
}

// SetFontHeight sets the font height in twentieths of a point.
func (f *Font) SetFontHeight(height uint16) {
	f.rec.FontHeight = height
}

// Bold reports whether the font weight is at least bold.
func (f *Font) Bold() bool {
	return f.rec.BoldWeight >= BOLDWEIGHT_BOLD
}

// SetBold switches the font weight between normal and bold.
func (f *Font) SetBold(bold bool) {
	if bold {
		f.rec.BoldWeight = BOLDWEIGHT_BOLD
	} else {
		f.rec.BoldWeight = BOLDWEIGHT_NORMAL
	}
}

// Italic reports whether the font is italic.
func (f *Font) Italic() bool {
	return f.rec.Attributes&fontAttrItalic != 0
}

// SetItalic sets the font's italic attribute.
func (f *Font) SetItalic(italic bool) {
	if italic {
		f.rec.Attributes |= fontAttrItalic
	} else {
		f.rec.Attributes &^= fontAttrItalic
	}
}
