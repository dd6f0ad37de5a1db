package hssf

import (
	"strings"

	"github.com/xuri/efp"

	"github.com/HasaanA16/poi/hssf/model"
	"github.com/HasaanA16/poi/hssf/record"
)

// parseReferenceFormula turns reference text such as "A1", "$B$2:C3" or
// "'Budget 2004'!A1:D4" into formula tokens. A sheet-qualified reference
// creates the extern sheet entry it resolves through, so the token stays
// valid across sheet reorders.
func (w *Workbook) parseReferenceFormula(text string) ([]record.Ptg, error) {
	ref, err := singleRangeOperand(text)
	if err != nil {
		return nil, err
	}
	sheetName, cellPart := splitSheetReference(ref)
	externIdx := -1
	if sheetName != "" {
		ix := w.SheetIndex(sheetName)
		if ix < 0 {
			return nil, model.NewInvalidArgumentError("Sheet '%s' does not exist in this workbook", sheetName)
		}
		externIdx, err = w.wb.CheckExternSheet(ix)
		if err != nil {
			return nil, err
		}
	}
	first, last, isArea := strings.Cut(cellPart, ":")
	fRow, fCol, err := record.ParseCellText(first)
	if err != nil {
		return nil, model.NewInvalidArgumentError("cannot parse reference formula '%s': %v", text, err)
	}
	if !isArea {
		if externIdx >= 0 {
			return []record.Ptg{record.NewRef3DPtg(uint16(externIdx), fRow, fCol)}, nil
		}
		return []record.Ptg{&record.RefPtg{ID: record.PTG_REF, Row: fRow, Col: fCol}}, nil
	}
	lRow, lCol, err := record.ParseCellText(last)
	if err != nil {
		return nil, model.NewInvalidArgumentError("cannot parse reference formula '%s': %v", text, err)
	}
	if externIdx >= 0 {
		return []record.Ptg{record.NewArea3DPtg(uint16(externIdx), fRow, lRow, fCol, lCol)}, nil
	}
	return []record.Ptg{&record.AreaPtg{
		ID:       record.PTG_AREA,
		FirstRow: fRow,
		LastRow:  lRow,
		FirstCol: fCol,
		LastCol:  lCol,
	}}, nil
}

// singleRangeOperand tokenizes formula text and returns its sole range
// operand, with sheet-name quoting already unwrapped by the tokenizer. A
// defined name in this format can only hold the plain reference shapes, so
// anything more structured is rejected.
func singleRangeOperand(text string) (string, error) {
	formula := strings.TrimPrefix(strings.TrimSpace(text), "=")
	ps := efp.ExcelParser()
	ref := ""
	for _, t := range ps.Parse(formula) {
		if t.TType == efp.TokenTypeWhitespace {
			continue
		}
		if t.TType == efp.TokenTypeOperand && t.TSubType == efp.TokenSubTypeRange && ref == "" {
			ref = t.TValue
			continue
		}
		return "", model.NewInvalidArgumentError(
			"unsupported reference formula '%s': only cell and area references can back a defined name", text)
	}
	if ref == "" {
		return "", model.NewInvalidArgumentError(
			"unsupported reference formula '%s': only cell and area references can back a defined name", text)
	}
	return ref, nil
}

// splitSheetReference splits a range operand at its last '!'. Sheet names
// may contain '!', cell coordinates never do.
func splitSheetReference(ref string) (sheet, cell string) {
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return "", ref
}

// renderPtgs renders formula tokens back to reference text. A token whose
// extern entry points at a deleted sheet renders as #REF!.
func (w *Workbook) renderPtgs(ptgs []record.Ptg) string {
	resolve := w.sheetResolver()
	var b strings.Builder
	for _, p := range ptgs {
		b.WriteString(p.Render(resolve))
	}
	return b.String()
}
