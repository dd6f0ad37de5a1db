package hssf

import (
	"strings"
	"unicode"

	"github.com/HasaanA16/poi/hssf/model"
	"github.com/HasaanA16/poi/hssf/record"
)

// Name is one defined name of an open workbook. All state lives on the
// underlying record, so handles to the same name stay interchangeable.
type Name struct {
	wb  *Workbook
	rec *record.NameRecord
}

// CreateName adds a workbook-scoped defined name with no reference yet.
func (w *Workbook) CreateName(name string) (*Name, error) {
	n := &Name{wb: w, rec: record.NewNameRecord("")}
	if err := n.SetNameText(name); err != nil {
		return nil, err
	}
	w.wb.AddName(n.rec)
	return n, nil
}

// NumberOfNames returns the number of defined names, builtins included.
func (w *Workbook) NumberOfNames() int {
	return w.wb.NumNames()
}

// NameAt returns the defined name at the given position.
func (w *Workbook) NameAt(ix int) (*Name, error) {
	nNames := w.wb.NumNames()
	if nNames < 1 {
		return nil, model.NewInvalidStateError("There are no defined names in this workbook")
	}
	if ix < 0 || ix >= nNames {
		return nil, model.NewInvalidArgumentError(
			"Specified name index %d is outside the allowable range (0..%d).", ix, nNames-1)
	}
	return &Name{wb: w, rec: w.wb.NameAt(ix)}, nil
}

// NameIndex returns the position of the defined name with the given text,
// compared case-insensitively, or -1.
func (w *Workbook) NameIndex(name string) int {
	for i := 0; i < w.wb.NumNames(); i++ {
		if strings.EqualFold(w.wb.NameAt(i).Name(), name) {
			return i
		}
	}
	return -1
}

// Name returns the defined name with the given text, or nil.
func (w *Workbook) Name(name string) *Name {
	ix := w.NameIndex(name)
	if ix < 0 {
		return nil
	}
	return &Name{wb: w, rec: w.wb.NameAt(ix)}
}

// RemoveNameAt removes the defined name at the given position.
func (w *Workbook) RemoveNameAt(ix int) error {
	if _, err := w.NameAt(ix); err != nil {
		return err
	}
	w.wb.RemoveName(ix)
	return nil
}

// RemoveName removes the defined name with the given text.
func (w *Workbook) RemoveName(name string) error {
	ix := w.NameIndex(name)
	if ix < 0 {
		return model.NewInvalidArgumentError("no defined name '%s' in this workbook", name)
	}
	w.wb.RemoveName(ix)
	return nil
}

// NameText returns the name's text, translating builtin IDs to their
// usual labels.
func (n *Name) NameText() string {
	return n.rec.Name()
}

// SetNameText renames the defined name. The text must start with a letter
// or underscore, hold no spaces, and not collide case-insensitively with
// another name of the same scope. Nothing is mutated on rejection.
func (n *Name) SetNameText(name string) error {
	if err := validateNameText(name); err != nil {
		return err
	}
	for i := 0; i < n.wb.wb.NumNames(); i++ {
		other := n.wb.wb.NameAt(i)
		if other == n.rec || other.SheetNumber != n.rec.SheetNumber {
			continue
		}
		if strings.EqualFold(other.Name(), name) {
			kind := "workbook"
			if n.rec.SheetNumber != 0 {
				kind = "sheet"
			}
			return model.NewInvalidArgumentError("The %s already contains this name: %s", kind, name)
		}
	}
	n.rec.NameText = name
	return nil
}

func validateNameText(name string) error {
	runes := []rune(name)
	if len(runes) == 0 {
		return model.NewInvalidArgumentError("Name cannot be blank")
	}
	first := runes[0]
	if (first != '_' && !unicode.IsLetter(first)) || strings.ContainsRune(name, ' ') {
		return model.NewInvalidArgumentError(
			"Invalid name: '%s'; Names must begin with a letter or underscore and not contain spaces", name)
	}
	return nil
}

// SheetIndex returns the sheet the name is scoped to, or -1 for a
// workbook-scoped name.
func (n *Name) SheetIndex() int {
	return int(n.rec.SheetNumber) - 1
}

// SetSheetIndex scopes the name to the sheet at ix, or to the whole
// workbook when ix is -1.
func (n *Name) SetSheetIndex(ix int) error {
	last := n.wb.SheetCount() - 1
	if ix < -1 || ix > last {
		if last < 0 {
			return model.NewInvalidArgumentError("Sheet index (%d) is out of range", ix)
		}
		return model.NewInvalidArgumentError("Sheet index (%d) is out of range (0..%d)", ix, last)
	}
	n.rec.SheetNumber = uint16(ix + 1)
	return nil
}

// RefersTo renders the name's reference formula. A reference whose sheet
// was deleted renders as #REF!; a name with no formula renders empty.
func (n *Name) RefersTo() string {
	return n.wb.renderPtgs(n.rec.Ptgs)
}

// SetRefersTo points the name at a cell or area reference, such as
// "Sheet1!$A$1" or "'Budget 2004'!A1:D4".
func (n *Name) SetRefersTo(formula string) error {
	ptgs, err := n.wb.parseReferenceFormula(formula)
	if err != nil {
		return err
	}
	n.rec.Ptgs = ptgs
	return nil
}

// IsDeleted reports whether any reference in the name's formula points at
// a deleted sheet.
func (n *Name) IsDeleted() bool {
	resolve := n.wb.sheetResolver()
	for _, p := range n.rec.Ptgs {
		switch t := p.(type) {
		case *record.Ref3DPtg:
			if _, _, ok := resolve(int(t.ExternIdx)); !ok {
				return true
			}
		case *record.Area3DPtg:
			if _, _, ok := resolve(int(t.ExternIdx)); !ok {
				return true
			}
		}
	}
	return false
}

// IsHidden reports whether the name is hidden from the name box.
func (n *Name) IsHidden() bool {
	return n.rec.IsHidden()
}
