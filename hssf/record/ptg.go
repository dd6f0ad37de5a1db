package record

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Reference formula tokens. Only the reference shapes a defined name can
// hold are decoded; anything else is kept opaque so it round-trips.
const (
	PTG_REF    = 0x24
	PTG_AREA   = 0x25
	PTG_REF3D  = 0x3A
	PTG_AREA3D = 0x3B
)

// Value and array class variants of the base token IDs.
const (
	ptgClassValue = 0x20
	ptgClassArray = 0x40
)

// Column field flag bits. A set bit means the coordinate is relative.
const (
	rowRelative  = 0x8000
	colRelative  = 0x4000
	colIndexMask = 0x00FF
)

// REF_ERROR_TEXT is how a reference whose sheet no longer exists renders.
const REF_ERROR_TEXT = "#REF!"

// SheetResolver maps an extern entry index to the sheet span it points at.
// ok is false when the entry's sheet was deleted.
type SheetResolver func(externIdx int) (first, last string, ok bool)

// Ptg is one parsed formula token.
type Ptg interface {
	PtgSize() int
	WritePtg(buf []byte) int
	ClonePtg() Ptg
	Render(resolve SheetResolver) string
}

// RefPtg is a single cell reference without a sheet part.
type RefPtg struct {
	ID  byte
	Row uint16
	Col uint16
}

func (p *RefPtg) PtgSize() int { return 5 }

func (p *RefPtg) WritePtg(buf []byte) int {
	buf[0] = p.ID
	binary.LittleEndian.PutUint16(buf[1:], p.Row)
	binary.LittleEndian.PutUint16(buf[3:], p.Col)
	return 5
}

func (p *RefPtg) ClonePtg() Ptg {
	c := *p
	return &c
}

func (p *RefPtg) Render(resolve SheetResolver) string {
	return cellText(p.Row, p.Col)
}

// AreaPtg is a cell range reference without a sheet part.
type AreaPtg struct {
	ID       byte
	FirstRow uint16
	LastRow  uint16
	FirstCol uint16
	LastCol  uint16
}

func (p *AreaPtg) PtgSize() int { return 9 }

func (p *AreaPtg) WritePtg(buf []byte) int {
	buf[0] = p.ID
	binary.LittleEndian.PutUint16(buf[1:], p.FirstRow)
	binary.LittleEndian.PutUint16(buf[3:], p.LastRow)
	binary.LittleEndian.PutUint16(buf[5:], p.FirstCol)
	binary.LittleEndian.PutUint16(buf[7:], p.LastCol)
	return 9
}

func (p *AreaPtg) ClonePtg() Ptg {
	c := *p
	return &c
}

func (p *AreaPtg) Render(resolve SheetResolver) string {
	return cellText(p.FirstRow, p.FirstCol) + ":" + cellText(p.LastRow, p.LastCol)
}

// Ref3DPtg is a single cell reference through the extern sheet table.
type Ref3DPtg struct {
	ID        byte
	ExternIdx uint16
	Row       uint16
	Col       uint16
}

// NewRef3DPtg creates a reference class 3D cell token.
func NewRef3DPtg(externIdx, row, col uint16) *Ref3DPtg {
	return &Ref3DPtg{ID: PTG_REF3D, ExternIdx: externIdx, Row: row, Col: col}
}

func (p *Ref3DPtg) PtgSize() int { return 7 }

func (p *Ref3DPtg) WritePtg(buf []byte) int {
	buf[0] = p.ID
	binary.LittleEndian.PutUint16(buf[1:], p.ExternIdx)
	binary.LittleEndian.PutUint16(buf[3:], p.Row)
	binary.LittleEndian.PutUint16(buf[5:], p.Col)
	return 7
}

func (p *Ref3DPtg) ClonePtg() Ptg {
	c := *p
	return &c
}

func (p *Ref3DPtg) Render(resolve SheetResolver) string {
	first, last, ok := resolve(int(p.ExternIdx))
	if !ok {
		return REF_ERROR_TEXT + cellText(p.Row, p.Col)
	}
	return sheetSpanText(first, last) + "!" + cellText(p.Row, p.Col)
}

// Area3DPtg is a cell range reference through the extern sheet table.
type Area3DPtg struct {
	ID        byte
	ExternIdx uint16
	FirstRow  uint16
	LastRow   uint16
	FirstCol  uint16
	LastCol   uint16
}

// NewArea3DPtg creates a reference class 3D area token.
func NewArea3DPtg(externIdx, firstRow, lastRow, firstCol, lastCol uint16) *Area3DPtg {
	return &Area3DPtg{
		ID:        PTG_AREA3D,
		ExternIdx: externIdx,
		FirstRow:  firstRow,
		LastRow:   lastRow,
		FirstCol:  firstCol,
		LastCol:   lastCol,
	}
}

func (p *Area3DPtg) PtgSize() int { return 11 }

func (p *Area3DPtg) WritePtg(buf []byte) int {
	buf[0] = p.ID
	binary.LittleEndian.PutUint16(buf[1:], p.ExternIdx)
	binary.LittleEndian.PutUint16(buf[3:], p.FirstRow)
	binary.LittleEndian.PutUint16(buf[5:], p.LastRow)
	binary.LittleEndian.PutUint16(buf[7:], p.FirstCol)
	binary.LittleEndian.PutUint16(buf[9:], p.LastCol)
	return 11
}

func (p *Area3DPtg) ClonePtg() Ptg {
	c := *p
	return &c
}

func (p *Area3DPtg) Render(resolve SheetResolver) string {
	first, last, ok := resolve(int(p.ExternIdx))
	if !ok {
		return REF_ERROR_TEXT + cellText(p.FirstRow, p.FirstCol) + ":" + cellText(p.LastRow, p.LastCol)
	}
	return sheetSpanText(first, last) + "!" +
		cellText(p.FirstRow, p.FirstCol) + ":" + cellText(p.LastRow, p.LastCol)
}

// OpaquePtg carries token bytes this package does not interpret. It always
// swallows the rest of the formula, so foreign token streams survive a
// round-trip byte for byte.
type OpaquePtg struct {
	Raw []byte
}

func (p *OpaquePtg) PtgSize() int { return len(p.Raw) }

func (p *OpaquePtg) WritePtg(buf []byte) int {
	copy(buf, p.Raw)
	return len(p.Raw)
}

func (p *OpaquePtg) ClonePtg() Ptg {
	raw := make([]byte, len(p.Raw))
	copy(raw, p.Raw)
	return &OpaquePtg{Raw: raw}
}

func (p *OpaquePtg) Render(resolve SheetResolver) string {
	return "#UNKNOWN!"
}

// ParsePtgs decodes a token stream. Unknown or truncated tokens become one
// trailing OpaquePtg; the function never fails.
func ParsePtgs(data []byte) []Ptg {
	var ptgs []Ptg
	pos := 0
	for pos < len(data) {
		id := data[pos]
		rest := data[pos:]
		var p Ptg
		switch id {
		case PTG_REF, PTG_REF + ptgClassValue, PTG_REF + ptgClassArray:
			if len(rest) < 5 {
				break
			}
			p = &RefPtg{ID: id, Row: binary.LittleEndian.Uint16(rest[1:]), Col: binary.LittleEndian.Uint16(rest[3:])}
		case PTG_AREA, PTG_AREA + ptgClassValue, PTG_AREA + ptgClassArray:
			if len(rest) < 9 {
				break
			}
			p = &AreaPtg{
				ID:       id,
				FirstRow: binary.LittleEndian.Uint16(rest[1:]),
				LastRow:  binary.LittleEndian.Uint16(rest[3:]),
				FirstCol: binary.LittleEndian.Uint16(rest[5:]),
				LastCol:  binary.LittleEndian.Uint16(rest[7:]),
			}
		case PTG_REF3D, PTG_REF3D + ptgClassValue, PTG_REF3D + ptgClassArray:
			if len(rest) < 7 {
				break
			}
			p = &Ref3DPtg{
				ID:        id,
				ExternIdx: binary.LittleEndian.Uint16(rest[1:]),
				Row:       binary.LittleEndian.Uint16(rest[3:]),
				Col:       binary.LittleEndian.Uint16(rest[5:]),
			}
		case PTG_AREA3D, PTG_AREA3D + ptgClassValue, PTG_AREA3D + ptgClassArray:
			if len(rest) < 11 {
				break
			}
			p = &Area3DPtg{
				ID:        id,
				ExternIdx: binary.LittleEndian.Uint16(rest[1:]),
				FirstRow:  binary.LittleEndian.Uint16(rest[3:]),
				LastRow:   binary.LittleEndian.Uint16(rest[5:]),
				FirstCol:  binary.LittleEndian.Uint16(rest[7:]),
				LastCol:   binary.LittleEndian.Uint16(rest[9:]),
			}
		}
		if p == nil {
			raw := make([]byte, len(rest))
			copy(raw, rest)
			ptgs = append(ptgs, &OpaquePtg{Raw: raw})
			break
		}
		ptgs = append(ptgs, p)
		pos += p.PtgSize()
	}
	return ptgs
}

// PtgsSize sums the encoded size of a token list.
func PtgsSize(ptgs []Ptg) int {
	n := 0
	for _, p := range ptgs {
		n += p.PtgSize()
	}
	return n
}

// WritePtgs encodes a token list into buf and returns the bytes written.
func WritePtgs(buf []byte, ptgs []Ptg) int {
	pos := 0
	for _, p := range ptgs {
		pos += p.WritePtg(buf[pos:])
	}
	return pos
}

// ClonePtgs deep-copies a token list.
func ClonePtgs(ptgs []Ptg) []Ptg {
	if ptgs == nil {
		return nil
	}
	out := make([]Ptg, len(ptgs))
	for i, p := range ptgs {
		out[i] = p.ClonePtg()
	}
	return out
}

// colName returns the column name for a 0-based column index.
// colName(0) is "A", colName(26) is "AA", colName(255) is "IV".
func colName(colx int) string {
	alphabet := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if colx <= 25 {
		return string(alphabet[colx])
	}
	return string(alphabet[colx/26-1]) + string(alphabet[colx%26])
}

// cellText renders one cell coordinate, honoring the relative flag bits in
// the column field. Absolute coordinates get a leading dollar sign.
func cellText(row, col uint16) string {
	var b strings.Builder
	if col&colRelative == 0 {
		b.WriteByte('$')
	}
	b.WriteString(colName(int(col & colIndexMask)))
	if col&rowRelative == 0 {
		b.WriteByte('$')
	}
	fmt.Fprintf(&b, "%d", int(row)+1)
	return b.String()
}

// ParseCellText parses a cell coordinate such as "$A$1" or "B2" into a row
// and a column field with the relative flag bits set for undollared parts.
func ParseCellText(s string) (row, col uint16, err error) {
	orig := s
	flags := uint16(0)
	if strings.HasPrefix(s, "$") {
		s = s[1:]
	} else {
		flags |= colRelative
	}
	i := 0
	colx := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		colx = colx*26 + int(s[i]-'A') + 1
		i++
	}
	if i == 0 || i > 2 || colx > 256 {
		return 0, 0, fmt.Errorf("invalid cell reference %q", orig)
	}
	colx--
	s = s[i:]
	if strings.HasPrefix(s, "$") {
		s = s[1:]
	} else {
		flags |= rowRelative
	}
	rowx := 0
	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		rowx = rowx*10 + int(s[digits]-'0')
		digits++
	}
	if digits == 0 || digits < len(s) || rowx < 1 || rowx > 65536 {
		return 0, 0, fmt.Errorf("invalid cell reference %q", orig)
	}
	return uint16(rowx - 1), uint16(colx) | flags, nil
}

// QuotedSheetName quotes a sheet name for formula text if necessary.
func QuotedSheetName(name string) string {
	if strings.Contains(name, "'") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	if strings.Contains(name, " ") {
		return "'" + name + "'"
	}
	return name
}

func sheetSpanText(first, last string) string {
	if first == last {
		return QuotedSheetName(first)
	}
	return QuotedSheetName(first) + ":" + QuotedSheetName(last)
}

