package record

import (
	"encoding/binary"
)

// NameRecord option flag bits.
const (
	nameFlagHidden  = 0x0001
	nameFlagBuiltin = 0x0020
)

// Builtin name IDs.
const (
	BUILTIN_CONSOLIDATE_AREA = 0x01
	BUILTIN_AUTO_OPEN        = 0x02
	BUILTIN_AUTO_CLOSE       = 0x03
	BUILTIN_DATABASE         = 0x04
	BUILTIN_CRITERIA         = 0x05
	BUILTIN_PRINT_AREA       = 0x06
	BUILTIN_PRINT_TITLE      = 0x07
	BUILTIN_RECORDER         = 0x08
	BUILTIN_DATA_FORM        = 0x09
	BUILTIN_AUTO_ACTIVATE    = 0x0A
	BUILTIN_AUTO_DEACTIVATE  = 0x0B
	BUILTIN_SHEET_TITLE      = 0x0C
	BUILTIN_FILTER_DB        = 0x0D
)

var builtinNames = map[byte]string{
	BUILTIN_CONSOLIDATE_AREA: "Consolidate_Area",
	BUILTIN_AUTO_OPEN:        "Auto_Open",
	BUILTIN_AUTO_CLOSE:       "Auto_Close",
	BUILTIN_DATABASE:         "Database",
	BUILTIN_CRITERIA:         "Criteria",
	BUILTIN_PRINT_AREA:       "Print_Area",
	BUILTIN_PRINT_TITLE:      "Print_Titles",
	BUILTIN_RECORDER:         "Recorder",
	BUILTIN_DATA_FORM:        "Data_Form",
	BUILTIN_AUTO_ACTIVATE:    "Auto_Activate",
	BUILTIN_AUTO_DEACTIVATE:  "Auto_Deactivate",
	BUILTIN_SHEET_TITLE:      "Sheet_Title",
	BUILTIN_FILTER_DB:        "_FilterDatabase",
}

// NameRecord is one defined name: its text, its scope and its reference
// formula. The formula's reference tokens point into the extern sheet
// table, never directly at a sheet ordinal.
type NameRecord struct {
	OptionFlags      uint16
	KeyboardShortcut byte
	Unused           uint16
	SheetNumber      uint16
	NameText         string
	BuiltinID        byte
	Ptgs             []Ptg
	MenuText         string
	DescriptionText  string
	HelpTopicText    string
	StatusBarText    string
}

// NewNameRecord creates an empty workbook-scoped name.
func NewNameRecord(name string) *NameRecord {
	return &NameRecord{NameText: name}
}

// IsBuiltin reports whether this record holds a builtin name such as
// Print_Area rather than a user defined one.
func (r *NameRecord) IsBuiltin() bool {
	return r.OptionFlags&nameFlagBuiltin != 0
}

// IsHidden reports whether the name is hidden from the name box.
func (r *NameRecord) IsHidden() bool {
	return r.OptionFlags&nameFlagHidden != 0
}

// Name returns the name text, translating builtin IDs to their usual
// labels.
func (r *NameRecord) Name() string {
	if !r.IsBuiltin() {
		return r.NameText
	}
	if s, ok := builtinNames[r.BuiltinID]; ok {
		return s
	}
	return "Unknown"
}

func parseName(data []byte) (Record, error) {
	if len(data) < 14 {
		return nil, NewRecordFormatError("NAME record payload is %d bytes, expected at least 14", len(data))
	}
	r := &NameRecord{
		OptionFlags:      binary.LittleEndian.Uint16(data[0:2]),
		KeyboardShortcut: data[2],
		Unused:           binary.LittleEndian.Uint16(data[6:8]),
		SheetNumber:      binary.LittleEndian.Uint16(data[8:10]),
	}
	nameLen := int(data[3])
	formulaLen := int(binary.LittleEndian.Uint16(data[4:6]))
	menuLen := int(data[10])
	descLen := int(data[11])
	helpLen := int(data[12])
	statusLen := int(data[13])

	pos := 14
	if r.IsBuiltin() {
		// Builtin names store a one byte ID in place of the text.
		if pos >= len(data) {
			return nil, NewRecordFormatError("NAME record is truncated")
		}
		flags := data[pos]
		pos++
		width := 1
		if flags&strUTF16 != 0 {
			width = 2
		}
		if pos+nameLen*width > len(data) {
			return nil, NewRecordFormatError("NAME record is truncated")
		}
		if nameLen > 0 {
			r.BuiltinID = data[pos]
		}
		pos += nameLen * width
	} else {
		s, n, err := ReadUnicodeBody(data[pos:], nameLen)
		if err != nil {
			return nil, err
		}
		r.NameText = s
		pos += n
	}

	if pos+formulaLen > len(data) {
		return nil, NewRecordFormatError("NAME record declares a %d byte formula but only %d bytes remain", formulaLen, len(data)-pos)
	}
	r.Ptgs = ParsePtgs(data[pos : pos+formulaLen])
	pos += formulaLen

	for _, f := range []struct {
		length int
		dst    *string
	}{
		{menuLen, &r.MenuText},
		{descLen, &r.DescriptionText},
		{helpLen, &r.HelpTopicText},
		{statusLen, &r.StatusBarText},
	} {
		if f.length == 0 {
			continue
		}
		s, n, err := ReadUnicodeBody(data[pos:], f.length)
		if err != nil {
			return nil, err
		}
		*f.dst = s
		pos += n
	}
	return r, nil
}

func (r *NameRecord) Sid() uint16 { return XL_NAME }

func (r *NameRecord) nameBodySize() int {
	if r.IsBuiltin() {
		return 2
	}
	return UnicodeBodySize(r.NameText)
}

func (r *NameRecord) RecordSize() int {
	n := 4 + 14 + r.nameBodySize() + PtgsSize(r.Ptgs)
	for _, s := range []string{r.MenuText, r.DescriptionText, r.HelpTopicText, r.StatusBarText} {
		if s != "" {
			n += UnicodeBodySize(s)
		}
	}
	return n
}

func (r *NameRecord) Serialize(buf []byte) int {
	length := r.RecordSize() - 4
	putHeader(buf, XL_NAME, length)
	binary.LittleEndian.PutUint16(buf[4:6], r.OptionFlags)
	buf[6] = r.KeyboardShortcut
	if r.IsBuiltin() {
		buf[7] = 1
	} else {
		buf[7] = byte(unicodeCharCount(r.NameText))
	}
	binary.LittleEndian.PutUint16(buf[8:10], uint16(PtgsSize(r.Ptgs)))
	binary.LittleEndian.PutUint16(buf[10:12], r.Unused)
	binary.LittleEndian.PutUint16(buf[12:14], r.SheetNumber)
	buf[14] = byte(unicodeCharCount(r.MenuText))
	buf[15] = byte(unicodeCharCount(r.DescriptionText))
	buf[16] = byte(unicodeCharCount(r.HelpTopicText))
	buf[17] = byte(unicodeCharCount(r.StatusBarText))

	pos := 18
	if r.IsBuiltin() {
		buf[pos] = 0
		buf[pos+1] = r.BuiltinID
		pos += 2
	} else {
		pos += WriteUnicodeBody(buf[pos:], r.NameText)
	}
	pos += WritePtgs(buf[pos:], r.Ptgs)
	for _, s := range []string{r.MenuText, r.DescriptionText, r.HelpTopicText, r.StatusBarText} {
		if s != "" {
			pos += WriteUnicodeBody(buf[pos:], s)
		}
	}
	return pos
}

func (r *NameRecord) Clone() Record {
	c := *r
	c.Ptgs = ClonePtgs(r.Ptgs)
	return &c
}
