package hssf

import (
	"strings"

	"github.com/HasaanA16/poi/hssf/model"
)

// The format indexes every workbook understands without a FORMAT record.
// Indexes 0x17 to 0x24 vary by locale and are left out.
var builtinFormats = map[uint16]string{
	0x00: "General",
	0x01: "0",
	0x02: "0.00",
	0x03: "#,##0",
	0x04: "#,##0.00",
	0x05: `"$"#,##0_);("$"#,##0)`,
	0x06: `"$"#,##0_);[Red]("$"#,##0)`,
	0x07: `"$"#,##0.00_);("$"#,##0.00)`,
	0x08: `"$"#,##0.00_);[Red]("$"#,##0.00)`,
	0x09: "0%",
	0x0A: "0.00%",
	0x0B: "0.00E+00",
	0x0C: "# ?/?",
	0x0D: "# ??/??",
	0x0E: "m/d/yy",
	0x0F: "d-mmm-yy",
	0x10: "d-mmm",
	0x11: "mmm-yy",
	0x12: "h:mm AM/PM",
	0x13: "h:mm:ss AM/PM",
	0x14: "h:mm",
	0x15: "h:mm:ss",
	0x16: "m/d/yy h:mm",
	0x25: "#,##0_);(#,##0)",
	0x26: "#,##0_);[Red](#,##0)",
	0x27: "#,##0.00_);(#,##0.00)",
	0x28: "#,##0.00_);[Red](#,##0.00)",
	0x29: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	0x2A: `_("$"* #,##0_);_("$"* (#,##0);_("$"* "-"_);_(@_)`,
	0x2B: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	0x2C: `_("$"* #,##0.00_);_("$"* (#,##0.00);_("$"* "-"??_);_(@_)`,
	0x2D: "mm:ss",
	0x2E: "[h]:mm:ss",
	0x2F: "mm:ss.0",
	0x30: "##0.0E+0",
	0x31: "@",
}

// FIRST_USER_DEFINED_FORMAT is the lowest index FORMAT records written by
// this package ever take.
const FIRST_USER_DEFINED_FORMAT = 0xA4

// BuiltinFormat returns the builtin index for a format string, or -1.
func BuiltinFormat(text string) int {
	if strings.EqualFold(text, "TEXT") {
		text = "@"
	}
	for ix, s := range builtinFormats {
		if s == text {
			return int(ix)
		}
	}
	return -1
}

// BuiltinFormatString returns the format text of a builtin index, or "".
func BuiltinFormatString(ix uint16) string {
	return builtinFormats[ix]
}

// DataFormat maps between number format strings and the indexes cell
// styles hold.
type DataFormat struct {
	wb *model.Workbook
}

// CreateDataFormat returns the workbook's number format table.
func (w *Workbook) CreateDataFormat() *DataFormat {
	return &DataFormat{wb: w.wb}
}

// Format returns the index for a format string, reusing a builtin index or
// an identical FORMAT record and minting a new record otherwise. "TEXT" is
// accepted as an alias for "@".
func (d *DataFormat) Format(text string) uint16 {
	if strings.EqualFold(text, "TEXT") {
		text = "@"
	}
	if ix := BuiltinFormat(text); ix >= 0 {
		return uint16(ix)
	}
	return uint16(d.wb.AddFormat(text))
}

// FormatString returns the format text for an index. FORMAT records in the
// workbook win over the builtin table; an unknown index returns "".
func (d *DataFormat) FormatString(ix uint16) string {
	if s := d.wb.FormatStringAt(int(ix)); s != "" {
		return s
	}
	return builtinFormats[ix]
}
