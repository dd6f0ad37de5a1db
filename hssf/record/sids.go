package record

import "fmt"

// Record type constants. Names follow the short names used in the format
// documentation.
const (
	XL_BOF    = 0x0809
	XL_BOF_B4 = 0x0409
	XL_BOF_B3 = 0x0209
	XL_BOF_B2 = 0x0009

	XL_EOF      = 0x000A
	XL_CONTINUE = 0x003C

	XL_BOUNDSHEET  = 0x0085
	XL_WINDOW1     = 0x003D
	XL_WINDOW2     = 0x023E
	XL_SELECTION   = 0x001D
	XL_DIMENSION   = 0x0200
	XL_SUPBOOK     = 0x01AE // aka EXTERNALBOOK
	XL_EXTERNSHEET = 0x0017
	XL_NAME        = 0x0018
	XL_COUNTRY     = 0x008C
	XL_DATEMODE    = 0x0022
	XL_CODEPAGE    = 0x0042
	XL_TABID       = 0x013D
	XL_WRITEACCESS = 0x005C

	XL_FONT   = 0x0031
	XL_FORMAT = 0x041E
	XL_XF     = 0x00E0
	XL_STYLE  = 0x0293

	XL_SST    = 0x00FC
	XL_EXTSST = 0x00FF

	XL_MSO_DRAWING_GROUP     = 0x00EB
	XL_MSO_DRAWING           = 0x00EC
	XL_MSO_DRAWING_SELECTION = 0x00ED

	XL_INTERFACEHDR  = 0x00E1
	XL_MMS           = 0x00C1
	XL_INTERFACEEND  = 0x00E2
	XL_DSF           = 0x0161
	XL_FNGROUPCOUNT  = 0x009C
	XL_WINDOWPROTECT = 0x0019
	XL_PROTECT       = 0x0012
	XL_PASSWORD      = 0x0013
	XL_PROT4REV      = 0x01AF
	XL_PROT4REVPASS  = 0x01BC
	XL_BACKUP        = 0x0040
	XL_HIDEOBJ       = 0x008D
	XL_PRECISION     = 0x000E
	XL_REFRESHALL    = 0x01B7
	XL_BOOKBOOL      = 0x00DA
	XL_USESELFS      = 0x0160

	XL_CALCMODE         = 0x000D
	XL_CALCCOUNT        = 0x000C
	XL_REFMODE          = 0x000F
	XL_ITERATION        = 0x0011
	XL_DELTA            = 0x0010
	XL_SAVERECALC       = 0x005F
	XL_PRINTHEADERS     = 0x002A
	XL_PRINTGRIDLINES   = 0x002B
	XL_GRIDSET          = 0x0082
	XL_GUTS             = 0x0080
	XL_DEFAULTROWHEIGHT = 0x0225
	XL_WSBOOL           = 0x0081
	XL_HEADER           = 0x0014
	XL_FOOTER           = 0x0015
	XL_HCENTER          = 0x0083
	XL_VCENTER          = 0x0084
	XL_PAGESETUP        = 0x00A1
	XL_INDEX            = 0x020B

	XL_ROW         = 0x0208
	XL_BLANK       = 0x0201
	XL_MULBLANK    = 0x00BE
	XL_RK          = 0x027E
	XL_MULRK       = 0x00BD
	XL_NUMBER      = 0x0203
	XL_LABEL       = 0x0204
	XL_LABELSST    = 0x00FD
	XL_BOOLERR     = 0x0205
	XL_FORMULA     = 0x0006
	XL_STRING      = 0x0207
	XL_RSTRING     = 0x00D6
	XL_SHRFMLA     = 0x04BC
	XL_ARRAY       = 0x0221
	XL_COLINFO     = 0x007D
	XL_DEFCOLWIDTH = 0x0055
	XL_MERGEDCELLS = 0x00E5
	XL_OBJ         = 0x005D
	XL_NOTE        = 0x001C
	XL_TXO         = 0x01B6
	XL_HLINK       = 0x01B8
	XL_PALETTE     = 0x0092
	XL_SCL         = 0x00A0
	XL_PANE        = 0x0041
	XL_FILEPASS    = 0x002F
	XL_UNCALCED    = 0x005E
)

// BOF stream types.
const (
	XL_WORKBOOK_GLOBALS = 0x0005
	XL_WORKSHEET        = 0x0010
	XL_CHART            = 0x0020
	XL_MACRO_SHEET      = 0x0040
)

// Boundsheet sheet types.
const (
	XL_BOUNDSHEET_WORKSHEET = 0x00
	XL_BOUNDSHEET_CHART     = 0x02
	XL_BOUNDSHEET_VB_MODULE = 0x06
)

// Boundsheet visibility states.
const (
	SHEET_VISIBLE     = 0
	SHEET_HIDDEN      = 1
	SHEET_VERY_HIDDEN = 2
)

var recordNames = map[uint16]string{
	XL_BOF:                   "BOF",
	XL_EOF:                   "EOF",
	XL_CONTINUE:              "CONTINUE",
	XL_BOUNDSHEET:            "BOUNDSHEET",
	XL_WINDOW1:               "WINDOW1",
	XL_WINDOW2:               "WINDOW2",
	XL_SELECTION:             "SELECTION",
	XL_DIMENSION:             "DIMENSION",
	XL_SUPBOOK:               "SUPBOOK",
	XL_EXTERNSHEET:           "EXTERNSHEET",
	XL_NAME:                  "NAME",
	XL_COUNTRY:               "COUNTRY",
	XL_DATEMODE:              "DATEMODE",
	XL_CODEPAGE:              "CODEPAGE",
	XL_TABID:                 "TABID",
	XL_WRITEACCESS:           "WRITEACCESS",
	XL_FONT:                  "FONT",
	XL_FORMAT:                "FORMAT",
	XL_XF:                    "XF",
	XL_STYLE:                 "STYLE",
	XL_SST:                   "SST",
	XL_EXTSST:                "EXTSST",
	XL_MSO_DRAWING_GROUP:     "MSODRAWINGGROUP",
	XL_MSO_DRAWING:           "MSODRAWING",
	XL_MSO_DRAWING_SELECTION: "MSODRAWINGSELECTION",
	XL_INTERFACEHDR:          "INTERFACEHDR",
	XL_MMS:                   "MMS",
	XL_INTERFACEEND:          "INTERFACEEND",
	XL_DSF:                   "DSF",
	XL_FNGROUPCOUNT:          "FNGROUPCOUNT",
	XL_WINDOWPROTECT:         "WINDOWPROTECT",
	XL_PROTECT:               "PROTECT",
	XL_PASSWORD:              "PASSWORD",
	XL_PROT4REV:              "PROT4REV",
	XL_PROT4REVPASS:          "PROT4REVPASS",
	XL_BACKUP:                "BACKUP",
	XL_HIDEOBJ:               "HIDEOBJ",
	XL_PRECISION:             "PRECISION",
	XL_REFRESHALL:            "REFRESHALL",
	XL_BOOKBOOL:              "BOOKBOOL",
	XL_USESELFS:              "USESELFS",
	XL_CALCMODE:              "CALCMODE",
	XL_CALCCOUNT:             "CALCCOUNT",
	XL_REFMODE:               "REFMODE",
	XL_ITERATION:             "ITERATION",
	XL_DELTA:                 "DELTA",
	XL_SAVERECALC:            "SAVERECALC",
	XL_PRINTHEADERS:          "PRINTHEADERS",
	XL_PRINTGRIDLINES:        "PRINTGRIDLINES",
	XL_GRIDSET:               "GRIDSET",
	XL_GUTS:                  "GUTS",
	XL_DEFAULTROWHEIGHT:      "DEFAULTROWHEIGHT",
	XL_WSBOOL:                "WSBOOL",
	XL_HEADER:                "HEADER",
	XL_FOOTER:                "FOOTER",
	XL_HCENTER:               "HCENTER",
	XL_VCENTER:               "VCENTER",
	XL_PAGESETUP:             "PAGESETUP",
	XL_INDEX:                 "INDEX",
	XL_ROW:                   "ROW",
	XL_BLANK:                 "BLANK",
	XL_MULBLANK:              "MULBLANK",
	XL_RK:                    "RK",
	XL_MULRK:                 "MULRK",
	XL_NUMBER:                "NUMBER",
	XL_LABEL:                 "LABEL",
	XL_LABELSST:              "LABELSST",
	XL_BOOLERR:               "BOOLERR",
	XL_FORMULA:               "FORMULA",
	XL_STRING:                "STRING",
	XL_RSTRING:               "RSTRING",
	XL_SHRFMLA:               "SHRFMLA",
	XL_ARRAY:                 "ARRAY",
	XL_COLINFO:               "COLINFO",
	XL_DEFCOLWIDTH:           "DEFCOLWIDTH",
	XL_MERGEDCELLS:           "MERGEDCELLS",
	XL_OBJ:                   "OBJ",
	XL_NOTE:                  "NOTE",
	XL_TXO:                   "TXO",
	XL_HLINK:                 "HLINK",
	XL_PALETTE:               "PALETTE",
	XL_SCL:                   "SCL",
	XL_PANE:                  "PANE",
	XL_FILEPASS:              "FILEPASS",
	XL_UNCALCED:              "UNCALCED",
}

// Name returns a readable name for a record sid, or a hex form for sids
// outside the table.
func Name(sid uint16) string {
	if n, ok := recordNames[sid]; ok {
		return n
	}
	return fmt.Sprintf("UNKNOWN(0x%04X)", sid)
}
