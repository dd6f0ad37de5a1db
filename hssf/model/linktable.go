package model

import (
	"github.com/HasaanA16/poi/hssf/record"
)

// sheetHandle tracks one sheet across structural changes. The ordinal is
// the sheet's current position; it becomes -1 once the sheet is deleted and
// never points anywhere again.
type sheetHandle struct {
	ordinal int
}

var deletedHandle = &sheetHandle{ordinal: -1}

// linkEntry is the live form of one extern sheet table entry. Internal
// entries hold sheet handles instead of ordinals, so reordering sheets
// never breaks them and deleting a sheet degrades them in place.
type linkEntry struct {
	supBook  uint16
	internal bool
	first    *sheetHandle
	last     *sheetHandle
	rawFirst uint16
	rawLast  uint16
}

// LinkTable wraps the supporting book and extern sheet records. Reference
// tokens address sheets through its entries, never by ordinal.
type LinkTable struct {
	supBooks    []*record.SupBookRecord
	internal    *record.SupBookRecord
	internalIdx int
	externSheet *record.ExternSheetRecord
	entries     []linkEntry
}

// newLinkTable builds the table for a fresh workbook. The caller inserts
// the two records into the globals stream.
func newLinkTable(numSheets int) *LinkTable {
	internal := record.NewInternalSupBook(uint16(numSheets))
	return &LinkTable{
		supBooks:    []*record.SupBookRecord{internal},
		internal:    internal,
		internalIdx: 0,
		externSheet: &record.ExternSheetRecord{},
	}
}

// readLinkTable wires the decoded records to the sheet handles. Entries
// whose sheet index is out of range or already marked deleted resolve to
// the dead handle.
func readLinkTable(supBooks []*record.SupBookRecord, externSheet *record.ExternSheetRecord, handles []*sheetHandle) *LinkTable {
	lt := &LinkTable{
		supBooks:    supBooks,
		internalIdx: -1,
		externSheet: externSheet,
	}
	for i, sb := range supBooks {
		if sb.Internal {
			lt.internal = sb
			lt.internalIdx = i
			break
		}
	}
	for _, e := range externSheet.Entries {
		le := linkEntry{supBook: e.SupBookIndex, rawFirst: e.FirstSheetIndex, rawLast: e.LastSheetIndex}
		if int(e.SupBookIndex) == lt.internalIdx && lt.internalIdx >= 0 {
			le.internal = true
			le.first = handleFor(handles, e.FirstSheetIndex)
			le.last = handleFor(handles, e.LastSheetIndex)
		}
		lt.entries = append(lt.entries, le)
	}
	return lt
}

func handleFor(handles []*sheetHandle, ix uint16) *sheetHandle {
	if ix == record.DELETED_SHEET_INDEX || int(ix) >= len(handles) {
		return deletedHandle
	}
	return handles[ix]
}

// Records returns the wire records the table is built over, supporting book
// records first.
func (lt *LinkTable) Records() []record.Record {
	out := make([]record.Record, 0, len(lt.supBooks)+1)
	for _, sb := range lt.supBooks {
		out = append(out, sb)
	}
	return append(out, lt.externSheet)
}

// AddInternalEntry returns the extern index for a same-workbook sheet,
// reusing an existing live entry when one matches.
func (lt *LinkTable) AddInternalEntry(h *sheetHandle) int {
	for i, e := range lt.entries {
		if e.internal && e.first == h && e.last == h {
			return i
		}
	}
	lt.entries = append(lt.entries, linkEntry{
		supBook:  uint16(lt.internalIdx),
		internal: true,
		first:    h,
		last:     h,
	})
	return len(lt.entries) - 1
}

// Resolve maps an extern index to the sheet ordinals it spans. ok is false
// for out of range indexes, external book entries and deleted sheets.
func (lt *LinkTable) Resolve(externIdx int) (first, last int, ok bool) {
	if externIdx < 0 || externIdx >= len(lt.entries) {
		return 0, 0, false
	}
	e := lt.entries[externIdx]
	if !e.internal {
		return 0, 0, false
	}
	if e.first.ordinal < 0 || e.last.ordinal < 0 {
		return 0, 0, false
	}
	return e.first.ordinal, e.last.ordinal, true
}

// Refresh writes the live entries back into the wire records. Handles of
// deleted sheets turn into the deleted sheet marker.
func (lt *LinkTable) Refresh(numSheets int) {
	if lt.internal != nil {
		lt.internal.SheetCount = uint16(numSheets)
	}
	out := make([]record.ExternSheetEntry, len(lt.entries))
	for i, e := range lt.entries {
		if !e.internal {
			out[i] = record.ExternSheetEntry{
				SupBookIndex:    e.supBook,
				FirstSheetIndex: e.rawFirst,
				LastSheetIndex:  e.rawLast,
			}
			continue
		}
		out[i] = record.ExternSheetEntry{
			SupBookIndex:    e.supBook,
			FirstSheetIndex: ordinalOrDeleted(e.first),
			LastSheetIndex:  ordinalOrDeleted(e.last),
		}
	}
	lt.externSheet.Entries = out
}

func ordinalOrDeleted(h *sheetHandle) uint16 {
	if h.ordinal < 0 {
		return record.DELETED_SHEET_INDEX
	}
	return uint16(h.ordinal)
}
