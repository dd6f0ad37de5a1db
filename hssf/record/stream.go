package record

import (
	"encoding/binary"
)

// typedParsers maps a sid to the parser for its typed record. The parser
// receives the logical payload with continuations already merged.
var typedParsers = map[uint16]func([]byte) (Record, error){
	XL_BOF:               parseBOF,
	XL_EOF:               parseEOF,
	XL_BOUNDSHEET:        parseBoundSheet,
	XL_WINDOW1:           parseWindowOne,
	XL_WINDOW2:           parseWindowTwo,
	XL_SELECTION:         parseSelection,
	XL_DIMENSION:         parseDimensions,
	XL_SUPBOOK:           parseSupBook,
	XL_EXTERNSHEET:       parseExternSheet,
	XL_NAME:              parseName,
	XL_COUNTRY:           parseCountry,
	XL_DATEMODE:          parseDateMode,
	XL_CODEPAGE:          parseCodepage,
	XL_TABID:             parseTabID,
	XL_WRITEACCESS:       parseWriteAccess,
	XL_FONT:              parseFont,
	XL_FORMAT:            parseFormat,
	XL_XF:                parseExtendedFormat,
	XL_STYLE:             parseStyle,
	XL_MSO_DRAWING_GROUP: parseDrawingGroup,
	XL_MSO_DRAWING:       parseDrawing,
}

// DecodeStream decodes a whole workbook stream into logical records. CONTINUE
// records are folded into the record they extend. Trailing bytes after the
// final substream's EOF are dropped, as some writers pad the stream.
func DecodeStream(data []byte) ([]Record, error) {
	var out []Record
	pos := 0
	depth := 0

	for pos+4 <= len(data) {
		sid := binary.LittleEndian.Uint16(data[pos : pos+2])
		length := int(binary.LittleEndian.Uint16(data[pos+2 : pos+4]))

		if sid == XL_CONTINUE {
			return nil, NewRecordFormatError("continuation record at offset %d has nothing to continue", pos)
		}
		if depth == 0 && sid != XL_BOF {
			if len(out) == 0 {
				return nil, NewRecordFormatError("stream does not begin with a BOF record (found sid 0x%04X)", sid)
			}
			break
		}
		if length > MAX_RECORD_DATA {
			return nil, NewRecordFormatError("record 0x%04X declares %d payload bytes, above the %d byte cap", sid, length, MAX_RECORD_DATA)
		}
		if pos+4+length > len(data) {
			return nil, NewRecordFormatError("record 0x%04X at offset %d is truncated", sid, pos)
		}
		frag := make([]byte, length)
		copy(frag, data[pos+4:pos+4+length])
		pos += 4 + length
		fragments := [][]byte{frag}

		for pos+4 <= len(data) {
			nsid := binary.LittleEndian.Uint16(data[pos : pos+2])
			if nsid != XL_CONTINUE {
				break
			}
			nlen := int(binary.LittleEndian.Uint16(data[pos+2 : pos+4]))
			if nlen > MAX_RECORD_DATA {
				return nil, NewRecordFormatError("continuation at offset %d declares %d payload bytes, above the %d byte cap", pos, nlen, MAX_RECORD_DATA)
			}
			if pos+4+nlen > len(data) {
				return nil, NewRecordFormatError("continuation at offset %d is truncated", pos)
			}
			cont := make([]byte, nlen)
			copy(cont, data[pos+4:pos+4+nlen])
			fragments = append(fragments, cont)
			pos += 4 + nlen
		}

		switch sid {
		case XL_BOF:
			depth++
		case XL_EOF:
			depth--
			if depth < 0 {
				return nil, NewRecordFormatError("EOF record without a matching BOF")
			}
		}

		parser, ok := typedParsers[sid]
		if !ok {
			out = append(out, &RawRecord{RawSid: sid, Fragments: fragments})
			continue
		}
		merged := fragments[0]
		if len(fragments) > 1 {
			merged = (&RawRecord{RawSid: sid, Fragments: fragments}).Data()
		}
		rec, err := parser(merged)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if depth != 0 {
		return nil, NewRecordFormatError("stream ends inside a substream: %d BOF records left open", depth)
	}
	if len(out) == 0 {
		return nil, NewRecordFormatError("stream holds no records")
	}
	return out, nil
}

// EncodeStream serializes records into one stream. Every record's written
// length is checked against its declared RecordSize; any drift abandons the
// whole encode with a SizeMismatchError, so no partial stream escapes.
func EncodeStream(records []Record) ([]byte, error) {
	total := 0
	for _, r := range records {
		total += r.RecordSize()
	}
	out := make([]byte, total)
	pos := 0
	for _, r := range records {
		want := r.RecordSize()
		n := r.Serialize(out[pos:])
		if n != want {
			return nil, &SizeMismatchError{Sid: r.Sid(), Declared: want, Actual: n}
		}
		pos += n
	}
	return out, nil
}

// StreamSize returns the serialized size of a record sequence.
func StreamSize(records []Record) int {
	total := 0
	for _, r := range records {
		total += r.RecordSize()
	}
	return total
}
