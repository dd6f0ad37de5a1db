// Package record implements the typed, length-prefixed records that make up
// a workbook stream: a [sid:2][length:2][payload] framing with payloads
// capped at MAX_RECORD_DATA bytes and longer payloads carried on in CONTINUE
// records. Records the package has no typed form for pass through decoding
// and encoding byte for byte.
package record

import (
	"encoding/binary"

	"github.com/tiendc/go-deepcopy"
)

// MAX_RECORD_DATA is the largest payload one record frame can carry.
const MAX_RECORD_DATA = 8224

// Record is one logical record of the workbook stream. Serialize must write
// exactly RecordSize bytes; the stream encoder verifies this and refuses to
// emit a stream where any record drifts.
type Record interface {
	Sid() uint16
	// RecordSize returns the full serialized size, record headers included.
	RecordSize() int
	// Serialize writes the record, headers included, into buf and returns
	// the number of bytes written.
	Serialize(buf []byte) int
	Clone() Record
}

func putHeader(buf []byte, sid uint16, length int) {
	binary.LittleEndian.PutUint16(buf[0:2], sid)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(length))
}

// mustCopy deep-copies src into dst. The record types it is used with are
// plain data structures, so a failure is a programming error.
func mustCopy(dst, src interface{}) {
	if err := deepcopy.Copy(dst, src); err != nil {
		panic(err)
	}
}

// RawRecord carries a record this package has no typed form for. The payload
// bytes and the original continuation boundaries are both preserved, so an
// untouched record re-serializes byte for byte.
type RawRecord struct {
	RawSid    uint16
	Fragments [][]byte
}

// NewRawRecord builds a raw record from a logical payload, splitting it into
// continuation fragments at the payload cap.
func NewRawRecord(sid uint16, payload []byte) *RawRecord {
	r := &RawRecord{RawSid: sid}
	rest := payload
	for {
		n := len(rest)
		if n > MAX_RECORD_DATA {
			n = MAX_RECORD_DATA
		}
		frag := make([]byte, n)
		copy(frag, rest[:n])
		r.Fragments = append(r.Fragments, frag)
		rest = rest[n:]
		if len(rest) == 0 {
			return r
		}
	}
}

func (r *RawRecord) Sid() uint16 {
	return r.RawSid
}

// Data returns the logical payload with continuation boundaries removed.
func (r *RawRecord) Data() []byte {
	n := 0
	for _, f := range r.Fragments {
		n += len(f)
	}
	out := make([]byte, 0, n)
	for _, f := range r.Fragments {
		out = append(out, f...)
	}
	return out
}

func (r *RawRecord) RecordSize() int {
	n := 0
	for _, f := range r.Fragments {
		n += 4 + len(f)
	}
	return n
}

func (r *RawRecord) Serialize(buf []byte) int {
	pos := 0
	for i, f := range r.Fragments {
		sid := r.RawSid
		if i > 0 {
			sid = XL_CONTINUE
		}
		putHeader(buf[pos:], sid, len(f))
		copy(buf[pos+4:], f)
		pos += 4 + len(f)
	}
	return pos
}

func (r *RawRecord) Clone() Record {
	c := &RawRecord{}
	mustCopy(c, r)
	return c
}
