package record

import (
	"encoding/binary"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// String option flags.
const (
	strUTF16    = 0x01
	strPhonetic = 0x04
	strRichText = 0x08
)

// IsCompressibleUnicode reports whether every character of s fits the
// compressed 8 bit string form.
func IsCompressibleUnicode(s string) bool {
	for _, u := range utf16.Encode([]rune(s)) {
		if u > 0xFF {
			return false
		}
	}
	return true
}

func unicodeCharCount(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// ReadUnicodeBody decodes the [flags][chars] body of a string whose character
// count was carried separately, returning the string and the bytes consumed.
// Rich text runs and phonetic blocks are skipped.
func ReadUnicodeBody(data []byte, nchars int) (string, int, error) {
	if len(data) < 1 {
		return "", 0, NewRecordFormatError("insufficient data for string options")
	}
	flags := data[0]
	pos := 1

	richRuns := 0
	phoneticSize := 0
	if flags&strRichText != 0 {
		if pos+2 > len(data) {
			return "", 0, NewRecordFormatError("insufficient data for rich text run count")
		}
		richRuns = int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2
	}
	if flags&strPhonetic != 0 {
		if pos+4 > len(data) {
			return "", 0, NewRecordFormatError("insufficient data for phonetic block size")
		}
		phoneticSize = int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
	}

	var s string
	if flags&strUTF16 != 0 {
		if pos+2*nchars > len(data) {
			return "", 0, NewRecordFormatError("insufficient data for %d UTF-16 characters", nchars)
		}
		words := make([]uint16, nchars)
		for i := 0; i < nchars; i++ {
			words[i] = binary.LittleEndian.Uint16(data[pos+i*2 : pos+i*2+2])
		}
		s = string(utf16.Decode(words))
		pos += 2 * nchars
	} else {
		if pos+nchars > len(data) {
			return "", 0, NewRecordFormatError("insufficient data for %d compressed characters", nchars)
		}
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data[pos : pos+nchars])
		if err != nil {
			return "", 0, NewRecordFormatError("failed to decode compressed string: %v", err)
		}
		s = string(decoded)
		pos += nchars
	}

	skip := richRuns*4 + phoneticSize
	if pos+skip > len(data) {
		return "", 0, NewRecordFormatError("insufficient data for string trailer (%d bytes)", skip)
	}
	pos += skip
	return s, pos, nil
}

// ReadUnicodeString reads a [cch:2][flags][chars] string.
func ReadUnicodeString(data []byte) (string, int, error) {
	if len(data) < 2 {
		return "", 0, NewRecordFormatError("insufficient data for string length")
	}
	nchars := int(binary.LittleEndian.Uint16(data[0:2]))
	s, n, err := ReadUnicodeBody(data[2:], nchars)
	if err != nil {
		return "", 0, err
	}
	return s, 2 + n, nil
}

// ReadShortUnicodeString reads a [cch:1][flags][chars] string.
func ReadShortUnicodeString(data []byte) (string, int, error) {
	if len(data) < 1 {
		return "", 0, NewRecordFormatError("insufficient data for string length")
	}
	nchars := int(data[0])
	s, n, err := ReadUnicodeBody(data[1:], nchars)
	if err != nil {
		return "", 0, err
	}
	return s, 1 + n, nil
}

// UnicodeBodySize returns the serialized size of the [flags][chars] body of s.
func UnicodeBodySize(s string) int {
	n := unicodeCharCount(s)
	if IsCompressibleUnicode(s) {
		return 1 + n
	}
	return 1 + 2*n
}

// UnicodeStringSize returns the serialized size of a [cch:2][flags][chars]
// string.
func UnicodeStringSize(s string) int {
	return 2 + UnicodeBodySize(s)
}

// ShortUnicodeStringSize returns the serialized size of a
// [cch:1][flags][chars] string.
func ShortUnicodeStringSize(s string) int {
	return 1 + UnicodeBodySize(s)
}

// WriteUnicodeBody writes the [flags][chars] body of s, choosing the
// compressed form whenever every character allows it.
func WriteUnicodeBody(buf []byte, s string) int {
	units := utf16.Encode([]rune(s))
	if IsCompressibleUnicode(s) {
		buf[0] = 0
		encoded, _ := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
		copy(buf[1:], encoded)
		return 1 + len(encoded)
	}
	buf[0] = strUTF16
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[1+i*2:3+i*2], u)
	}
	return 1 + 2*len(units)
}

// WriteUnicodeString writes a [cch:2][flags][chars] string.
func WriteUnicodeString(buf []byte, s string) int {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(unicodeCharCount(s)))
	return 2 + WriteUnicodeBody(buf[2:], s)
}

// WriteShortUnicodeString writes a [cch:1][flags][chars] string.
func WriteShortUnicodeString(buf []byte, s string) int {
	buf[0] = byte(unicodeCharCount(s))
	return 1 + WriteUnicodeBody(buf[1:], s)
}
