package poifs

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/richardlehane/mscfb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pattern(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = seed + byte(i%251)
	}
	return out
}

func TestEmptyRoundTrip(t *testing.T) {
	fs := New()
	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))

	got, err := Open(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, got.Entries())
	assert.Equal(t, "Root Entry", got.Root().Name())
}

func TestStreamRoundTrip(t *testing.T) {
	small := pattern(100, 3)    // mini stream
	medium := pattern(4095, 7)  // largest mini stream
	large := pattern(4096, 11)  // smallest regular stream
	huge := pattern(100000, 13) // spans many sectors

	fs := New()
	require.NoError(t, fs.SetStream("Small", small))
	require.NoError(t, fs.SetStream("Medium", medium))
	require.NoError(t, fs.SetStream("Large", large))
	require.NoError(t, fs.SetStream("Huge", huge))

	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))

	got, err := Open(buf.Bytes())
	require.NoError(t, err)
	for name, want := range map[string][]byte{
		"Small": small, "Medium": medium, "Large": large, "Huge": huge,
	} {
		data, err := got.Stream(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, data, name)
	}

	_, err = got.Stream("Missing")
	assert.True(t, IsFormatError(err))
}

func TestRootClassIDRoundTrip(t *testing.T) {
	id := uuid.MustParse("00020810-0000-0000-c000-000000000046")

	fs := New()
	fs.SetRootClassID(id)
	require.NoError(t, fs.SetStream("S", pattern(10, 1)))

	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))

	got, err := Open(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, id, got.RootClassID())
}

func TestStorageTreeRoundTrip(t *testing.T) {
	fs := New()
	obj, err := fs.Root().AddStorage("MBD0001")
	require.NoError(t, err)
	obj.SetClassID(uuid.MustParse("00020820-0000-0000-c000-000000000046"))
	_, err = obj.AddStream("CONTENTS", pattern(5000, 2))
	require.NoError(t, err)
	_, err = obj.AddStream("\x01Ole", pattern(20, 4))
	require.NoError(t, err)
	require.NoError(t, fs.SetStream("Workbook", pattern(6000, 9)))

	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))

	got, err := Open(buf.Bytes())
	require.NoError(t, err)
	st := got.Root().Child("MBD0001")
	require.NotNil(t, st)
	assert.True(t, st.IsStorage())
	assert.Equal(t, uuid.MustParse("00020820-0000-0000-c000-000000000046"), st.ClassID())
	require.Len(t, st.Children(), 2)
	contents := st.Child("CONTENTS")
	require.NotNil(t, contents)
	assert.Equal(t, pattern(5000, 2), contents.Data())
}

func TestEntryCollationOrder(t *testing.T) {
	fs := New()
	for _, name := range []string{"longest", "b", "AA", "ab"} {
		require.NoError(t, fs.SetStream(name, []byte{1}))
	}

	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))
	got, err := Open(buf.Bytes())
	require.NoError(t, err)

	var names []string
	for _, e := range got.Entries() {
		names = append(names, e.Name())
	}
	// Shorter names first, then case-folded comparison.
	assert.Equal(t, []string{"b", "AA", "ab", "longest"}, names)
}

func TestOpenBadSignature(t *testing.T) {
	data := make([]byte, 1024)
	copy(data, []byte("PK\x03\x04 definitely not ole2"))
	_, err := Open(data)
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.Contains(t, err.Error(), "signature")
}

func TestOpenTruncatedHeader(t *testing.T) {
	_, err := Open(SIGNATURE)
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.Contains(t, err.Error(), "truncated")
}

func TestOpenCyclicChain(t *testing.T) {
	fs := New()
	require.NoError(t, fs.SetStream("Big", pattern(4096, 1)))
	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))
	data := buf.Bytes()

	// Sector 0 opens the Big stream's chain. Point its FAT entry back at
	// itself through the first FAT sector named in the header DIFAT.
	fatSector := binary.LittleEndian.Uint32(data[76:80])
	fatOff := HEADER_SIZE + int(fatSector)*SECTOR_SIZE
	binary.LittleEndian.PutUint32(data[fatOff:fatOff+4], 0)

	_, err := Open(data)
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.Contains(t, err.Error(), "cyclic")
}

func TestOpenChainOutOfRange(t *testing.T) {
	fs := New()
	require.NoError(t, fs.SetStream("Big", pattern(4096, 1)))
	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))
	data := buf.Bytes()

	fatSector := binary.LittleEndian.Uint32(data[76:80])
	fatOff := HEADER_SIZE + int(fatSector)*SECTOR_SIZE
	binary.LittleEndian.PutUint32(data[fatOff:fatOff+4], 0x00FFFFF0)

	_, err := Open(data)
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
}

func TestCommitInPlace(t *testing.T) {
	keep := pattern(5000, 21)
	replace := pattern(300, 22)

	fs := New()
	require.NoError(t, fs.SetStream("Keep", keep))
	require.NoError(t, fs.SetStream("Replace", replace))
	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))

	path := filepath.Join(t.TempDir(), "doc.bin")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	wf, err := OpenFile(path, false)
	require.NoError(t, err)
	require.NoError(t, wf.SetStream("Replace", pattern(9000, 23)))
	require.NoError(t, wf.Commit())
	require.NoError(t, wf.Close())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := Open(after)
	require.NoError(t, err)

	kept, err := got.Stream("Keep")
	require.NoError(t, err)
	assert.Equal(t, keep, kept, "untouched stream must survive byte for byte")

	repl, err := got.Stream("Replace")
	require.NoError(t, err)
	assert.Equal(t, pattern(9000, 23), repl)
}

func TestCommitRequiresWritableFile(t *testing.T) {
	fs := New()
	require.NoError(t, fs.SetStream("S", pattern(64, 1)))
	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))

	// Memory-backed.
	mem, err := Open(buf.Bytes())
	require.NoError(t, err)
	err = mem.Commit()
	assert.True(t, IsInvalidStateError(err))

	// Read-only file.
	path := filepath.Join(t.TempDir(), "doc.bin")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	ro, err := OpenFile(path, true)
	require.NoError(t, err)
	defer ro.Close()
	err = ro.Commit()
	assert.True(t, IsInvalidStateError(err))
	assert.Contains(t, err.Error(), "read-only")

	// Fresh in-memory filesystem.
	err = New().Commit()
	assert.True(t, IsInvalidStateError(err))
}

func TestCommitAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.bin")
	fs := New()
	require.NoError(t, fs.SetStream("S", pattern(64, 1)))
	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	wf, err := OpenFile(path, false)
	require.NoError(t, err)
	require.NoError(t, wf.Close())
	assert.True(t, IsInvalidStateError(wf.Commit()))
}

// The written document must be readable by an independent implementation.
func TestWrittenDocumentReadableByMscfb(t *testing.T) {
	workbook := pattern(10000, 31)
	summary := pattern(600, 32)

	fs := New()
	require.NoError(t, fs.SetStream("Workbook", workbook))
	require.NoError(t, fs.SetStream("\x05SummaryInformation", summary))
	st, err := fs.Root().AddStorage("MBD0002")
	require.NoError(t, err)
	_, err = st.AddStream("CONTENTS", pattern(2000, 33))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, fs.WriteTo(&buf))

	doc, err := mscfb.New(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	found := make(map[string][]byte)
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Size == 0 {
			found[entry.Name] = nil
			continue
		}
		data, rerr := io.ReadAll(entry)
		require.NoError(t, rerr, entry.Name)
		found[entry.Name] = data
	}

	assert.Equal(t, workbook, found["Workbook"])
	assert.Equal(t, summary, found["\x05SummaryInformation"])
	assert.Equal(t, pattern(2000, 33), found["CONTENTS"])
	_, hasStorage := found["MBD0002"]
	assert.True(t, hasStorage)
}

func TestReadDocumentWrittenTwice(t *testing.T) {
	fs := New()
	require.NoError(t, fs.SetStream("Workbook", pattern(8000, 41)))

	var first bytes.Buffer
	require.NoError(t, fs.WriteTo(&first))
	mid, err := Open(first.Bytes())
	require.NoError(t, err)

	var second bytes.Buffer
	require.NoError(t, mid.WriteTo(&second))
	assert.Equal(t, first.Bytes(), second.Bytes(), "an untouched document relayout is stable")
}
