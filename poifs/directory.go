package poifs

import (
	"encoding/binary"
	"sort"
	"unicode"
	"unicode/utf16"

	"github.com/google/uuid"
)

// Directory entry types.
const (
	ENTRY_UNUSED  = 0
	ENTRY_STORAGE = 1
	ENTRY_STREAM  = 2
	ENTRY_ROOT    = 5
)

// DIR_ENTRY_SIZE is the size of one serialized directory entry.
const DIR_ENTRY_SIZE = 128

// NO_STREAM marks an absent sibling or child pointer in a directory entry.
const NO_STREAM = 0xFFFFFFFF

// Entry is one node of the directory tree: the root, a storage, or a stream.
// Stream contents are held fully in memory.
type Entry struct {
	name     string
	etype    byte
	color    byte
	classID  uuid.UUID
	state    uint32
	created  uint64
	modified uint64

	data     []byte   // streams only
	children []*Entry // storages and root, kept in directory collation order
}

func newEntry(name string, etype byte) *Entry {
	return &Entry{name: name, etype: etype, color: 1}
}

// Name returns the entry name.
func (e *Entry) Name() string {
	return e.name
}

// IsStream reports whether the entry is a data stream.
func (e *Entry) IsStream() bool {
	return e.etype == ENTRY_STREAM
}

// IsStorage reports whether the entry is a storage (or the root).
func (e *Entry) IsStorage() bool {
	return e.etype == ENTRY_STORAGE || e.etype == ENTRY_ROOT
}

// Size returns the stream length in bytes, zero for storages.
func (e *Entry) Size() int64 {
	return int64(len(e.data))
}

// Data returns a copy of the stream contents.
func (e *Entry) Data() []byte {
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out
}

// Children returns the child entries of a storage in collation order.
func (e *Entry) Children() []*Entry {
	out := make([]*Entry, len(e.children))
	copy(out, e.children)
	return out
}

// Child returns the named child of a storage, or nil.
func (e *Entry) Child(name string) *Entry {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// ClassID returns the entry CLSID. The raw on-disk byte layout is preserved
// verbatim in the UUID.
func (e *Entry) ClassID() uuid.UUID {
	return e.classID
}

// SetClassID replaces the entry CLSID.
func (e *Entry) SetClassID(id uuid.UUID) {
	e.classID = id
}

// AddStream creates a stream child with the given contents, replacing any
// existing stream of that name.
func (e *Entry) AddStream(name string, data []byte) (*Entry, error) {
	if !e.IsStorage() {
		return nil, NewInvalidStateError("entry %q is a stream and cannot hold children", e.name)
	}
	if err := validateEntryName(name); err != nil {
		return nil, err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	if c := e.Child(name); c != nil {
		if !c.IsStream() {
			return nil, NewInvalidStateError("entry %q already exists as a storage", name)
		}
		c.data = buf
		return c, nil
	}
	c := newEntry(name, ENTRY_STREAM)
	c.data = buf
	e.insertChild(c)
	return c, nil
}

// AddStorage returns the named storage child, creating it if necessary.
func (e *Entry) AddStorage(name string) (*Entry, error) {
	if !e.IsStorage() {
		return nil, NewInvalidStateError("entry %q is a stream and cannot hold children", e.name)
	}
	if err := validateEntryName(name); err != nil {
		return nil, err
	}
	if c := e.Child(name); c != nil {
		if !c.IsStorage() {
			return nil, NewInvalidStateError("entry %q already exists as a stream", name)
		}
		return c, nil
	}
	c := newEntry(name, ENTRY_STORAGE)
	e.insertChild(c)
	return c, nil
}

func (e *Entry) insertChild(c *Entry) {
	i := sort.Search(len(e.children), func(i int) bool {
		return compareNames(e.children[i].name, c.name) >= 0
	})
	e.children = append(e.children, nil)
	copy(e.children[i+1:], e.children[i:])
	e.children[i] = c
}

func validateEntryName(name string) error {
	n := len(utf16.Encode([]rune(name)))
	if n == 0 {
		return NewFormatError("entry name must not be empty")
	}
	// 64 byte name field, UTF-16 with a terminating null.
	if n > 31 {
		return NewFormatError("entry name %q is longer than 31 characters", name)
	}
	return nil
}

// compareNames orders directory entry names the way the format collates
// siblings: shorter names first, then a case-folded UTF-16 comparison.
func compareNames(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	if len(ua) != len(ub) {
		if len(ua) < len(ub) {
			return -1
		}
		return 1
	}
	for i := range ua {
		ca := uint16(unicode.ToUpper(rune(ua[i])))
		cb := uint16(unicode.ToUpper(rune(ub[i])))
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	return 0
}

// rawDirEntry mirrors one 128 byte directory entry on disk.
type rawDirEntry struct {
	name     string
	etype    byte
	color    byte
	left     uint32
	right    uint32
	child    uint32
	classID  uuid.UUID
	state    uint32
	created  uint64
	modified uint64
	start    uint32
	size     uint64
}

func parseRawDirEntry(b []byte) (*rawDirEntry, error) {
	e := &rawDirEntry{}
	nameLen := int(binary.LittleEndian.Uint16(b[64:66]))
	if nameLen > 64 || nameLen%2 != 0 {
		return nil, NewFormatError("directory entry has invalid name length %d", nameLen)
	}
	if nameLen >= 2 {
		units := make([]uint16, nameLen/2-1)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(b[i*2 : i*2+2])
		}
		e.name = string(utf16.Decode(units))
	}
	e.etype = b[66]
	e.color = b[67]
	e.left = binary.LittleEndian.Uint32(b[68:72])
	e.right = binary.LittleEndian.Uint32(b[72:76])
	e.child = binary.LittleEndian.Uint32(b[76:80])
	copy(e.classID[:], b[80:96])
	e.state = binary.LittleEndian.Uint32(b[96:100])
	e.created = binary.LittleEndian.Uint64(b[100:108])
	e.modified = binary.LittleEndian.Uint64(b[108:116])
	e.start = binary.LittleEndian.Uint32(b[116:120])
	e.size = binary.LittleEndian.Uint64(b[120:128])
	return e, nil
}

func writeRawDirEntry(b []byte, e *rawDirEntry) {
	if e.etype == ENTRY_UNUSED {
		binary.LittleEndian.PutUint32(b[68:72], NO_STREAM)
		binary.LittleEndian.PutUint32(b[72:76], NO_STREAM)
		binary.LittleEndian.PutUint32(b[76:80], NO_STREAM)
		return
	}
	units := utf16.Encode([]rune(e.name))
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[i*2:i*2+2], u)
	}
	binary.LittleEndian.PutUint16(b[64:66], uint16((len(units)+1)*2))
	b[66] = e.etype
	b[67] = e.color
	binary.LittleEndian.PutUint32(b[68:72], e.left)
	binary.LittleEndian.PutUint32(b[72:76], e.right)
	binary.LittleEndian.PutUint32(b[76:80], e.child)
	copy(b[80:96], e.classID[:])
	binary.LittleEndian.PutUint32(b[96:100], e.state)
	binary.LittleEndian.PutUint64(b[100:108], e.created)
	binary.LittleEndian.PutUint64(b[108:116], e.modified)
	binary.LittleEndian.PutUint32(b[116:120], e.start)
	binary.LittleEndian.PutUint64(b[120:128], e.size)
}

// readDirectory decodes the directory chain into the entry tree and
// materializes every stream.
func (r *docReader) readDirectory() (*Entry, error) {
	raw, err := r.readChain(r.header.firstDir, "directory")
	if err != nil {
		return nil, err
	}
	n := len(raw) / DIR_ENTRY_SIZE
	if n == 0 {
		return nil, NewFormatError("compound document has an empty directory")
	}
	entries := make([]*rawDirEntry, n)
	for i := 0; i < n; i++ {
		entries[i], err = parseRawDirEntry(raw[i*DIR_ENTRY_SIZE : (i+1)*DIR_ENTRY_SIZE])
		if err != nil {
			return nil, err
		}
	}
	if entries[0].etype != ENTRY_ROOT {
		return nil, NewFormatError("first directory entry has type %d, expected the root storage", entries[0].etype)
	}

	// The root's start chain is the mini stream container.
	if entries[0].size > 0 {
		r.miniStream, err = r.readStream(entries[0].name, entries[0].start, entries[0].size, true)
		if err != nil {
			return nil, err
		}
	}

	visited := make([]bool, n)
	root, err := r.buildEntry(entries, 0, visited)
	if err != nil {
		return nil, err
	}
	return root, nil
}

func (r *docReader) buildEntry(entries []*rawDirEntry, id int, visited []bool) (*Entry, error) {
	raw := entries[id]
	e := &Entry{
		name:     raw.name,
		etype:    raw.etype,
		color:    raw.color,
		classID:  raw.classID,
		state:    raw.state,
		created:  raw.created,
		modified: raw.modified,
	}
	if raw.etype == ENTRY_STREAM {
		size := raw.size
		if r.header.sectorShift == 9 {
			// Version 3 writers are known to leave garbage in the
			// high half of the size field.
			size &= 0xFFFFFFFF
		}
		data, err := r.readStream(raw.name, raw.start, size, false)
		if err != nil {
			return nil, err
		}
		e.data = data
		return e, nil
	}

	if raw.child == NO_STREAM {
		return e, nil
	}
	var ids []int
	if err := collectSiblings(entries, raw.child, visited, &ids); err != nil {
		return nil, err
	}
	for _, cid := range ids {
		child, err := r.buildEntry(entries, cid, visited)
		if err != nil {
			return nil, err
		}
		e.children = append(e.children, child)
	}
	return e, nil
}

// collectSiblings walks a sibling tree in order, so children come out in
// collation order for well-formed documents.
func collectSiblings(entries []*rawDirEntry, id uint32, visited []bool, out *[]int) error {
	if id == NO_STREAM {
		return nil
	}
	if id >= uint32(len(entries)) {
		return NewFormatError("directory entry references sibling %d beyond the %d entry table", id, len(entries))
	}
	if visited[id] {
		return NewFormatError("directory sibling chain is cyclic at entry %d", id)
	}
	visited[id] = true
	e := entries[id]
	if e.etype == ENTRY_UNUSED {
		return NewFormatError("directory sibling chain references unused entry %d", id)
	}
	if err := collectSiblings(entries, e.left, visited, out); err != nil {
		return err
	}
	*out = append(*out, int(id))
	return collectSiblings(entries, e.right, visited, out)
}
