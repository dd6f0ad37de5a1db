// Package poifs reads and writes OLE2 compound documents: sector-based
// containers holding a tree of named streams. Streams are materialized in
// memory on open, so a document can be rewritten with every untouched stream
// preserved byte for byte.
package poifs

import (
	"io"
	"os"

	"github.com/google/uuid"
)

// FileSystem is an in-memory compound document. A FileSystem opened from a
// writable file keeps the handle and supports Commit; all other sources only
// support WriteTo.
type FileSystem struct {
	root     *Entry
	file     *os.File
	readOnly bool
	closed   bool
}

// New creates an empty filesystem holding only a root storage.
func New() *FileSystem {
	return &FileSystem{root: newEntry("Root Entry", ENTRY_ROOT)}
}

// Open decodes a compound document held in memory. The resulting filesystem
// cannot be committed in place.
func Open(data []byte) (*FileSystem, error) {
	root, err := readDocument(data)
	if err != nil {
		return nil, err
	}
	return &FileSystem{root: root}, nil
}

// OpenFile opens a compound document file. When readOnly is false the file
// handle is kept open read-write so Commit can rewrite it in place. The
// handle is released on Close, and on any error before OpenFile returns.
func OpenFile(path string, readOnly bool) (*FileSystem, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	root, err := readDocument(data)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileSystem{root: root, file: f, readOnly: readOnly}, nil
}

func readDocument(data []byte) (*Entry, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	r := &docReader{header: h, data: data}
	if err := r.readFAT(); err != nil {
		return nil, err
	}
	if err := r.readMiniFAT(); err != nil {
		return nil, err
	}
	return r.readDirectory()
}

// Root returns the root storage.
func (fs *FileSystem) Root() *Entry {
	return fs.root
}

// Entries returns the root's children in collation order.
func (fs *FileSystem) Entries() []*Entry {
	return fs.root.Children()
}

// HasStream reports whether a stream of the given name exists at the root.
func (fs *FileSystem) HasStream(name string) bool {
	c := fs.root.Child(name)
	return c != nil && c.IsStream()
}

// Stream returns a copy of the named root-level stream's contents.
func (fs *FileSystem) Stream(name string) ([]byte, error) {
	c := fs.root.Child(name)
	if c == nil || !c.IsStream() {
		return nil, NewFormatError("compound document has no stream named %q", name)
	}
	return c.Data(), nil
}

// SetStream creates or replaces a root-level stream.
func (fs *FileSystem) SetStream(name string, data []byte) error {
	_, err := fs.root.AddStream(name, data)
	return err
}

// RootClassID returns the class ID stored on the root storage.
func (fs *FileSystem) RootClassID() uuid.UUID {
	return fs.root.classID
}

// SetRootClassID replaces the class ID stored on the root storage.
func (fs *FileSystem) SetRootClassID(id uuid.UUID) {
	fs.root.classID = id
}

// Commit rewrites the backing file in place. Streams that were never replaced
// through SetStream round-trip byte for byte. Only a filesystem opened from a
// writable file can commit.
func (fs *FileSystem) Commit() error {
	if fs.closed {
		return NewInvalidStateError("filesystem is closed")
	}
	if fs.file == nil || fs.readOnly {
		return NewInvalidStateError("opened read-only or from a stream; in-place write needs a writable file")
	}
	buf, err := fs.build()
	if err != nil {
		return err
	}
	if _, err := fs.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := fs.file.Write(buf); err != nil {
		return err
	}
	if err := fs.file.Truncate(int64(len(buf))); err != nil {
		return err
	}
	return fs.file.Sync()
}

// WriteTo lays the document out from scratch and writes it to w.
func (fs *FileSystem) WriteTo(w io.Writer) error {
	buf, err := fs.build()
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Close releases the backing file handle, if any. It never writes.
func (fs *FileSystem) Close() error {
	if fs.closed {
		return nil
	}
	fs.closed = true
	if fs.file != nil {
		return fs.file.Close()
	}
	return nil
}
