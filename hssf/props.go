package hssf

import (
	"bytes"

	"github.com/google/uuid"
	"github.com/richardlehane/msoleps"
)

// Property stream names. The \x05 prefix marks them as internal to the
// container format.
const (
	SummaryInformationName         = "\x05SummaryInformation"
	DocumentSummaryInformationName = "\x05DocumentSummaryInformation"
)

// SummaryInformation parses the container's metadata property stream:
// title, author, timestamps. It returns nil without error when the
// workbook has no container or the container has no such stream; the
// stream itself rides through Write untouched either way.
func (w *Workbook) SummaryInformation() (*msoleps.Reader, error) {
	return w.propertyStream(SummaryInformationName)
}

// DocumentSummaryInformation parses the container's extended metadata
// property stream, nil without error when absent.
func (w *Workbook) DocumentSummaryInformation() (*msoleps.Reader, error) {
	return w.propertyStream(DocumentSummaryInformationName)
}

func (w *Workbook) propertyStream(name string) (*msoleps.Reader, error) {
	if w.fs == nil || !w.fs.HasStream(name) {
		return nil, nil
	}
	data, err := w.fs.Stream(name)
	if err != nil {
		return nil, err
	}
	r := msoleps.New()
	if err := r.Reset(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return r, nil
}

// EmbeddedObject describes one storage of the container: an embedded
// document, a macro project, anything a writer parked next to the
// workbook stream.
type EmbeddedObject struct {
	Name    string
	ClassID uuid.UUID
	Streams []string
}

// EmbeddedObjects lists the container's root-level storages. Write and
// SaveInPlace carry them all over, so whatever is listed here survives a
// rewrite.
func (w *Workbook) EmbeddedObjects() []EmbeddedObject {
	if w.fs == nil {
		return nil
	}
	var objs []EmbeddedObject
	for _, e := range w.fs.Root().Children() {
		if !e.IsStorage() {
			continue
		}
		obj := EmbeddedObject{Name: e.Name(), ClassID: e.ClassID()}
		for _, c := range e.Children() {
			if c.IsStream() {
				obj.Streams = append(obj.Streams, c.Name())
			}
		}
		objs = append(objs, obj)
	}
	return objs
}
