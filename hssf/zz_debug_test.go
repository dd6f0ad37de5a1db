package hssf

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/HasaanA16/poi/hssf/record"
	"github.com/stretchr/testify/require"
)

func TestZZDebugClone(t *testing.T) {
	w, err := OpenReader(bytes.NewReader(pictureWorkbookBytes(t)))
	require.NoError(t, err)

	src := w.sheets[0].model
	for round := 1; round <= 3; round++ {
		cm := src.Clone()
		var drawTypes []string
		for _, r := range cm.Records() {
			if dr, ok := r.(*record.DrawingRecord); ok {
				drawTypes = append(drawTypes, fmt.Sprintf("DrawingRecord len=%d", len(dr.Data)))
			}
		}
		fmt.Printf("round %d: drawing=%v captured=%p\n", round, drawTypes, cm.Drawing())
		if cm.Drawing() == nil {
			for i, r := range cm.Records() {
				fmt.Printf("  rec[%d] %T sid=%#x size=%d\n", i, r, r.Sid(), r.RecordSize())
			}
			for i, r := range src.Records() {
				fmt.Printf("  src[%d] %T sid=%#x size=%d\n", i, r, r.Sid(), r.RecordSize())
			}
			break
		}
	}
}
