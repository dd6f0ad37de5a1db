// biffdump inspects legacy binary workbook files at the container and
// record level. It lists the streams and storages of the OLE2 compound
// document and decodes the workbook stream record by record, which is the
// view that matters when a file round-trips wrong.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/HasaanA16/poi/hssf/record"
	"github.com/HasaanA16/poi/poifs"
)

var version = "dev"

// The workbook stream goes by different names across writer generations.
// "Book" is BIFF5; the record framing is the same, so a dump still works.
var workbookStreams = []string{"Workbook", "WORKBOOK", "BOOK", "Book"}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "biffdump",
		Short:   "Inspect legacy binary workbook files",
		Version: version,
		Long: `biffdump lists the directory entries of an OLE2 compound document
and decodes the records of its workbook stream.`,
		SilenceUsage: true,
	}
	root.AddCommand(newEntriesCmd(), newRecordsCmd())
	return root
}

func newEntriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entries <file>",
		Short: "List the container's streams and storages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := poifs.OpenFile(args[0], true)
			if err != nil {
				return err
			}
			defer fs.Close()
			if id := fs.RootClassID(); id != uuid.Nil {
				fmt.Fprintf(cmd.OutOrStdout(), "root {%s}\n", id)
			}
			dumpEntries(cmd.OutOrStdout(), fs.Root(), 0)
			return nil
		},
	}
}

func dumpEntries(w io.Writer, dir *poifs.Entry, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, e := range dir.Children() {
		if e.IsStorage() {
			if id := e.ClassID(); id != uuid.Nil {
				fmt.Fprintf(w, "%s%s/ {%s}\n", indent, printableName(e.Name()), id)
			} else {
				fmt.Fprintf(w, "%s%s/\n", indent, printableName(e.Name()))
			}
			dumpEntries(w, e, depth+1)
			continue
		}
		fmt.Fprintf(w, "%s%s  %d bytes\n", indent, printableName(e.Name()), e.Size())
	}
}

// printableName quotes entry names holding control characters, such as the
// \x05 prefix of property streams.
func printableName(name string) string {
	for _, r := range name {
		if r < 0x20 {
			return strconv.Quote(name)
		}
	}
	return name
}

func newRecordsCmd() *cobra.Command {
	var showHex bool
	cmd := &cobra.Command{
		Use:   "records <file>",
		Short: "Decode the workbook stream record by record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := poifs.OpenFile(args[0], true)
			if err != nil {
				return err
			}
			defer fs.Close()
			return dumpRecords(cmd.OutOrStdout(), fs, showHex)
		},
	}
	cmd.Flags().BoolVar(&showHex, "hex", false, "dump each record's bytes, headers included")
	return cmd
}

func dumpRecords(w io.Writer, fs *poifs.FileSystem, showHex bool) error {
	name, data, err := findWorkbookStream(fs)
	if err != nil {
		return err
	}
	records, err := record.DecodeStream(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d bytes, %d records\n", name, len(data), len(records))
	depth := 0
	for _, r := range records {
		if r.Sid() == record.XL_EOF && depth > 0 {
			depth--
		}
		fmt.Fprintf(w, "%s0x%04X %-16s %d bytes\n",
			strings.Repeat("  ", depth), r.Sid(), record.Name(r.Sid()), r.RecordSize())
		if showHex {
			buf := make([]byte, r.RecordSize())
			r.Serialize(buf)
			fmt.Fprint(w, hex.Dump(buf))
		}
		if isBOF(r.Sid()) {
			depth++
		}
	}
	return nil
}

func findWorkbookStream(fs *poifs.FileSystem) (string, []byte, error) {
	for _, name := range workbookStreams {
		if !fs.HasStream(name) {
			continue
		}
		data, err := fs.Stream(name)
		if err != nil {
			return "", nil, err
		}
		return name, data, nil
	}
	return "", nil, fmt.Errorf("the container holds no workbook stream")
}

func isBOF(sid uint16) bool {
	switch sid {
	case record.XL_BOF, record.XL_BOF_B4, record.XL_BOF_B3, record.XL_BOF_B2:
		return true
	}
	return false
}
