package poifs

import (
	"encoding/binary"
)

// docReader holds the raw bytes of a compound document together with the
// allocation tables decoded from them.
type docReader struct {
	header     *header
	data       []byte
	fat        []uint32
	miniFAT    []uint32
	miniStream []byte
}

// sector returns the contents of the given sector, padding a truncated final
// sector with zeros. Writers in the wild drop the tail of the last sector.
func (r *docReader) sector(id uint32) ([]byte, error) {
	size := r.header.sectorSize()
	start := HEADER_SIZE + int(id)*size
	if start >= len(r.data) {
		return nil, NewFormatError("sector %d starts at offset %d, beyond the %d byte document", id, start, len(r.data))
	}
	end := start + size
	if end <= len(r.data) {
		return r.data[start:end], nil
	}
	padded := make([]byte, size)
	copy(padded, r.data[start:])
	return padded, nil
}

func (r *docReader) maxSectors() int {
	n := len(r.data) - HEADER_SIZE
	if n <= 0 {
		return 0
	}
	size := r.header.sectorSize()
	return (n + size - 1) / size
}

// readFAT assembles the full FAT from the header DIFAT entries and any
// overflow DIFAT sectors.
func (r *docReader) readFAT() error {
	fatSectors := make([]uint32, 0, r.header.numFAT)
	for i := 0; i < MAX_HEADER_DIFAT && len(fatSectors) < int(r.header.numFAT); i++ {
		id := r.header.difat[i]
		if id == FREE_SECTOR || id == END_OF_CHAIN {
			break
		}
		fatSectors = append(fatSectors, id)
	}

	entriesPerSector := r.header.sectorSize() / 4
	difatID := r.header.firstDIFAT
	for n := 0; difatID != END_OF_CHAIN && difatID != FREE_SECTOR; n++ {
		if n > int(r.header.numDIFAT) {
			return NewFormatError("DIFAT chain is longer than the %d sectors the header declares", r.header.numDIFAT)
		}
		sec, err := r.sector(difatID)
		if err != nil {
			return err
		}
		for i := 0; i < entriesPerSector-1 && len(fatSectors) < int(r.header.numFAT); i++ {
			id := binary.LittleEndian.Uint32(sec[i*4 : i*4+4])
			if id == FREE_SECTOR || id == END_OF_CHAIN {
				break
			}
			fatSectors = append(fatSectors, id)
		}
		difatID = binary.LittleEndian.Uint32(sec[len(sec)-4:])
	}

	if len(fatSectors) < int(r.header.numFAT) {
		return NewFormatError("header declares %d FAT sectors but the DIFAT lists only %d", r.header.numFAT, len(fatSectors))
	}

	r.fat = make([]uint32, 0, len(fatSectors)*entriesPerSector)
	for _, id := range fatSectors {
		sec, err := r.sector(id)
		if err != nil {
			return err
		}
		for i := 0; i < entriesPerSector; i++ {
			r.fat = append(r.fat, binary.LittleEndian.Uint32(sec[i*4:i*4+4]))
		}
	}
	return nil
}

// readMiniFAT decodes the mini FAT chain named in the header.
func (r *docReader) readMiniFAT() error {
	if r.header.firstMiniFAT == END_OF_CHAIN || r.header.numMiniFAT == 0 {
		return nil
	}
	raw, err := r.readChain(r.header.firstMiniFAT, "mini FAT")
	if err != nil {
		return err
	}
	r.miniFAT = make([]uint32, len(raw)/4)
	for i := range r.miniFAT {
		r.miniFAT[i] = binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
	}
	return nil
}

// chainIDs walks a FAT chain from start, guarding against cycles and sector
// IDs outside the table.
func chainIDs(start uint32, table []uint32, what string) ([]uint32, error) {
	var ids []uint32
	for id := start; id != END_OF_CHAIN; {
		if id >= uint32(len(table)) {
			return nil, NewFormatError("%s chain references invalid sector 0x%08X (table has %d entries)", what, id, len(table))
		}
		ids = append(ids, id)
		if len(ids) > len(table) {
			return nil, NewFormatError("%s chain is cyclic", what)
		}
		id = table[id]
	}
	return ids, nil
}

// readChain materializes a whole FAT chain into one byte slice.
func (r *docReader) readChain(start uint32, what string) ([]byte, error) {
	ids, err := chainIDs(start, r.fat, what)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(ids)*r.header.sectorSize())
	for _, id := range ids {
		sec, err := r.sector(id)
		if err != nil {
			return nil, err
		}
		out = append(out, sec...)
	}
	return out, nil
}

// readStream materializes a stream of the declared size, choosing the mini
// stream for short streams the way the cutoff rule demands.
func (r *docReader) readStream(name string, start uint32, size uint64, isRoot bool) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	if !isRoot && size < uint64(r.header.miniCutoff) {
		ids, err := chainIDs(start, r.miniFAT, "mini stream \""+name+"\"")
		if err != nil {
			return nil, err
		}
		capacity := uint64(len(ids) * MINI_SECTOR_SIZE)
		if size > capacity {
			return nil, NewFormatError("stream %q declares %d bytes but its mini chain holds only %d", name, size, capacity)
		}
		out := make([]byte, 0, capacity)
		for _, id := range ids {
			off := int(id) * MINI_SECTOR_SIZE
			if off+MINI_SECTOR_SIZE > len(r.miniStream) {
				return nil, NewFormatError("stream %q references mini sector %d beyond the %d byte mini stream", name, id, len(r.miniStream))
			}
			out = append(out, r.miniStream[off:off+MINI_SECTOR_SIZE]...)
		}
		return out[:size], nil
	}

	raw, err := r.readChain(start, "stream \""+name+"\"")
	if err != nil {
		return nil, err
	}
	if size > uint64(len(raw)) {
		return nil, NewFormatError("stream %q declares %d bytes but its chain holds only %d", name, size, len(raw))
	}
	return raw[:size], nil
}
