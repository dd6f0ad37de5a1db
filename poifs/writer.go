package poifs

import (
	"encoding/binary"
	"sort"
)

// layoutEntry carries the per-entry state of one relayout pass.
type layoutEntry struct {
	e      *Entry
	did    uint32
	isMini bool
	start  uint32
	size   uint64
	left   uint32
	right  uint32
	child  uint32
}

func divCeil(n, d int) int {
	return (n + d - 1) / d
}

// build lays the whole document out from scratch: mini stream, allocation
// tables, directory, header. Stream bytes are emitted exactly as held in
// memory, so untouched streams survive a rewrite unchanged.
func (fs *FileSystem) build() ([]byte, error) {
	// Flatten the tree, assigning directory IDs in preorder.
	var flat []*layoutEntry
	byEntry := make(map[*Entry]*layoutEntry)
	var flatten func(e *Entry)
	flatten = func(e *Entry) {
		le := &layoutEntry{
			e:     e,
			did:   uint32(len(flat)),
			start: END_OF_CHAIN,
			left:  NO_STREAM,
			right: NO_STREAM,
			child: NO_STREAM,
		}
		flat = append(flat, le)
		byEntry[e] = le
		for _, c := range e.children {
			flatten(c)
		}
	}
	flatten(fs.root)

	// Sibling trees, one balanced BST per storage in collation order.
	for _, le := range flat {
		if !le.e.IsStorage() || len(le.e.children) == 0 {
			continue
		}
		kids := make([]*layoutEntry, len(le.e.children))
		for i, c := range le.e.children {
			kids[i] = byEntry[c]
		}
		sort.SliceStable(kids, func(i, j int) bool {
			return compareNames(kids[i].e.name, kids[j].e.name) < 0
		})
		le.child = buildSiblingBST(kids)
	}

	// Mini stream: short streams are packed into 64 byte mini sectors.
	var miniData []byte
	var miniFAT []uint32
	for _, le := range flat {
		if !le.e.IsStream() {
			continue
		}
		le.size = uint64(len(le.e.data))
		if le.size == 0 || le.size >= MINI_STREAM_CUTOFF {
			continue
		}
		le.isMini = true
		le.start = uint32(len(miniFAT))
		n := divCeil(len(le.e.data), MINI_SECTOR_SIZE)
		for i := 0; i < n; i++ {
			next := uint32(len(miniFAT) + 1)
			if i == n-1 {
				next = END_OF_CHAIN
			}
			miniFAT = append(miniFAT, next)
		}
		miniData = append(miniData, le.e.data...)
		if pad := n*MINI_SECTOR_SIZE - len(le.e.data); pad > 0 {
			miniData = append(miniData, make([]byte, pad)...)
		}
	}

	rootLE := flat[0]
	rootLE.size = uint64(len(miniData))
	if len(miniData) == 0 {
		rootLE.start = END_OF_CHAIN
	}

	// Sector budget: big streams, mini stream container, mini FAT,
	// directory, then FAT and DIFAT solved to a fixed point.
	pos := uint32(0)
	for _, le := range flat {
		if le.e.IsStream() && !le.isMini && le.size > 0 {
			le.start = pos
			pos += uint32(divCeil(int(le.size), SECTOR_SIZE))
		}
	}
	if len(miniData) > 0 {
		rootLE.start = pos
		pos += uint32(divCeil(len(miniData), SECTOR_SIZE))
	}

	miniFATStart := pos
	miniFATSectors := divCeil(len(miniFAT)*4, SECTOR_SIZE)
	pos += uint32(miniFATSectors)

	dirStart := pos
	dirSectors := divCeil(len(flat)*DIR_ENTRY_SIZE, SECTOR_SIZE)
	pos += uint32(dirSectors)

	dataSectors := int(pos)
	numFAT, numDIFAT := 0, 0
	for {
		total := dataSectors + numFAT + numDIFAT
		needFAT := divCeil(total, SECTOR_SIZE/4)
		needDIFAT := 0
		if needFAT > MAX_HEADER_DIFAT {
			needDIFAT = divCeil(needFAT-MAX_HEADER_DIFAT, SECTOR_SIZE/4-1)
		}
		if needFAT == numFAT && needDIFAT == numDIFAT {
			break
		}
		numFAT, numDIFAT = needFAT, needDIFAT
	}
	fatStart := pos
	pos += uint32(numFAT)
	difatStart := pos
	pos += uint32(numDIFAT)
	totalSectors := int(pos)

	// FAT contents.
	fat := make([]uint32, numFAT*(SECTOR_SIZE/4))
	for i := range fat {
		fat[i] = FREE_SECTOR
	}
	markChain := func(start uint32, count int) {
		for i := 0; i < count; i++ {
			if i == count-1 {
				fat[int(start)+i] = END_OF_CHAIN
			} else {
				fat[int(start)+i] = start + uint32(i) + 1
			}
		}
	}
	for _, le := range flat {
		if le.e.IsStream() && !le.isMini && le.size > 0 {
			markChain(le.start, divCeil(int(le.size), SECTOR_SIZE))
		}
	}
	if len(miniData) > 0 {
		markChain(rootLE.start, divCeil(len(miniData), SECTOR_SIZE))
	}
	if miniFATSectors > 0 {
		markChain(miniFATStart, miniFATSectors)
	}
	markChain(dirStart, dirSectors)
	for i := 0; i < numFAT; i++ {
		fat[int(fatStart)+i] = FAT_SECTOR
	}
	for i := 0; i < numDIFAT; i++ {
		fat[int(difatStart)+i] = DIFAT_SECTOR
	}

	out := make([]byte, HEADER_SIZE+totalSectors*SECTOR_SIZE)
	sectorOff := func(id uint32) int {
		return HEADER_SIZE + int(id)*SECTOR_SIZE
	}

	// Stream and mini stream bytes. Sector padding stays zero.
	for _, le := range flat {
		if le.e.IsStream() && !le.isMini && le.size > 0 {
			copy(out[sectorOff(le.start):], le.e.data)
		}
	}
	if len(miniData) > 0 {
		copy(out[sectorOff(rootLE.start):], miniData)
	}

	// Mini FAT sectors, padded with free markers.
	for i := 0; i < miniFATSectors*(SECTOR_SIZE/4); i++ {
		v := uint32(FREE_SECTOR)
		if i < len(miniFAT) {
			v = miniFAT[i]
		}
		off := sectorOff(miniFATStart) + i*4
		binary.LittleEndian.PutUint32(out[off:off+4], v)
	}

	// Directory sectors, padded with unused entries.
	for i := 0; i < dirSectors*(SECTOR_SIZE/DIR_ENTRY_SIZE); i++ {
		off := sectorOff(dirStart) + i*DIR_ENTRY_SIZE
		b := out[off : off+DIR_ENTRY_SIZE]
		if i >= len(flat) {
			writeRawDirEntry(b, &rawDirEntry{etype: ENTRY_UNUSED})
			continue
		}
		le := flat[i]
		raw := &rawDirEntry{
			name:     le.e.name,
			etype:    le.e.etype,
			color:    le.e.color,
			left:     le.left,
			right:    le.right,
			child:    le.child,
			classID:  le.e.classID,
			state:    le.e.state,
			created:  le.e.created,
			modified: le.e.modified,
			start:    le.start,
			size:     le.size,
		}
		if le.e.etype == ENTRY_STORAGE {
			raw.start = 0
			raw.size = 0
		}
		writeRawDirEntry(b, raw)
	}

	// FAT sectors.
	for i, v := range fat {
		off := sectorOff(fatStart) + i*4
		binary.LittleEndian.PutUint32(out[off:off+4], v)
	}

	// DIFAT overflow sectors: 127 FAT IDs each plus a next pointer.
	fatIDs := make([]uint32, numFAT)
	for i := range fatIDs {
		fatIDs[i] = fatStart + uint32(i)
	}
	perDIFAT := SECTOR_SIZE/4 - 1
	for s := 0; s < numDIFAT; s++ {
		off := sectorOff(difatStart + uint32(s))
		for i := 0; i < perDIFAT; i++ {
			ix := MAX_HEADER_DIFAT + s*perDIFAT + i
			v := uint32(FREE_SECTOR)
			if ix < len(fatIDs) {
				v = fatIDs[ix]
			}
			binary.LittleEndian.PutUint32(out[off+i*4:off+i*4+4], v)
		}
		next := uint32(END_OF_CHAIN)
		if s < numDIFAT-1 {
			next = difatStart + uint32(s) + 1
		}
		binary.LittleEndian.PutUint32(out[off+perDIFAT*4:off+perDIFAT*4+4], next)
	}

	h := &header{
		numFAT:       uint32(numFAT),
		firstDir:     dirStart,
		firstMiniFAT: END_OF_CHAIN,
		numMiniFAT:   uint32(miniFATSectors),
		firstDIFAT:   END_OF_CHAIN,
		numDIFAT:     uint32(numDIFAT),
	}
	if miniFATSectors > 0 {
		h.firstMiniFAT = miniFATStart
	}
	if numDIFAT > 0 {
		h.firstDIFAT = difatStart
	}
	for i := 0; i < MAX_HEADER_DIFAT; i++ {
		if i < len(fatIDs) {
			h.difat[i] = fatIDs[i]
		} else {
			h.difat[i] = FREE_SECTOR
		}
	}
	writeHeader(out[:HEADER_SIZE], h)
	return out, nil
}

// buildSiblingBST links sorted siblings into a balanced binary tree and
// returns the directory ID of its root.
func buildSiblingBST(kids []*layoutEntry) uint32 {
	if len(kids) == 0 {
		return NO_STREAM
	}
	mid := len(kids) / 2
	root := kids[mid]
	root.left = buildSiblingBST(kids[:mid])
	root.right = buildSiblingBST(kids[mid+1:])
	return root.did
}
