package bootvol

import (
	"github.com/embedops/bootvol/internal/gpt"
	"github.com/embedops/bootvol/internal/mbr"
)

// PartResult reports why PartGet did or did not produce a child Volume.
type PartResult int

const (
	// PartFound means the requested partition was located and vol is valid.
	PartFound PartResult = iota
	// PartOutOfRange means index is beyond the number of partitions the
	// disk's table(s) describe.
	PartOutOfRange
	// PartNoTable means parent carries neither a GPT nor a plausible MBR —
	// most likely the disk itself is a raw, unpartitioned filesystem.
	PartNoTable
	// PartCorrupt means a table was found but failed a structural check:
	// an impossible field value, an overflowing LBA range, or an EBR chain
	// that cycles or fails to keep strictly increasing sector numbers.
	PartCorrupt
)

const (
	maxLogicalPartitions = 256 // EBR chain-walk bound (§4.2 cycle/bounds protection).
	maxGPTEntries        = 4096
)

// whole-disk filesystem signatures that masquerade as a valid MBR boot
// signature: if any of these match at LBA 0, the "partition table" found
// there is coincidental and must be rejected rather than walked.
var wholeDiskSignatures = []struct {
	off int
	sig []byte
}{
	{3, []byte("NTFS    ")},   // NTFS OEM ID at offset 3.
	{82, []byte("FAT32   ")},  // FAT32 OEM-adjacent signature.
	{54, []byte("FAT12   ")},  // FAT12 signature at offset 54.
	{54, []byte("FAT16   ")},  // FAT16 signature at offset 54.
	{1080, []byte{0x53, 0xEF}}, // ext2/3/4 superblock magic at byte offset 1080.
}

// PartGet returns the index'th partition (1-based) of parent, registering
// the resulting Volume in ix. It tries a GPT first; failing that, a
// classic MBR with an Extended Boot Record chain for logical partitions.
// index 0 is never valid here — callers wanting the whole disk already
// have it as parent.
func PartGet(ix *Index, parent *Volume, index int) (*Volume, PartResult) {
	if parent == nil || index < 1 {
		return nil, PartOutOfRange
	}

	if entries, res := probeGPT(parent); res == PartFound {
		if index > len(entries) || !entries[index-1].valid {
			return nil, PartOutOfRange
		}
		return registerChild(ix, parent, index, entries[index-1]), PartFound
	} else if res == PartCorrupt {
		return nil, PartCorrupt
	}

	entries, res := probeMBR(parent)
	if res != PartFound {
		return nil, res
	}
	if index > len(entries) || !entries[index-1].valid {
		return nil, PartOutOfRange
	}
	return registerChild(ix, parent, index, entries[index-1]), PartFound
}

// partInfo is the filesystem-agnostic description of one partition, in
// whatever units the source table natively uses; registerChild converts to
// 512-byte units before constructing the child Volume.
type partInfo struct {
	valid          bool   // false means this slot exists but carries no partition.
	firstNativeLBA uint64
	countNative    uint64 // 0 means "unknown length", propagated as SectCountUnknown.
	partGUID       [16]byte
	hasPartGUID    bool
	name           string
}

func registerChild(ix *Index, parent *Volume, index int, p partInfo) *Volume {
	unit := uint64(parent.SectorSize / 512)
	if unit == 0 {
		unit = 1
	}
	child := &Volume{
		Disk:        parent.Disk,
		Backing:     parent,
		FirstSect:   parent.FirstSect + p.firstNativeLBA*unit,
		SectCount:   SectCountUnknown,
		SectorSize:  parent.SectorSize,
		FastestXfer: parent.FastestXfer,
		Index:       parent.Index,
		IsOptical:   parent.IsOptical,
		Partition:   index,
		PartGUID:    p.partGUID,
		HasPartGUID: p.hasPartGUID,
		PartName:    p.name,
	}
	if p.countNative != 0 {
		child.SectCount = p.countNative * unit
	}
	if ix != nil {
		ix.Register(child)
	}
	return child
}

// probeGPT looks for a GUID Partition Table at LBA 1, trying the parent's
// native sector size first and, if that signature doesn't match, the other
// of {512, 4096} — some disks report a logical block size that does not
// match the one the GPT was actually written against.
func probeGPT(parent *Volume) ([]partInfo, PartResult) {
	sizesToTry := []uint32{parent.SectorSize, otherGPTSize(parent.SectorSize)}
	for _, lbaSize := range sizesToTry {
		if lbaSize != 512 && lbaSize != 4096 {
			continue
		}
		entries, res := probeGPTAt(parent, lbaSize)
		if res == PartFound || res == PartCorrupt {
			return entries, res
		}
	}
	return nil, PartNoTable
}

func otherGPTSize(sectorSize uint32) uint32 {
	if sectorSize == 512 {
		return 4096
	}
	return 512
}

func probeGPTAt(parent *Volume, lbaSize uint32) ([]partInfo, PartResult) {
	hdrBuf := make([]byte, 92)
	if _, err := parent.ReadAt(hdrBuf, int64(lbaSize)); err != nil {
		return nil, PartNoTable
	}
	hdr, err := gpt.ToHeader(hdrBuf)
	if err != nil {
		return nil, PartNoTable
	}
	if hdr.HeaderSignature() != gpt.Signature {
		return nil, PartNoTable
	}
	if hdr.Size() < 92 {
		return nil, PartCorrupt
	}

	entrySize := hdr.SizeOfPartitionEntry()
	if entrySize < 128 || entrySize > 4096 {
		return nil, PartCorrupt
	}
	count := hdr.NumberOfPartitionEntries()
	if count > maxGPTEntries {
		return nil, PartCorrupt
	}

	tableLBA, overflow := mulOverflows(uint64(hdr.PartitionEntryLBA()), uint64(lbaSize))
	if overflow || hdr.PartitionEntryLBA() < 0 {
		return nil, PartCorrupt
	}

	// entries[i] always corresponds to on-disk table slot i: an unused slot
	// still occupies its index (as an invalid placeholder) rather than being
	// skipped, so a gap never renumbers the slots that follow it.
	entries := make([]partInfo, count)
	rowBuf := make([]byte, entrySize)
	for i := uint32(0); i < count; i++ {
		off, overflow := addOverflows(int64(tableLBA), int64(i)*int64(entrySize))
		if overflow {
			return nil, PartCorrupt
		}
		if _, err := parent.ReadAt(rowBuf, off); err != nil {
			return nil, PartCorrupt
		}
		pe, err := gpt.ToPartitionEntry(rowBuf)
		if err != nil {
			return nil, PartCorrupt
		}
		if pe.IsUnused() {
			continue // entries[i] stays the zero-value (invalid) placeholder.
		}
		first := pe.FirstLBA()
		last := pe.LastLBA()
		if first < 0 || last < first {
			return nil, PartCorrupt
		}
		nameBuf := make([]byte, 72)
		n, _ := pe.ReadName(nameBuf)

		entries[i] = partInfo{
			valid:          true,
			firstNativeLBA: uint64(first),
			countNative:    uint64(last-first) + 1,
			partGUID:       pe.UniquePartitionGUID(),
			hasPartGUID:    true,
			name:           string(nameBuf[:n]),
		}
	}
	return entries, PartFound
}

// probeMBR looks for a classic MBR at LBA 0 and, for each extended entry it
// finds, walks the Extended Boot Record chain for the logical partitions
// inside it (§4.2).
func probeMBR(parent *Volume) ([]partInfo, PartResult) {
	sectorBuf := make([]byte, 1536) // covers the ext2 superblock check at byte 1080.
	if _, err := parent.ReadAt(sectorBuf, 0); err != nil {
		sectorBuf = sectorBuf[:512] // Disk too small for the ext2 check; MBR itself still fits.
		if _, err := parent.ReadAt(sectorBuf, 0); err != nil {
			return nil, PartNoTable
		}
	}

	bs, err := mbr.ToBootSector(sectorBuf)
	if err != nil {
		return nil, PartNoTable
	}
	if bs.BootSignature() != mbr.BootSignature {
		return nil, PartNoTable
	}
	for i := 0; i < 4; i++ {
		switch bs.StatusByte(i) {
		case 0x00, 0x80:
		default:
			return nil, PartNoTable // Implausible status byte: not really an MBR.
		}
	}
	if looksLikeWholeDiskFilesystem(sectorBuf) {
		return nil, PartNoTable
	}

	// entries[i] corresponds to primary slot i for a plain partition (an
	// unused slot is an invalid placeholder at that same index, never
	// skipped); an extended slot instead splices in zero or more logical
	// partitions from its EBR chain at that position. A cycle partway
	// through one chain only terminates that chain's walk — it must never
	// discard primary entries already collected from other slots.
	var entries []partInfo
	var chainCorrupt bool
	for i := 0; i < 4; i++ {
		pte := bs.PartitionTable(i)
		if pte.PartitionType() == mbr.PartitionTypeUnused {
			entries = append(entries, partInfo{})
			continue
		}
		if pte.PartitionType().IsExtended() {
			chain, res := walkEBRChain(parent, uint64(pte.StartLBA()))
			if res == PartCorrupt {
				chainCorrupt = true
				continue // This slot contributes no logical partitions.
			}
			for _, c := range chain {
				c.valid = true
				entries = append(entries, c)
			}
			continue
		}
		entries = append(entries, partInfo{
			valid:          true,
			firstNativeLBA: uint64(pte.StartLBA()),
			countNative:    uint64(pte.NumberOfLBA()),
		})
	}

	anyValid := false
	for _, e := range entries {
		if e.valid {
			anyValid = true
			break
		}
	}
	if !anyValid {
		if chainCorrupt {
			return nil, PartCorrupt
		}
		return nil, PartNoTable
	}
	return entries, PartFound
}

// looksLikeWholeDiskFilesystem reports whether buf (the disk's first 1536
// bytes) carries a filesystem signature that happens to leave a plausible
// boot signature at 510:512 — NTFS, FAT12/16/32 and ext2 all do. Such a disk
// has no partition table at all; it is one filesystem occupying the disk.
func looksLikeWholeDiskFilesystem(buf []byte) bool {
	for _, s := range wholeDiskSignatures {
		if s.off+len(s.sig) > len(buf) {
			continue
		}
		if string(buf[s.off:s.off+len(s.sig)]) == string(s.sig) {
			return true
		}
	}
	return false
}

// walkEBRChain follows the Extended Boot Record chain starting at
// extendedFirstLBA (relative to the start of the disk), yielding one
// partInfo per logical partition. It enforces a bound on chain length and
// requires each EBR's own StartLBA (relative to extendedFirstLBA) to
// strictly increase, refusing to follow a chain that cycles back on itself.
func walkEBRChain(parent *Volume, extendedFirstLBA uint64) ([]partInfo, PartResult) {
	var entries []partInfo
	ebrLBA := extendedFirstLBA
	var lastRelStart uint64
	first := true

	for i := 0; i < maxLogicalPartitions; i++ {
		byteOff, overflow := mulOverflows(ebrLBA, 512)
		if overflow {
			return nil, PartCorrupt
		}
		buf := make([]byte, 512)
		if _, err := parent.ReadAt(buf, int64(byteOff)); err != nil {
			return nil, PartCorrupt
		}
		bs, err := mbr.ToBootSector(buf)
		if err != nil || bs.BootSignature() != mbr.BootSignature {
			return nil, PartCorrupt
		}

		logical := bs.PartitionTable(0)
		next := bs.PartitionTable(1)

		if logical.PartitionType() != mbr.PartitionTypeUnused {
			logicalStart := ebrLBA + uint64(logical.StartLBA())
			entries = append(entries, partInfo{
				firstNativeLBA: logicalStart,
				countNative:    uint64(logical.NumberOfLBA()),
			})
		}

		if next.PartitionType() == mbr.PartitionTypeUnused || next.StartLBA() == 0 {
			break // End of chain.
		}
		relStart := uint64(next.StartLBA())
		if !first && relStart <= lastRelStart {
			return nil, PartCorrupt // Not strictly increasing: a cycle or corruption.
		}
		first = false
		lastRelStart = relStart
		ebrLBA = extendedFirstLBA + relStart
	}
	return entries, PartFound
}

func mulOverflows(a, b uint64) (product uint64, overflow bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	product = a * b
	return product, product/a != b
}
