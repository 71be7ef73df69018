// Package mbr implements a read-only Master Boot Record / Extended Boot
// Record parser: the bootstrap code is ignored, but the partition table
// entries and boot signature are exposed as byte accessors over a
// caller-supplied 512-byte sector, the way internal/gpt exposes the GPT
// header. There is no writer — bootvol is read-only end to end.
package mbr

import (
	"encoding/binary"
	"errors"
)

const (
	bootstrapLen     = 440
	uniqueDiskIDOff  = bootstrapLen
	pteOffset        = bootstrapLen + 4 + 2
	pteLen           = 16 // partition table entry length
	bootSignatureOff = 510
	BootSignature    = 0xAA55
)

// ToBootSector converts a byte slice to an MBR/EBR BootSector while
// maintaining a reference to the original byte slice. The byte slice must be
// at least 512 bytes long and the first byte of the slice must be the first
// byte of the sector.
func ToBootSector(start []byte) (BootSector, error) {
	if len(start) < 512 {
		return BootSector{}, errors.New("boot sector too short")
	}
	return BootSector{data: start[:512:512]}, nil
}

// BootSector is a Master Boot Record or Extended Boot Record: both share the
// same 512-byte layout, differing only in how many of the four partition
// table entries are meaningful (all four for an MBR; the first two — one
// real entry, one chain-continuation entry — for an EBR).
type BootSector struct {
	data []byte
}

// PartitionTableEntry represents one of the partition table entries in a
// BootSector.
// See https://en.wikipedia.org/wiki/Master_boot_record#PTE for more
// information.
type PartitionTableEntry struct {
	data [pteLen]byte
}

// Bootstrap returns bytes 0..439 of the sector containing the binary
// executable code. Never inspected by the parser; present for completeness.
func (mbr *BootSector) Bootstrap() []byte {
	return mbr.data[0:bootstrapLen]
}

// UniqueDiskID returns the 32-bit disk signature at offset 440. Meaningful
// only on a true MBR, not an EBR.
func (mbr *BootSector) UniqueDiskID() uint32 {
	return binary.LittleEndian.Uint32(mbr.data[uniqueDiskIDOff : uniqueDiskIDOff+4])
}

// BootSignature returns the boot signature of the sector. This is a magic
// number that indicates that this is a valid MBR or EBR.
func (mbr *BootSector) BootSignature() uint16 {
	return binary.LittleEndian.Uint16(mbr.data[bootSignatureOff : bootSignatureOff+2])
}

// StatusByte returns the raw status byte (offset 0) of the idx'th partition
// table entry (idx in 0..3), before interpreting it as DriveAttributes. A
// plausibility check on the whole sector looks at this byte directly (must
// be 0x00 or 0x80) before any entry is trusted enough to read as a
// PartitionTableEntry.
func (mbr *BootSector) StatusByte(idx int) byte {
	if idx > 3 || idx < 0 {
		panic("invalid partition table index")
	}
	return mbr.data[pteOffset+idx*pteLen]
}

// PartitionTable returns the idx'th partition table entry of the sector
// (idx in 0..3).
func (mbr *BootSector) PartitionTable(idx int) PartitionTableEntry {
	if idx > 3 || idx < 0 {
		panic("invalid partition table index")
	}
	return PartitionTableEntry{
		data: [pteLen]byte(mbr.data[pteOffset+idx*pteLen : pteOffset+(idx+1)*pteLen]),
	}
}

// Attributes returns the attributes of the partition the PTE refers to.
func (pte *PartitionTableEntry) Attributes() DriveAttributes {
	return DriveAttributes(pte.data[0])
}

// PartitionType returns the type the partition refers to, such as whether
// the partition is formatted as FAT32, NTFS, exFAT, Linux etc.
func (pte *PartitionTableEntry) PartitionType() PartitionType {
	return PartitionType(pte.data[4])
}

// StartLBA returns the starting sector of the partition in LBA format
// (logical block address). On a primary entry this is relative to the start
// of the disk; on an EBR's logical-partition entry it is relative to that
// EBR, and on its chain-continuation entry to the start of the extended
// partition (its first EBR).
func (pte *PartitionTableEntry) StartLBA() uint32 {
	return binary.LittleEndian.Uint32(pte.data[8:12])
}

// NumberOfLBA returns the number of sectors (logical block addresses) in the
// partition.
func (pte *PartitionTableEntry) NumberOfLBA() uint32 {
	return binary.LittleEndian.Uint32(pte.data[12:16])
}

// IsBootable returns true if the partition the PTE refers to is bootable.
func (attrs DriveAttributes) IsBootable() bool {
	return attrs&DriveAttrsBootable != 0
}

// PartitionType refers to the type of partition the Partition Table Entry
// refers to.
type PartitionType byte

const (
	PartitionTypeUnused      PartitionType = 0x00
	PartitionTypeFAT12       PartitionType = 0x01
	PartitionTypeFAT16       PartitionType = 0x04
	PartitionTypeExtendedCHS PartitionType = 0x05
	PartitionTypeFAT16B      PartitionType = 0x06
	PartitionTypeFAT32CHS    PartitionType = 0x0B
	PartitionTypeFAT32LBA    PartitionType = 0x0C
	PartitionTypeFAT16LBA    PartitionType = 0x0E
	PartitionTypeExtendedLBA PartitionType = 0x0F
	PartitionTypeNTFS        PartitionType = 0x07 // Also includes exFAT.
	PartitionTypeLinux       PartitionType = 0x83
	PartitionTypeFreeBSD     PartitionType = 0xA5
	PartitionTypeAppleHFS    PartitionType = 0xAF
)

// IsExtended reports whether t identifies an extended (container) partition,
// CHS or LBA addressed.
func (t PartitionType) IsExtended() bool {
	return t == PartitionTypeExtendedCHS || t == PartitionTypeExtendedLBA
}

// DriveAttributes refers to the first byte of a Partition Table Entry. It
// specifies if the partition is bootable.
type DriveAttributes byte

const (
	DriveAttrsBootable DriveAttributes = 0x80
)
