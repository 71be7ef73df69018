// Package gpt implements a read-only GUID Partition Table (UEFI 2.x) parser:
// byte accessors over a caller-supplied header and partition-entry buffer.
// There is no writer — bootvol never creates or repairs partition tables.
package gpt

import (
	"encoding/binary"
	"errors"

	"github.com/embedops/bootvol/internal/utf16x"
)

const (
	pteNameOff = 56
	pteNameLen = 72

	// Signature is the 8-byte "EFI PART" magic expected at header offset 0.
	Signature uint64 = 0x5452415020494645
)

// Header is a GPT header, primary or backup.
type Header struct {
	data []byte
}

// ToHeader wraps a byte slice (at least 92 bytes) as a GPT Header.
func ToHeader(start []byte) (Header, error) {
	if len(start) < 92 {
		return Header{}, errors.New("gpt header too short")
	}
	return Header{data: start[:92:92]}, nil
}

// HeaderSignature returns the 8-byte signature at the start of the GPT
// header. A valid header has Signature.
func (h *Header) HeaderSignature() (sig uint64) {
	return binary.LittleEndian.Uint64(h.data[0:8])
}

// Revision returns the GPT Header revision number. [0,0,1,0] for UEFI 2.10.
func (h *Header) Revision() uint32 {
	return binary.LittleEndian.Uint32(h.data[8:12])
}

// Size returns the size of the GPT header in bytes, usually 92.
func (h *Header) Size() uint32 {
	return binary.LittleEndian.Uint32(h.data[12:16])
}

// CRC returns the CRC32 of the GPT header.
func (h *Header) CRC() uint32 {
	return binary.LittleEndian.Uint32(h.data[16:20])
}

// Bytes 20..24 are reserved and should be zero.

// CurrentLBA returns the LBA of the current GPT header.
func (h *Header) CurrentLBA() int64 {
	return int64(binary.LittleEndian.Uint64(h.data[24:32]))
}

// BackupLBA returns the LBA of the backup GPT header.
func (h *Header) BackupLBA() int64 {
	return int64(binary.LittleEndian.Uint64(h.data[32:40]))
}

// FirstUsableLBA returns the first LBA not used by the header, partition
// table and partition entries.
func (h *Header) FirstUsableLBA() int64 {
	return int64(binary.LittleEndian.Uint64(h.data[40:48]))
}

// LastUsableLBA returns the last usable LBA of the disk (inclusive).
func (h *Header) LastUsableLBA() int64 {
	return int64(binary.LittleEndian.Uint64(h.data[48:56]))
}

// DiskGUID returns the GUID of the disk.
func (h *Header) DiskGUID() (guid [16]byte) {
	copy(guid[:], h.data[56:72])
	return guid
}

// PartitionEntryLBA returns the LBA of the start of the partition table.
// Usually 2, since 0 is the protective MBR and 1 is this header.
func (h *Header) PartitionEntryLBA() int64 {
	return int64(binary.LittleEndian.Uint64(h.data[72:80]))
}

// NumberOfPartitionEntries returns the number of partition entries in the
// partition table, including unused (all-zero type GUID) ones.
func (h *Header) NumberOfPartitionEntries() uint32 {
	return binary.LittleEndian.Uint32(h.data[80:84])
}

// SizeOfPartitionEntry returns the size in bytes of each partition entry,
// usually 128 but authoritative over any hardcoded struct size: a parser
// must stride by this field, not by sizeof(PartitionEntry).
func (h *Header) SizeOfPartitionEntry() uint32 {
	return binary.LittleEndian.Uint32(h.data[84:88])
}

// CRCOfPartitionEntries returns the CRC32 of the partition entries array.
func (h *Header) CRCOfPartitionEntries() uint32 {
	return binary.LittleEndian.Uint32(h.data[88:92])
}

// PartitionEntry represents a single partition entry in the GPT partition
// table. Usually 128 bytes, but callers should size the slice by
// Header.SizeOfPartitionEntry, not this struct.
type PartitionEntry struct {
	data []byte
}

// PartitionAttributes is the 64-bit attribute bitmask of a GPT partition
// entry.
type PartitionAttributes uint64

const (
	AttrPlatformRequired PartitionAttributes = 1 << 0
	AttrNoBlockIOProto   PartitionAttributes = 1 << 1
	AttrLegacyBIOSBoot   PartitionAttributes = 1 << 2
)

// ToPartitionEntry wraps a byte slice (at least 128 bytes) as a PartitionEntry.
func ToPartitionEntry(start []byte) (PartitionEntry, error) {
	if len(start) < 128 {
		return PartitionEntry{}, errors.New("gpt partition entry too short")
	}
	return PartitionEntry{data: start[:128:128]}, nil
}

// IsUnused reports whether the entry's partition type GUID is all zero,
// meaning the slot does not describe a partition.
func (p *PartitionEntry) IsUnused() bool {
	guid := p.PartitionTypeGUID()
	return guid == [16]byte{}
}

// PartitionTypeGUID returns the GUID of the partition type.
func (p *PartitionEntry) PartitionTypeGUID() (guid [16]byte) {
	copy(guid[:], p.data[0:16])
	return
}

// UniquePartitionGUID returns the GUID of the partition.
func (p *PartitionEntry) UniquePartitionGUID() (guid [16]byte) {
	copy(guid[:], p.data[16:32])
	return
}

// FirstLBA returns the first LBA of the partition.
func (p *PartitionEntry) FirstLBA() int64 {
	return int64(binary.LittleEndian.Uint64(p.data[32:40]))
}

// LastLBA returns the last LBA of the partition (inclusive). Total LBA
// count is (LastLBA - FirstLBA) + 1.
func (p *PartitionEntry) LastLBA() int64 {
	return int64(binary.LittleEndian.Uint64(p.data[40:48]))
}

// Attributes returns the attributes of the partition.
func (p *PartitionEntry) Attributes() PartitionAttributes {
	return PartitionAttributes(binary.LittleEndian.Uint64(p.data[48:56]))
}

// ReadName decodes the partition's null-terminated UTF-16LE name into b as
// UTF-8, returning the number of bytes written.
func (p *PartitionEntry) ReadName(b []byte) (int, error) {
	n16 := 0
	for ; n16 < pteNameLen; n16 += 2 {
		off := pteNameOff + n16
		wc := binary.LittleEndian.Uint16(p.data[off:])
		if wc == 0 {
			break
		}
	}
	return utf16x.ToUTF8(b, p.data[pteNameOff:pteNameOff+n16], binary.LittleEndian)
}
