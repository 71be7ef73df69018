// Package iso9660 implements a read-only ISO9660 (ECMA-119) filesystem
// reader with Rock Ridge name extensions and multi-extent file support, the
// way internal/gpt and internal/mbr implement their on-disk structures: byte
// accessors over sector buffers (Mount and each directory walk allocate
// their own 2048-byte buffers), no writer.
package iso9660

import (
	"errors"
)

const (
	sectorSize = 2048

	// volume descriptor types (ECMA-119 §8.1.1).
	vdTypeBoot        = 0
	vdTypePrimary     = 1
	vdTypeSupp        = 2
	vdTypePartition   = 3
	vdTypeTerminator  = 255
	firstDescriptorLBA = 16
	maxDescriptors     = 256

	stdIdentifier = "CD001"
)

var (
	// ErrNotISO9660 is returned when no Primary Volume Descriptor was found
	// within maxDescriptors sectors of LBA 16.
	ErrNotISO9660 = errors.New("iso9660: no primary volume descriptor found")
	// ErrNotFound indicates a missing path component.
	ErrNotFound = errors.New("iso9660: not found")
	// ErrNotDir indicates a path component that is not a directory was
	// walked into.
	ErrNotDir = errors.New("iso9660: not a directory")
	// ErrCorrupt indicates a structurally invalid directory record or
	// volume descriptor: a bad length, an offset that runs past its
	// sector, or a multi-extent file with more than maxExtents pieces.
	ErrCorrupt = errors.New("iso9660: corrupt structure")
)

// ByteReaderAt is the read-only disk collaborator iso9660 needs.
// *bootvol.Volume satisfies this.
type ByteReaderAt interface {
	ReadAt(p []byte, off int64) (int, error)
}

// FS is a mounted ISO9660 filesystem.
type FS struct {
	dev          ByteReaderAt
	root         dirRecord
	label        string
	useRockRidge bool
}

// Mount scans dev for a Primary Volume Descriptor starting at LBA 16 and,
// if found, prepares fsys to read through it. Logical block size is fixed
// at 2048 per ECMA-119; dev is expected to already be addressed in bytes
// (bootvol.Volume.ReadAt), not sectors.
func Mount(fsys *FS, dev ByteReaderAt) error {
	buf := make([]byte, sectorSize)
	var havePrimary bool
	var primary pvd

	for i := 0; i < maxDescriptors; i++ {
		off := int64(firstDescriptorLBA+i) * sectorSize
		if _, err := dev.ReadAt(buf, off); err != nil {
			break
		}
		if string(buf[1:6]) != stdIdentifier {
			// Not a recognized descriptor at all; keep scanning — some
			// images pad with zeroed sectors before the terminator.
			continue
		}
		switch buf[0] {
		case vdTypePrimary:
			if !havePrimary {
				primary = pvd{data: append([]byte(nil), buf...)}
				havePrimary = true
			}
		case vdTypeTerminator:
			i = maxDescriptors // Stop scanning.
		}
	}
	if !havePrimary {
		return ErrNotISO9660
	}

	root, err := parseDirRecord(primary.rootDirectoryRecord())
	if err != nil {
		return ErrCorrupt
	}
	*fsys = FS{dev: dev, root: root, label: primary.volumeIdentifier(), useRockRidge: true}
	return nil
}

// pvd is a Primary Volume Descriptor, byte-accessed per ECMA-119 §8.4.
type pvd struct {
	data []byte
}

func (p *pvd) rootDirectoryRecord() []byte { return p.data[156:190] }

func (p *pvd) volumeIdentifier() string {
	return trimDchars(p.data[40:72])
}

func trimDchars(b []byte) string {
	i := len(b)
	for i > 0 && b[i-1] == ' ' {
		i--
	}
	return string(b[:i])
}

// VolumeLabel returns the Volume Identifier of the mounted filesystem.
func (fsys *FS) VolumeLabel() string {
	return fsys.label
}
