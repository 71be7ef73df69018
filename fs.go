package bootvol

import (
	"errors"
	"io"

	"github.com/embedops/bootvol/fat"
	"github.com/embedops/bootvol/iso9660"
)

// fsKind identifies which filesystem driver a Volume mounted with.
type fsKind int

const (
	fsNone fsKind = iota
	fsFAT
	fsISO9660
)

// mounted holds the per-Volume filesystem state built lazily the first time
// a caller opens a path or asks for a label/GUID that requires probing the
// volume's contents (§5: filesystem probing happens after partition
// discovery, never before).
type mounted struct {
	kind fsKind
	fat  *fat.FS
	iso  *iso9660.FS
}

// probe detects and mounts the filesystem on vol, trying ISO9660 first
// (its signature scan is cheap and unambiguous — "CD001" at a fixed LBA)
// and falling back to FAT. The FAT driver mounts FAT32 volumes only; a
// FAT12 or FAT16 volume is reported as ErrUnsupportedFS. It caches a
// successful result on the Volume so repeated Open calls don't re-probe.
func probe(vol *Volume) (*mounted, error) {
	if vol.mnt != nil {
		return vol.mnt, nil
	}

	var isofs iso9660.FS
	if err := iso9660.Mount(&isofs, vol); err == nil {
		m := &mounted{kind: fsISO9660, iso: &isofs}
		vol.mnt = m
		vol.FSLabel = isofs.VolumeLabel()
		return m, nil
	}

	var fatfs fat.FS
	dev := fat.VolumeDevice{Vol: vol, BlockSize: int(vol.SectorSize)}
	if err := fatfs.Mount(dev, int(vol.SectorSize), fat.ModeRead); err == nil {
		m := &mounted{kind: fsFAT, fat: &fatfs}
		vol.mnt = m
		if label, err := fatfs.Label(); err == nil {
			vol.FSLabel = label
		}
		return m, nil
	}

	return nil, ErrUnsupportedFS
}

// File is a read-only handle to an open file, unifying bootvol/fat.File and
// bootvol/iso9660.File behind one type so callers don't need to know which
// filesystem served a given Volume.
type File struct {
	fatFile *fat.File
	isoFile *iso9660.File
}

// Read implements io.Reader.
func (f *File) Read(p []byte) (int, error) {
	if f.fatFile != nil {
		return f.fatFile.Read(p)
	}
	return f.isoFile.Read(p)
}

// Close releases the file. ISO9660 files need no teardown; FAT files close
// through the underlying engine.
func (f *File) Close() error {
	if f.fatFile != nil {
		return f.fatFile.Close()
	}
	return nil
}

// Size returns the file's length in bytes.
func (f *File) Size() int64 {
	if f.fatFile != nil {
		return f.fatFile.Size()
	}
	return f.isoFile.Size()
}

// Open resolves path (absolute, "/"-separated) against vol's filesystem and
// returns a readable handle to it. The filesystem is probed and mounted on
// first use and cached on vol for subsequent calls.
func Open(vol *Volume, path string) (*File, error) {
	m, err := probe(vol)
	if err != nil {
		return nil, err
	}
	switch m.kind {
	case fsFAT:
		fp := new(fat.File)
		if err := m.fat.OpenFile(fp, path, fat.ModeRead); err != nil {
			return nil, translateFATError(err)
		}
		return &File{fatFile: fp}, nil
	case fsISO9660:
		fp, err := m.iso.Open(path)
		if err != nil {
			return nil, translateISOError(err)
		}
		return &File{isoFile: fp}, nil
	default:
		return nil, ErrUnsupportedFS
	}
}

// ForEachEntry lists the directory named by path, calling fn with each
// entry's name, whether it is itself a directory, and its size. It stops
// and returns fn's error if fn returns one.
func ForEachEntry(vol *Volume, path string, fn func(name string, isDir bool, size int64) error) error {
	m, err := probe(vol)
	if err != nil {
		return err
	}
	switch m.kind {
	case fsFAT:
		var dp fat.Dir
		if err := m.fat.OpenDir(&dp, path); err != nil {
			return translateFATError(err)
		}
		return dp.ForEachFile(func(fi *fat.FileInfo) error {
			return fn(fi.Name(), fi.IsDir(), fi.Size())
		})
	case fsISO9660:
		return m.iso.ForEachFile(path, func(fi *iso9660.FileInfo) error {
			return fn(fi.Name(), fi.IsDir(), fi.Size())
		})
	default:
		return ErrUnsupportedFS
	}
}

// Label returns the filesystem's volume label, or the empty string if the
// filesystem format has none or doesn't carry one. probe populates
// vol.FSLabel as a side effect of mounting, so Label is just that.
func Label(vol *Volume) (string, error) {
	if _, err := probe(vol); err != nil {
		return "", err
	}
	return vol.FSLabel, nil
}

func translateFATError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return err
	}
	return ErrNotFound
}

func translateISOError(err error) error {
	switch {
	case errors.Is(err, iso9660.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, iso9660.ErrCorrupt):
		return ErrCorrupt
	default:
		return err
	}
}
