package fat

import (
	"errors"
	"io"
	"math"
	"strings"
	"time"
)

// Mode represents the file access mode used internally by the FatFs engine.
// Mount and OpenFile only ever see ModeRead from bootvol's own callers
// (fs.go never constructs a write mode); the write-mode bits stay defined
// because the shared cluster/directory-walk code in fat.go branches on them
// internally, but nothing in this package's exported surface accepts or
// produces anything but ModeRead.
type Mode uint8

const (
	ModeRead  Mode = Mode(faRead)
	ModeWrite Mode = Mode(faWrite) // Referenced by fat.go's shared directory/cluster code; never passed in by bootvol.
	ModeRW    Mode = ModeRead | ModeWrite

	allowedModes = ModeRead
)

var (
	errInvalidMode   = errors.New("invalid fat access mode")
	errForbiddenMode = errors.New("forbidden fat access mode: fat is mounted read-only")
)

// Dir represents an open FAT directory.
type Dir struct {
	dir
	inlineInfo FileInfo
}

// Mount mounts the FAT file system on the given block device and sector
// size. It immediately invalidates previously open files and directories
// pointing to the same FS. mode must be ModeRead: bootvol never mounts a
// FAT volume for writing.
func (fsys *FS) Mount(bd BlockDevice, blockSize int, mode Mode) error {
	if mode != ModeRead {
		return errInvalidMode
	} else if blockSize > math.MaxUint16 {
		return errors.New("sector size too large")
	}
	fr := fsys.mount_volume(bd, uint16(blockSize), uint8(mode))
	if fr != frOK {
		return fr
	}
	return nil
}

// OpenFile opens the named file for reading. The path must be absolute
// (starting with a slash) and must not contain any elements that are "."
// or "..".
func (fsys *FS) OpenFile(fp *File, path string, mode Mode) error {
	prohibited := (mode & ModeRW) &^ fsys.perm
	if mode&^allowedModes != 0 {
		return errInvalidMode
	} else if prohibited != 0 {
		return errForbiddenMode
	}
	fr := fsys.f_open(fp, path, uint8(mode))
	if fr != frOK {
		return fr
	}
	return nil
}

// Read reads up to len(buf) bytes from the File. It implements the [io.Reader] interface.
func (fp *File) Read(buf []byte) (int, error) {
	fr := fp.obj.validate()
	if fr != frOK {
		return 0, fr
	}
	br, fr := fp.f_read(buf)
	if fr != frOK {
		return br, fr
	} else if br == 0 && fr == frOK {
		return br, io.EOF
	}
	return br, nil
}

// Close closes the file.
func (fp *File) Close() error {
	fr := fp.obj.validate()
	if fr != frOK {
		return fr
	}

	fr = fp.f_close()
	if fr != frOK {
		return fr
	}
	return nil
}

// Mode returns the lowest 2 bits of the file's permission (read, write or both).
func (fp *File) Mode() Mode {
	return Mode(fp.flag & 3)
}

// Size returns the file's length in bytes as recorded in its directory entry.
func (fp *File) Size() int64 {
	return fp.obj.objsize
}

// OpenDir opens the named directory for reading.
func (fsys *FS) OpenDir(dp *Dir, path string) error {
	fr := fsys.f_opendir(&dp.dir, path)
	if fr != frOK {
		return fr
	}
	return nil
}

// ForEachFile calls the callback function for each file in the directory.
func (dp *Dir) ForEachFile(callback func(*FileInfo) error) error {
	fr := dp.obj.validate()
	if fr != frOK {
		return fr
	} else if dp.obj.fs.perm&ModeRead == 0 {
		return errForbiddenMode
	}

	fr = dp.sdi(0) // Rewind directory.
	if fr != frOK {
		return fr
	}
	for {
		fr := dp.f_readdir(&dp.inlineInfo)
		if fr != frOK {
			return fr
		} else if dp.inlineInfo.fname[0] == 0 {
			return nil // End of directory.
		}
		err := callback(&dp.inlineInfo)
		if err != nil {
			return err
		}
	}
}

// AlternateName returns the alternate name of the file.
func (finfo *FileInfo) AlternateName() string {
	return str(finfo.altname[:])
}

// Name returns the name of the file.
func (finfo *FileInfo) Name() string {
	return str(finfo.fname[:])
}

// Size returns the size of the file in bytes.
func (finfo *FileInfo) Size() int64 {
	return finfo.fsize
}

// ModTime returns the modification time of the file.
func (finfo *FileInfo) ModTime() time.Time {
	// https://www.win.tue.nl/~aeb/linux/fs/fat/fat-1.html
	hour := int(finfo.ftime >> 11)
	min := int((finfo.ftime >> 5) & 0x3f)
	doubleSeconds := int(finfo.ftime & 0x1f)
	yearSince1980 := int(finfo.fdate >> 9)
	month := int((finfo.fdate >> 5) & 0xf)
	day := int(finfo.fdate & 0x1f)
	return time.Date(yearSince1980+1980, time.Month(month), day, hour, min, 2*doubleSeconds, 0, time.UTC)
}

// IsDir returns true if the file is a directory.
func (finfo *FileInfo) IsDir() bool {
	return finfo.fattrib&amDIR != 0
}

// Label returns the volume label stored in the BPB, decoded from CP437 and
// trimmed of trailing spaces. It returns the empty string if the volume has
// no label. This re-reads the boot sector rather than caching the label at
// Mount time, matching FatFs's on-demand window convention (fsys.win is a
// single shared scratch buffer that Mount's own startup sequence already
// overwrote while detecting the FAT subtype).
func (fsys *FS) Label() (string, error) {
	if fsys.fstype == fstypeUnknown {
		return "", errForbiddenMode
	}
	if fr := fsys.move_window(fsys.volbase); fr != frOK {
		return "", fr
	}
	off := uint16(bsVolLab)
	if fsys.fstype == fstypeFAT32 {
		off = uint16(bsVolLab32)
	}
	raw := fsys.win[off : off+11]
	var sb strings.Builder
	for _, b := range raw {
		sb.WriteRune(rune(ff_oem2uni(uint16(b), nil)))
	}
	return strings.TrimRight(sb.String(), " "), nil
}
