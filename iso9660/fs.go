package iso9660

import (
	"io"
	"time"
)

// extent is one contiguous piece of a file's data.
type extent struct {
	lba uint32
	len uint32
}

// File is an open ISO9660 file. Reads are served across however many
// extents (ECMA-119 §7.5's "multi-extent" files, up to maxExtents) the
// directory listing described; seams between extents are invisible to the
// caller.
type File struct {
	fsys    *FS
	extents []extent
	size    int64
	pos     int64
	modTime time.Time
}

// FileInfo is what ForEachFile hands to its callback: the metadata half of
// a directory entry, before any extent has been read.
type FileInfo struct {
	rec dirRecord
}

// Name returns the Rock Ridge name if present, else the ISO9660 identifier
// with its ";version" suffix stripped.
func (fi *FileInfo) Name() string { return fi.rec.name }

// Size returns the size of a regular file in bytes. For a multi-extent
// file this is only the first extent's length; use Open and read to EOF
// for the true size.
func (fi *FileInfo) Size() int64 { return int64(fi.rec.dataLen) }

// IsDir reports whether the entry is a directory.
func (fi *FileInfo) IsDir() bool { return fi.rec.isDir }

// Hidden reports whether the entry carries the ECMA-119 "hidden" flag.
func (fi *FileInfo) Hidden() bool { return fi.rec.flags&flagHidden != 0 }

// ModTime returns the directory record's recording date and time.
func (fi *FileInfo) ModTime() time.Time { return fi.rec.modTime }

// Open walks path (absolute, "/"-separated) from the root directory and
// returns the file it names. Opening a directory succeeds; use ForEachFile
// to list it.
func (fsys *FS) Open(path string) (*File, error) {
	rec, err := fsys.lookup(path)
	if err != nil {
		return nil, err
	}
	extents, size, err := fsys.collectExtents(rec)
	if err != nil {
		return nil, err
	}
	return &File{fsys: fsys, extents: extents, size: size, modTime: rec.modTime}, nil
}

// ForEachFile calls callback for each entry in the directory named by
// path, skipping the "." and ".." self-entries.
func (fsys *FS) ForEachFile(path string, callback func(*FileInfo) error) error {
	rec, err := fsys.lookup(path)
	if err != nil {
		return err
	}
	if !rec.isDir {
		return ErrNotDir
	}
	return fsys.walkDir(rec, func(child dirRecord) error {
		if child.name == "." || child.name == ".." {
			return nil
		}
		return callback(&FileInfo{rec: child})
	})
}

// lookup resolves path from the root directory, one component at a time.
func (fsys *FS) lookup(path string) (dirRecord, error) {
	comps := splitPath(path)
	cur := fsys.root
	for _, comp := range comps {
		if !cur.isDir {
			return dirRecord{}, ErrNotDir
		}
		child, err := fsys.findChild(cur, comp)
		if err != nil {
			return dirRecord{}, err
		}
		cur = child
	}
	return cur, nil
}

func splitPath(path string) []string {
	var comps []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				comps = append(comps, path[start:i])
			}
			start = i + 1
		}
	}
	return comps
}

func (fsys *FS) findChild(dir dirRecord, name string) (dirRecord, error) {
	var found dirRecord
	var ok bool
	err := fsys.walkDir(dir, func(child dirRecord) error {
		if ok {
			return nil
		}
		if child.name == name {
			found, ok = child, true
		}
		return nil
	})
	if err != nil {
		return dirRecord{}, err
	}
	if !ok {
		return dirRecord{}, ErrNotFound
	}
	return found, nil
}

// walkDir reads dir's extent sector by sector, decoding each directory
// record in turn and calling fn on it. A zero-length byte at a record
// boundary means the rest of the current sector is padding; the scan
// resumes at the next sector.
func (fsys *FS) walkDir(dir dirRecord, fn func(dirRecord) error) error {
	remaining := int64(dir.dataLen)
	lba := int64(dir.extentLBA)
	var pendingRec dirRecord
	havePending := false

	buf := make([]byte, sectorSize)
	for remaining > 0 {
		if _, err := fsys.dev.ReadAt(buf, lba*sectorSize); err != nil {
			return ErrCorrupt
		}
		off := 0
		for off < sectorSize {
			if buf[off] == 0 {
				break // Rest of sector is padding.
			}
			rec, err := parseDirRecord(buf[off:])
			if err != nil {
				return err
			}
			off += int(buf[off])

			if rec.multi {
				// This piece plus the closing one must still fit in maxExtents.
				if havePending && len(pendingRec.more)+2 >= maxExtents {
					return ErrCorrupt
				}
				if !havePending {
					pendingRec = rec
					havePending = true
				} else {
					pendingRec.more = append(pendingRec.more, extent{lba: rec.extentLBA, len: rec.dataLen})
				}
				continue
			}
			if havePending && rec.name == pendingRec.name {
				pendingRec.more = append(pendingRec.more, extent{lba: rec.extentLBA, len: rec.dataLen})
				rec = pendingRec
				havePending = false
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		remaining -= sectorSize
		lba++
	}
	return nil
}

// collectExtents gathers every extent of rec, in order, and their total
// byte length. walkDir has already merged a multi-extent file's directory
// records into one dirRecord whose first piece is (extentLBA, dataLen)
// and whose remaining pieces are in more.
func (fsys *FS) collectExtents(rec dirRecord) ([]extent, int64, error) {
	extents := make([]extent, 0, 1+len(rec.more))
	extents = append(extents, extent{lba: rec.extentLBA, len: rec.dataLen})
	extents = append(extents, rec.more...)
	var total int64
	for _, e := range extents {
		total += int64(e.len)
	}
	return extents, total, nil
}

// Read implements io.Reader, serving bytes across f's extents.
func (f *File) Read(p []byte) (int, error) {
	if f.pos >= f.size {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) && f.pos < f.size {
		extIdx, extOff := f.locate(f.pos)
		if extIdx >= len(f.extents) {
			break
		}
		ext := f.extents[extIdx]
		avail := int64(ext.len) - extOff
		want := int64(len(p) - n)
		if want > avail {
			want = avail
		}
		off := int64(ext.lba)*sectorSize + extOff
		got, err := f.fsys.dev.ReadAt(p[n:n+int(want)], off)
		if err != nil && got == 0 {
			return n, err
		}
		n += got
		f.pos += int64(got)
		if int64(got) < want {
			break
		}
	}
	return n, nil
}

// locate returns which extent absolute offset pos falls in and the offset
// within that extent.
func (f *File) locate(pos int64) (idx int, extOff int64) {
	for i, ext := range f.extents {
		if pos < int64(ext.len) {
			return i, pos
		}
		pos -= int64(ext.len)
	}
	return len(f.extents), 0
}

// Size returns the total byte length of the file across all its extents.
func (f *File) Size() int64 { return f.size }

// ModTime returns the file's recording date and time.
func (f *File) ModTime() time.Time { return f.modTime }
