package iso9660

import (
	"encoding/binary"
	"strings"
	"time"
)

const (
	drOffLen       = 0
	drOffExtent    = 2  // little-endian uint32; big-endian copy at +4.
	drOffDataLen   = 10 // little-endian uint32; big-endian copy at +14.
	drOffRecording = 18 // 7-byte date/time.
	drOffFlags     = 25
	drOffFileUnit  = 26
	drOffNameLen   = 32
	drOffName      = 33

	flagHidden    = 1 << 0
	flagDirectory = 1 << 1
	flagAssoc     = 1 << 2
	flagMultiExtent = 1 << 7

	maxExtents = 65536
)

// dirRecord is one ECMA-119 Directory Record: either a file's first (or
// only) extent, or a directory's single extent describing its listing. A
// multi-extent file is merged (by walkDir) into one dirRecord whose extra
// pieces live in more; the fields above describe the first piece only.
type dirRecord struct {
	extentLBA uint32
	dataLen   uint32
	flags     byte
	modTime   time.Time
	name      string // Rock Ridge NM name if present, else the raw ISO name.
	isDir     bool
	multi     bool
	more      []extent // Additional extents of a multi-extent file, in order.
}

// parseDirRecord decodes a single directory record starting at b[0]. b must
// contain at least the record's declared length (b[0]).
func parseDirRecord(b []byte) (dirRecord, error) {
	if len(b) < 34 {
		return dirRecord{}, ErrCorrupt
	}
	recLen := int(b[drOffLen])
	if recLen == 0 || recLen > len(b) {
		return dirRecord{}, ErrCorrupt
	}
	b = b[:recLen]
	nameLen := int(b[drOffNameLen])
	if drOffName+nameLen > len(b) {
		return dirRecord{}, ErrCorrupt
	}

	extent := binary.LittleEndian.Uint32(b[drOffExtent:])
	length := binary.LittleEndian.Uint32(b[drOffDataLen:])
	flags := b[drOffFlags]

	rec := dirRecord{
		extentLBA: extent,
		dataLen:   length,
		flags:     flags,
		modTime:   parseRecordingTime(b[drOffRecording : drOffRecording+7]),
		isDir:     flags&flagDirectory != 0,
		multi:     flags&flagMultiExtent != 0,
		name:      isoName(b[drOffName : drOffName+nameLen]),
	}

	// System Use Area (Rock Ridge) follows the name, padded to even length.
	suOff := drOffName + nameLen
	if nameLen%2 == 0 {
		suOff++
	}
	if suOff < len(b) {
		if nm, ok := rockRidgeName(b[suOff:]); ok {
			rec.name = nm
		}
	}
	return rec, nil
}

func parseRecordingTime(b []byte) time.Time {
	year := 1900 + int(b[0])
	month := time.Month(b[1])
	day := int(b[2])
	hour, min, sec := int(b[3]), int(b[4]), int(b[5])
	gmtOffsetQuarterHours := int8(b[6])
	loc := time.FixedZone("", int(gmtOffsetQuarterHours)*15*60)
	return time.Date(year, month, day, hour, min, sec, 0, loc)
}

// isoName strips the ";version" suffix ECMA-119 appends to file identifiers
// and maps the special directory identifiers (0x00 "." and 0x01 "..") to
// their conventional spellings.
func isoName(b []byte) string {
	if len(b) == 1 {
		switch b[0] {
		case 0x00:
			return "."
		case 0x01:
			return ".."
		}
	}
	s := string(b)
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return s
}
