package iso9660

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	rootDirLBA = 18
	simpleFile = 19
	rrFile     = 20
	multiFile1 = 21
	multiFile2 = 22
)

// memDisk is a fixed-size in-memory ByteReaderAt, the test stand-in for a
// bootvol.Volume.
type memDisk struct {
	buf []byte
}

func (m *memDisk) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.buf)) {
		return 0, io.ErrUnexpectedEOF
	}
	return copy(p, m.buf[off:]), nil
}

func sector(buf []byte, lba int) []byte {
	return buf[lba*sectorSize : (lba+1)*sectorSize]
}

// buildDirRecord assembles one ECMA-119 Directory Record. su is the raw
// System Use Area payload (Rock Ridge entries), or nil.
func buildDirRecord(name string, extentLBA, dataLen uint32, flags byte, su []byte) []byte {
	nameBytes := []byte(name)
	nameLen := len(nameBytes)
	suOff := drOffName + nameLen
	if nameLen%2 == 0 {
		suOff++
	}
	total := suOff + len(su)
	rec := make([]byte, total)
	rec[drOffLen] = byte(total)
	binary.LittleEndian.PutUint32(rec[drOffExtent:], extentLBA)
	binary.BigEndian.PutUint32(rec[drOffExtent+4:], extentLBA)
	binary.LittleEndian.PutUint32(rec[drOffDataLen:], dataLen)
	binary.BigEndian.PutUint32(rec[drOffDataLen+4:], dataLen)
	rec[drOffFlags] = flags
	rec[drOffNameLen] = byte(nameLen)
	copy(rec[drOffName:], nameBytes)
	copy(rec[suOff:], su)
	return rec
}

// susp builds one System Use Area entry: 2-byte signature, length byte
// (including this header), version byte, then payload.
func susp(sig string, version byte, payload []byte) []byte {
	e := make([]byte, 4+len(payload))
	copy(e, sig)
	e[2] = byte(len(e))
	e[3] = version
	copy(e[4:], payload)
	return e
}

func nmEntry(name string, continued bool) []byte {
	var flags byte
	if continued {
		flags = 0x01
	}
	payload := append([]byte{flags}, []byte(name)...)
	return susp("NM", 1, payload)
}

func buildTestImage(t *testing.T) *memDisk {
	t.Helper()
	const numSectors = 24
	buf := make([]byte, numSectors*sectorSize)

	// Primary Volume Descriptor at LBA 16.
	pvdSec := sector(buf, firstDescriptorLBA)
	pvdSec[0] = vdTypePrimary
	copy(pvdSec[1:6], stdIdentifier)
	copy(pvdSec[40:72], padDchars("TESTVOL"))
	root := buildDirRecord("\x00", rootDirLBA, sectorSize, flagDirectory, nil)
	copy(pvdSec[156:190], root)

	termSec := sector(buf, firstDescriptorLBA+1)
	termSec[0] = vdTypeTerminator
	copy(termSec[1:6], stdIdentifier)

	// Root directory listing at LBA rootDirLBA.
	rootSec := sector(buf, rootDirLBA)
	off := 0
	writeRec := func(rec []byte) {
		copy(rootSec[off:], rec)
		off += len(rec)
	}
	writeRec(buildDirRecord("\x00", rootDirLBA, sectorSize, flagDirectory, nil))
	writeRec(buildDirRecord("\x01", rootDirLBA, sectorSize, flagDirectory, nil))
	writeRec(buildDirRecord("SIMPLE.TXT;1", simpleFile, 11, 0, nil))
	writeRec(buildDirRecord("RR.TXT;1", rrFile, 5, 0, nmEntry("rockridge-name.txt", false)))
	writeRec(buildDirRecord("BIG.DAT;1", multiFile1, sectorSize, flagMultiExtent, nil))
	writeRec(buildDirRecord("BIG.DAT;1", multiFile2, 100, 0, nil))

	copy(sector(buf, simpleFile), []byte("hello world"))
	copy(sector(buf, rrFile), []byte("short"))

	firstPiece := sector(buf, multiFile1)
	for i := range firstPiece {
		firstPiece[i] = byte('A' + i%26)
	}
	secondPiece := sector(buf, multiFile2)
	for i := 0; i < 100; i++ {
		secondPiece[i] = byte('a' + i%26)
	}

	return &memDisk{buf: buf}
}

func padDchars(s string) []byte {
	b := make([]byte, 32)
	copy(b, s)
	for i := len(s); i < len(b); i++ {
		b[i] = ' '
	}
	return b
}

func TestMountAndVolumeLabel(t *testing.T) {
	disk := buildTestImage(t)
	var fsys FS
	require.NoError(t, Mount(&fsys, disk))
	require.Equal(t, "TESTVOL", fsys.VolumeLabel())
}

func TestOpenSimpleFile(t *testing.T) {
	disk := buildTestImage(t)
	var fsys FS
	require.NoError(t, Mount(&fsys, disk))

	f, err := fsys.Open("/SIMPLE.TXT")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
	require.Equal(t, int64(11), f.Size())
}

func TestRockRidgeNameOverridesISOName(t *testing.T) {
	disk := buildTestImage(t)
	var fsys FS
	require.NoError(t, Mount(&fsys, disk))

	var names []string
	err := fsys.ForEachFile("/", func(fi *FileInfo) error {
		names = append(names, fi.Name())
		return nil
	})
	require.NoError(t, err)
	require.Contains(t, names, "rockridge-name.txt")
	require.NotContains(t, names, "RR.TXT")
}

func TestMultiExtentFileReadsAcrossPieces(t *testing.T) {
	disk := buildTestImage(t)
	var fsys FS
	require.NoError(t, Mount(&fsys, disk))

	f, err := fsys.Open("/BIG.DAT")
	require.NoError(t, err)
	require.Equal(t, int64(sectorSize+100), f.Size())

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Len(t, data, sectorSize+100)
	require.Equal(t, byte('A'), data[0])
	require.Equal(t, byte('a'), data[sectorSize])
}

func TestOpenNotFound(t *testing.T) {
	disk := buildTestImage(t)
	var fsys FS
	require.NoError(t, Mount(&fsys, disk))

	_, err := fsys.Open("/NOPE.TXT")
	require.ErrorIs(t, err, ErrNotFound)
}
