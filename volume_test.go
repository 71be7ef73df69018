package bootvol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDisk is an in-memory Disk backed by a byte slice addressed in 512-byte
// LBAs, with knobs for simulating transient failures.
type fakeDisk struct {
	data       []byte
	reads      int
	failXfers  map[uint32]int // xfer size -> remaining times it should fail.
	alwaysFail bool
}

func (d *fakeDisk) ReadSectors(buf []byte, lba512 uint64, count uint32) error {
	d.reads++
	if d.alwaysFail {
		return errors.New("fake disk error")
	}
	if n := d.failXfers[count]; n > 0 {
		d.failXfers[count]--
		return errors.New("fake transient error")
	}
	off := int64(lba512) * 512
	end := off + int64(len(buf))
	if end > int64(len(d.data)) {
		return ErrNoMedia
	}
	copy(buf, d.data[off:end])
	return nil
}

func newFakeVolume(t *testing.T, sizeBytes int) (*Volume, *fakeDisk) {
	t.Helper()
	data := make([]byte, sizeBytes)
	for i := range data {
		data[i] = byte(i)
	}
	disk := &fakeDisk{data: data, failXfers: map[uint32]int{}}
	vol := &Volume{
		Disk:        disk,
		FirstSect:   0,
		SectCount:   uint64(sizeBytes) / 512,
		SectorSize:  512,
		FastestXfer: 8,
	}
	return vol, disk
}

func TestVolumeReadAtExactRange(t *testing.T) {
	vol, _ := newFakeVolume(t, 64*1024)
	buf := make([]byte, 1000)
	n, err := vol.ReadAt(buf, 5000)
	require.NoError(t, err)
	require.Equal(t, 1000, n)
	for i, b := range buf {
		require.Equal(t, byte(5000+i), b)
	}
}

func TestVolumeReadAtOutOfRange(t *testing.T) {
	vol, _ := newFakeVolume(t, 4096)
	buf := make([]byte, 10)
	_, err := vol.ReadAt(buf, 4090)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestVolumeReadAtMisaligned(t *testing.T) {
	vol, _ := newFakeVolume(t, 64*1024)
	vol.SectorSize = 4096
	vol.FirstSect = 1 // Not a multiple of 4096/512=8.
	buf := make([]byte, 10)
	_, err := vol.ReadAt(buf, 0)
	require.ErrorIs(t, err, ErrMisaligned)
}

func TestVolumeCacheIsReused(t *testing.T) {
	vol, disk := newFakeVolume(t, 64*1024)
	buf := make([]byte, 16)
	_, err := vol.ReadAt(buf, 100)
	require.NoError(t, err)
	readsAfterFirst := disk.reads
	require.Greater(t, readsAfterFirst, 0)

	// Same aggregate block (FastestXfer*SectorSize = 4096 bytes): no new disk read.
	_, err = vol.ReadAt(buf, 200)
	require.NoError(t, err)
	require.Equal(t, readsAfterFirst, disk.reads)

	// A different block forces a fresh read.
	_, err = vol.ReadAt(buf, 8192)
	require.NoError(t, err)
	require.Greater(t, disk.reads, readsAfterFirst)
}

func TestVolumeRetriesShrinkingTransferSize(t *testing.T) {
	vol, disk := newFakeVolume(t, 64*1024)
	// Fail the full-size (8-sector) transfer once; the retry at 7 sectors
	// should then succeed and the read should still complete correctly.
	disk.failXfers[8] = 1

	buf := make([]byte, 16)
	n, err := vol.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 16, n)
	require.Equal(t, byte(0), buf[0])
}

func TestVolumeGivesUpAfterExhaustingTransferSizes(t *testing.T) {
	vol, disk := newFakeVolume(t, 64*1024)
	disk.alwaysFail = true

	buf := make([]byte, 16)
	_, err := vol.ReadAt(buf, 0)
	require.Error(t, err)
}
