package main

import (
	"io"
	"os"

	"github.com/embedops/bootvol"
)

// fileDisk implements bootvol.Disk over a regular file, standing in for the
// firmware disk services bootvol is actually written against. LBA is always
// 512-byte units per the Disk contract, regardless of the image's own
// partitioning.
type fileDisk struct {
	f *os.File
}

func openFileDisk(path string) (*fileDisk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &fileDisk{f: f}, nil
}

func (d *fileDisk) Close() error { return d.f.Close() }

func (d *fileDisk) ReadSectors(buf []byte, lba512 uint64, count uint32) error {
	if uint64(len(buf)) != uint64(count)*512 {
		return io.ErrShortBuffer
	}
	n, err := d.f.ReadAt(buf, int64(lba512)*512)
	if err != nil && n != len(buf) {
		if err == io.EOF {
			return bootvol.ErrNoMedia
		}
		return err
	}
	return nil
}
