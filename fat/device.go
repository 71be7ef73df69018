package fat

import "errors"

// ByteReaderAt is the read-only disk collaborator fat needs: a single
// ReadAt over a byte-addressed volume. *bootvol.Volume satisfies this.
type ByteReaderAt interface {
	ReadAt(p []byte, off int64) (int, error)
}

// errReadOnly is returned by every write-shaped BlockDevice method: bootvol
// never mounts a FAT volume for anything but reading.
var errReadOnly = errors.New("fat: volume is read-only")

// VolumeDevice adapts a byte-addressed, read-only volume to the
// block-addressed BlockDevice the FAT engine expects. blockSize must match
// the size passed to FS.Mount.
type VolumeDevice struct {
	Vol       ByteReaderAt
	BlockSize int
}

// ReadBlocks reads len(dst)/BlockSize blocks starting at startBlock.
func (d VolumeDevice) ReadBlocks(dst []byte, startBlock int64) (int, error) {
	off := startBlock * int64(d.BlockSize)
	n, err := d.Vol.ReadAt(dst, off)
	if err != nil {
		return n, err
	}
	return n, nil
}

// WriteBlocks always fails: bootvol's FAT mount is read-only.
func (d VolumeDevice) WriteBlocks(data []byte, startBlock int64) (int, error) {
	return 0, errReadOnly
}

// EraseBlocks always fails: bootvol's FAT mount is read-only.
func (d VolumeDevice) EraseBlocks(startBlock, numBlocks int64) error {
	return errReadOnly
}
