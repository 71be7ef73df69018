package bootvol

import "errors"

// SectCountUnknown is the sentinel value for Volume.SectCount meaning "the
// disk is whole" — the volume extends to whatever the physical disk actually
// contains, which volume_read cannot itself determine.
const SectCountUnknown = ^uint64(0)

// Volume is a logical byte region on a disk: either the whole disk (Partition
// == 0) or a single partition inside it. It owns exactly one aggregate read
// cache (§3). Its FirstSect is never rewritten once constructed, so the cache
// never needs external invalidation; the cache, the mounted filesystem and
// FSLabel are filled in lazily by reads and probes.
type Volume struct {
	Disk     Disk    // physical disk / firmware handle this volume reads through.
	Backing  *Volume // parent volume when this is a partition; nil for a whole disk.
	FirstSect uint64 // LBA of the first sector, in 512-byte units.
	SectCount uint64 // sector count in 512-byte units, or SectCountUnknown.

	SectorSize      uint32 // 512 or 4096.
	FastestXfer     uint32 // disk-preferred contiguous transfer, in sectors.
	Index           int    // disk number.
	IsOptical       bool
	Partition       int // 1-based partition number; 0 for a whole disk.

	GUID     [16]byte // filesystem UUID, if known.
	HasGUID  bool
	PartGUID [16]byte // GPT unique partition GUID, if this is a GPT partition.
	HasPartGUID bool
	FSLabel  string // filesystem label, if known.
	PartName string // GPT partition name, if this is a GPT partition.

	cache       []byte
	cachedBlock uint64
	cacheReady  bool

	mnt *mounted // lazily-mounted filesystem driver; see fs.go's probe.
}

var errMisuse = errors.New("bootvol: volume_read on a volume with no media backing")

// blockSize returns the size in bytes of one cache-aggregate block.
func (v *Volume) blockSize() int64 {
	fastest := v.FastestXfer
	if fastest == 0 {
		fastest = 1
	}
	return int64(fastest) * int64(v.SectorSize)
}

// sizeBytes returns the volume's known size in bytes, or -1 if unknown (whole
// disk, SectCountUnknown).
func (v *Volume) sizeBytes() int64 {
	if v.SectCount == SectCountUnknown {
		return -1
	}
	return int64(v.SectCount) * 512
}

// aligned reports whether FirstSect is an integral multiple of
// SectorSize/512, the invariant volume_read depends on to translate a block
// number into a disk LBA.
func (v *Volume) aligned() bool {
	unit := uint64(v.SectorSize / 512)
	if unit == 0 {
		return false
	}
	return v.FirstSect%unit == 0
}

// ReadAt implements io.ReaderAt over the volume's byte space, reading through
// the one-block cache described in §4.1. It returns an error (never a short
// read without error) iff the full range could not be read — overflow, a
// misaligned partition, a disk that reports no media, or a read that keeps
// failing after retrying down to a 1-sector transfer.
//
// This is the Go-idiomatic rendering of the spec's volume_read(vol, buf, loc,
// count) -> bool: ReadAt's (n, err) where err == nil implies n == len(p) is
// exactly that boolean, just spelled the way io.ReaderAt spells it.
func (v *Volume) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, ErrOutOfRange
	}
	if size := v.sizeBytes(); size >= 0 {
		end, overflow := addOverflows(off, int64(len(p)))
		if overflow || end > size {
			return 0, ErrOutOfRange
		}
	}
	if !v.aligned() {
		return 0, ErrMisaligned
	}
	if v.Disk == nil {
		return 0, errMisuse
	}

	blockSize := v.blockSize()
	n := 0
	for n < len(p) {
		loc := off + int64(n)
		block := uint64(loc) / uint64(blockSize)
		blockOff := uint64(loc) % uint64(blockSize)

		if err := v.fillCache(block); err != nil {
			return n, err
		}
		copied := copy(p[n:], v.cache[blockOff:])
		n += copied
	}
	return n, nil
}

// fillCache ensures v.cache holds the aggregate block numbered block,
// reading it from disk (with the retry-by-shrinking-transfer-size loop of
// §4.1) if it is not already cached. A read of block B always replaces any
// previously cached block: the cache is a single slot.
func (v *Volume) fillCache(block uint64) error {
	if v.cacheReady && v.cachedBlock == block {
		return nil // Cache hit.
	}
	blockSize := v.blockSize()
	if v.cache == nil || int64(len(v.cache)) != blockSize {
		v.cache = make([]byte, blockSize)
	}

	// Disk.ReadSectors addresses in 512-byte units, whatever SectorSize is.
	blockStartLBA := v.FirstSect + block*uint64(blockSize)/512

	startXfer := v.FastestXfer
	if startXfer == 0 {
		startXfer = 1
	}

	var lastErr error
	for xfer := startXfer; ; xfer-- {
		err := v.readBlockChunked(v.cache, blockStartLBA, xfer)
		if err == nil {
			v.cachedBlock = block
			v.cacheReady = true
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrNoMedia) || xfer == 1 {
			break // No progress possible, or out of smaller transfer sizes to try.
		}
	}
	v.cacheReady = false
	if lastErr == nil {
		lastErr = ErrNoMedia
	}
	return lastErr
}

// readBlockChunked fills dst (exactly one aggregate block) by issuing
// successive disk reads of at most xfer native sectors each, starting at
// blockStartLBA. Every chunk boundary stays sector-aligned because dst's
// length is always a whole multiple of the volume's sector size.
func (v *Volume) readBlockChunked(dst []byte, blockStartLBA uint64, xfer uint32) error {
	chunkBytes := int64(xfer) * int64(v.SectorSize)
	lba := blockStartLBA
	var offset int64
	for offset < int64(len(dst)) {
		remain := int64(len(dst)) - offset
		n := chunkBytes
		if n > remain {
			n = remain
		}
		count := uint32(n / 512)
		if err := v.Disk.ReadSectors(dst[offset:offset+n], lba, count); err != nil {
			return err
		}
		offset += n
		lba += uint64(count)
	}
	return nil
}

func addOverflows(a, b int64) (sum int64, overflow bool) {
	sum = a + b
	if b > 0 && sum < a {
		return 0, true
	}
	return sum, false
}
