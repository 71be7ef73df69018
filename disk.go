// Package bootvol implements a read-only volume and filesystem layer meant to
// run in a bootloader: partition discovery, a byte-granular block cache, and
// ISO9660/FAT32 file access (the FAT driver recognises FAT32 volumes only;
// FAT12 and FAT16 volumes are not mounted). It allocates its own read cache
// and scratch buffers, and it never logs — by the time this code runs there is
// usually no console and no OS underneath it.
package bootvol

import (
	"errors"
	"fmt"
)

// Disk is the physical-disk collaborator the core consumes. It is expected to
// be backed by firmware (BIOS/UEFI) disk services or, on a host, a file. LBA
// is expressed in 512-byte units regardless of the disk's native sector size,
// matching firmware disk-service conventions; implementations translate to
// native sectors themselves.
type Disk interface {
	// ReadSectors reads count 512-byte units starting at lba512 into buf,
	// which must be exactly count*512 bytes. It returns ErrNoMedia if the
	// device is absent, or another error on any other transient failure.
	ReadSectors(buf []byte, lba512 uint64, count uint32) error
}

// ErrNoMedia is returned by a Disk when no physical media is present.
var ErrNoMedia = errors.New("bootvol: no media")

// Sentinel errors surfaced by volume and filesystem operations. Callers
// distinguish them with errors.Is; the core itself never wraps them with
// additional context (it does not log, and %w chains cost allocation this
// code cannot always afford).
var (
	// ErrMisaligned is returned when a volume's first sector is not a
	// multiple of sectorSize/512, violating the one invariant volume_read
	// depends on to address the backing disk.
	ErrMisaligned = errors.New("bootvol: volume misaligned to sector size")
	// ErrOutOfRange is returned when a requested byte range falls outside
	// the volume's known size.
	ErrOutOfRange = errors.New("bootvol: read out of range")
	// ErrCorrupt indicates structural corruption in an on-disk structure:
	// an impossible field value, an arithmetic overflow, a cycle, or an
	// out-of-bounds offset. It is returned only by Open, never mid-read;
	// corruption met during a read comes back from Read as the filesystem
	// driver's own error.
	ErrCorrupt = errors.New("bootvol: corrupt structure")
	// ErrNotFound indicates a missing path component or identifier.
	ErrNotFound = errors.New("bootvol: not found")
	// ErrUnsupportedFS indicates no known filesystem was recognized on a
	// volume.
	ErrUnsupportedFS = errors.New("bootvol: no recognized filesystem")
)

// CaseInsensitiveOpen is the process-global flag mirroring the host's
// case-sensitivity policy for path lookups in both filesystems (§4.4, §4.5).
// It is a process-wide, single-threaded-initialization flag by design: the
// spec treats it the same way as `verbose`/`quiet`/`serial`, set once before
// any filesystem call and never mutated concurrently with a lookup.
var CaseInsensitiveOpen bool

// Panic formats its arguments and panics. No code path in this module calls
// it: corruption found partway through a read is returned from Read as an
// error, and the data already delivered is not rewound. It is a variable, not a direct call to the
// standard library panic, so a host can install a fatal-report hook (out of
// scope here — see spec §6) without the core importing it.
var Panic = func(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}
