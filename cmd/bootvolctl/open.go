package main

import (
	"fmt"

	"github.com/embedops/bootvol"
)

// wholeDiskSectorSize is the logical sector size assumed for the file-backed
// disk images this CLI opens. partition.go's GPT probe still tries 4096
// internally if 512 doesn't check out; this is only the Volume's own view of
// its disk, used to translate LBAs.
const wholeDiskSectorSize = 512

// openVolume opens path as a fileDisk, registers its whole-disk Volume in a
// fresh Index, and resolves partition (0 for the whole disk, 1-based
// otherwise) to the Volume the rest of the command should act on. The
// returned closer must be closed by the caller.
func openVolume(path string, partition int) (*bootvol.Index, *bootvol.Volume, *fileDisk, error) {
	disk, err := openFileDisk(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open %s: %w", path, err)
	}

	ix := bootvol.NewIndex()
	whole := &bootvol.Volume{
		Disk:        disk,
		FirstSect:   0,
		SectCount:   bootvol.SectCountUnknown,
		SectorSize:  wholeDiskSectorSize,
		FastestXfer: 8,
		Index:       0,
	}
	ix.Register(whole)

	if partition == 0 {
		return ix, whole, disk, nil
	}

	vol, result := bootvol.PartGet(ix, whole, partition)
	if result != bootvol.PartFound {
		disk.Close()
		return nil, nil, nil, fmt.Errorf("partition %d: %s", partition, partResultString(result))
	}
	return ix, vol, disk, nil
}

func partResultString(r bootvol.PartResult) string {
	switch r {
	case bootvol.PartOutOfRange:
		return "index out of range"
	case bootvol.PartNoTable:
		return "no partition table found"
	case bootvol.PartCorrupt:
		return "partition table is corrupt"
	default:
		return "unknown error"
	}
}
