package bootvol

// Index is the registry of discovered volumes (§4.3, §9 "global mutable
// state"). The spec models this as a process-wide singleton; we model it as
// an explicit value instead — a lazily-initialized global is indistinguishable
// from a single long-lived *Index created once at disk-enumeration time, and
// an explicit value is the one that composes with tests, multiple simulated
// disks, and the host CLI without forcing every caller through package-level
// state. Insertion is single-threaded: only the disk-enumeration sequence
// appends, and only before any filesystem operation is attempted (§5).
type Index struct {
	volumes []*Volume
}

// NewIndex returns an empty volume index.
func NewIndex() *Index {
	return &Index{}
}

// Register appends vol to the index. There is no removal: volumes live for
// the lifetime of the index (§3 "never destroyed before shutdown").
func (ix *Index) Register(vol *Volume) {
	ix.volumes = append(ix.volumes, vol)
}

// All returns the registered volumes in registration order. The returned
// slice is owned by the index and must not be modified.
func (ix *Index) All() []*Volume {
	return ix.volumes
}

// ByGUID looks up a volume by filesystem UUID or GPT unique partition GUID —
// whichever matches first (§4.3: "by filesystem UUID *or* partition GUID").
func (ix *Index) ByGUID(guid [16]byte) *Volume {
	for _, v := range ix.volumes {
		if v.HasGUID && v.GUID == guid {
			return v
		}
		if v.HasPartGUID && v.PartGUID == guid {
			return v
		}
	}
	return nil
}

// ByLabel looks up a volume by filesystem label. Comparison is case-sensitive
// (§4.3).
func (ix *Index) ByLabel(label string) *Volume {
	for _, v := range ix.volumes {
		if v.FSLabel == label {
			return v
		}
	}
	return nil
}

// ByCoordinate looks up a volume by (optical, drive index, partition number).
// Partition 0 means the whole disk.
func (ix *Index) ByCoordinate(optical bool, drive, partition int) *Volume {
	for _, v := range ix.volumes {
		if v.IsOptical == optical && v.Index == drive && v.Partition == partition {
			return v
		}
	}
	return nil
}
