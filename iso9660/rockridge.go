package iso9660

// rockRidgeName scans a directory record's System Use Area for a Rock
// Ridge "NM" entry and returns the alternate name it carries. System Use
// Area entries share a common header (SUSP §5.1): 2-byte signature,
// 1-byte length (including the header), 1-byte version.
//
// An "NM" entry's payload starts with a 1-byte flags field; bit 0 (NM
// continue) means another NM entry follows with more of the name, so a
// name can be split across entries the way a FAT long name is split across
// directory slots.
func rockRidgeName(su []byte) (string, bool) {
	var name []byte
	found := false
	for len(su) >= 4 {
		sig := [2]byte{su[0], su[1]}
		length := int(su[2])
		if length < 4 || length > len(su) {
			break // Malformed entry; stop rather than risk misreading the rest.
		}
		entry := su[:length]
		if sig == [2]byte{'N', 'M'} && len(entry) >= 5 {
			flags := entry[4]
			name = append(name, entry[5:]...)
			found = true
			if flags&0x01 == 0 {
				break // No NM continuation: name is complete.
			}
		} else if sig == [2]byte{'S', 'T'} {
			break // Terminator entry: no more System Use fields.
		}
		su = su[length:]
	}
	if !found {
		return "", false
	}
	return string(name), true
}
