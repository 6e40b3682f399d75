package compiler

import (
	"bytes"
	"encoding/binary"
)

// The debug name blob starts with a fixed 4-byte header: a 16-bit flags
// field followed by a 16-bit name length, both little-endian. The symbol
// file name follows immediately after the header.
const debugNameHeaderSize = 4

// parseDebugName extracts the symbol file name from a debug name blob.
// The name is read from right after the header up to the first NUL rather
// than being bounded by the declared length field, matching how the blob is
// produced today. TODO: bound the read by the length field once the blob
// layout is confirmed to never carry trailing padding before the name.
func parseDebugName(blob []byte) (string, bool) {
	if len(blob) < debugNameHeaderSize {
		return "", false
	}

	_ = binary.LittleEndian.Uint16(blob[0:2]) // flags, unused
	_ = binary.LittleEndian.Uint16(blob[2:4]) // declared name length, see above

	name := blob[debugNameHeaderSize:]
	if idx := bytes.IndexByte(name, 0); idx >= 0 {
		name = name[:idx]
	}
	if len(name) == 0 {
		return "", false
	}
	return string(name), true
}
