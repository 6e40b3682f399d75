// Package dxbc reads and writes DirectX shader container files.
//
// A container is a small table-of-contents format: a magic tag, a 16-byte
// content hash, a format version, the total size, and a list of parts, each
// identified by a FourCC tag. Compiled shader binaries, reflection data and
// debug information all live in parts of the same container. The package
// supports looking up parts by tag and rebuilding a container with parts
// removed, which is how debug information is stripped from a binary.
package dxbc

import (
	"encoding/binary"
	"fmt"
)

// Magic is the container tag at offset zero.
const Magic = "DXBC"

// Part tags for debug-related container parts.
const (
	// PartPDB holds embedded debug symbols.
	PartPDB = "SPDB"

	// PartDebugInfo holds legacy debug information.
	PartDebugInfo = "SDBG"

	// PartDebugModule holds the debug IL module.
	PartDebugModule = "ILDB"

	// PartDebugName names the external debug symbol file.
	PartDebugName = "ILDN"

	// PartSourceInfo holds embedded source file contents.
	PartSourceInfo = "SRCI"
)

const (
	hashSize   = 16
	headerSize = 4 + hashSize + 2 + 2 + 4 + 4 // magic, hash, version, size, part count
)

// Part is one tagged section of a container
type Part struct {
	FourCC string
	Data   []byte
}

// Container is a parsed shader container
type Container struct {
	Hash  [hashSize]byte
	Major uint16
	Minor uint16
	Parts []Part
}

// Parse decodes a container from its serialized form. Part data slices the
// input; callers that outlive the input must copy.
func Parse(data []byte) (*Container, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("container too small: %d bytes", len(data))
	}
	if string(data[0:4]) != Magic {
		return nil, fmt.Errorf("bad container magic %q", data[0:4])
	}

	c := &Container{}
	copy(c.Hash[:], data[4:4+hashSize])
	c.Major = binary.LittleEndian.Uint16(data[20:22])
	c.Minor = binary.LittleEndian.Uint16(data[22:24])

	totalSize := binary.LittleEndian.Uint32(data[24:28])
	if int(totalSize) > len(data) {
		return nil, fmt.Errorf("container declares %d bytes, have %d", totalSize, len(data))
	}

	partCount := int(binary.LittleEndian.Uint32(data[28:32]))
	offsetTable := headerSize + 4*partCount
	if offsetTable > len(data) {
		return nil, fmt.Errorf("part offset table exceeds container size")
	}

	c.Parts = make([]Part, 0, partCount)
	for i := 0; i < partCount; i++ {
		offset := int(binary.LittleEndian.Uint32(data[headerSize+4*i:]))
		if offset+8 > len(data) {
			return nil, fmt.Errorf("part %d offset %d out of range", i, offset)
		}
		fourCC := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4:]))
		if offset+8+size > len(data) {
			return nil, fmt.Errorf("part %q size %d exceeds container", fourCC, size)
		}
		c.Parts = append(c.Parts, Part{
			FourCC: fourCC,
			Data:   data[offset+8 : offset+8+size],
		})
	}

	return c, nil
}

// Part returns the data of the first part with the given tag, or nil if the
// container has none.
func (c *Container) Part(fourCC string) []byte {
	for _, part := range c.Parts {
		if part.FourCC == fourCC {
			return part.Data
		}
	}
	return nil
}

// WithoutParts returns a copy of the container with every part carrying one
// of the given tags removed.
func (c *Container) WithoutParts(fourCCs ...string) *Container {
	drop := make(map[string]struct{}, len(fourCCs))
	for _, fourCC := range fourCCs {
		drop[fourCC] = struct{}{}
	}

	out := &Container{Hash: c.Hash, Major: c.Major, Minor: c.Minor}
	for _, part := range c.Parts {
		if _, dropped := drop[part.FourCC]; !dropped {
			out.Parts = append(out.Parts, part)
		}
	}
	return out
}

// Bytes serializes the container, recomputing the part offset table and the
// declared total size. The content hash is carried over unchanged.
func (c *Container) Bytes() []byte {
	size := headerSize + 4*len(c.Parts)
	for _, part := range c.Parts {
		size += 8 + len(part.Data)
	}

	out := make([]byte, 0, size)
	out = append(out, Magic...)
	out = append(out, c.Hash[:]...)
	out = binary.LittleEndian.AppendUint16(out, c.Major)
	out = binary.LittleEndian.AppendUint16(out, c.Minor)
	out = binary.LittleEndian.AppendUint32(out, uint32(size))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(c.Parts)))

	offset := headerSize + 4*len(c.Parts)
	for _, part := range c.Parts {
		out = binary.LittleEndian.AppendUint32(out, uint32(offset))
		offset += 8 + len(part.Data)
	}
	for _, part := range c.Parts {
		out = append(out, part.FourCC...)
		out = binary.LittleEndian.AppendUint32(out, uint32(len(part.Data)))
		out = append(out, part.Data...)
	}

	return out
}
