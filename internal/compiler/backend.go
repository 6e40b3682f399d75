package compiler

import "github.com/conneroisu/shadergen/internal/shader"

// BlobKind selects a data blob embedded in a compiled shader binary
type BlobKind int

const (
	// BlobPDB is the debug symbol blob.
	BlobPDB BlobKind = iota

	// BlobDebugName is the blob naming the external debug symbol file.
	BlobDebugName
)

// Result is the outcome of one backend compilation. Diagnostics carries the
// compiler's raw warning and error text for both outcomes.
type Result struct {
	OK          bool
	Binary      []byte
	Diagnostics string
}

// Backend is the external shading-language compiler. Implementations must be
// safe for concurrent use: every worker in a batch invokes the same backend.
type Backend interface {
	// Compile builds one permutation. The macro list is terminated by a
	// sentinel empty define, per the compiler calling convention.
	Compile(path string, macros []shader.Define, entryPoint, target string, flags Flags) Result

	// ExtractBlob returns the blob of the given kind embedded in a compiled
	// binary, or nil when the binary carries none.
	ExtractBlob(binary []byte, kind BlobKind) []byte

	// StripDebug returns a copy of the binary with all debug information
	// removed.
	StripDebug(binary []byte) ([]byte, error)
}
