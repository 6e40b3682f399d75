// Package output writes compiled shader batches to disk: the binary shader
// group container, external debug symbol files, the generated C++ include
// header, and an optional build manifest.
package output

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/conneroisu/shadergen/internal/compiler"
)

// Shader group container format tags. Variants are stored sorted by key so
// identical batches produce identical bytes.
const (
	groupMagic   = "SGSB"
	groupVersion = 1
)

// WriteShaders writes the shader group container <name>.sgb into dir and one
// sibling symbol file per variant that carries debug symbols. The caller
// must only pass complete batches; a failed batch produces no output at all.
func WriteShaders(dir, name string, shaders []compiler.CompiledShader) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	sorted := make([]compiler.CompiledShader, len(shaders))
	copy(sorted, shaders)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	data := make([]byte, 0, 64)
	data = append(data, groupMagic...)
	data = binary.LittleEndian.AppendUint32(data, groupVersion)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(sorted)))

	for _, shader := range sorted {
		data = binary.LittleEndian.AppendUint64(data, uint64(shader.Key))
		data = binary.LittleEndian.AppendUint32(data, uint32(len(shader.Data)))
		data = append(data, shader.Data...)
		data = binary.LittleEndian.AppendUint16(data, uint16(len(shader.PdbName)))
		data = append(data, shader.PdbName...)
	}

	groupPath := filepath.Join(dir, name+".sgb")
	if err := os.WriteFile(groupPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write shader group: %w", err)
	}

	for _, shader := range sorted {
		if shader.PdbName == "" || shader.PdbData == nil {
			continue
		}
		pdbPath := filepath.Join(dir, filepath.Base(shader.PdbName))
		if err := os.WriteFile(pdbPath, shader.PdbData, 0644); err != nil {
			return fmt.Errorf("failed to write debug symbols %s: %w", shader.PdbName, err)
		}
	}

	return nil
}
