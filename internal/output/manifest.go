package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/shadergen/internal/compiler"
	"github.com/conneroisu/shadergen/internal/shader"
)

// Manifest summarizes one compiled shader batch
type Manifest struct {
	Shader    string            `yaml:"shader"`
	Target    string            `yaml:"target"`
	Entry     string            `yaml:"entry"`
	Timestamp time.Time         `yaml:"timestamp"`
	Variants  []ManifestVariant `yaml:"variants"`
}

// ManifestVariant is one permutation entry in the manifest
type ManifestVariant struct {
	Key  string `yaml:"key"`
	Size int    `yaml:"size"`
	Pdb  string `yaml:"pdb,omitempty"`
}

// WriteManifest writes <name>.manifest.yaml into dir, listing every variant
// of the batch sorted by key.
func WriteManifest(dir, name string, sh *shader.Shader, shaders []compiler.CompiledShader) error {
	manifest := Manifest{
		Shader:    sh.Path,
		Target:    sh.Target,
		Entry:     sh.EntryPoint,
		Timestamp: time.Now().UTC(),
		Variants:  make([]ManifestVariant, 0, len(shaders)),
	}

	for _, compiled := range shaders {
		manifest.Variants = append(manifest.Variants, ManifestVariant{
			Key:  compiled.Key.String(),
			Size: len(compiled.Data),
			Pdb:  compiled.PdbName,
		})
	}
	sort.Slice(manifest.Variants, func(i, j int) bool {
		return manifest.Variants[i].Key < manifest.Variants[j].Key
	})

	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := filepath.Join(dir, name+".manifest.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
