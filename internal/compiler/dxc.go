package compiler

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/conneroisu/shadergen/internal/dxbc"
	"github.com/conneroisu/shadergen/internal/shader"
)

// DXC invokes the DirectX shader compiler as a subprocess. Blob extraction
// and debug stripping operate directly on the produced container, so only
// compilation itself shells out. Safe for concurrent use: each Compile call
// runs its own process and temp file.
type DXC struct {
	command string
}

// NewDXC resolves the compiler executable. An empty command defaults to
// "dxc" on PATH.
func NewDXC(command string) (*DXC, error) {
	if command == "" {
		command = "dxc"
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("shader compiler %q not found: %w", command, err)
	}
	return &DXC{command: resolved}, nil
}

// Compile builds one permutation by running the compiler process
func (d *DXC) Compile(path string, macros []shader.Define, entryPoint, target string, flags Flags) Result {
	tmp, err := os.CreateTemp("", "shadergen-*.bin")
	if err != nil {
		return Result{Diagnostics: fmt.Sprintf("error: cannot create temp output: %v", err)}
	}
	outFile := tmp.Name()
	tmp.Close()
	defer os.Remove(outFile)

	cmd := exec.Command(d.command, d.args(path, macros, entryPoint, target, flags, outFile)...)
	cmd.Dir = filepath.Dir(path)

	output, runErr := cmd.CombinedOutput()
	diagnosticText := string(output)
	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); !ok {
			diagnosticText += fmt.Sprintf("\nerror: failed to run %s: %v", d.command, runErr)
		}
		return Result{Diagnostics: diagnosticText}
	}

	binary, err := os.ReadFile(outFile)
	if err != nil {
		return Result{Diagnostics: diagnosticText + fmt.Sprintf("\nerror: cannot read compiler output: %v", err)}
	}

	return Result{OK: true, Binary: binary, Diagnostics: diagnosticText}
}

// args builds the compiler argv for one permutation
func (d *DXC) args(path string, macros []shader.Define, entryPoint, target string, flags Flags, outFile string) []string {
	args := []string{"-nologo", "-T", target, "-E", entryPoint}

	for _, macro := range macros {
		if macro.Name == "" {
			// sentinel list terminator
			continue
		}
		if macro.Value == "" {
			args = append(args, "-D", macro.Name)
		} else {
			args = append(args, "-D", macro.Name+"="+macro.Value)
		}
	}

	if flags&FlagDebug != 0 {
		// Embedding keeps the symbols in the container so they can be
		// extracted and stripped afterwards.
		args = append(args, "-Zi", "-Qembed_debug")
	}
	if flags&FlagDebugNameForBinary != 0 {
		args = append(args, "-Zsb")
	}

	switch {
	case flags&FlagSkipOptimization != 0:
		args = append(args, "-Od")
	case flags&FlagOptimizationLevel0 != 0:
		args = append(args, "-O0")
	case flags&FlagOptimizationLevel1 != 0:
		args = append(args, "-O1")
	case flags&FlagOptimizationLevel2 != 0:
		args = append(args, "-O2")
	case flags&FlagOptimizationLevel3 != 0:
		args = append(args, "-O3")
	}

	return append(args, "-Fo", outFile, filepath.Base(path))
}

// ExtractBlob pulls a debug blob out of a compiled container. A binary that
// is not a container, or carries no matching part, yields nil.
func (d *DXC) ExtractBlob(binary []byte, kind BlobKind) []byte {
	container, err := dxbc.Parse(binary)
	if err != nil {
		return nil
	}

	var data []byte
	switch kind {
	case BlobPDB:
		if data = container.Part(dxbc.PartPDB); data == nil {
			data = container.Part(dxbc.PartDebugModule)
		}
	case BlobDebugName:
		data = container.Part(dxbc.PartDebugName)
	}
	if data == nil {
		return nil
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// StripDebug rebuilds the container without its debug parts
func (d *DXC) StripDebug(binary []byte) ([]byte, error) {
	container, err := dxbc.Parse(binary)
	if err != nil {
		return nil, fmt.Errorf("cannot strip debug info: %w", err)
	}

	stripped := container.WithoutParts(
		dxbc.PartPDB,
		dxbc.PartDebugInfo,
		dxbc.PartDebugModule,
		dxbc.PartDebugName,
		dxbc.PartSourceInfo,
	)
	return stripped.Bytes(), nil
}
