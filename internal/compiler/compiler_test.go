package compiler

import (
	"bytes"
	"encoding/binary"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/shadergen/internal/shader"
)

type fakeCall struct {
	path       string
	macros     []shader.Define
	entryPoint string
	target     string
	flags      Flags
}

// fakeBackend records every invocation and produces configurable outcomes
type fakeBackend struct {
	mu    sync.Mutex
	calls []fakeCall

	failWhen    func(macros []shader.Define) bool
	diagnostics func(macros []shader.Define) string

	pdb      []byte
	nameBlob []byte
}

func (f *fakeBackend) Compile(path string, macros []shader.Define, entryPoint, target string, flags Flags) Result {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{path, macros, entryPoint, target, flags})
	f.mu.Unlock()

	var diag string
	if f.diagnostics != nil {
		diag = f.diagnostics(macros)
	}
	if f.failWhen != nil && f.failWhen(macros) {
		return Result{Diagnostics: diag}
	}
	return Result{OK: true, Binary: []byte("binary"), Diagnostics: diag}
}

func (f *fakeBackend) ExtractBlob(binary []byte, kind BlobKind) []byte {
	if kind == BlobPDB {
		return f.pdb
	}
	return f.nameBlob
}

func (f *fakeBackend) StripDebug(binary []byte) ([]byte, error) {
	return append([]byte("stripped:"), binary...), nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testShader() *shader.Shader {
	return &shader.Shader{
		Path:       "blur.hlsl",
		EntryPoint: "main",
		Target:     "cs_5_0",
		Options: []shader.Option{
			{Name: "Enabled", Kind: shader.OptionBool},
			{Name: "Quality", Kind: shader.OptionInt, Min: 0, Max: 1},
		},
	}
}

// nameBlob builds a debug name blob: flags, declared length, then the name.
func nameBlob(name string, trailer ...byte) []byte {
	blob := make([]byte, 0, debugNameHeaderSize+len(name)+len(trailer))
	blob = binary.LittleEndian.AppendUint16(blob, 0)
	blob = binary.LittleEndian.AppendUint16(blob, uint16(len(name)))
	blob = append(blob, name...)
	return append(blob, trailer...)
}

func TestCompileShaderAllSucceed(t *testing.T) {
	backend := &fakeBackend{}
	sh := testShader()
	var out bytes.Buffer

	compiled := New(backend, &out).CompileShader(sh, Options{OptimizationLevel: 3})

	permutations := shader.Permutate(sh.Options)
	require.Len(t, compiled, len(permutations))
	assert.Equal(t, len(permutations), backend.callCount())

	want := make(map[shader.PermutationKey]struct{})
	for _, p := range permutations {
		want[p.Key] = struct{}{}
	}
	got := make(map[shader.PermutationKey]struct{})
	for _, c := range compiled {
		got[c.Key] = struct{}{}
		assert.Equal(t, []byte("binary"), c.Data)
		assert.Empty(t, c.PdbName)
		assert.Nil(t, c.PdbData)
	}
	assert.Equal(t, want, got)

	assert.Contains(t, out.String(), "Generating 4 shader variants.")
	assert.Contains(t, out.String(), "Shader group compilation succeeded.")
}

func TestCompileShaderFailureWithholdsAllOutput(t *testing.T) {
	backend := &fakeBackend{
		failWhen: func(macros []shader.Define) bool {
			// Fail exactly one permutation: Enabled=1, Quality=0.
			return macros[0].Value == "1" && macros[1].Value == "0"
		},
		diagnostics: func(macros []shader.Define) string {
			if macros[0].Value == "1" && macros[1].Value == "0" {
				return "blur.hlsl(12,4): error X3018: invalid subscript"
			}
			return ""
		},
	}
	var out bytes.Buffer

	compiled := New(backend, &out).CompileShader(testShader(), Options{OptimizationLevel: 3})

	assert.Empty(t, compiled)
	// Every permutation is still attempted; a failure never cancels siblings.
	assert.Equal(t, 4, backend.callCount())
	assert.Contains(t, out.String(), "error X3018")
	assert.Contains(t, out.String(), "Shader group compilation failed.")
}

func TestCompileNoPermutations(t *testing.T) {
	backend := &fakeBackend{}
	var out bytes.Buffer

	compiled := New(backend, &out).compile(testShader(), Options{}, nil)

	assert.Empty(t, compiled)
	assert.Zero(t, backend.callCount())
	assert.Contains(t, out.String(), "Generating 0 shader variants.")
	assert.Contains(t, out.String(), "Shader group compilation succeeded.")
}

func TestCompileMacroSentinel(t *testing.T) {
	backend := &fakeBackend{}

	New(backend, &bytes.Buffer{}).CompileShader(testShader(), Options{})

	for _, call := range backend.calls {
		require.NotEmpty(t, call.macros)
		assert.Equal(t, shader.Define{}, call.macros[len(call.macros)-1])
		for _, macro := range call.macros[:len(call.macros)-1] {
			assert.NotEmpty(t, macro.Name)
		}
		assert.Equal(t, "main", call.entryPoint)
		assert.Equal(t, "cs_5_0", call.target)
	}
}

func TestCompileDiagnosticsDeduplicated(t *testing.T) {
	warning := "blur.hlsl(7,1): warning X4000: use of potentially uninitialized variable"
	backend := &fakeBackend{
		diagnostics: func([]shader.Define) string { return warning },
	}
	var out bytes.Buffer

	New(backend, &out).CompileShader(testShader(), Options{})

	assert.Equal(t, 1, strings.Count(out.String(), warning))
}

func TestCompileIgnoredPragmaWarningsSuppressed(t *testing.T) {
	backend := &fakeBackend{
		diagnostics: func([]shader.Define) string {
			return "blur.hlsl(1,1): warning X3568: 'target' : unknown pragma ignored\n" +
				"blur.hlsl(2,1): warning X3568: 'option' : unknown pragma ignored"
		},
	}
	var out bytes.Buffer

	compiled := New(backend, &out).CompileShader(testShader(), Options{})

	assert.NotEmpty(t, compiled)
	assert.NotContains(t, out.String(), "X3568")
}

func TestCompileExternalDebugSymbols(t *testing.T) {
	backend := &fakeBackend{
		pdb:      []byte("pdb-data"),
		nameBlob: nameBlob("blur.pdb", 0, 'j', 'u', 'n', 'k'),
	}
	options := Options{IsDebug: true, UseExternalDebugSymbols: true, OptimizationLevel: -1}

	compiled := New(backend, &bytes.Buffer{}).CompileShader(testShader(), options)

	require.NotEmpty(t, compiled)
	for _, c := range compiled {
		assert.Equal(t, []byte("stripped:binary"), c.Data)
		assert.Equal(t, "blur.pdb", c.PdbName)
		assert.Equal(t, []byte("pdb-data"), c.PdbData)
	}
}

func TestCompileDebugSymbolsMissingBlobs(t *testing.T) {
	// No PDB blob in the binary: not an error, the binary stays untouched.
	backend := &fakeBackend{nameBlob: nameBlob("blur.pdb")}
	options := Options{IsDebug: true, UseExternalDebugSymbols: true}

	compiled := New(backend, &bytes.Buffer{}).CompileShader(testShader(), options)

	require.NotEmpty(t, compiled)
	for _, c := range compiled {
		assert.Equal(t, []byte("binary"), c.Data)
		assert.Empty(t, c.PdbName)
		assert.Nil(t, c.PdbData)
	}
}

func TestCompileEmbeddedDebugSymbols(t *testing.T) {
	// Debug without external symbols keeps everything in the binary.
	backend := &fakeBackend{
		pdb:      []byte("pdb-data"),
		nameBlob: nameBlob("blur.pdb"),
	}
	options := Options{IsDebug: true, UseExternalDebugSymbols: false}

	compiled := New(backend, &bytes.Buffer{}).CompileShader(testShader(), options)

	require.NotEmpty(t, compiled)
	for _, c := range compiled {
		assert.Equal(t, []byte("binary"), c.Data)
		assert.Empty(t, c.PdbName)
	}
}

func TestWorkerCount(t *testing.T) {
	cpus := runtime.NumCPU()

	assert.Equal(t, 0, workerCount(0))
	assert.Equal(t, 1, workerCount(1))
	if cpus > 1 {
		assert.Equal(t, cpus, workerCount(cpus))
	}
	assert.Equal(t, cpus, workerCount(cpus+100))
}

func TestCompileEveryPermutationExactlyOnce(t *testing.T) {
	sh := &shader.Shader{
		Path:   "big.hlsl",
		Target: "cs_5_0",
		Options: []shader.Option{
			{Name: "A", Kind: shader.OptionInt, Min: 0, Max: 7},
			{Name: "B", Kind: shader.OptionInt, Min: 0, Max: 7},
		},
	}
	backend := &fakeBackend{}

	New(backend, &bytes.Buffer{}).CompileShader(sh, Options{})

	seen := make(map[string]int)
	for _, call := range backend.calls {
		seen[defineSignature(call.macros)]++
	}
	assert.Len(t, seen, 64)
	for signature, count := range seen {
		assert.Equal(t, 1, count, "permutation %s compiled %d times", signature, count)
	}
}

func defineSignature(macros []shader.Define) string {
	var b strings.Builder
	for _, macro := range macros {
		if macro.Name == "" {
			continue
		}
		b.WriteString(macro.Name)
		b.WriteByte('=')
		b.WriteString(macro.Value)
		b.WriteByte(';')
	}
	return b.String()
}

func TestDeriveFlagsPerWorkerMatchesBatch(t *testing.T) {
	backend := &fakeBackend{}
	options := Options{IsDebug: true, OptimizationLevel: 2}

	New(backend, &bytes.Buffer{}).CompileShader(testShader(), options)

	want := DeriveFlags(options)
	for _, call := range backend.calls {
		assert.Equal(t, want, call.flags)
	}
}
