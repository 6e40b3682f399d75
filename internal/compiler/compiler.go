// Package compiler drives the concurrent compilation of shader permutations
// through an external shading-language compiler backend.
//
// One batch covers every permutation of a single shader. A fixed pool of
// workers drains a shared queue, each worker turning one permutation into one
// compiled artifact via the backend, with optional extraction of external
// debug symbols. Diagnostics are filtered and deduplicated across the whole
// batch. The batch outcome is all-or-nothing: a single failed permutation
// withholds every artifact, so downstream packaging never sees a partial
// variant family.
package compiler

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/conneroisu/shadergen/internal/diagnostics"
	"github.com/conneroisu/shadergen/internal/shader"
)

// CompiledShader is one successfully compiled permutation. Data holds the
// final binary, debug-stripped when external symbols were requested and
// captured; PdbName and PdbData are set only in that case.
type CompiledShader struct {
	Key     shader.PermutationKey
	Data    []byte
	PdbName string
	PdbData []byte
}

// Compiler compiles shader permutation batches against a backend
type Compiler struct {
	backend Backend
	out     io.Writer
}

// New creates a compiler. Progress lines and deduplicated backend
// diagnostics are written to out; a nil writer defaults to stdout.
func New(backend Backend, out io.Writer) *Compiler {
	if out == nil {
		out = os.Stdout
	}
	return &Compiler{
		backend: backend,
		out:     out,
	}
}

// batchContext is the state shared by the workers of one batch. The queue,
// the output list and the diagnostic printer are guarded independently so
// workers never serialize on a single lock while the backend runs.
type batchContext struct {
	shader  *shader.Shader
	options Options

	queueMu sync.Mutex
	queue   []shader.Permutation
	next    int

	// failed saturates: any worker sets it, the orchestrator reads it once
	// after the join barrier.
	failed atomic.Bool

	outputMu sync.Mutex
	output   []CompiledShader

	printer *diagnostics.Printer
}

// takeNext pops the front of the remaining-work queue. The returned pointer
// refers into the batch's permutation list and stays valid for the batch.
func (bc *batchContext) takeNext() (*shader.Permutation, bool) {
	bc.queueMu.Lock()
	defer bc.queueMu.Unlock()

	if bc.next >= len(bc.queue) {
		return nil, false
	}
	permutation := &bc.queue[bc.next]
	bc.next++
	return permutation, true
}

// CompileShader expands the shader's options into permutations and compiles
// them all. An empty result signals batch failure; the printed diagnostics
// identify the failing permutations.
func (c *Compiler) CompileShader(sh *shader.Shader, options Options) []CompiledShader {
	return c.compile(sh, options, shader.Permutate(sh.Options))
}

func (c *Compiler) compile(sh *shader.Shader, options Options, permutations []shader.Permutation) []CompiledShader {
	bc := &batchContext{
		shader:  sh,
		options: options,
		queue:   permutations,
		printer: diagnostics.NewPrinter(c.out),
	}

	fmt.Fprintf(c.out, "Compiling %s at optimization level %d", sh.Path, options.OptimizationLevel)
	if options.IsDebug {
		fmt.Fprint(c.out, " with debug symbols")
	}
	fmt.Fprintf(c.out, "...\nGenerating %d shader variants.\n", len(permutations))

	workers := workerCount(len(permutations))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.worker(bc)
		}()
	}
	wg.Wait()

	if bc.failed.Load() {
		fmt.Fprintln(c.out, "Shader group compilation failed.")
		return nil
	}

	fmt.Fprintln(c.out, "Shader group compilation succeeded.")
	return bc.output
}

// workerCount sizes the pool: never more workers than permutations, never
// zero workers when work exists.
func workerCount(permutations int) int {
	if permutations < runtime.NumCPU() {
		return permutations
	}
	return runtime.NumCPU()
}

// worker drains the queue until empty. A failing permutation records the
// failure and the loop continues; the queue running dry is the sole
// termination condition, so every permutation is always attempted.
func (c *Compiler) worker(bc *batchContext) {
	for {
		permutation, ok := bc.takeNext()
		if !ok {
			return
		}

		// The macro list is terminated by a sentinel empty define, per the
		// backend calling convention.
		macros := make([]shader.Define, 0, len(permutation.Defines)+1)
		macros = append(macros, permutation.Defines...)
		macros = append(macros, shader.Define{})

		flags := DeriveFlags(bc.options)

		result := c.backend.Compile(bc.shader.Path, macros, bc.shader.EntryPoint, bc.shader.Target, flags)

		if result.OK {
			compiled := CompiledShader{Key: permutation.Key, Data: result.Binary}
			if bc.options.IsDebug && bc.options.UseExternalDebugSymbols {
				c.attachDebugSymbols(&compiled)
			}

			bc.outputMu.Lock()
			bc.output = append(bc.output, compiled)
			bc.outputMu.Unlock()
		} else {
			bc.failed.Store(true)
		}

		bc.printer.Print(result.Diagnostics)
	}
}

// attachDebugSymbols captures the debug symbol blob and symbol file name
// from the binary and replaces the binary with its debug-stripped form.
// A binary carrying no symbol or name blob is left untouched; that is not
// an error.
func (c *Compiler) attachDebugSymbols(compiled *CompiledShader) {
	pdb := c.backend.ExtractBlob(compiled.Data, BlobPDB)
	nameBlob := c.backend.ExtractBlob(compiled.Data, BlobDebugName)
	if pdb == nil || nameBlob == nil {
		return
	}

	name, ok := parseDebugName(nameBlob)
	if !ok {
		return
	}

	compiled.PdbName = name
	compiled.PdbData = pdb

	if stripped, err := c.backend.StripDebug(compiled.Data); err == nil {
		compiled.Data = stripped
	}
}
