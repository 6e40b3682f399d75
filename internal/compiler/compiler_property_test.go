//go:build property

package compiler

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/shadergen/internal/shader"
)

// TestCompileShaderProperties validates the batch compilation invariants
func TestCompileShaderProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: a succeeding batch returns exactly the permutation key set
	properties.Property("success returns one shader per permutation key", prop.ForAll(
		func(boolOptions int, intMax int) bool {
			sh := propertyShader(boolOptions, intMax)
			backend := &fakeBackend{}

			compiled := New(backend, &bytes.Buffer{}).CompileShader(sh, Options{OptimizationLevel: 3})

			permutations := shader.Permutate(sh.Options)
			if len(compiled) != len(permutations) {
				return false
			}
			want := make(map[shader.PermutationKey]struct{}, len(permutations))
			for _, p := range permutations {
				want[p.Key] = struct{}{}
			}
			for _, c := range compiled {
				if _, ok := want[c.Key]; !ok {
					return false
				}
				delete(want, c.Key)
			}
			return len(want) == 0
		},
		gen.IntRange(0, 6),
		gen.IntRange(0, 7),
	))

	// Property: any single failing permutation empties the whole batch,
	// but every permutation is still attempted
	properties.Property("one failure withholds all output", prop.ForAll(
		func(boolOptions int, intMax int, failIndex int) bool {
			sh := propertyShader(boolOptions, intMax)
			permutations := shader.Permutate(sh.Options)
			failing := defineSignature(permutations[failIndex%len(permutations)].Defines)

			backend := &fakeBackend{
				failWhen: func(macros []shader.Define) bool {
					return defineSignature(macros) == failing
				},
			}

			compiled := New(backend, &bytes.Buffer{}).CompileShader(sh, Options{OptimizationLevel: 3})

			return len(compiled) == 0 && backend.callCount() == len(permutations)
		},
		gen.IntRange(1, 5),
		gen.IntRange(0, 3),
		gen.IntRange(0, 1<<16),
	))

	// Property: workers never compile a permutation twice
	properties.Property("every permutation compiles exactly once", prop.ForAll(
		func(boolOptions int) bool {
			sh := propertyShader(boolOptions, 0)
			backend := &fakeBackend{}

			New(backend, &bytes.Buffer{}).CompileShader(sh, Options{})

			seen := make(map[string]struct{}, len(backend.calls))
			for _, call := range backend.calls {
				signature := defineSignature(call.macros)
				if _, dup := seen[signature]; dup {
					return false
				}
				seen[signature] = struct{}{}
			}
			return len(seen) == len(shader.Permutate(sh.Options))
		},
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t)
}

func propertyShader(boolOptions, intMax int) *shader.Shader {
	options := make([]shader.Option, 0, boolOptions+1)
	for i := 0; i < boolOptions; i++ {
		options = append(options, shader.Option{
			Name: fmt.Sprintf("Flag%d", i),
			Kind: shader.OptionBool,
		})
	}
	if intMax > 0 {
		options = append(options, shader.Option{
			Name: "Level",
			Kind: shader.OptionInt,
			Min:  0,
			Max:  intMax,
		})
	}
	return &shader.Shader{
		Path:    "prop.hlsl",
		Target:  "cs_5_0",
		Options: options,
	}
}
