package shader

import (
	"fmt"
	"math/bits"
	"strconv"
)

// PermutationKey identifies one permutation of a shader's options. Each
// option's value ordinal occupies a fixed bit field; the first declared
// option sits in the lowest bits. The generated include header reproduces
// the same packing.
type PermutationKey uint64

// String returns the key in the hexadecimal form used by output files and
// diagnostics
func (k PermutationKey) String() string {
	return fmt.Sprintf("%08X", uint64(k))
}

// Define is a single preprocessor definition passed to the compiler backend
type Define struct {
	Name  string
	Value string
}

// Permutation is one concrete combination of option values
type Permutation struct {
	Key     PermutationKey
	Defines []Define
}

// Field describes the bit field one option occupies inside a PermutationKey
type Field struct {
	Offset int
	Bits   int
}

// Layout returns the key bit field of every option, in declaration order
func Layout(options []Option) []Field {
	fields := make([]Field, len(options))
	offset := 0
	for i, option := range options {
		width := fieldBits(option.Cardinality())
		fields[i] = Field{Offset: offset, Bits: width}
		offset += width
	}
	return fields
}

func fieldBits(cardinality int) int {
	if cardinality <= 1 {
		return 0
	}
	return bits.Len(uint(cardinality - 1))
}

func totalKeyBits(options []Option) int {
	total := 0
	for _, option := range options {
		total += fieldBits(option.Cardinality())
	}
	return total
}

// Permutate expands the options into every combination of their values.
// The result is ordered with the first option varying fastest, matching the
// key packing. With no options a single permutation with key zero and no
// defines is produced.
func Permutate(options []Option) []Permutation {
	total := 1
	for _, option := range options {
		total *= option.Cardinality()
	}

	layout := Layout(options)
	permutations := make([]Permutation, 0, total)
	ordinals := make([]int, len(options))

	for {
		permutations = append(permutations, buildPermutation(options, layout, ordinals))

		carry := 0
		for carry < len(ordinals) {
			ordinals[carry]++
			if ordinals[carry] < options[carry].Cardinality() {
				break
			}
			ordinals[carry] = 0
			carry++
		}
		if carry == len(ordinals) {
			return permutations
		}
	}
}

func buildPermutation(options []Option, layout []Field, ordinals []int) Permutation {
	var key PermutationKey
	var defines []Define

	for i, option := range options {
		ordinal := ordinals[i]
		key |= PermutationKey(ordinal) << layout[i].Offset

		switch option.Kind {
		case OptionBool:
			defines = append(defines, Define{Name: option.Name, Value: strconv.Itoa(ordinal)})
		case OptionEnum:
			defines = append(defines, Define{Name: option.Name, Value: strconv.Itoa(ordinal)})
			for idx, member := range option.Values {
				defines = append(defines, Define{
					Name:  option.Name + "_" + member,
					Value: strconv.Itoa(idx),
				})
			}
		case OptionInt:
			defines = append(defines, Define{Name: option.Name, Value: strconv.Itoa(option.Min + ordinal)})
		}
	}

	return Permutation{Key: key, Defines: defines}
}
