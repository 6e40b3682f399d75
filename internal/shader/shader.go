// Package shader parses shader sources for pragma-based metadata and expands
// declared compile-time options into permutations.
//
// A shader source declares its compilation target, entry point and options
// through pragmas that are opaque to the downstream compiler:
//
//	#pragma target cs_5_0
//	#pragma entry main
//	#pragma namespace MyApp::Shaders
//	#pragma option bool IsSomethingEnabled
//	#pragma option enum RenderMode {X, Y, Z}
//	#pragma option int SampleCount {1..4}
//
// Every combination of option values becomes one Permutation, identified by a
// bit-packed key that the generated include header reproduces so applications
// can select a variant at runtime.
package shader

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// OptionKind represents the kind of a compile-time option
type OptionKind int

const (
	OptionBool OptionKind = iota
	OptionEnum
	OptionInt
)

// String returns the string representation of the OptionKind
func (k OptionKind) String() string {
	switch k {
	case OptionBool:
		return "bool"
	case OptionEnum:
		return "enum"
	case OptionInt:
		return "int"
	default:
		return "unknown"
	}
}

// Option is one compile-time option declared in a shader source
type Option struct {
	Name   string
	Kind   OptionKind
	Values []string // enum member names
	Min    int      // int range, inclusive
	Max    int
}

// Cardinality returns the number of distinct values the option can take
func (o Option) Cardinality() int {
	switch o.Kind {
	case OptionBool:
		return 2
	case OptionEnum:
		return len(o.Values)
	case OptionInt:
		return o.Max - o.Min + 1
	default:
		return 0
	}
}

// Shader describes a parsed shader source
type Shader struct {
	Path       string
	EntryPoint string
	Target     string
	Namespace  string
	Options    []Option
}

// Name returns the shader's base name without extension, used for output and
// header naming
func (s *Shader) Name() string {
	base := s.Path
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}

var (
	targetPragma    = regexp.MustCompile(`^\s*#pragma\s+target\s+(\S+)\s*$`)
	entryPragma     = regexp.MustCompile(`^\s*#pragma\s+entry\s+(\S+)\s*$`)
	namespacePragma = regexp.MustCompile(`^\s*#pragma\s+namespace\s+(\S+)\s*$`)
	optionStart     = regexp.MustCompile(`^\s*#pragma\s+option\b`)
	optionPragma    = regexp.MustCompile(`^\s*#pragma\s+option\s+(bool|enum|int)\s+([A-Za-z_][A-Za-z0-9_]*)\s*(\{[^}]*\})?\s*$`)
	intRange        = regexp.MustCompile(`^\{\s*(-?\d+)\s*\.\.\s*(-?\d+)\s*\}$`)
	identifier      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// maxKeyBits bounds the total key space so a stray int range cannot expand
// into millions of permutations.
const maxKeyBits = 20

// Parse reads and parses a shader source file
func Parse(path string) (*Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader source: %w", err)
	}
	return ParseSource(path, string(data))
}

// ParseSource parses shader source text. The path is recorded on the result
// and used in error messages only.
func ParseSource(path, source string) (*Shader, error) {
	shader := &Shader{
		Path:       path,
		EntryPoint: "main",
	}

	seen := make(map[string]struct{})

	for i, line := range strings.Split(source, "\n") {
		lineNo := i + 1

		if m := targetPragma.FindStringSubmatch(line); m != nil {
			if shader.Target != "" {
				return nil, fmt.Errorf("%s:%d: duplicate target pragma", path, lineNo)
			}
			shader.Target = m[1]
			continue
		}
		if m := entryPragma.FindStringSubmatch(line); m != nil {
			shader.EntryPoint = m[1]
			continue
		}
		if m := namespacePragma.FindStringSubmatch(line); m != nil {
			shader.Namespace = m[1]
			continue
		}
		if !optionStart.MatchString(line) {
			continue
		}

		m := optionPragma.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("%s:%d: malformed option pragma: %s", path, lineNo, strings.TrimSpace(line))
		}

		option, err := parseOption(m[1], m[2], m[3])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if _, dup := seen[option.Name]; dup {
			return nil, fmt.Errorf("%s:%d: duplicate option %q", path, lineNo, option.Name)
		}
		seen[option.Name] = struct{}{}
		shader.Options = append(shader.Options, option)
	}

	if shader.Target == "" {
		return nil, fmt.Errorf("%s: missing required target pragma", path)
	}
	if bits := totalKeyBits(shader.Options); bits > maxKeyBits {
		return nil, fmt.Errorf("%s: options require %d key bits, limit is %d", path, bits, maxKeyBits)
	}

	return shader, nil
}

func parseOption(kind, name, body string) (Option, error) {
	switch kind {
	case "bool":
		if body != "" {
			return Option{}, fmt.Errorf("bool option %q takes no value list", name)
		}
		return Option{Name: name, Kind: OptionBool}, nil

	case "enum":
		if body == "" {
			return Option{}, fmt.Errorf("enum option %q requires a member list", name)
		}
		inner := strings.TrimSpace(body[1 : len(body)-1])
		if inner == "" {
			return Option{}, fmt.Errorf("enum option %q has an empty member list", name)
		}
		var values []string
		for _, member := range strings.Split(inner, ",") {
			member = strings.TrimSpace(member)
			if !identifier.MatchString(member) {
				return Option{}, fmt.Errorf("enum option %q has invalid member %q", name, member)
			}
			values = append(values, member)
		}
		if len(values) < 2 {
			return Option{}, fmt.Errorf("enum option %q needs at least two members", name)
		}
		return Option{Name: name, Kind: OptionEnum, Values: values}, nil

	case "int":
		m := intRange.FindStringSubmatch(body)
		if m == nil {
			return Option{}, fmt.Errorf("int option %q requires a range like {1..4}", name)
		}
		min, err := strconv.Atoi(m[1])
		if err != nil {
			return Option{}, fmt.Errorf("int option %q has invalid lower bound: %w", name, err)
		}
		max, err := strconv.Atoi(m[2])
		if err != nil {
			return Option{}, fmt.Errorf("int option %q has invalid upper bound: %w", name, err)
		}
		if max < min {
			return Option{}, fmt.Errorf("int option %q has empty range {%d..%d}", name, min, max)
		}
		return Option{Name: name, Kind: OptionInt, Min: min, Max: max}, nil

	default:
		return Option{}, fmt.Errorf("unknown option kind %q", kind)
	}
}
