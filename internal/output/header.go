package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/conneroisu/shadergen/internal/shader"
)

// WriteHeader generates the C++ include header for a shader. The header
// declares one enum per enum option and a key struct whose value() method
// reproduces the permutation key bit packing, so applications can select the
// variant they need at runtime.
func WriteHeader(path string, sh *shader.Shader) error {
	var b strings.Builder

	b.WriteString("#pragma once\n")
	b.WriteString("#include <cstdint>\n\n")
	b.WriteString("// Generated by shadergen. Do not edit.\n")

	indent := ""
	if sh.Namespace != "" {
		fmt.Fprintf(&b, "namespace %s\n{\n", sh.Namespace)
		indent = "  "
	}

	structName := exportName(sh.Name()) + "Key"
	layout := shader.Layout(sh.Options)

	for _, option := range sh.Options {
		if option.Kind != shader.OptionEnum {
			continue
		}
		fmt.Fprintf(&b, "%senum class %s : uint32_t\n%s{\n", indent, option.Name, indent)
		for ordinal, member := range option.Values {
			fmt.Fprintf(&b, "%s  %s = %d,\n", indent, member, ordinal)
		}
		fmt.Fprintf(&b, "%s};\n\n", indent)
	}

	fmt.Fprintf(&b, "%sstruct %s\n%s{\n", indent, structName, indent)
	for _, option := range sh.Options {
		switch option.Kind {
		case shader.OptionBool:
			fmt.Fprintf(&b, "%s  bool %s = false;\n", indent, option.Name)
		case shader.OptionEnum:
			fmt.Fprintf(&b, "%s  %s %s = %s::%s;\n", indent, option.Name, fieldName(option.Name), option.Name, option.Values[0])
		case shader.OptionInt:
			fmt.Fprintf(&b, "%s  int32_t %s = %d;\n", indent, option.Name, option.Min)
		}
	}

	fmt.Fprintf(&b, "\n%s  uint64_t value() const\n%s  {\n", indent, indent)
	fmt.Fprintf(&b, "%s    uint64_t key = 0;\n", indent)
	for i, option := range sh.Options {
		switch option.Kind {
		case shader.OptionBool:
			fmt.Fprintf(&b, "%s    key |= uint64_t(%s ? 1 : 0) << %d;\n", indent, option.Name, layout[i].Offset)
		case shader.OptionEnum:
			fmt.Fprintf(&b, "%s    key |= uint64_t(%s) << %d;\n", indent, fieldName(option.Name), layout[i].Offset)
		case shader.OptionInt:
			fmt.Fprintf(&b, "%s    key |= uint64_t(%s - %d) << %d;\n", indent, option.Name, option.Min, layout[i].Offset)
		}
	}
	fmt.Fprintf(&b, "%s    return key;\n%s  }\n%s};\n", indent, indent, indent)

	if sh.Namespace != "" {
		b.WriteString("}\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write include header: %w", err)
	}
	return nil
}

// exportName upper-cases the first rune of a shader file name for use as a
// C++ type name
func exportName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// fieldName distinguishes an enum struct field from its enum type, which
// shares the option name
func fieldName(optionName string) string {
	return optionName + "Value"
}
