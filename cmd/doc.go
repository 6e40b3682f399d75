// Package cmd provides the command-line interface for shadergen.
//
// This package implements all CLI commands using the Cobra framework.
//
// # Available Commands
//
//   - compile: expand a shader's options and compile every permutation
//   - watch: recompile a shader whenever its source changes
//   - version: show version information
//
// # Command Examples
//
//	// Compile a shader group with debug symbols
//	shadergen compile -i blur.hlsl -o shaders/ -d
//
//	// Generate the include header only
//	shadergen compile -i blur.hlsl --header include/blur.h
//
//	// Rebuild on every source change
//	shadergen watch -i blur.hlsl -o shaders/
//
// Configuration follows the precedence flags > SHADERGEN_* environment
// variables > .shadergen.yml.
package cmd
