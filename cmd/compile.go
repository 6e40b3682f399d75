package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/shadergen/internal/compiler"
	"github.com/conneroisu/shadergen/internal/config"
	"github.com/conneroisu/shadergen/internal/output"
	"github.com/conneroisu/shadergen/internal/shader"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile every permutation of a shader",
	Long: `Compile expands the shader's declared options into every permutation and
compiles them all concurrently. Output is all-or-nothing: if any permutation
fails, nothing is written.

Examples:
  shadergen compile -i blur.hlsl -o shaders/           # Compile a shader group
  shadergen compile -i blur.hlsl --header blur.h       # Generate the include header
  shadergen compile -i blur.hlsl -o shaders/ -d        # Debug build
  shadergen compile -i blur.hlsl -o shaders/ -d --external-symbols`,
	RunE: runCompile,
}

var (
	compileInput     string
	compileOutput    string
	compileHeader    string
	compileDebug     bool
	compileExternal  bool
	compileOptimize  int
	compileManifest  bool
	compilerOverride string
)

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileInput, "input", "i", "", "Path of the shader source (required)")
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "Output directory for the shader group")
	compileCmd.Flags().StringVar(&compileHeader, "header", "", "Path of the generated include header")
	compileCmd.Flags().BoolVarP(&compileDebug, "debug", "d", false, "Debug mode with debug symbols")
	compileCmd.Flags().BoolVar(&compileExternal, "external-symbols", false, "Extract debug symbols into separate files")
	compileCmd.Flags().Var(newOptimizationValue(&compileOptimize, 3), "optimization", "Optimization level (-1 disables optimization, 0-3 select a tier)")
	compileCmd.Flags().BoolVar(&compileManifest, "manifest", false, "Write a YAML manifest of the compiled variants")
	compileCmd.Flags().StringVar(&compilerOverride, "compiler", "", "Shader compiler executable (default from config, then dxc)")
	compileCmd.MarkFlagRequired("input")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if compileOutput == "" && compileHeader == "" && cfg.Output.Header == "" {
		return fmt.Errorf("nothing to do: pass --output and/or --header")
	}

	sh, err := shader.Parse(compileInput)
	if err != nil {
		return err
	}

	header := compileHeader
	if header == "" {
		header = cfg.Output.Header
	}
	if header != "" {
		if err := output.WriteHeader(header, sh); err != nil {
			return err
		}
		fmt.Printf("Wrote include header %s\n", header)
	}

	if compileOutput == "" {
		return nil
	}

	return compileGroup(cfg, sh, compileOutput)
}

// loadConfig loads configuration and applies compile flag overrides, flags
// winning over environment and file values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("debug") {
		cfg.Compiler.Debug = compileDebug
	}
	if cmd.Flags().Changed("external-symbols") {
		cfg.Compiler.ExternalSymbols = compileExternal
	}
	if cmd.Flags().Changed("optimization") {
		cfg.Compiler.OptimizationLevel = compileOptimize
	}
	if cmd.Flags().Changed("compiler") {
		cfg.Compiler.Command = compilerOverride
	}
	if cmd.Flags().Changed("manifest") {
		cfg.Output.Manifest = compileManifest
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// compileGroup compiles every permutation of sh and writes the shader group
// into dir. Shared by the compile and watch commands.
func compileGroup(cfg *config.Config, sh *shader.Shader, dir string) error {
	backend, err := compiler.NewDXC(cfg.Compiler.Command)
	if err != nil {
		return err
	}

	options := compiler.Options{
		IsDebug:                 cfg.Compiler.Debug,
		UseExternalDebugSymbols: cfg.Compiler.ExternalSymbols,
		OptimizationLevel:       cfg.Compiler.OptimizationLevel,
	}

	compiled := compiler.New(backend, os.Stdout).CompileShader(sh, options)
	if len(compiled) == 0 {
		return fmt.Errorf("shader group compilation failed")
	}

	if err := output.WriteShaders(dir, sh.Name(), compiled); err != nil {
		return err
	}
	fmt.Printf("Wrote %d shader variants to %s\n", len(compiled), dir)

	if cfg.Output.Manifest {
		if err := output.WriteManifest(dir, sh.Name(), sh, compiled); err != nil {
			return err
		}
	}

	return nil
}
