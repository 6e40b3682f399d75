// Package config provides configuration management for shadergen using
// Viper for flexible loading from files, environment variables, and
// command-line flags.
//
// Configuration is read from .shadergen.yml with SHADERGEN_-prefixed
// environment variable overrides (for example SHADERGEN_COMPILER_COMMAND).
// Flags bound by the cmd layer take precedence over both.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Compiler CompilerConfig `yaml:"compiler"`
	Output   OutputConfig   `yaml:"output"`
	Watch    WatchConfig    `yaml:"watch"`
}

type CompilerConfig struct {
	// Command is the external shader compiler executable.
	Command string `yaml:"command"`
	// OptimizationLevel is -1 to disable optimization or a tier from 0 to 3.
	OptimizationLevel int  `yaml:"optimization_level"`
	Debug             bool `yaml:"debug"`
	// ExternalSymbols extracts debug symbols into separate files and strips
	// them from the binaries. Only meaningful together with Debug.
	ExternalSymbols bool `yaml:"external_symbols"`
}

type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Header   string `yaml:"header"`
	Manifest bool   `yaml:"manifest"`
}

type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle values set via viper keys (workaround for viper nested handling)
	if viper.IsSet("compiler.command") && config.Compiler.Command == "" {
		config.Compiler.Command = viper.GetString("compiler.command")
	}
	if viper.IsSet("compiler.optimization_level") {
		config.Compiler.OptimizationLevel = viper.GetInt("compiler.optimization_level")
	}
	if viper.IsSet("compiler.debug") {
		config.Compiler.Debug = viper.GetBool("compiler.debug")
	}
	if viper.IsSet("compiler.external_symbols") {
		config.Compiler.ExternalSymbols = viper.GetBool("compiler.external_symbols")
	}

	// Apply defaults for values not set anywhere
	if config.Compiler.Command == "" {
		config.Compiler.Command = "dxc"
	}
	if !viper.IsSet("compiler.optimization_level") && config.Compiler.OptimizationLevel == 0 {
		config.Compiler.OptimizationLevel = 3
	}
	if config.Output.Dir == "" {
		config.Output.Dir = "shaders"
	}
	if config.Watch.DebounceMs <= 0 {
		config.Watch.DebounceMs = 300
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configuration the compilation engine would otherwise
// silently ignore downstream.
func (c *Config) Validate() error {
	if c.Compiler.OptimizationLevel < -1 || c.Compiler.OptimizationLevel > 3 {
		return fmt.Errorf("optimization level %d out of range, expected -1 to 3", c.Compiler.OptimizationLevel)
	}
	if c.Compiler.ExternalSymbols && !c.Compiler.Debug {
		return fmt.Errorf("external symbols require debug mode")
	}
	return nil
}
