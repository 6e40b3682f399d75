package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shadergen",
	Short: "A shader permutation compiler",
	Long: `Shadergen expands a shader source's declared compile-time options into
every permutation, compiles each permutation concurrently through an external
shading-language compiler, and packages the results into a shader group file
plus a generated C++ include header.

Source file usage:
  #pragma target cs_5_0                 Compilation target
  #pragma entry main                    Entry point - optional, default is 'main'
  #pragma namespace MyApp::Shaders      Namespace for the include header
  #pragma option bool IsSomethingEnabled
  #pragma option enum RenderMode {X, Y, Z}
  #pragma option int SampleCount {1..4}

Quick Start:
  shadergen compile -i blur.hlsl -o shaders/
  shadergen watch -i blur.hlsl -o shaders/`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .shadergen.yml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig loads configuration with the precedence --config flag, then the
// SHADERGEN_CONFIG_FILE environment variable, then .shadergen.yml in the
// current directory. All configuration values can be overridden through
// SHADERGEN_-prefixed environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SHADERGEN_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".shadergen")
	}

	viper.SetEnvPrefix("SHADERGEN")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; every value has a default.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
