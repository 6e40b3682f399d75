package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/shadergen/internal/version"
)

var versionFormat string

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for shadergen including the semantic version,
git commit hash, Go version and target platform.

Examples:
  shadergen version
  shadergen version --format json`,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVar(&versionFormat, "format", "text", "Output format (text, json)")
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.GetBuildInfo()

	switch versionFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case "text":
		fmt.Printf("shadergen %s\n", version.GetShortVersion())
		fmt.Printf("  go:       %s\n", info.GoVersion)
		fmt.Printf("  platform: %s\n", info.Platform)
		return nil
	default:
		return fmt.Errorf("unknown format %q, expected text or json", versionFormat)
	}
}
