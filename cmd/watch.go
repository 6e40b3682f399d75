package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/conneroisu/shadergen/internal/config"
	"github.com/conneroisu/shadergen/internal/logging"
	"github.com/conneroisu/shadergen/internal/shader"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompile a shader whenever its source changes",
	Long: `Watch monitors the shader source file and recompiles the whole permutation
group on every change. The first build runs immediately. A failing batch is
reported and watching continues.

Examples:
  shadergen watch -i blur.hlsl -o shaders/
  shadergen watch -i blur.hlsl -o shaders/ -d --debounce 500`,
	RunE: runWatch,
}

var (
	watchInput    string
	watchOutput   string
	watchDebounce int
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchInput, "input", "i", "", "Path of the shader source (required)")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Output directory for the shader group (required)")
	watchCmd.Flags().BoolVarP(&compileDebug, "debug", "d", false, "Debug mode with debug symbols")
	watchCmd.Flags().BoolVar(&compileExternal, "external-symbols", false, "Extract debug symbols into separate files")
	watchCmd.Flags().Var(newOptimizationValue(&compileOptimize, 3), "optimization", "Optimization level (-1 disables optimization, 0-3 select a tier)")
	watchCmd.Flags().IntVar(&watchDebounce, "debounce", 0, "Debounce window in milliseconds (default from config)")
	watchCmd.MarkFlagRequired("input")
	watchCmd.MarkFlagRequired("output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("debounce") {
		cfg.Watch.DebounceMs = watchDebounce
	}

	log := logging.NewLogger(&logging.Config{
		Level:  logging.ParseLevel(logLevel),
		Output: os.Stderr,
	}).WithComponent("watch")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops a
	// watch registered on the file itself.
	source, err := filepath.Abs(watchInput)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(source)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(source), err)
	}

	rebuild := func() {
		if err := watchBuild(cfg, source); err != nil {
			log.Error(ctx, err, "build failed", "shader", source)
		}
	}
	rebuild()

	log.Info(ctx, "watching for changes", "shader", source, "debounce_ms", cfg.Watch.DebounceMs)

	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			log.Info(context.Background(), "shutting down")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != source {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug(ctx, "source changed", "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, err, "watcher error")

		case <-pending:
			rebuild()
		}
	}
}

// watchBuild reparses the source and compiles the group. Parsing again on
// every change picks up edits to the option pragmas themselves.
func watchBuild(cfg *config.Config, source string) error {
	sh, err := shader.Parse(source)
	if err != nil {
		return err
	}
	return compileGroup(cfg, sh, watchOutput)
}
