// Command gantt2svg renders project plans as SVG Gantt charts and serves
// them over HTTP for editing.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gantt2svg/internal/config"
	"gantt2svg/internal/logger"
	"gantt2svg/pkg/timeline"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	debug      bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "gantt2svg",
		Short:         "Render project plans as SVG Gantt charts",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file (optional)")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug mode for verbose output")

	rootCmd.AddCommand(newRenderCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newValidateCmd(a))
	rootCmd.AddCommand(newSampleCmd(a))
	return rootCmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg

	a.logger, err = logger.New(a.debug)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	a.logger.Debug("Configuration loaded",
		zap.String("config", a.configPath),
		zap.String("view", string(cfg.Chart.ViewMode)),
		zap.String("store", cfg.Store.Driver),
	)
	return nil
}

// viewMode resolves a --view flag, falling back to the configured default.
func (a *app) viewMode(flag string) (timeline.ViewMode, error) {
	if flag == "" {
		return a.cfg.Chart.ViewMode, nil
	}
	return timeline.ParseViewMode(flag)
}

// getOutputFilename returns outputFile if set, otherwise the input file
// name with its extension replaced by .svg ("plan.yaml" becomes "plan.svg").
func getOutputFilename(inputFile, outputFile string) string {
	if outputFile != "" {
		return outputFile
	}

	base := filepath.Base(inputFile)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".svg"
}
