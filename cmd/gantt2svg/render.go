package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gantt2svg/internal/render"
)

func newRenderCmd(a *app) *cobra.Command {
	var in inputFlags
	var view, output string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render projects to an SVG file",
		Long: `Render projects to an SVG Gantt chart.

If no output file is specified, the input filename with .svg extension will be used.

Examples:
  gantt2svg render --projects plan.yaml --view Month
  gantt2svg render --csv tasks.csv --output tasks.svg
  gantt2svg render --sample --view Quarter`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.renderOnce(cmd.OutOrStdout(), &in, view, output)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&view, "view", "", "View mode: Day, Week, Month, Quarter or Semester")
	cmd.Flags().StringVar(&output, "output", "", "Output SVG filename (optional)")
	return cmd
}

// renderOnce loads the input, renders it and writes the SVG file.
func (a *app) renderOnce(out io.Writer, in *inputFlags, view, output string) error {
	mode, err := a.viewMode(view)
	if err != nil {
		return err
	}

	projects, err := in.load()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded %d projects from %s\n", len(projects), in.path())

	svg, layout, err := render.New(a.cfg, a.logger).Chart(projects, mode)
	if err != nil {
		return err
	}

	outputPath := getOutputFilename(in.path(), output)
	if err := os.WriteFile(outputPath, []byte(svg), 0644); err != nil {
		return fmt.Errorf("error writing SVG file: %w", err)
	}

	a.logger.Debug("SVG written",
		zap.String("output", outputPath),
		zap.Int("bars", len(layout.Bars)),
		zap.Int("days", layout.TotalDays),
	)
	fmt.Fprintf(out, "Timeline SVG generated successfully: %s\n", outputPath)
	return nil
}
