package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gantt2svg/internal/source"
)

func newSampleCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write the built-in sample projects as a YAML project file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects := source.Sample()
			if output == "" {
				data, err := yaml.Marshal(source.File{Projects: projects})
				if err != nil {
					return fmt.Errorf("error encoding project file: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			if err := source.SaveYAML(output, projects); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sample projects to %s\n", len(projects), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Output YAML filename (default stdout)")
	return cmd
}
