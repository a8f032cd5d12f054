package main

import (
	"errors"

	"github.com/spf13/cobra"

	"gantt2svg/internal/source"
	"gantt2svg/pkg/plan"
)

var errNoInput = errors.New("no input: use --projects, --csv or --sample")

// inputFlags selects where projects come from. At most one may be set.
type inputFlags struct {
	projects string
	csv      string
	sample   bool
}

func (in *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.projects, "projects", "", "YAML project file")
	cmd.Flags().StringVar(&in.csv, "csv", "", "CSV file with one task per line")
	cmd.Flags().BoolVar(&in.sample, "sample", false, "Use the built-in sample projects")
	cmd.MarkFlagsMutuallyExclusive("projects", "csv", "sample")
}

func (in *inputFlags) empty() bool {
	return in.projects == "" && in.csv == "" && !in.sample
}

// path is the file the projects were read from, "sample" for built-in data.
func (in *inputFlags) path() string {
	switch {
	case in.projects != "":
		return in.projects
	case in.csv != "":
		return in.csv
	case in.sample:
		return "sample"
	}
	return ""
}

func (in *inputFlags) load() ([]plan.Project, error) {
	switch {
	case in.projects != "":
		return source.LoadYAML(in.projects)
	case in.csv != "":
		return source.LoadCSV(in.csv)
	case in.sample:
		return source.Sample(), nil
	}
	return nil, errNoInput
}
