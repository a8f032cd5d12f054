package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"gantt2svg/pkg/plan"
)

func newValidateCmd(a *app) *cobra.Command {
	var in inputFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a project file or CSV export without rendering it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			projects, err := in.load()

			var verr *plan.ValidationError
			if errors.As(err, &verr) {
				fields := make([]string, 0, len(verr.Fields))
				for f := range verr.Fields {
					fields = append(fields, f)
				}
				sort.Strings(fields)
				for _, f := range fields {
					fmt.Fprintf(out, "  %s: %s\n", f, verr.Fields[f])
				}
			}
			if err != nil {
				return err
			}

			tasks := 0
			for _, p := range projects {
				tasks += p.TaskCount()
			}
			fmt.Fprintf(out, "%s: %d projects, %d tasks, %d rows\n", in.path(), len(projects), tasks, len(plan.Flatten(projects)))
			return nil
		},
	}

	in.register(cmd)
	return cmd
}
