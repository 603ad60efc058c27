package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (cli *commandLine) quotaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Inspect aid program quotas",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}

	var fix bool
	reconcile := &cobra.Command{
		Use:   "reconcile PROGRAM_ID",
		Short: "Compare the recorded quota consumption with the held reservations",
		Long: "Compare the recorded quota consumption of a program with its held reservations " +
			"(applications not rejected). With --fix the recorded value is overwritten, capped at the quota.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := cli.programSvc.Reconcile(cmd.Context(), id, fix)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "program %d: quota %d, recorded %d, held %d\n", rec.ProgramID, rec.Quota, rec.Recorded, rec.Held)
			switch {
			case rec.InSync():
				fmt.Fprintln(out, "in sync")
			case rec.Fixed:
				fmt.Fprintln(out, "fixed")
			default:
				fmt.Fprintln(out, "drift detected, run again with --fix to repair")
			}
			return nil
		},
	}
	reconcile.Flags().BoolVar(&fix, "fix", false, "overwrite the recorded consumption")

	cmd.AddCommand(reconcile)
	return cmd
}
