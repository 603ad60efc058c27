package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/volatiletech/null/v8"

	"github.com/aspirasi/relawan/core/program"
)

const dateLayout = "2006-01-02"

func (cli *commandLine) programCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "program",
		Short: "Manage aid programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	cmd.AddCommand(cli.programCreateCommand(), cli.programShowCommand())
	return cmd
}

func (cli *commandLine) programCreateCommand() *cobra.Command {
	var (
		np           program.NewProgram
		kind, status string
		start, end   string
		nominal      int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an aid program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if np.WindowStart, err = cli.parseDate("start", start); err != nil {
				return err
			}
			if np.WindowEnd, err = cli.parseDate("end", end); err != nil {
				return err
			}
			np.Kind = program.Kind(kind)
			np.Status = program.Status(status)
			if nominal > 0 {
				np.Nominal = null.Int64From(nominal)
			}
			if err = np.Validate(cli.validate); err != nil {
				return err
			}

			p, err := cli.programSvc.Create(cmd.Context(), np)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "program %d created\n", p.ID)
			printProgram(cmd, p)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&np.Name, "name", "", "program name")
	flags.StringVar(&np.Description, "description", "", "program description")
	flags.StringVar(&kind, "kind", "", "aid kind (Uang Tunai, Sembako, Peralatan, Pelatihan, Kesehatan, Pendidikan)")
	flags.Int64Var(&nominal, "nominal", 0, "aid value in rupiah")
	flags.IntVar(&np.Quota, "quota", 0, "number of recipients")
	flags.StringVar(&start, "start", "", "first day of the application window (YYYY-MM-DD)")
	flags.StringVar(&end, "end", "", "last day of the application window (YYYY-MM-DD)")
	flags.StringVar(&status, "status", string(program.StatusActive), "program status (Aktif, Tidak Aktif, Selesai)")
	flags.StringVar(&np.Requirements, "requirements", "", "eligibility requirements")
	flags.StringVar(&np.RequiredDocuments, "documents", "", "documents to upload")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("quota")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func (cli *commandLine) programShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show PROGRAM_ID",
		Short: "Show an aid program and its quota usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := cli.programSvc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			printProgram(cmd, p)
			fmt.Fprintf(cmd.OutOrStdout(), "available:  %t\n", cli.programSvc.IsAvailable(p))
			return nil
		},
	}
}

func (cli *commandLine) parseDate(flag, value string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, value, cli.conf.Location())
	return d, errors.Wrapf(err, "invalid --%s date", flag)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid program id %q", s)
	}
	return id, nil
}

func printProgram(cmd *cobra.Command, p program.Program) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "name:       %s\n", p.Name)
	fmt.Fprintf(out, "kind:       %s\n", p.Kind)
	fmt.Fprintf(out, "status:     %s\n", p.Status)
	fmt.Fprintf(out, "window:     %s to %s\n", p.WindowStart.Format(dateLayout), p.WindowEnd.Format(dateLayout))
	fmt.Fprintf(out, "quota:      %d/%d used, %d remaining\n", p.QuotaConsumed, p.Quota, p.RemainingQuota())
}
