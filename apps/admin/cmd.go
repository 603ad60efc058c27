package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/program"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf       *core.Config
	db         *sql.DB
	validate   *validator.Validate
	programSvc *program.Service
	out        io.Writer
}

func (cli *commandLine) output() io.Writer {
	if cli.out == nil {
		return os.Stdout
	}
	return cli.out
}

// rootCommand builds a fresh command tree, flags are not shared between runs.
func (cli *commandLine) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Relawan administration tasks",
		Long:          "Relawan administration tasks: database migrations, aid programs and quota reconciliation.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.SetOut(cli.output())
	root.SetErr(cli.output())

	root.AddCommand(
		cli.migrateCommand(),
		cli.programCommand(),
		cli.quotaCommand(),
	)
	return root
}

// run executes the command line; args[0] is the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCommand()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}
