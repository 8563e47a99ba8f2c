package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/checkin/core/roster"
)

func (cli *commandLine) importRosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-roster FILE.csv",
		Short: "Import student_id,name,class_name rows. The whole file is rejected on any duplicate.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.importRoster(args[0])
		},
	}
}

func (cli *commandLine) importRoster(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening roster")
	}
	defer f.Close()

	students, err := roster.ParseCSV(f)
	if err != nil {
		return err
	}
	n, err := cli.rosterSvc.BulkImport(context.Background(), students)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%d students imported\n", n)
	return nil
}
