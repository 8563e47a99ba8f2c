package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trezcool/checkin/core/user"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var uname string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password. The password is prompted next.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if uname == "" {
				_ = cmd.Help()
				return errHelp
			}
			pwd, err := cli.promptPassword("Enter password:")
			if err != nil {
				return err
			}
			if pwd == "" {
				_ = cmd.Help()
				return errHelp
			}
			return cli.resetPassword(uname, pwd)
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "The user's username or email")
	return cmd
}

func (cli *commandLine) resetPassword(uname, pwd string) error {
	data := user.ResetUserPassword{Username: uname, Password: pwd, PasswordConfirm: pwd}
	if err := data.Validate(cli.validate); err != nil {
		return err
	}
	usr, err := cli.usrSvc.ResetPassword(context.Background(), data)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "password of %q updated\n", usr.Username)
	return nil
}
