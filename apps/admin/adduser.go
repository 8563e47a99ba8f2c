package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trezcool/checkin/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var nu user.NewUser
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create an instructor account. The password is prompted next.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if nu.Username == "" {
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
			nu.Password, nu.PasswordConfirm = pwd, pwd
			return cli.addUser(nu)
		},
	}
	cmd.Flags().StringVar(&nu.Username, "username", "", "The user's username")
	cmd.Flags().StringVar(&nu.Email, "email", "", "The user's email")
	cmd.Flags().StringVar(&nu.Name, "name", "", "The user's full name")
	cmd.Flags().BoolVar(&nu.IsAdmin, "admin", false, "Grant administrator rights")
	return cmd
}

func (cli *commandLine) addUser(nu user.NewUser) error {
	if err := nu.Validate(cli.validate, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "user %q created\n", usr.Username)
	return nil
}
