package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	var username, password, userType string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.sessions.Login(cmd.Context(), username, password, userType)
			if err != nil {
				return err
			}
			if a.output == OutputJSON {
				return writeJSON(a.out, st)
			}
			fmt.Fprintf(a.out, "logged in as %s (%s), home %s\n", st.Email, st.Role, st.Route)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username or email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&userType, "user-type", "", "Role to log in as")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("user-type")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "logged out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.sessions.Current()
			if a.output == OutputJSON {
				return writeJSON(a.out, st)
			}
			if !st.Authenticated {
				fmt.Fprintln(a.out, "not logged in")
				return nil
			}
			fmt.Fprintf(a.out, "%s (%s), home %s\n", st.Email, st.Role, st.Route)
			return nil
		},
	}
}
