package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atinyakov/PodStudio/internal/client"
)

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			var err error
			if username, err = p.value(username, "Username"); err != nil {
				return err
			}
			if email, err = p.value(email, "Email"); err != nil {
				return err
			}
			if password, err = p.value(password, "Password"); err != nil {
				return err
			}

			sess, err := ctx.session(cmd.Context())
			if err != nil {
				return err
			}
			res, err := sess.Register(cmd.Context(), username, email, password)
			if err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s. Logged in as %s <%s>\n", res.Message, res.User.Username, res.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email (prompted when empty)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			var err error
			if email, err = p.value(email, "Email"); err != nil {
				return err
			}
			if password, err = p.value(password, "Password"); err != nil {
				return err
			}

			sess, err := ctx.session(cmd.Context())
			if err != nil {
				return err
			}
			res, err := sess.Login(cmd.Context(), email, password)
			if err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s. Logged in as %s <%s>\n", res.Message, res.User.Username, res.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "email (prompted when empty)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := sess.Logout(cmd.Context()); err != nil {
				// the local token is gone either way
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: server logout failed: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.session(cmd.Context())
			if err != nil {
				return err
			}
			user, err := sess.Validate(cmd.Context())
			if err != nil {
				return wrapSessionError(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", user.Username, user.Email)
			fmt.Fprintf(out, "id:     %s\n", user.ID)
			fmt.Fprintf(out, "server: %s\n", sess.Client.BaseURL())
			return nil
		},
	}
}

// describeAPIError appends field errors to validation failures.
func describeAPIError(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return err
	}
	msg := apiErr.Message
	for _, f := range apiErr.Fields {
		msg += fmt.Sprintf("\n  %s: %s", f.Field, f.Message)
	}
	return errors.New(msg)
}
