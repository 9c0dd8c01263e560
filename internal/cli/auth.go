package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"healthmate/internal/app"
	"healthmate/internal/core/domain"
	"healthmate/internal/pkg/validation"

	"github.com/spf13/cobra"
)

// ErrNotSignedIn is returned by commands that need a session
var ErrNotSignedIn = errors.New("not signed in; run 'healthctl login'")

func newLoginCmd(factory AppFactory) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Sign in and store the session",
		Example: `  healthctl login --email ann@example.com --password 's3cret-pass'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if err := validation.Email(email); err != nil {
				return err
			}
			if password == "" {
				return fmt.Errorf("--password is required")
			}

			return withApp(cmd, factory, func(ctx context.Context, a *app.App) error {
				result := a.Session.Login(ctx, email, password)
				if !result.Success {
					return fmt.Errorf("login failed: %s", result.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", result.User.DisplayName())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newRegisterCmd(factory AppFactory) *cobra.Command {
	var input domain.RegisterInput

	cmd := &cobra.Command{
		Use:     "register",
		Short:   "Create an account and sign in with it",
		Example: `  healthctl register --email ann@example.com --password 's3cret-pass' --first-name Ann`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Email = strings.TrimSpace(input.Email)
			if err := validation.Email(input.Email); err != nil {
				return err
			}
			if err := validation.Password(input.Password); err != nil {
				return err
			}

			return withApp(cmd, factory, func(ctx context.Context, a *app.App) error {
				result := a.Session.Register(ctx, input)
				if !result.Success {
					return fmt.Errorf("registration failed: %s", result.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s\n", result.User.DisplayName())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "account email")
	cmd.Flags().StringVar(&input.Password, "password", "", "account password")
	cmd.Flags().StringVar(&input.Username, "username", "", "username (defaults to the email local part)")
	cmd.Flags().StringVar(&input.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&input.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "phone number")
	return cmd
}

func newLogoutCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, a *app.App) error {
				if err := a.Session.Logout(ctx); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed in user, profile and role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, a *app.App) error {
				session := a.Session.Snapshot()
				if !session.IsAuthenticated {
					return sessionError(session)
				}
				return printJSON(cmd.OutOrStdout(), session)
			})
		},
	}
}

func newValidateCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the stored session against the backend, refreshing if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, a *app.App) error {
				if !a.Session.ValidateToken(ctx) {
					return sessionError(a.Session.Snapshot())
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Session is valid")
				return nil
			})
		},
	}
}

// sessionError explains why there is no session
func sessionError(session domain.Session) error {
	if session.Notice != nil {
		return fmt.Errorf("%s", session.Notice.Message)
	}
	return ErrNotSignedIn
}
