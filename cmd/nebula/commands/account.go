package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/nebula-bridge/session"
)

var (
	email           string
	password        string
	confirmPassword string
	code            string
	hostedUI        bool
)

var errAuthDisabled = errors.New("authentication is not configured (set NEBULA_USER_POOL_ID and NEBULA_USER_POOL_CLIENT_ID)")

func requireAuth() error {
	if !appCtx.authEnabled() {
		return errAuthDisabled
	}
	return nil
}

// readPassword takes the password from the flag or, failing that, the first
// line of stdin.
func readPassword(in io.Reader, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func signInCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and cache the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuth(); err != nil {
				return err
			}
			pw, err := readPassword(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c := appCtx.controller()
			m := c.Start(ctx)
			if _, ok := m.Identity(); !ok {
				m = c.Dispatch(ctx, session.SignInSubmitted{Credentials: session.Credentials{Email: email, Password: pw}})
			}
			if _, ok := m.Identity(); !ok {
				return modelError(m)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, m.StatusLine())
			if m.Message != "" {
				fmt.Fprintln(out, m.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func signUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuth(); err != nil {
				return err
			}
			pw, err := readPassword(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}
			confirm := confirmPassword
			if confirm == "" {
				confirm = pw
			}

			ctx := cmd.Context()
			c := appCtx.controller()
			c.Dispatch(ctx, session.ToggleRegister{})
			m := c.Dispatch(ctx, session.SignUpSubmitted{Credentials: session.Credentials{Email: email, Password: pw, ConfirmPassword: confirm}})
			if err := modelError(m); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.Notice)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when omitted)")
	cmd.Flags().StringVar(&confirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func confirmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirm a registration with the emailed code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuth(); err != nil {
				return err
			}
			res := appCtx.gateway.ConfirmSignUp(cmd.Context(), email, code)
			if res.Err != nil {
				return res.Err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account confirmed. Please sign in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&code, "code", "", "confirmation code")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Revoke and clear the cached session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuth(); err != nil {
				return err
			}
			res := appCtx.gateway.SignOut(cmd.Context())
			if res.Err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), session.MsgSignOutUnreachable)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.MsgSignedOut)
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAuth(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if hostedUI {
				fmt.Fprintf(out, "Hosted UI sign-in:  %s\n", appCtx.identity.HostedUISignInURL("nebula"))
				fmt.Fprintf(out, "Hosted UI sign-out: %s\n", appCtx.identity.HostedUISignOutURL())
			}

			res := appCtx.gateway.GetCurrentUser(cmd.Context())
			if !res.Success {
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}
			fmt.Fprintln(out, session.SignedInAs(*res.Identity))
			return nil
		},
	}
	cmd.Flags().BoolVar(&hostedUI, "hosted-ui", false, "also print the hosted UI sign-in and sign-out URLs")
	return cmd
}
