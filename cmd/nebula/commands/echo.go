package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/nebula-bridge/session"
)

// fetch: GET the greeting, as the form does on start.
func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the greeting from the echo API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := appCtx.controller().Start(cmd.Context())
			if err := modelError(m); err != nil {
				return err
			}
			if !m.EchoFormVisible() {
				return errNotSignedIn
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.Message)
			return nil
		},
	}
}

// send <text>: POST text and print the echoed message.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <text>",
		Short: "Send text to the echo API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := appCtx.controller()

			m := c.Start(ctx)
			if !m.EchoFormVisible() {
				if m.Error != "" {
					return errors.New(m.Error)
				}
				return errNotSignedIn
			}

			c.Dispatch(ctx, session.InputChanged{Text: args[0]})
			m = c.Dispatch(ctx, session.TextSubmitted{})
			if err := modelError(m); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.Message)
			return nil
		},
	}
}

var errNotSignedIn = errors.New("not signed in, run `nebula signin` first")

func modelError(m session.Model) error {
	if m.Error != "" {
		return errors.New(m.Error)
	}
	return nil
}
