package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/nebula-bridge/auth"
	"github.com/jrsteele09/nebula-bridge/echoclient"
	"github.com/jrsteele09/nebula-bridge/identity"
	"github.com/jrsteele09/nebula-bridge/internal/config"
	"github.com/jrsteele09/nebula-bridge/internal/tui"
	"github.com/jrsteele09/nebula-bridge/session"
)

var (
	envFile string
	logFile string
	debug   bool
	apiURL  string

	appCtx *appContext
)

// appContext holds the clients every subcommand shares. identity, gateway
// and tokens are nil when authentication is not configured.
type appContext struct {
	cfg      config.ClientConfig
	identity *identity.Client
	gateway  *auth.Gateway
	tokens   *auth.TokenProvider
	echo     *echoclient.Client
}

func (a *appContext) authEnabled() bool {
	return a.gateway != nil
}

func (a *appContext) runtime() session.Runtime {
	rt := session.Runtime{Echo: a.echo}
	if a.authEnabled() {
		rt.Gateway = a.gateway
		rt.Tokens = a.tokens
	}
	return rt
}

func (a *appContext) controller() *session.Controller {
	return session.NewController(a.authEnabled(), a.runtime())
}

func newAppContext(cfg config.ClientConfig) (*appContext, error) {
	a := &appContext{cfg: cfg, echo: echoclient.New(cfg.APIBaseURL)}
	if !cfg.AuthEnabled() {
		log.Warn().Msg("NEBULA_USER_POOL_ID or NEBULA_USER_POOL_CLIENT_ID not set, running without authentication")
		return a, nil
	}

	client, err := identity.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("identity client: %w", err)
	}
	a.identity = client
	a.gateway = auth.NewGateway(client)
	a.tokens = auth.NewTokenProvider(client)
	return a, nil
}

func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nebula",
		Short:         "NebulaBridge echo client",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configureLogging(logFile, debug); err != nil {
				return err
			}

			cfg, err := config.LoadClientConfig(envFile)
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.APIBaseURL = apiURL
			}

			appCtx, err = newAppContext(cfg)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			app := tui.NewApp(cmd.Context(), appCtx.authEnabled(), appCtx.runtime())
			_, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with NEBULA_* settings")
	root.PersistentFlags().StringVar(&logFile, "log-file", filepath.Join(config.StateDir(), "nebula.log"), "log file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "echo API base URL (overrides NEBULA_API_URL)")

	root.AddCommand(
		fetchCmd(),
		sendCmd(),
		signInCmd(),
		signUpCmd(),
		confirmCmd(),
		signOutCmd(),
		whoamiCmd(),
		configureCmd(),
	)
	return root
}

// configureLogging sends logs to path so they stay out of the terminal form.
func configureLogging(path string, debug bool) error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return nil
}
