package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/nebula-bridge/internal/config"
)

// configure: write the given NEBULA_* settings into the env file, keeping
// every other line.
func configureCmd() *cobra.Command {
	values := map[string]*string{}
	flags := []struct {
		name, key, usage string
	}{
		{"api", config.ClientAPIURLVar, "echo API base URL"},
		{"region", config.ClientRegionVar, "identity pool region"},
		{"user-pool-id", config.ClientUserPoolIDVar, "user pool id"},
		{"client-id", config.ClientUserPoolClientVar, "user pool app client id"},
		{"domain", config.ClientCognitoDomainVar, "hosted UI domain prefix, or a full URL"},
		{"redirect-sign-in", config.ClientRedirectSignInVar, "hosted UI sign-in redirect"},
		{"redirect-sign-out", config.ClientRedirectSignOutVar, "hosted UI sign-out redirect"},
		{"issuer", config.ClientIssuerURLVar, "OIDC issuer override"},
	}

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Write NEBULA_* settings to the env file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vars := map[string]string{}
			for _, f := range flags {
				if cmd.Flags().Changed(f.name) {
					vars[f.key] = *values[f.key]
				}
			}
			if len(vars) == 0 {
				return fmt.Errorf("nothing to configure, pass at least one setting flag")
			}

			if err := config.UpdateEnvFile(envFile, vars); err != nil {
				return err
			}

			keys := make([]string, 0, len(vars))
			for k := range vars {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, vars[k])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", envFile)
			return nil
		},
	}

	for _, f := range flags {
		values[f.key] = cmd.Flags().String(f.name, "", f.usage)
	}
	return cmd
}
