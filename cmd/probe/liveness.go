package probe

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-relay/internal/config"
)

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Probes the server liveness endpoint",
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse flags")
			}

			cfg := config.DefaultServiceConfigFromEnv()

			probeEndpoint(cfg, "/-/healthy", verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Print the probe response body")

	return cmd
}
