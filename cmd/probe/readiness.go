package probe

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-relay/internal/config"
)

const probeTimeout = 5 * time.Second

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Probes the server readiness endpoint",
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse flags")
			}

			cfg := config.DefaultServiceConfigFromEnv()

			probeEndpoint(cfg, "/-/ready?mgmt-secret="+url.QueryEscape(cfg.Management.Secret), verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Print the probe response body")

	return cmd
}

// probeEndpoint exits non-zero when the endpoint does not answer 200.
func probeEndpoint(cfg config.Server, path string, verbose bool) {
	client := &http.Client{Timeout: probeTimeout}

	res, err := client.Get(probeBaseURL(cfg) + path)
	if err != nil {
		log.Fatal().Err(err).Msg("Probe request failed")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read probe response")
	}

	if verbose {
		fmt.Println(string(body))
	}

	if res.StatusCode != http.StatusOK {
		log.Error().Int("status", res.StatusCode).Msg("Probe failed")
		os.Exit(1)
	}
}

func probeBaseURL(cfg config.Server) string {
	listen := cfg.Echo.ListenAddress
	if strings.HasPrefix(listen, ":") {
		return "http://localhost" + listen
	}

	return "http://" + listen
}
