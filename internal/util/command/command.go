package command

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-relay/internal/api"
	"github/chapool/go-relay/internal/config"
)

// NewSubcommandGroup groups related subcommands under a common parent that
// only prints its help.
func NewSubcommandGroup(use string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use: use,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Error().Err(err).Msg("Failed to print help")
			}
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}

// WithServer initializes a fully wired server (without starting the HTTP
// listener), runs the closure against it and shuts it down again. Meant for
// one-shot CLI commands that need server components.
func WithServer(ctx context.Context, cfg config.Server, closure func(ctx context.Context, s *api.Server) error) error {
	zerolog.SetGlobalLevel(cfg.Logger.Level)
	if cfg.Logger.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.NewConsoleWriter())
	}

	s, err := api.InitNewServer(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if errs := s.Shutdown(ctx); len(errs) > 0 {
			log.Error().Errs("errors", errs).Msg("Failed to shut down server")
		}
	}()

	return closure(ctx, s)
}
