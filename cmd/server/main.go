package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"flower_shop/internal/config"
	"flower_shop/internal/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("❌ flowershop")
		os.Exit(1)
	}
}

// configLoader hands the config loaded by the root command to subcommands.
type configLoader func() *config.Config

func newRootCommand() *cobra.Command {
	var cfg *config.Config

	cmd := &cobra.Command{
		Use:           "flowershop",
		Short:         "Flower shop storefront back end",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(c.Env, c.LogLevel)
			cfg = c
			return nil
		},
	}
	load := configLoader(func() *config.Config { return cfg })

	serve := newServeCommand(load)
	cmd.RunE = serve.RunE
	cmd.AddCommand(serve)
	cmd.AddCommand(newMigrateCommand(load))
	cmd.AddCommand(newSeedCommand(load))
	cmd.AddCommand(newReindexCommand(load))
	return cmd
}
