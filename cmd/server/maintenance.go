package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"flower_shop/internal/database"
	"flower_shop/internal/repository"
	"flower_shop/internal/seed"
	"flower_shop/internal/services"
)

func newMigrateCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.OpenSQL(load())
			if err != nil {
				return err
			}
			defer database.CloseSQL(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Info().Msg("✅ schema up to date")
			return nil
		},
	}
}

func newSeedCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and demo catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.OpenSQL(load())
			if err != nil {
				return err
			}
			defer database.CloseSQL(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			res, err := seed.Run(cmd.Context(), repository.NewStore(db))
			if err != nil {
				return err
			}
			if res.AdminCreated {
				fmt.Fprintf(cmd.OutOrStdout(), "admin: %s / %s\n", seed.AdminEmail, seed.AdminPassword)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "products created: %d\n", res.ProductsCreated)
			return nil
		},
	}
}

func newReindexCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Push every product to Elasticsearch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			es, err := database.ConnectElastic(cfg)
			if err != nil {
				return err
			}
			index := services.NewProductIndex(es)
			if !index.Enabled() {
				return services.ErrSearchUnavailable
			}

			db, err := database.OpenSQL(cfg)
			if err != nil {
				return err
			}
			defer database.CloseSQL(db)

			products, err := repository.NewStore(db).ListProducts(cmd.Context(), repository.ProductFilter{})
			if err != nil {
				return err
			}
			n, err := index.Reindex(cmd.Context(), products)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d/%d products\n", n, len(products))
			return nil
		},
	}
}
