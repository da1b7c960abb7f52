package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/keystorage/cmd/app/commands"
	"github.com/allisson/keystorage/internal/app"
	"github.com/allisson/keystorage/internal/config"
)

func getSystemCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "migrate",
			Usage: "Create the key_nodes table for the postgres and mysql storage drivers",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				if !cfg.UsesDatabase() {
					return fmt.Errorf("storage driver %q has no migrations", cfg.StorageDriver)
				}

				return commands.RunMigrations(container.Logger(), cfg.StorageDriver, cfg.DBConnectionString)
			},
		},
	}
}
