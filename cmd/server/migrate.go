package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"go-online-store/internal/app"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or inspect database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(_ *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := app.OpenDatabase(context.Background(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(command); err != nil {
				return fmt.Errorf("migrate %s: %w", command, err)
			}
			return nil
		},
	}
}
