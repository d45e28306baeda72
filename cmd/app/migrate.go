package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"game_theory_arena/internal/logger"
	"game_theory_arena/migrations"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := v.GetString("database-url")
			if dsn == "" {
				return errors.New("database-url must not be empty")
			}
			logger.Init(v.GetString("log-level"), v.GetString("log-format"))
			defer logger.Sync()

			res, err := migrations.Run(dsn, args[0], steps)
			if err != nil {
				return err
			}
			if res.NoChange {
				logger.Warn("no migration changes to apply", "direction", args[0])
			}
			logger.Info("migration complete",
				"direction", args[0],
				"version", res.Version,
				"dirty", res.Dirty,
			)
			if res.Dirty {
				return fmt.Errorf("database left dirty at version %d", res.Version)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to apply, 0 for all")
	return cmd
}
