package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"game_theory_arena/internal/config"
	"game_theory_arena/internal/logger"
)

// Version is set at build time
var Version = "dev"

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:     "arena",
		Short:   "Real-time two-player game theory arena.",
		Args:    cobra.NoArgs,
		Version: Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), v)
		},
	}
	config.BindFlags(cmd.PersistentFlags(), v)

	cmd.AddCommand(newServeCmd(v), newMigrateCmd(v))

	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("arena {{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), v)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		logger.Fatal("arena exited with error", "error", err)
	}
}
