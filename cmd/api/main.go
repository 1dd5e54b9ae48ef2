package main

import (
	"context"
	"fmt"
	"kanban/internal/app"
	"kanban/internal/config"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "kanban-api",
		Short:        "HTTP API канбан-доски",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("конфигурация: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg).Init(ctx)
			if err != nil {
				return fmt.Errorf("инициализация: %w", err)
			}
			return application.Run(ctx)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "путь к config.yml")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
