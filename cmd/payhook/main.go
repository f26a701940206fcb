package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	_ "github.com/jackc/pgx/v5/stdlib" // драйвер pgx для goose

	"github.com/juulhao/payhook/internal/app"
	"github.com/juulhao/payhook/internal/config"
	"github.com/juulhao/payhook/migrations"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "payhook",
		Short:        "payhook - Mercado Pago webhook receiver and payment reconciliation",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(eventsCmd())

	// Ctrl+C останавливает events tail; serve обрабатывает сигналы сам через shutdown manager
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Загружаем конфигурацию
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// Build собирает граф зависимостей и инициализирует все компоненты
			application, err := app.Build(cfg)
			if err != nil {
				return fmt.Errorf("failed to build app: %w", err)
			}

			// Run блокируется до graceful shutdown
			return application.Run(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:       "migrate [up|status|down]",
		Short:     "Apply or inspect Postgres migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "status", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("POSTGRES_DSN or --dsn is required")
			}

			db, err := goose.OpenDBWithDriver("pgx", dsn)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			switch args[0] {
			case "up":
				return migrations.Up(ctx, db)
			case "status":
				return migrations.Status(ctx, db)
			default:
				return migrations.Down(ctx, db)
			}
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", os.Getenv("POSTGRES_DSN"), "Postgres DSN (default $POSTGRES_DSN)")

	return cmd
}
