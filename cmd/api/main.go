package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-console/internal/adapters/storage"
	"clinic-console/internal/adapters/storage/postgres"
	"clinic-console/internal/config"
	"clinic-console/internal/domain/calendar"
	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/platform/logger"
	"clinic-console/internal/views"

	"github.com/spf13/cobra"
)

const appName = "clinic-console"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Clinic console API",
		Long: `API de la consola de la clínica: vistas vivas sobre el document store,
escrituras con notificación y calendario derivado.

Sin subcomando levanta el servidor HTTP (igual que "serve").`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(serveCmd(), migrateCmd(), calendarCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dsn == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				dsn = cfg.Store.DSN
			}
			if dsn == "" {
				return fmt.Errorf("migrate: DB_DSN is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			results, err := postgres.Migrate(ctx, dsn)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s (%s)\n", r.Source.Path, r.Duration)
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no pending migrations")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres DSN (default DB_DSN)")
	return cmd
}

// calendarCmd imprime la proyección de un día leyendo el store configurado.
func calendarCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "calendar [YYYY-MM-DD]",
		Short: "Imprime los eventos de un día",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			loc, err := cfg.Calendar.Location()
			if err != nil {
				return err
			}
			date := time.Now().In(loc).Format(calendar.DateLayout)
			if len(args) == 1 {
				date = args[0]
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()

			store, closeStore, err := storage.Open(ctx, cfg.Store, log)
			if err != nil {
				return err
			}
			defer closeStore()

			reg := views.NewRegistry(store, errbus.New(), log, nil)
			defer reg.Close()

			composer := calendar.NewComposer(calendar.Options{
				MonthsBefore: cfg.Calendar.MonthsBefore,
				MonthsAfter:  cfg.Calendar.MonthsAfter,
				Location:     loc,
			})
			for _, name := range []string{views.Clients, views.Examinations, views.Doctors} {
				v, _ := reg.Named(name)
				views.Await(ctx, v)
				composer.AddSource(name, v, transformFor(name))
			}
			composer.Start()
			defer composer.Close()

			day, err := composer.Day(date)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(day)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "Tiempo máximo para cargar las vistas")
	return cmd
}

func transformFor(name string) calendar.Transform {
	switch name {
	case views.Clients:
		return calendar.VisitEvents
	case views.Examinations:
		return calendar.ExaminationEvents
	default:
		return calendar.SlotEvents
	}
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.AppName,
	})
}
