package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/sales-engine/api"
	"github.com/warp/sales-engine/config"
	"github.com/warp/sales-engine/demo"
	"github.com/warp/sales-engine/forecast"
	"github.com/warp/sales-engine/report"
	"github.com/warp/sales-engine/sales"
	"github.com/warp/sales-engine/store/sqlite"
)

// RootOptions holds global flags and the state built from them.
type RootOptions struct {
	ConfigPath string
	DBPath     string

	cfg    config.Config
	logger *zap.Logger
}

func (o *RootOptions) openStore() (*sqlite.Store, error) {
	store, err := sqlite.New(o.cfg.Database.Path, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func newRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Sales dashboard backend",
		Long:          "Stores clients, products and sales in SQLite, serves the dashboard API and forecasts daily sales.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if opts.DBPath != "" {
				cfg.Database.Path = opts.DBPath
			}
			logger, err := config.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			opts.cfg, opts.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides config)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newForecastCommand(opts))
	cmd.AddCommand(newExportCommand(opts))

	return cmd
}

// =============================================================================
// SERVE
// =============================================================================

func newServeCommand(opts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				opts.cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	return cmd
}

func serve(ctx context.Context, opts *RootOptions) error {
	cfg, log := opts.cfg, opts.logger

	store, err := opts.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	handler := api.NewHandler(store, forecast.NewEngine(cfg.Forecast.Engine()), log, api.Options{
		Horizon:    cfg.Forecast.Horizon,
		MinHistory: cfg.Forecast.MinHistory,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("database", cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// =============================================================================
// MAINTENANCE
// =============================================================================

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the schema",
		Long: `Create the tables if missing and rebuild the sales table with a text
date column and its index. Existing rows and ids are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.CountSales(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%d sales)\n", n)
			return nil
		},
	}
}

func newSeedCommand(opts *RootOptions) *cobra.Command {
	var (
		scenario string
		appendTo bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo scenario",
		Long: `Reset the database and load a demo scenario.

With --append the seed set is inserted without resetting; ids then continue
from the existing rows and the seed sales' references may not resolve.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if appendTo {
				err = demo.Load(ctx, store)
			} else {
				err = demo.LoadScenario(ctx, store, scenario)
			}
			if err != nil {
				return err
			}

			n, err := store.CountSales(ctx)
			if err != nil {
				return err
			}
			opts.logger.Info("scenario loaded", zap.String("scenario", scenario), zap.Int("sales", n))
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %s: %d sales\n", scenario, n)
			return nil
		},
	}

	cmd.Flags().StringVar(&scenario, "scenario", demo.ScenarioSeed, "scenario id (seed, forecast-history, empty)")
	cmd.Flags().BoolVar(&appendTo, "append", false, "insert the seed set without resetting")
	return cmd
}

// =============================================================================
// FORECAST AND EXPORT
// =============================================================================

func newForecastCommand(opts *RootOptions) *cobra.Command {
	var (
		horizon int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast daily sales amounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if horizon == 0 {
				horizon = opts.cfg.Forecast.Horizon
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.ListSales(cmd.Context())
			if err != nil {
				return err
			}

			res, ok := forecast.Insufficient(len(rows), opts.cfg.Forecast.MinHistory)
			if ok {
				res = forecast.NewEngine(opts.cfg.Forecast.Engine()).ForecastSales(rows, horizon)
			}
			if err := printForecast(cmd.OutOrStdout(), res, asJSON); err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("forecast unavailable: %s", res.Err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&horizon, "horizon", 0, "days to forecast (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printForecast(w io.Writer, res forecast.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if !res.OK() {
		return nil
	}
	for _, p := range res.Points {
		fmt.Fprintf(w, "%s\t%.2f\n", p.Date.Format(sales.DayLayout), p.Amount)
	}
	fmt.Fprintf(w, "MAE\t%.2f\n", res.MAE)
	return nil
}

func newExportCommand(opts *RootOptions) *cobra.Command {
	var (
		out, from, to string
		categories    []string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the sales listing as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDate, err := sales.ParseOptionalDate(from)
			if err != nil {
				return err
			}
			toDate, err := sales.ParseOptionalDate(to)
			if err != nil {
				return err
			}
			filter := report.Filter{From: fromDate, To: toDate, Categories: categories}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.ListSales(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return report.WriteCSV(w, filter.Apply(rows))
		},
	}

	cmd.Flags().StringVar(&out, "out", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&from, "from", "", "first day included")
	cmd.Flags().StringVar(&to, "to", "", "last day included")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "categories to include (repeatable)")
	return cmd
}
