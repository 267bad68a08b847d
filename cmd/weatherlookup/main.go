package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-lookup/internal/api/http"
	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/logging"
	"github.com/i474232898/weather-lookup/internal/result"
	"github.com/i474232898/weather-lookup/internal/scheduler"
	"github.com/i474232898/weather-lookup/internal/weather"
)

const appName = "weather-lookup"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var app *components

	root := &cobra.Command{
		Use:          "weatherlookup",
		Short:        "Current weather, five-day forecasts and saved locations",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := logging.New(cfg, os.Stderr, appName)
			app, err = build(cfg, logger)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app != nil {
				app.Close()
			}
		},
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	root.AddCommand(
		newServeCmd(func() *components { return app }),
		newForecastCmd(func() *components { return app }),
		newSearchCmd(func() *components { return app }),
	)
	return root
}

func newServeCmd(get func() *components) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(get())
		},
	}
}

func serve(c *components) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := c.registry(ctx)
	defer reg.CloseAll()

	// Scheduler that reaps abandoned screen sessions.
	sched := scheduler.New(reg, c.cfg.SessionIdleTimeout, c.cfg.SessionSweepInterval, c.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(c.services(reg), httpapi.AppOptions{Name: appName, RequestLog: true})

	go func() {
		c.logger.Info("listening", "port", c.cfg.Port)
		if err := app.Listen(":" + c.cfg.Port); err != nil {
			c.logger.Error("fiber server stopped", "error", err)
			stop()
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		c.logger.Error("error during shutdown", "error", err)
	}
	return nil
}

func newForecastCmd(get func() *components) *cobra.Command {
	var lat, lon float64
	var current bool

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the five-day forecast (or current weather) for a coordinate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
				return fmt.Errorf("coordinates out of range: %v,%v", lat, lon)
			}
			c := get()
			ctx := cmd.Context()
			var stream <-chan result.Result[weather.WeatherData]
			if current {
				stream = c.weather.Current(ctx, lat, lon)
			} else {
				stream = c.weather.FiveDayForecast(ctx, lat, lon)
			}
			r := result.Last(ctx, stream)
			if r.IsError() {
				return r.Err()
			}
			v, _ := r.Value()
			return printJSON(cmd, v)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	cmd.Flags().BoolVar(&current, "current", false, "print current conditions instead of the forecast")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func newSearchCmd(get func() *components) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search places by free text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r := result.Last(ctx, get().places.Search(ctx, strings.Join(args, " ")))
			if r.IsError() {
				return r.Err()
			}
			v, _ := r.Value()
			return printJSON(cmd, v)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
