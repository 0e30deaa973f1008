package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eternalApril/starlight/internal/config"
	"github.com/eternalApril/starlight/internal/logger"
	"github.com/eternalApril/starlight/internal/metrics"
	"github.com/eternalApril/starlight/internal/queue"
	"github.com/eternalApril/starlight/internal/server"
	"github.com/eternalApril/starlight/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Build information, set via ldflags
var Version = "dev"

func main() {
	app := &cli.App{
		Name:    "starlight",
		Usage:   "in-memory key-value server speaking a line protocol",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file, or a directory holding config.yaml",
				EnvVars: []string{"STARLIGHT_CONFIG"},
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "listen port, overrides server.port",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error, overrides log.level",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.String("port")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}

	log := logger.FromConfig(cfg.Log)
	defer log.Sync() //nolint:errcheck

	log.Info("Starlight starting",
		zap.String("version", Version),
		zap.String("port", cfg.Server.Port),
		zap.String("expiry_index", cfg.Storage.ExpiryIndex),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(registry)

	db, err := storage.New(storage.Options{
		InitialSize: cfg.Storage.InitialSize,
		ExpiryIndex: cfg.Storage.ExpiryIndex,
		Logger:      log.Named("storage"),
	})
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	engine := server.NewEngine(db, log.Named("engine"), collector)

	requests := queue.New(queue.Options{
		Capacity:      cfg.Queue.Capacity,
		SweepInterval: cfg.Queue.SweepInterval,
	}, log.Named("queue"), collector)

	srv, err := server.New(server.Options{
		MaxLineLength:  cfg.Server.MaxLineLength,
		MaxConnections: cfg.Server.MaxConnections,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, requests, log.Named("server"), collector)
	if err != nil {
		return err
	}

	address := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return requests.Run(ctx, engine)
	})

	g.Go(func() error {
		return srv.Serve(ctx, listener)
	})

	if cfg.Metrics.Enabled {
		metricsServer := &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           metricsHandler(registry),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			log.Info("metrics listening on", zap.String("address", cfg.Metrics.Address))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if err != nil {
		log.Error("Starlight stopped with error", zap.Error(err))
		return err
	}

	log.Info("Starlight stopped")
	return nil
}

func metricsHandler(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	return mux
}
