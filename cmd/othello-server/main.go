// Package main runs the Othello engine behind the HTTP API, with optional
// NATS event broadcast and web UI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"othello/cmd/othello-server/cli"
	"othello/internal/bootstrap"
	"othello/internal/config"
	"othello/internal/game"
	"othello/internal/transport/broadcast"
	"othello/internal/transport/http"
	"othello/internal/webserver"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "db: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var (
		configPath = flag.String("config", "", "Path to config.yaml (default: search XDG config dirs)")
		dev        = flag.Bool("dev", false, "Development mode (relaxed rate limits, WAL storage)")
		pidPath    = flag.String("pid", "", "Optional path to write PID file")
		pidLock    = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")

		serve   = flag.Bool("serve", false, "Enable web UI server")
		webHost = flag.String("web-host", "localhost", "Web UI server host")
		webPort = flag.Int("web-port", 9090, "Web UI server port")
	)
	flag.Parse()

	if err := run(*configPath, *dev, *pidPath, *pidLock, *serve, *webHost, *webPort); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run(configPath string, dev bool, pidPath string, pidLock bool, serve bool, webHost string, webPort int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dev {
		cfg.HTTP.Dev = true
	}
	if err := config.SetupLogging(cfg.Log, os.Stderr); err != nil {
		return err
	}

	if pidLock && pidPath == "" {
		return errors.New("-pid-lock flag requires the -pid flag to be set")
	}
	if pidPath != "" {
		pid, err := createPIDFile(pidPath, pidLock)
		if err != nil {
			return fmt.Errorf("manage PID file: %w", err)
		}
		defer pid.Release()
		log.Info().Str("path", pidPath).Bool("lock", pidLock).Msg("PID file created")
	}

	var nc *nats.Conn
	var broadcaster game.Observer
	if cfg.NATS.URL != "" {
		if nc, err = broadcast.Connect(cfg.NATS.URL); err != nil {
			return err
		}
		defer nc.Close()
		broadcaster = broadcast.NewBroadcaster(nc, cfg.NATS.Subject)
		log.Info().Str("url", cfg.NATS.URL).Str("subject", cfg.NATS.Subject).Msg("broadcasting engine events")
	}

	stack, err := bootstrap.Open(cfg, broadcaster)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			log.Warn().Err(err).Msg("shutdown incomplete")
		}
	}()
	stack.Processor.Start()

	if nc != nil {
		sub, err := broadcast.Serve(nc, cfg.NATS.Subject+".command", stack.Processor)
		if err != nil {
			return err
		}
		defer sub.Drain()
	}

	app := http.NewFiberApp(stack.Processor, stack.Service, cfg.HTTP.Dev)
	apiAddr := cfg.Addr()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("addr", "http://"+apiAddr).
			Bool("dev", cfg.HTTP.Dev).
			Str("storage", stack.Service.GetStorageHealth()).
			Msg("Othello API server starting")
		if err := app.Listen(apiAddr); err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	var web *webserver.Server
	if serve {
		web = webserver.New("http://" + apiAddr)
		webAddr := fmt.Sprintf("%s:%d", webHost, webPort)
		g.Go(func() error {
			log.Info().Str("addr", "http://"+webAddr).Msg("web UI server starting")
			if err := web.Listen(webAddr); err != nil {
				return fmt.Errorf("web server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		// long-poll clients are released by the service on stack close
		var errs []error
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("api shutdown: %w", err))
		}
		if web != nil {
			if err := web.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("web shutdown: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	log.Info().Msg("servers exited")
	return err
}
