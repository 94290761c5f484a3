package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"ordertrack/internal/config"
	"ordertrack/internal/database"
	"ordertrack/internal/server"
	"ordertrack/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func parseFlags() *flag.FlagSet {
	fs := config.Flags("orderd")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: orderd [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Order service backed by a local SQLite database.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	return fs
}

func run(fs *flag.FlagSet) error {
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	logger, closer, err := cfg.Log.OpenLogger()
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName+"-service")
	if err != nil {
		logger.Warn("telemetry disabled", "error", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return err
	}
	logger.Info("database ready", "path", cfg.Database.Path, "policy", policy)

	srv := server.NewServer(database.NewService(db, policy), cfg.Server.Addr, logger)
	if err := srv.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(srv.Stop(shutdownCtx), tp.Shutdown(shutdownCtx))
}

func main() {
	fs := parseFlags()
	if err := run(fs); err != nil {
		fmt.Fprintf(os.Stderr, "orderd: %v\n", err)
		os.Exit(1)
	}
}
