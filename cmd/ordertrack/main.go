package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"ordertrack/internal/config"
	"ordertrack/internal/geocode"
	"ordertrack/internal/rpc"
	"ordertrack/internal/session"
	"ordertrack/internal/telemetry"
	"ordertrack/internal/ui"
)

func parseFlags() *flag.FlagSet {
	fs := config.Flags("ordertrack")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ordertrack [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Terminal client for the order service.\n\n")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName)
	if err != nil {
		logger.Warn("telemetry disabled", "error", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = tp.Shutdown(shutdownCtx)
	}()

	client := rpc.NewClient(cfg.Service.URL,
		rpc.WithTimeout(cfg.RPC.Timeout),
		rpc.WithLogger(logger),
	)

	opts := session.Options{
		Policy:   policy,
		Debounce: cfg.Lookup.Debounce,
		Logger:   logger,
	}
	if cfg.Geocoder.URL != "" {
		opts.Cities = geocode.New(cfg.Geocoder.URL, cfg.Geocoder.Country)
	}
	sess := session.New(client, opts)

	logger.Info("client starting", "service", client.BaseURL(), "policy", policy)
	_ = checkService(ctx, client, cfg.RPC.Timeout, logger)
	m := ui.NewAppModel(ctx, sess, logger)
	defer m.Close()

	p := tea.NewProgram(m.AsTeaModel(), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// checkService pings the service once before the UI starts. An unreachable
// service is logged and the client starts anyway; refresh retries it.
func checkService(ctx context.Context, client *rpc.Client, timeout time.Duration, logger *slog.Logger) error {
	if timeout <= 0 {
		timeout = rpc.DefaultTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		logger.Warn("service unreachable", "service", client.BaseURL(), "error", err)
		return err
	}
	logger.Debug("service reachable", "service", client.BaseURL())
	return nil
}

func main() {
	fs := parseFlags()
	if err := run(fs); err != nil {
		fmt.Fprintf(os.Stderr, "ordertrack: %v\n", err)
		os.Exit(1)
	}
}
