package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/fystack/tron-events/internal/config"
	"github.com/fystack/tron-events/internal/logger"
	"github.com/fystack/tron-events/internal/rpc"
	"github.com/fystack/tron-events/internal/watcher"
	"github.com/fystack/tron-events/pkg/eventclient"
	"github.com/fystack/tron-events/pkg/events"
	"github.com/fystack/tron-events/pkg/kvstore"
	"github.com/fystack/tron-events/pkg/retry"
	"github.com/fystack/tron-events/pkg/store/cursorstore"
	"github.com/fystack/tron-events/pkg/tron"
)

var (
	configPath   string
	tailNATSURL  string
	tailSubject  string
	cursorsDir   string
	cursorsReset string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll configured contracts and publish new events to NATS",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print watch events as they are published to NATS",
	Args:  cobra.NoArgs,
	RunE:  runTail,
}

var cursorsCmd = &cobra.Command{
	Use:   "cursors",
	Short: "Inspect or reset saved watcher cursors",
	Long: `Inspect or reset the per-contract cursors the watcher saved. The
storage directory is locked exclusively, so stop the watcher first.`,
	Args: cobra.NoArgs,
	RunE: runCursors,
}

func init() {
	watchCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	tailCmd.Flags().StringVar(&tailNATSURL, "nats-url", "nats://127.0.0.1:4222", "NATS server URL")
	tailCmd.Flags().StringVar(&tailSubject, "subject", "tron.events.>", "subject to subscribe to")
	cursorsCmd.Flags().StringVar(&cursorsDir, "dir", "./data/watcher", "watcher storage directory")
	cursorsCmd.Flags().StringVar(&cursorsReset, "reset", "", "delete the cursor for this contract")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := logger.ParseLevel(cfg.Log.Level)
	if debug {
		level = slog.LevelDebug
	}
	logger.Init(&logger.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
	slog.Info("Config loaded", "path", configPath)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	opts := []rpc.Option{rpc.WithTimeout(cfg.EventServer.RequestTimeout)}
	if key := cfg.EventServer.ResolveApiKey(); key != "" {
		opts = append(opts, rpc.WithAuth(rpc.APIKeyAuth(key)))
	}
	if len(cfg.EventServer.Headers) > 0 {
		opts = append(opts, rpc.WithHeaders(cfg.EventServer.Headers))
	}
	if rl := cfg.EventServer.RateLimit; rl.RequestsPerSecond > 0 {
		opts = append(opts, rpc.WithRateLimit(rl.RequestsPerSecond, rl.BurstSize))
	}
	provider, err := rpc.NewHTTPProvider(cfg.EventServer.URL, opts...)
	if err != nil {
		return fmt.Errorf("configure provider: %w", err)
	}

	client := eventclient.New()
	if err := client.SetServer(provider, cfg.EventServer.HealthcheckPath); err != nil {
		return err
	}
	if !client.IsConnected(ctx) {
		slog.Warn("Event server healthcheck failed, starting anyway", "url", cfg.EventServer.URL)
	}

	kv, err := kvstore.NewBadgerStore(cfg.Storage.Dir, "watcher", kvstore.JSON)
	if err != nil {
		return fmt.Errorf("open cursor storage: %w", err)
	}
	defer kv.Close()

	// The initial dial fails outright when the broker is still coming up;
	// reconnect handling only covers established connections.
	var nc *nats.Conn
	if err := retry.Constant(ctx, func() error {
		nc, err = events.Connect(cfg.NATS.URL, cfg.NATS.Username, cfg.NATS.Password)
		return err
	}, 2*time.Second, 3); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	emitter, err := events.NewNATSEmitter(nc, cfg.NATS.Stream, cfg.NATS.SubjectPrefix, slog.Default())
	if err != nil {
		return err
	}

	w, err := watcher.New(ctx, client, cursorstore.New(kv), emitter, watcher.Options{
		Contracts:      cfg.Watcher.Contracts,
		PollInterval:   cfg.Watcher.PollInterval,
		PageSize:       cfg.Watcher.PageSize,
		StartTimestamp: cfg.Watcher.StartTimestamp,
		OnlyConfirmed:  cfg.Watcher.OnlyConfirmed,
	})
	if err != nil {
		return err
	}

	w.Start()
	slog.Info("Watcher is running... Press Ctrl+C to stop")
	<-ctx.Done()
	w.Stop()
	return nil
}

func runCursors(cmd *cobra.Command, args []string) error {
	initCLILogger()

	kv, err := kvstore.NewBadgerStore(cursorsDir, "watcher", kvstore.JSON)
	if err != nil {
		return fmt.Errorf("open cursor storage: %w", err)
	}
	defer kv.Close()

	cursors := cursorstore.New(kv)
	ctx := cmd.Context()

	if cursorsReset != "" {
		contract, err := tron.ToBase58Address(cursorsReset)
		if err != nil {
			return fmt.Errorf("invalid contract address %q", cursorsReset)
		}
		if err := cursors.Delete(ctx, contract); err != nil {
			return err
		}
		fmt.Printf("Cursor for %s deleted\n", contract)
		return nil
	}

	addresses, err := cursors.List(ctx)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		fmt.Println("No cursors saved")
		return nil
	}
	for _, address := range addresses {
		cursor, err := cursors.Get(ctx, address)
		if err != nil {
			return err
		}
		if err := printJSON(cursor); err != nil {
			return err
		}
	}
	return nil
}

func runTail(cmd *cobra.Command, args []string) error {
	initCLILogger()

	nc, err := nats.Connect(tailNATSURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	sub, err := nc.Subscribe(tailSubject, func(msg *nats.Msg) {
		fmt.Printf("[%s] %s\n", msg.Subject, string(msg.Data))
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	slog.Info("Subscribed", "subject", tailSubject)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	return nil
}
