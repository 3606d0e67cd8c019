package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fystack/tron-events/internal/logger"
	"github.com/fystack/tron-events/internal/rpc"
	"github.com/fystack/tron-events/pkg/eventclient"
)

const version = "1.0.0"

var (
	endpoint        string
	apiKey          string
	apiKeyEnv       string
	healthcheckPath string
	requestTimeout  time.Duration
	debug           bool
)

var rootCmd = &cobra.Command{
	Use:   "tronevents",
	Short: "Query and watch smart contract events on Tron",
	Long: `tronevents queries a TronGrid-compatible event index by contract,
transaction or block, and can run as a daemon that publishes new contract
events to NATS JetStream.`,
	Version:      version,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "https://api.trongrid.io", "event server base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key sent with every request")
	rootCmd.PersistentFlags().StringVar(&apiKeyEnv, "api-key-env", "TRONGRID_API_KEY", "environment variable holding the API key")
	rootCmd.PersistentFlags().StringVar(&healthcheckPath, "healthcheck-path", eventclient.DefaultHealthcheckPath, "relative healthcheck path")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 30*time.Second, "HTTP request timeout")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logs")

	rootCmd.AddCommand(contractCmd, transactionCmd, blockCmd, latestCmd, healthCmd, watchCmd, tailCmd, cursorsCmd)
}

func initCLILogger() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	// Logs go to stderr so stdout stays valid JSON.
	logger.Init(&logger.Options{
		Level:      level,
		Writer:     os.Stderr,
		TimeFormat: time.Kitchen,
	})
}

// newClient builds a client against the endpoint from the global flags.
func newClient() (*eventclient.Client, error) {
	initCLILogger()

	key := apiKey
	if key == "" && apiKeyEnv != "" {
		key = os.Getenv(apiKeyEnv)
	}

	opts := []rpc.Option{rpc.WithTimeout(requestTimeout)}
	if key != "" {
		opts = append(opts, rpc.WithAuth(rpc.APIKeyAuth(key)))
	}
	provider, err := rpc.NewHTTPProvider(endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("configure provider: %w", err)
	}

	client := eventclient.New()
	if err := client.SetServer(provider, healthcheckPath); err != nil {
		return nil, err
	}
	return client, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
