// Package eventclient queries TronGrid-style event-indexing services: events
// by contract address, by transaction, by block, and for the latest block,
// over a pluggable transport.
package eventclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/fystack/tron-events/internal/rpc"
	"github.com/fystack/tron-events/pkg/tron"
)

// DefaultHealthcheckPath probes endpoint liveness when SetServer is not
// given an explicit path.
const DefaultHealthcheckPath = "healthcheck"

// Provider is the transport capability the client consumes. Implementations
// own connection handling, timeouts and retries; rpc.HTTPProvider is the
// packaged one.
type Provider interface {
	Request(ctx context.Context, path string, query url.Values) ([]byte, error)
	Healthcheck(ctx context.Context, path string) error
	GetURL() string
}

var _ Provider = (*rpc.HTTPProvider)(nil)

// Client queries a configured event server. All operations are read-only and
// independent; the endpoint is the only shared state and may be replaced or
// cleared at any time.
type Client struct {
	mu              sync.RWMutex
	provider        Provider
	healthcheckPath string

	log *slog.Logger
}

type ClientOption func(*Client)

// WithLogger overrides the logger used for non-fatal warnings.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New returns a client with no endpoint configured.
func New(opts ...ClientOption) *Client {
	c := &Client{
		healthcheckPath: DefaultHealthcheckPath,
		log:             slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetServer installs, replaces or clears the event server endpoint.
//
// endpoint may be a Provider, a URL string (wrapped in an rpc.HTTPProvider),
// or nil to clear the configured endpoint; an empty string clears too. The
// optional healthcheckPath overrides DefaultHealthcheckPath for IsConnected.
func (c *Client) SetServer(endpoint any, healthcheckPath ...string) error {
	path := DefaultHealthcheckPath
	if len(healthcheckPath) > 0 && healthcheckPath[0] != "" {
		path = healthcheckPath[0]
	}

	var provider Provider
	switch e := endpoint.(type) {
	case nil:
	case string:
		if e == "" {
			break
		}
		p, err := rpc.NewHTTPProvider(e)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProvider, err)
		}
		provider = p
	case Provider:
		provider = e
	default:
		return fmt.Errorf("%w: unsupported endpoint type %T", ErrInvalidProvider, endpoint)
	}

	c.mu.Lock()
	c.provider = provider
	c.healthcheckPath = path
	c.mu.Unlock()
	return nil
}

// ClearServer removes the configured endpoint; subsequent queries fail with
// ErrEndpointNotConfigured.
func (c *Client) ClearServer() {
	_ = c.SetServer(nil)
}

// IsConnected probes the configured endpoint's healthcheck path once. Any
// failure, including an unconfigured endpoint, reports false; errors are
// never propagated.
func (c *Client) IsConnected(ctx context.Context) bool {
	c.mu.RLock()
	provider, path := c.provider, c.healthcheckPath
	c.mu.RUnlock()

	if provider == nil {
		return false
	}
	return provider.Healthcheck(ctx, path) == nil
}

// currentProvider snapshots the endpoint. Reconfiguration after the snapshot
// does not affect an in-flight call.
func (c *Client) currentProvider() (Provider, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.provider == nil {
		return nil, ErrEndpointNotConfigured
	}
	return c.provider, nil
}

// EventsByContractAddress returns events emitted by a contract. The address
// is validated and re-encoded to base58check before it enters the path.
func (c *Client) EventsByContractAddress(ctx context.Context, address string, opts *ContractEventsOptions) (*EventPage, error) {
	provider, err := c.currentProvider()
	if err != nil {
		return nil, err
	}

	encoded, err := tron.ToBase58Address(address)
	if err != nil {
		return nil, &ValidationError{Message: "invalid contract address provided", Err: err}
	}

	body, err := provider.Request(ctx, fmt.Sprintf("v1/contract/%s/events", encoded), opts.values(c.log))
	if err != nil {
		return nil, err
	}
	return decodePage(body, errorRaw)
}

// EventsByTransactionID returns events recorded for one transaction.
func (c *Client) EventsByTransactionID(ctx context.Context, transactionID string, opts *TransactionEventsOptions) (*EventPage, error) {
	provider, err := c.currentProvider()
	if err != nil {
		return nil, err
	}

	body, err := provider.Request(ctx, fmt.Sprintf("v1/transactions/%s/events", transactionID), opts.values())
	if err != nil {
		return nil, err
	}
	return decodePage(body, errorJSONMessage)
}

// EventsByBlockNumber returns events within a specific block.
func (c *Client) EventsByBlockNumber(ctx context.Context, blockNumber int64, opts *BlockEventsOptions) (*EventPage, error) {
	provider, err := c.currentProvider()
	if err != nil {
		return nil, err
	}

	body, err := provider.Request(ctx, fmt.Sprintf("v1/blocks/%d/events", blockNumber), opts.values(c.log))
	if err != nil {
		return nil, err
	}
	return decodePage(body, errorRaw)
}

// LatestBlockEvents returns events in the most recent block.
func (c *Client) LatestBlockEvents(ctx context.Context, opts *LatestBlockEventsOptions) (*EventPage, error) {
	provider, err := c.currentProvider()
	if err != nil {
		return nil, err
	}

	body, err := provider.Request(ctx, "v1/blocks/latest/events", opts.values())
	if err != nil {
		return nil, err
	}
	return decodePage(body, errorRaw)
}
