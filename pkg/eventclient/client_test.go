package eventclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	usdtBase58 = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
	usdtHex    = "41a614f803b6fd780986a42c78ec9c7f77e6ded13c"
)

type fakeProvider struct {
	requests  int
	lastPath  string
	lastQuery url.Values
	response  []byte
	err       error
	healthErr error
}

func (f *fakeProvider) Request(_ context.Context, path string, query url.Values) ([]byte, error) {
	f.requests++
	f.lastPath = path
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	if f.response == nil {
		return []byte(`{"success":true,"data":[],"meta":{"at":1,"page_size":20}}`), nil
	}
	return f.response, nil
}

func (f *fakeProvider) Healthcheck(context.Context, string) error { return f.healthErr }

func (f *fakeProvider) GetURL() string { return "http://fake.event-server" }

func TestClient_RequiresConfiguredEndpoint(t *testing.T) {
	c := New()
	ctx := context.Background()

	ops := map[string]func() error{
		"contract": func() error {
			_, err := c.EventsByContractAddress(ctx, usdtBase58, nil)
			return err
		},
		"transaction": func() error {
			_, err := c.EventsByTransactionID(ctx, "8a32f4c1", nil)
			return err
		},
		"block": func() error {
			_, err := c.EventsByBlockNumber(ctx, 42, nil)
			return err
		},
		"latest": func() error {
			_, err := c.LatestBlockEvents(ctx, nil)
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, op(), ErrEndpointNotConfigured)
		})
	}
}

func TestClient_SetServer(t *testing.T) {
	t.Run("accepts_provider", func(t *testing.T) {
		c := New()
		f := &fakeProvider{}
		require.NoError(t, c.SetServer(f))

		_, err := c.LatestBlockEvents(context.Background(), nil)
		require.NoError(t, err)
		require.Equal(t, 1, f.requests)
	})

	t.Run("wraps_url_string", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"data":[],"meta":{"at":1,"page_size":20}}`))
		}))
		defer srv.Close()

		c := New()
		require.NoError(t, c.SetServer(srv.URL))

		_, err := c.LatestBlockEvents(context.Background(), nil)
		require.NoError(t, err)
	})

	t.Run("rejects_malformed_url", func(t *testing.T) {
		c := New()
		require.ErrorIs(t, c.SetServer("://nope"), ErrInvalidProvider)
	})

	t.Run("rejects_unsupported_type", func(t *testing.T) {
		c := New()
		err := c.SetServer(42)
		require.ErrorIs(t, err, ErrInvalidProvider)
		require.Contains(t, err.Error(), "int")
	})

	t.Run("nil_clears", func(t *testing.T) {
		c := New()
		require.NoError(t, c.SetServer(&fakeProvider{}))
		require.NoError(t, c.SetServer(nil))

		_, err := c.LatestBlockEvents(context.Background(), nil)
		require.ErrorIs(t, err, ErrEndpointNotConfigured)
	})

	t.Run("empty_string_clears", func(t *testing.T) {
		c := New()
		require.NoError(t, c.SetServer(&fakeProvider{}))
		require.NoError(t, c.SetServer(""))

		_, err := c.LatestBlockEvents(context.Background(), nil)
		require.ErrorIs(t, err, ErrEndpointNotConfigured)
	})

	t.Run("clear_server", func(t *testing.T) {
		c := New()
		require.NoError(t, c.SetServer(&fakeProvider{}))
		c.ClearServer()
		require.False(t, c.IsConnected(context.Background()))
	})
}

func TestClient_IsConnected(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		require.False(t, New().IsConnected(context.Background()))
	})

	t.Run("healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/healthcheck", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := New()
		require.NoError(t, c.SetServer(srv.URL))
		require.True(t, c.IsConnected(context.Background()))
	})

	t.Run("custom_healthcheck_path", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/status" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := New()
		require.NoError(t, c.SetServer(srv.URL, "status"))
		require.True(t, c.IsConnected(context.Background()))
	})

	t.Run("server_error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := New()
		require.NoError(t, c.SetServer(srv.URL))
		require.False(t, c.IsConnected(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		c := New()
		require.NoError(t, c.SetServer(url))
		require.False(t, c.IsConnected(context.Background()))
	})
}

func TestClient_EventsByContractAddress(t *testing.T) {
	t.Run("re_encodes_hex_address_into_path", func(t *testing.T) {
		c := New()
		f := &fakeProvider{}
		require.NoError(t, c.SetServer(f))

		_, err := c.EventsByContractAddress(context.Background(), usdtHex, nil)
		require.NoError(t, err)
		require.Equal(t, "v1/contract/"+usdtBase58+"/events", f.lastPath)
	})

	t.Run("invalid_address_dispatches_nothing", func(t *testing.T) {
		c := New()
		f := &fakeProvider{}
		require.NoError(t, c.SetServer(f))

		_, err := c.EventsByContractAddress(context.Background(), "not-an-address", nil)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Equal(t, "invalid contract address provided", vErr.Message)
		require.Zero(t, f.requests)
	})

	t.Run("limit_clamped_with_warning", func(t *testing.T) {
		log, h := testLogger()
		c := New(WithLogger(log))
		f := &fakeProvider{}
		require.NoError(t, c.SetServer(f))

		_, err := c.EventsByContractAddress(context.Background(), usdtBase58, &ContractEventsOptions{
			Limit: Int(500),
		})
		require.NoError(t, err)
		require.Equal(t, "200", f.lastQuery.Get("limit"))
		require.Len(t, h.warnings(), 1)
	})

	t.Run("transport_error_passes_through_unchanged", func(t *testing.T) {
		boom := errors.New("connection refused")
		c := New()
		f := &fakeProvider{err: boom}
		require.NoError(t, c.SetServer(f))

		_, err := c.EventsByContractAddress(context.Background(), usdtBase58, nil)
		require.Equal(t, boom, err)
	})

	t.Run("raw_api_error", func(t *testing.T) {
		c := New()
		f := &fakeProvider{response: []byte(`{"success":false,"error":"contract not found"}`)}
		require.NoError(t, c.SetServer(f))

		_, err := c.EventsByContractAddress(context.Background(), usdtBase58, nil)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "contract not found", apiErr.Message)
	})
}

func TestClient_EventsByTransactionID(t *testing.T) {
	t.Run("path", func(t *testing.T) {
		c := New()
		f := &fakeProvider{}
		require.NoError(t, c.SetServer(f))

		_, err := c.EventsByTransactionID(context.Background(), "8a32f4c1", &TransactionEventsOptions{
			OnlyConfirmed: Bool(true),
		})
		require.NoError(t, err)
		require.Equal(t, "v1/transactions/8a32f4c1/events", f.lastPath)
		require.Equal(t, "true", f.lastQuery.Get("only_confirmed"))
	})

	t.Run("json_encoded_error_unwrapped", func(t *testing.T) {
		c := New()
		f := &fakeProvider{response: []byte(`{"success":false,"error":"{\"message\":\"boom\"}"}`)}
		require.NoError(t, c.SetServer(f))

		_, err := c.EventsByTransactionID(context.Background(), "8a32f4c1", nil)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "boom", apiErr.Message)
	})
}

func TestClient_EventsByBlockNumber(t *testing.T) {
	t.Run("path", func(t *testing.T) {
		c := New()
		f := &fakeProvider{}
		require.NoError(t, c.SetServer(f))

		_, err := c.EventsByBlockNumber(context.Background(), 32880248, &BlockEventsOptions{
			Fingerprint: "fp",
		})
		require.NoError(t, err)
		require.Equal(t, "v1/blocks/32880248/events", f.lastPath)
		require.Equal(t, "fp", f.lastQuery.Get("fingerprint"))
	})

	t.Run("raw_error_no_nested_parse", func(t *testing.T) {
		c := New()
		f := &fakeProvider{response: []byte(`{"success":false,"error":"boom"}`)}
		require.NoError(t, c.SetServer(f))

		_, err := c.EventsByBlockNumber(context.Background(), 1, nil)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "boom", apiErr.Message)
	})
}

func TestClient_LatestBlockEvents(t *testing.T) {
	c := New()
	f := &fakeProvider{response: []byte(`{
		"success": true,
		"data": [{"block_number": 7, "event_name": "Transfer", "transaction_id": "aa"}],
		"meta": {"at": 99, "page_size": 20}
	}`)}
	require.NoError(t, c.SetServer(f))

	page, err := c.LatestBlockEvents(context.Background(), &LatestBlockEventsOptions{
		OnlyConfirmed: Bool(true),
	})
	require.NoError(t, err)
	require.Equal(t, "v1/blocks/latest/events", f.lastPath)
	require.Equal(t, "true", f.lastQuery.Get("only_confirmed"))
	require.Len(t, page.Data, 1)
	require.Equal(t, int64(7), page.Data[0].BlockNumber)
}

// End to end through the packaged HTTP provider: URL-string configuration,
// address encoding, query serialization and clamping observed server-side.
func TestClient_EndToEnd(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"success":true,"data":[],"meta":{"at":1,"page_size":200}}`))
	}))
	defer srv.Close()

	c := New()
	require.NoError(t, c.SetServer(srv.URL))

	_, err := c.EventsByContractAddress(context.Background(), usdtHex, &ContractEventsOptions{
		EventName:     "Transfer",
		OnlyConfirmed: Bool(false),
		Limit:         Int(500),
	})
	require.NoError(t, err)
	require.Equal(t, "/v1/contract/"+usdtBase58+"/events", gotPath)
	require.Equal(t, "Transfer", gotQuery.Get("event_name"))
	require.Equal(t, "false", gotQuery.Get("only_confirmed"))
	require.Equal(t, "200", gotQuery.Get("limit"))
}
