package events

import (
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Connect dials NATS with unlimited reconnects and logs connection state
// transitions. Credentials are optional.
func Connect(url, username, password string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.MaxReconnects(-1), // retry forever
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("Disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			slog.Info("NATS connection closed")
		}),
	}
	if username != "" {
		opts = append(opts, nats.UserInfo(username, password))
	}

	return nats.Connect(url, opts...)
}
