// Package events publishes watcher output to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fystack/tron-events/pkg/eventclient"
)

const (
	// Events age out of the stream after two days.
	defaultMaxAge = 48 * time.Hour

	setupTimeout = 10 * time.Second
)

// WatchEvent is the envelope published for everything the watcher observes.
type WatchEvent struct {
	Type      string `json:"type"`
	Contract  string `json:"contract"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// EventID identifies an event record uniquely within the chain. It doubles
// as the publish idempotency key.
func EventID(record eventclient.EventRecord) string {
	return fmt.Sprintf("%s:%d", record.TransactionID, record.EventIndex)
}

type Emitter interface {
	EmitEvent(contract string, record eventclient.EventRecord) error
	EmitError(contract string, err error) error
}

type natsEmitter struct {
	js            jetstream.JetStream
	subjectPrefix string
	log           *slog.Logger
}

// NewNATSEmitter provisions the stream and returns an emitter publishing
// one subject per contract under subjectPrefix. The connection stays owned
// by the caller.
func NewNATSEmitter(nc *nats.Conn, stream, subjectPrefix string, log *slog.Logger) (Emitter, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("error creating JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        stream,
		Description: "Stream for " + stream,
		Subjects:    []string{subjectPrefix + ".>"},
		Storage:     jetstream.FileStorage,
		MaxAge:      defaultMaxAge,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating JetStream stream %s: %w", stream, err)
	}

	if log == nil {
		log = slog.Default()
	}
	return &natsEmitter{
		js:            js,
		subjectPrefix: subjectPrefix,
		log:           log,
	}, nil
}

func (e *natsEmitter) EmitEvent(contract string, record eventclient.EventRecord) error {
	return e.publish(contract, WatchEvent{
		Type:      "event",
		Contract:  contract,
		Data:      record,
		Timestamp: time.Now().UTC().Unix(),
	}, EventID(record))
}

func (e *natsEmitter) EmitError(contract string, err error) error {
	payload := map[string]string{}
	if err != nil {
		payload["message"] = err.Error()
	}

	return e.publish(contract, WatchEvent{
		Type:      "error",
		Contract:  contract,
		Data:      payload,
		Timestamp: time.Now().UTC().Unix(),
	}, "")
}

func (e *natsEmitter) publish(contract string, event WatchEvent, idempotencyKey string) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	header := nats.Header{}
	if idempotencyKey != "" {
		header.Add("Nats-Msg-Id", idempotencyKey)
	}

	subject := e.subjectPrefix + "." + contract
	_, err = e.js.PublishMsg(context.Background(), &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  header,
	})
	if err != nil {
		return fmt.Errorf("error publishing to %s: %w", subject, err)
	}
	e.log.Debug("Published watch event", "subject", subject, "type", event.Type, "size", len(data))
	return nil
}
