// Package watcher polls the event server for new contract events and
// publishes them downstream.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fystack/tron-events/pkg/eventclient"
	"github.com/fystack/tron-events/pkg/events"
	"github.com/fystack/tron-events/pkg/retry"
	"github.com/fystack/tron-events/pkg/store/cursorstore"
	"github.com/fystack/tron-events/pkg/tron"
)

const (
	defaultPollInterval = 10 * time.Second
	retryInterval       = 2 * time.Second
)

// EventSource is the slice of the event client the watcher needs.
type EventSource interface {
	EventsByContractAddress(ctx context.Context, contractAddress string, opts *eventclient.ContractEventsOptions) (*eventclient.EventPage, error)
}

// Options control what the watcher polls and how often.
type Options struct {
	Contracts    []string
	PollInterval time.Duration
	PageSize     int
	// Millisecond timestamp the first sweep starts from when a contract has
	// no saved cursor. Zero starts from the beginning of the index.
	StartTimestamp int64
	OnlyConfirmed  bool
}

type Watcher struct {
	source  EventSource
	cursors cursorstore.Store
	emitter events.Emitter
	opts    Options
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New validates the contract list and prepares a watcher. Addresses are
// canonicalized to base58 so cursor keys and published subjects stay stable
// regardless of the configured form.
func New(ctx context.Context, source EventSource, cursors cursorstore.Store, emitter events.Emitter, opts Options) (*Watcher, error) {
	if len(opts.Contracts) == 0 {
		return nil, errors.New("no contracts configured")
	}

	seen := make(map[string]bool, len(opts.Contracts))
	contracts := make([]string, 0, len(opts.Contracts))
	for _, contract := range opts.Contracts {
		encoded, err := tron.ToBase58Address(contract)
		if err != nil {
			return nil, fmt.Errorf("invalid contract address %q: %w", contract, err)
		}
		if seen[encoded] {
			slog.Warn("Duplicate contract in watch list, skipping", "contract", encoded)
			continue
		}
		seen[encoded] = true
		contracts = append(contracts, encoded)
	}
	opts.Contracts = contracts

	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.PageSize <= 0 || opts.PageSize > eventclient.MaxLimit {
		opts.PageSize = eventclient.MaxLimit
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Watcher{
		source:  source,
		cursors: cursors,
		emitter: emitter,
		opts:    opts,
		logger:  slog.Default(),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start launches one polling loop per contract.
func (w *Watcher) Start() {
	w.logger.Info("Starting watcher",
		"contracts", len(w.opts.Contracts),
		"poll_interval", w.opts.PollInterval,
		"page_size", w.opts.PageSize,
	)
	for _, contract := range w.opts.Contracts {
		w.wg.Add(1)
		go w.watch(contract)
	}
}

// Stop cancels all polling loops and waits for them to drain.
func (w *Watcher) Stop() {
	w.cancel()
	w.wg.Wait()
	w.logger.Info("Watcher stopped")
}

func (w *Watcher) watch(contract string) {
	defer w.wg.Done()

	log := w.logger.With(slog.String("contract", contract))
	log.Info("Watching contract events")

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	job := func() error {
		err := w.sweep(w.ctx, contract, log)
		if err != nil && !retryable(err) {
			return retry.Permanent(err)
		}
		return err
	}

	runOnce := func() {
		if err := retry.Do(w.ctx, job, retry.Config{
			InitialInterval: retryInterval,
			MaxElapsedTime:  w.opts.PollInterval * 4,
			OnRetry: func(err error, next time.Duration) {
				log.Debug("Retrying sweep", "err", err, "next_retry_in", next)
			},
		}); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Sweep error", "err", err)
			_ = w.emitter.EmitError(contract, err)
		}
	}

	runOnce()
	for {
		select {
		case <-w.ctx.Done():
			log.Info("Context done, stopping watch loop")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// sweep drains every event page newer than the saved cursor, publishing as
// it goes. The query resumes inclusively at the cursor timestamp because the
// index has no finer resume key, so the already-processed tail of that
// millisecond comes back on each sweep; the id list carried by the cursor
// filters it out before publishing.
func (w *Watcher) sweep(ctx context.Context, contract string, log *slog.Logger) error {
	cursor, err := w.cursors.Get(ctx, contract)
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}

	opts := &eventclient.ContractEventsOptions{
		OrderBy: eventclient.OrderByBlockTimestampAsc,
		Limit:   eventclient.Int(w.opts.PageSize),
	}
	if w.opts.OnlyConfirmed {
		opts.OnlyConfirmed = eventclient.Bool(true)
	}

	var lastTimestamp int64
	var lastIDs []string
	seen := make(map[string]bool)
	switch {
	case cursor != nil:
		opts.MinBlockTimestamp = eventclient.Int64(cursor.BlockTimestamp)
		lastTimestamp = cursor.BlockTimestamp
		lastIDs = append(lastIDs, cursor.LastEventIDs...)
		for _, id := range cursor.LastEventIDs {
			seen[id] = true
		}
	case w.opts.StartTimestamp > 0:
		opts.MinBlockTimestamp = eventclient.Int64(w.opts.StartTimestamp)
	}

	total := 0
	for {
		page, err := w.source.EventsByContractAddress(ctx, contract, opts)
		if err != nil {
			return err
		}
		if len(page.Data) == 0 {
			break
		}

		var last *eventclient.EventRecord
		for i := range page.Data {
			record := page.Data[i]
			id := events.EventID(record)
			if record.BlockTimestamp == lastTimestamp && seen[id] {
				continue
			}
			if err := w.emitter.EmitEvent(contract, record); err != nil {
				return fmt.Errorf("emit event: %w", err)
			}
			if record.BlockTimestamp != lastTimestamp {
				lastTimestamp = record.BlockTimestamp
				lastIDs = lastIDs[:0]
			}
			lastIDs = append(lastIDs, id)
			seen[id] = true
			last = &page.Data[i]
			total++
		}

		if last != nil {
			if err := w.cursors.Save(ctx, &cursorstore.ContractCursor{
				Address:        contract,
				BlockNumber:    last.BlockNumber,
				BlockTimestamp: lastTimestamp,
				LastEventIDs:   append([]string(nil), lastIDs...),
			}); err != nil {
				return fmt.Errorf("save cursor: %w", err)
			}
		}

		if page.Meta.Fingerprint == "" {
			break
		}
		opts.Fingerprint = page.Meta.Fingerprint
	}

	if total > 0 {
		log.Info("Swept contract events", "count", total)
	} else {
		log.Debug("No new events")
	}
	return nil
}

// retryable reports whether a sweep error can be cured by trying again.
// Rejected queries and endpoint misconfiguration will fail identically on
// every attempt, so backing off on them only delays the error report.
func retryable(err error) bool {
	var apiErr *eventclient.APIError
	var validationErr *eventclient.ValidationError
	if errors.As(err, &apiErr) || errors.As(err, &validationErr) {
		return false
	}
	return !errors.Is(err, eventclient.ErrEndpointNotConfigured)
}
