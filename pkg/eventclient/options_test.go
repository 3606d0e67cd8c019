package eventclient

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler captures log records so warning side effects can be
// asserted.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) warnings() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []slog.Record
	for _, r := range h.records {
		if r.Level == slog.LevelWarn {
			out = append(out, r)
		}
	}
	return out
}

func testLogger() (*slog.Logger, *recordingHandler) {
	h := &recordingHandler{}
	return slog.New(h), h
}

func TestContractEventsOptions_Values(t *testing.T) {
	t.Run("nil_options", func(t *testing.T) {
		log, _ := testLogger()
		var opts *ContractEventsOptions
		assert.Empty(t, opts.values(log))
	})

	t.Run("unset_fields_are_omitted", func(t *testing.T) {
		log, _ := testLogger()
		q := (&ContractEventsOptions{}).values(log)
		assert.Empty(t, q)
	})

	t.Run("full_set", func(t *testing.T) {
		log, _ := testLogger()
		q := (&ContractEventsOptions{
			EventName:         "Transfer",
			BlockNumber:       Int64(32880248),
			OnlyUnconfirmed:   Bool(true),
			OnlyConfirmed:     Bool(false),
			MinBlockTimestamp: Int64(1581577191000),
			MaxBlockTimestamp: Int64(1581577200000),
			OrderBy:           OrderByBlockTimestampAsc,
			Fingerprint:       "abc",
			Limit:             Int(50),
		}).values(log)

		assert.Equal(t, "Transfer", q.Get("event_name"))
		assert.Equal(t, "32880248", q.Get("block_number"))
		assert.Equal(t, "true", q.Get("only_unconfirmed"))
		assert.Equal(t, "false", q.Get("only_confirmed"), "explicit false must be preserved")
		assert.Equal(t, "1581577191000", q.Get("min_block_timestamp"))
		assert.Equal(t, "1581577200000", q.Get("max_block_timestamp"))
		assert.Equal(t, "block_timestamp,asc", q.Get("order_by"))
		assert.Equal(t, "abc", q.Get("fingerprint"))
		assert.Equal(t, "50", q.Get("limit"))
		assert.Len(t, q, 9)
	})

	t.Run("limit_clamped_with_warning", func(t *testing.T) {
		log, h := testLogger()
		q := (&ContractEventsOptions{Limit: Int(500)}).values(log)

		assert.Equal(t, "200", q.Get("limit"))
		require.Len(t, h.warnings(), 1)
	})

	t.Run("limit_within_range_passes_through", func(t *testing.T) {
		for _, limit := range []int{0, 1, 20, 199, 200} {
			log, h := testLogger()
			q := (&ContractEventsOptions{Limit: Int(limit)}).values(log)
			assert.Equal(t, strconv.Itoa(limit), q.Get("limit"))
			assert.Empty(t, h.warnings())
		}
	})
}

func TestTransactionEventsOptions_Values(t *testing.T) {
	var opts *TransactionEventsOptions
	assert.Empty(t, opts.values())

	q := (&TransactionEventsOptions{OnlyConfirmed: Bool(false)}).values()
	assert.Equal(t, "false", q.Get("only_confirmed"))
	assert.NotContains(t, q, "only_unconfirmed")
}

func TestBlockEventsOptions_Values(t *testing.T) {
	log, h := testLogger()
	q := (&BlockEventsOptions{
		OnlyConfirmed: Bool(true),
		Limit:         Int(201),
		Fingerprint:   "fp",
	}).values(log)

	assert.Equal(t, "true", q.Get("only_confirmed"))
	assert.Equal(t, "200", q.Get("limit"))
	assert.Equal(t, "fp", q.Get("fingerprint"))
	assert.Len(t, h.warnings(), 1)
}

func TestLatestBlockEventsOptions_Values(t *testing.T) {
	assert.Empty(t, (&LatestBlockEventsOptions{}).values())

	q := (&LatestBlockEventsOptions{OnlyConfirmed: Bool(true)}).values()
	assert.Equal(t, "true", q.Get("only_confirmed"))
}
