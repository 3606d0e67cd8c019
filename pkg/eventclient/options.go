package eventclient

import (
	"log/slog"
	"net/url"
	"strconv"
)

// Sort orders accepted by the contract-events operation.
const (
	OrderByBlockTimestampDesc = "block_timestamp,desc"
	OrderByBlockTimestampAsc  = "block_timestamp,asc"
)

const (
	// MaxLimit is the largest page size the event server accepts. Larger
	// requested limits are clamped to it with a warning.
	MaxLimit = 200
	// DefaultLimit is the page size the server applies when none is sent.
	// The client never injects it; an unset Limit is simply omitted.
	DefaultLimit = 20
)

// Bool returns a pointer to v, convenience for optional fields.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v, convenience for optional fields.
func Int(v int) *int { return &v }

// Int64 returns a pointer to v, convenience for optional fields.
func Int64(v int64) *int64 { return &v }

// ContractEventsOptions narrows an events-by-contract query. Unset fields
// are omitted from the request; explicitly-set false/zero values are sent.
type ContractEventsOptions struct {
	EventName         string
	BlockNumber       *int64
	OnlyUnconfirmed   *bool
	OnlyConfirmed     *bool
	MinBlockTimestamp *int64 // milliseconds
	MaxBlockTimestamp *int64 // milliseconds
	OrderBy           string // OrderByBlockTimestampDesc or OrderByBlockTimestampAsc
	Fingerprint       string
	Limit             *int
}

func (o *ContractEventsOptions) values(log *slog.Logger) url.Values {
	q := url.Values{}
	if o == nil {
		return q
	}
	setString(q, "event_name", o.EventName)
	setInt64(q, "block_number", o.BlockNumber)
	setBool(q, "only_unconfirmed", o.OnlyUnconfirmed)
	setBool(q, "only_confirmed", o.OnlyConfirmed)
	setInt64(q, "min_block_timestamp", o.MinBlockTimestamp)
	setInt64(q, "max_block_timestamp", o.MaxBlockTimestamp)
	setString(q, "order_by", o.OrderBy)
	setString(q, "fingerprint", o.Fingerprint)
	setLimit(q, o.Limit, log)
	return q
}

// TransactionEventsOptions narrows an events-by-transaction query.
type TransactionEventsOptions struct {
	OnlyUnconfirmed *bool
	OnlyConfirmed   *bool
}

func (o *TransactionEventsOptions) values() url.Values {
	q := url.Values{}
	if o == nil {
		return q
	}
	setBool(q, "only_unconfirmed", o.OnlyUnconfirmed)
	setBool(q, "only_confirmed", o.OnlyConfirmed)
	return q
}

// BlockEventsOptions narrows an events-by-block query.
type BlockEventsOptions struct {
	OnlyConfirmed *bool
	Limit         *int
	Fingerprint   string
}

func (o *BlockEventsOptions) values(log *slog.Logger) url.Values {
	q := url.Values{}
	if o == nil {
		return q
	}
	setBool(q, "only_confirmed", o.OnlyConfirmed)
	setLimit(q, o.Limit, log)
	setString(q, "fingerprint", o.Fingerprint)
	return q
}

// LatestBlockEventsOptions narrows a latest-block events query.
type LatestBlockEventsOptions struct {
	OnlyConfirmed *bool
}

func (o *LatestBlockEventsOptions) values() url.Values {
	q := url.Values{}
	if o == nil {
		return q
	}
	setBool(q, "only_confirmed", o.OnlyConfirmed)
	return q
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func setInt64(q url.Values, key string, v *int64) {
	if v != nil {
		q.Set(key, strconv.FormatInt(*v, 10))
	}
}

func setBool(q url.Values, key string, v *bool) {
	if v != nil {
		q.Set(key, strconv.FormatBool(*v))
	}
}

func setLimit(q url.Values, v *int, log *slog.Logger) {
	if v == nil {
		return
	}
	limit := *v
	if limit > MaxLimit {
		log.Warn("requested limit exceeds maximum page size, clamping",
			"requested", limit,
			"max", MaxLimit,
		)
		limit = MaxLimit
	}
	q.Set("limit", strconv.Itoa(limit))
}
