package eventclient

import (
	"encoding/json"
	"fmt"
)

// EventRecord is one contract event as produced by the event server. The
// result and result_type mappings pass through uninterpreted.
type EventRecord struct {
	BlockNumber           int64             `json:"block_number"`
	BlockTimestamp        int64             `json:"block_timestamp"`
	CallerContractAddress string            `json:"caller_contract_address"`
	ContractAddress       string            `json:"contract_address"`
	EventIndex            int               `json:"event_index"`
	EventName             string            `json:"event_name"`
	Result                map[string]string `json:"result"`
	ResultType            map[string]string `json:"result_type"`
	Event                 string            `json:"event"`
	TransactionID         string            `json:"transaction_id"`
	Unconfirmed           bool              `json:"_unconfirmed,omitempty"`
}

type PageLinks struct {
	Next string `json:"next,omitempty"`
}

// PageMeta carries pagination state. A non-empty Fingerprint resubmitted on
// the next call continues the result set.
type PageMeta struct {
	At          int64      `json:"at"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Links       *PageLinks `json:"links,omitempty"`
	PageSize    int        `json:"page_size"`
}

// EventPage is the successful result of a query operation, returned as the
// server produced it.
type EventPage struct {
	Data []EventRecord `json:"data"`
	Meta PageMeta      `json:"meta"`
}

// errorMode selects how a success=false error field is unwrapped. The
// transaction endpoint double-encodes its error as a JSON object; the other
// endpoints return plain text. Both shapes are preserved as-is.
type errorMode int

const (
	errorRaw errorMode = iota
	errorJSONMessage
)

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	EventPage
}

// decodePage normalizes a response body into an EventPage or an error.
func decodePage(body []byte, mode errorMode) (*EventPage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode event response: %w", err)
	}
	if !env.Success {
		return nil, unwrapAPIError(env.Error, mode)
	}
	return &env.EventPage, nil
}

func unwrapAPIError(raw string, mode errorMode) error {
	if mode == errorJSONMessage {
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return fmt.Errorf("decode error payload %q: %w", raw, err)
		}
		return &APIError{Message: payload.Message}
	}
	return &APIError{Message: raw}
}
