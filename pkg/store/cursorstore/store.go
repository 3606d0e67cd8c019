package cursorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fystack/tron-events/pkg/kvstore"
)

const keyPrefix = "tron/contract/"

// ContractCursor tracks the polling position for a single contract.
// LastEventIDs holds the ids already processed at BlockTimestamp, letting a
// resume filter out the re-fetched tail of that millisecond.
type ContractCursor struct {
	Address        string    `json:"address"`
	BlockNumber    int64     `json:"block_number"`    // Block of the last processed event
	BlockTimestamp int64     `json:"block_timestamp"` // Millisecond timestamp of the last processed event
	LastEventIDs   []string  `json:"last_event_ids,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Store interface {
	Get(ctx context.Context, address string) (*ContractCursor, error)
	Save(ctx context.Context, cursor *ContractCursor) error
	Delete(ctx context.Context, address string) error
	List(ctx context.Context) ([]string, error)
}

type kvStore struct {
	kv kvstore.Store
}

func New(kv kvstore.Store) Store {
	return &kvStore{kv: kv}
}

func (s *kvStore) cursorKey(address string) string {
	return keyPrefix + address
}

func (s *kvStore) Get(_ context.Context, address string) (*ContractCursor, error) {
	var cursor ContractCursor
	found, err := s.kv.Get(s.cursorKey(address), &cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to get cursor for %s: %w", address, err)
	}
	if !found {
		return nil, nil
	}
	return &cursor, nil
}

func (s *kvStore) Save(_ context.Context, cursor *ContractCursor) error {
	cursor.UpdatedAt = time.Now()
	if err := s.kv.Set(s.cursorKey(cursor.Address), cursor); err != nil {
		return fmt.Errorf("failed to save cursor for %s: %w", cursor.Address, err)
	}
	return nil
}

func (s *kvStore) Delete(_ context.Context, address string) error {
	if err := s.kv.Delete(s.cursorKey(address)); err != nil {
		return fmt.Errorf("failed to delete cursor for %s: %w", address, err)
	}
	return nil
}

func (s *kvStore) List(_ context.Context) ([]string, error) {
	pairs, err := s.kv.List(keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list cursors: %w", err)
	}

	addresses := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		var cursor ContractCursor
		if err := json.Unmarshal(pair.Value, &cursor); err != nil {
			continue
		}
		addresses = append(addresses, cursor.Address)
	}

	return addresses, nil
}
