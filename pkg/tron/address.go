package tron

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
)

const (
	// addressPrefix is the version byte of mainnet addresses ('T' in base58check).
	addressPrefix byte = 0x41
	payloadLen         = 20
)

// IsValidAddress reports whether addr is a Tron address in base58check
// (T...) or hex (41..., 0x41..., or bare 20-byte) form.
func IsValidAddress(addr string) bool {
	_, err := decode(addr)
	return err == nil
}

// ToBase58Address re-encodes any accepted address form to base58check (T...).
func ToBase58Address(addr string) (string, error) {
	payload, err := decode(addr)
	if err != nil {
		return "", err
	}
	return base58.CheckEncode(payload, addressPrefix), nil
}

// ToHexAddress re-encodes any accepted address form to 41-prefixed hex.
func ToHexAddress(addr string) (string, error) {
	payload, err := decode(addr)
	if err != nil {
		return "", err
	}
	return "41" + hex.EncodeToString(payload), nil
}

// decode extracts the 20-byte account payload from addr.
func decode(addr string) ([]byte, error) {
	cleaned := strings.TrimSpace(addr)
	if cleaned == "" {
		return nil, errors.New("empty address")
	}

	if cleaned[0] == 'T' {
		payload, version, err := base58.CheckDecode(cleaned)
		if err != nil {
			return nil, fmt.Errorf("decode base58 address %q: %w", addr, err)
		}
		if version != addressPrefix || len(payload) != payloadLen {
			return nil, fmt.Errorf("not a tron address: %q", addr)
		}
		return payload, nil
	}

	hexStr := strings.TrimPrefix(strings.ToLower(cleaned), "0x")
	if len(hexStr) == 2*payloadLen+2 && strings.HasPrefix(hexStr, "41") {
		hexStr = hexStr[2:]
	}
	if len(hexStr) != 2*payloadLen {
		return nil, fmt.Errorf("invalid address length: %q", addr)
	}
	payload, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decode hex address %q: %w", addr, err)
	}
	return payload, nil
}
