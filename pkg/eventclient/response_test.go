package eventclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodePage_Success(t *testing.T) {
	body := []byte(`{
		"success": true,
		"data": [{
			"block_number": 32880248,
			"block_timestamp": 1581577191000,
			"caller_contract_address": "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
			"contract_address": "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
			"event_index": 0,
			"event_name": "Transfer",
			"result": {"0": "from", "1": "to", "2": "100"},
			"result_type": {"0": "address", "1": "address", "2": "uint256"},
			"event": "Transfer(address,address,uint256)",
			"transaction_id": "8a32f4c1",
			"_unconfirmed": true
		}],
		"meta": {
			"at": 1581577800000,
			"fingerprint": "fp-next",
			"links": {"next": "https://api.trongrid.io/v1/..."},
			"page_size": 1
		}
	}`)

	page, err := decodePage(body, errorRaw)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	ev := page.Data[0]
	require.Equal(t, int64(32880248), ev.BlockNumber)
	require.Equal(t, int64(1581577191000), ev.BlockTimestamp)
	require.Equal(t, "Transfer", ev.EventName)
	require.Equal(t, "100", ev.Result["2"])
	require.Equal(t, "uint256", ev.ResultType["2"])
	require.Equal(t, "8a32f4c1", ev.TransactionID)
	require.True(t, ev.Unconfirmed)

	require.Equal(t, int64(1581577800000), page.Meta.At)
	require.Equal(t, "fp-next", page.Meta.Fingerprint)
	require.NotNil(t, page.Meta.Links)
	require.Equal(t, "https://api.trongrid.io/v1/...", page.Meta.Links.Next)
	require.Equal(t, 1, page.Meta.PageSize)
}

func TestDecodePage_RawError(t *testing.T) {
	body := []byte(`{"success": false, "error": "boom"}`)

	_, err := decodePage(body, errorRaw)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "boom", apiErr.Message)
	require.Equal(t, "boom", err.Error())
}

func TestDecodePage_RawErrorSkipsNestedParse(t *testing.T) {
	// The same JSON-shaped error string stays opaque outside the
	// transaction endpoint.
	body := []byte(`{"success": false, "error": "{\"message\":\"boom\"}"}`)

	_, err := decodePage(body, errorRaw)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, `{"message":"boom"}`, apiErr.Message)
}

func TestDecodePage_JSONMessageError(t *testing.T) {
	body := []byte(`{"success": false, "error": "{\"message\":\"boom\"}"}`)

	_, err := decodePage(body, errorJSONMessage)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "boom", apiErr.Message)
}

func TestDecodePage_JSONMessageErrorMalformed(t *testing.T) {
	// A plain-text error on the transaction endpoint fails the nested
	// parse; the decode error propagates instead of an APIError.
	body := []byte(`{"success": false, "error": "boom"}`)

	_, err := decodePage(body, errorJSONMessage)
	require.Error(t, err)
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
}

func TestDecodePage_MalformedBody(t *testing.T) {
	_, err := decodePage([]byte("<html>gateway timeout</html>"), errorRaw)
	require.Error(t, err)
}

func TestDecodePage_EmptyData(t *testing.T) {
	page, err := decodePage([]byte(`{"success": true, "data": [], "meta": {"at": 1, "page_size": 20}}`), errorRaw)
	require.NoError(t, err)
	require.Empty(t, page.Data)
	require.Equal(t, 20, page.Meta.PageSize)
	require.Empty(t, page.Meta.Fingerprint)
}
