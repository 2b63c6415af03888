package streamclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/geth/common"
)

func TestHTTPStreamNextParsesYield(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"blocks": [{"number": 100, "timestamp": 1700000000}],
				"logs": [{
					"block_number": 100,
					"tx_hash": "0x` + "aa" + `",
					"tx_index": 1,
					"log_index": 2,
					"address": "0xabc0000000000000000000000000000000000a",
					"topics": ["0x1111111111111111111111111111111111111111111111111111111111111"],
					"data": "0x1234"
				}]
			},
			"next_block": 101
		}`))
	}))
	defer srv.Close()

	dialer := NewHTTPDialer("secret-token")
	stream, err := dialer.Dial(context.Background(), srv.URL, 50, []common.Hash{})
	require.NoError(t, err)
	defer stream.Close()

	batch, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	require.Len(t, batch.Blocks, 1)
	assert.Equal(t, uint64(100), batch.Blocks[0].Number)
	require.Len(t, batch.Logs, 1)
	assert.Equal(t, uint(2), batch.Logs[0].Index)
	assert.Equal(t, uint64(101), batch.NextBlock)
}

func TestHTTPStreamNextRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	dialer := NewHTTPDialer("")
	stream, err := dialer.Dial(context.Background(), srv.URL, 0, nil)
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Next(context.Background())
	assert.Error(t, err)
}

func TestDecodeWireLogsSkipsMalformedData(t *testing.T) {
	rows := []wireLog{
		{Address: "0xabc0000000000000000000000000000000000a", Data: "not-hex"},
		{Address: "0xabc0000000000000000000000000000000000a", Data: "0x1234"},
	}
	logs := decodeWireLogs(rows)
	require.Len(t, logs, 1)
	assert.Equal(t, []byte{0x12, 0x34}, logs[0].Data)
}
