package streamclient

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

// wireLog mirrors one entry of a yield's logs[] array: block_number,
// tx_hash, tx_index, log_index, address, topics[0..4], data.
type wireLog struct {
	BlockNumber uint64   `json:"block_number"`
	TxHash      string   `json:"tx_hash"`
	TxIndex     uint     `json:"tx_index"`
	LogIndex    uint     `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
}

type wireBlock struct {
	Number    uint64 `json:"number"`
	Timestamp uint64 `json:"timestamp"`
}

type wireYield struct {
	Data struct {
		Blocks []wireBlock `json:"blocks"`
		Logs   []wireLog   `json:"logs"`
	} `json:"data"`
	NextBlock uint64 `json:"next_block"`
}

// HTTPDialer opens an HTTPStream against a JSON pull-stream endpoint,
// the shape spec.md §6 describes. BearerToken authenticates every
// query if set.
type HTTPDialer struct {
	Client      *http.Client
	BearerToken string
}

// NewHTTPDialer builds a dialer with a sane request timeout. A zero
// bearerToken omits the Authorization header.
func NewHTTPDialer(bearerToken string) *HTTPDialer {
	return &HTTPDialer{
		Client:      &http.Client{Timeout: 30 * time.Second},
		BearerToken: bearerToken,
	}
}

// Dial implements Dialer. topics selects which log signatures the
// provider should include in each yield; an empty slice means all.
func (d *HTTPDialer) Dial(ctx context.Context, streamURL string, fromBlock uint64, topics []common.Hash) (Stream, error) {
	topicStrs := make([]string, len(topics))
	for i, t := range topics {
		topicStrs[i] = t.Hex()
	}
	return &httpStream{
		dialer:    d,
		streamURL: streamURL,
		next:      fromBlock,
		topics:    topicStrs,
	}, nil
}

// httpStream issues one HTTP request per Next call, advancing its
// cursor from the prior yield's next_block.
type httpStream struct {
	dialer    *HTTPDialer
	streamURL string
	next      uint64
	topics    []string
}

func (s *httpStream) Next(ctx context.Context) (*Batch, error) {
	reqBody, err := json.Marshal(map[string]any{
		"from_block": s.next,
		"topics":     s.topics,
	})
	if err != nil {
		return nil, fmt.Errorf("streamclient: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.streamURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("streamclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.dialer.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.dialer.BearerToken)
	}

	resp, err := s.dialer.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("streamclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("streamclient: unexpected status %d: %s", resp.StatusCode, body)
	}

	var y wireYield
	if err := json.NewDecoder(resp.Body).Decode(&y); err != nil {
		return nil, fmt.Errorf("streamclient: decode response: %w", err)
	}

	batch := &Batch{
		Blocks:    make([]BlockHeader, len(y.Data.Blocks)),
		Logs:      decodeWireLogs(y.Data.Logs),
		NextBlock: y.NextBlock,
	}
	for i, b := range y.Data.Blocks {
		batch.Blocks[i] = BlockHeader{Number: b.Number, Timestamp: b.Timestamp}
	}
	if y.NextBlock > s.next {
		s.next = y.NextBlock
	}
	return batch, nil
}

func (s *httpStream) Close() error {
	return nil
}

// decodeWireLogs converts the yield's JSON log rows into the
// *types.Log shape the parser consumes. A row whose data is not valid
// hex is dropped rather than failing the whole batch, so a single bad
// row from the provider does not stall a chain. Addresses and hashes
// go through common.HexToAddress/HexToHash, which never reject input.
func decodeWireLogs(rows []wireLog) []*types.Log {
	logs := make([]*types.Log, 0, len(rows))
	for _, r := range rows {
		data, err := hex.DecodeString(strings.TrimPrefix(r.Data, "0x"))
		if err != nil {
			continue
		}
		topics := make([]common.Hash, len(r.Topics))
		for i, t := range r.Topics {
			topics[i] = common.HexToHash(t)
		}
		logs = append(logs, &types.Log{
			Address:     common.HexToAddress(r.Address),
			Topics:      topics,
			Data:        data,
			BlockNumber: r.BlockNumber,
			TxHash:      common.HexToHash(r.TxHash),
			TxIndex:     r.TxIndex,
			Index:       r.LogIndex,
		})
	}
	return logs
}
