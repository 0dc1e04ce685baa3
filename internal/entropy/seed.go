// Package entropy supplies run seeds: from random.org when an API key is
// configured, from crypto/rand otherwise.
package entropy

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultEndpoint is the random.org JSON-RPC endpoint.
const DefaultEndpoint = "https://api.random.org/json-rpc/4/invoke"

// Client fetches seeds from random.org.
type Client struct {
	apiKey   string
	Endpoint string
	client   *http.Client
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		Endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Seed returns a positive seed. Falls back to crypto/rand when the client
// is nil or random.org fails.
func (c *Client) Seed(ctx context.Context) int64 {
	if !c.Enabled() {
		return CryptoSeed()
	}
	s, err := c.fetch(ctx)
	if err != nil {
		slog.Debug("random.org seed failed, using crypto/rand", "error", err)
		return CryptoSeed()
	}
	return s
}

// fetch asks for two integers in [1, 1e9] and joins them into one seed.
func (c *Client) fetch(ctx context.Context) (int64, error) {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey": c.apiKey,
			"n":      2,
			"min":    1,
			"max":    1_000_000_000,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(hreq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	var result struct {
		Result struct {
			Random struct {
				Data []int64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	if result.Error != nil {
		return 0, fmt.Errorf("api: %s", result.Error.Message)
	}
	data := result.Result.Random.Data
	if len(data) != 2 {
		return 0, fmt.Errorf("api: got %d integers, want 2", len(data))
	}
	return data[0]*1_000_000_000 + data[1], nil
}

// CryptoSeed returns a positive seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen but keep runs going.
		return time.Now().UnixNano() | 1
	}
	s := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if s == 0 {
		return 1
	}
	return s
}
