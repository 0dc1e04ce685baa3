package entropy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoSeedIsPositive(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Positive(t, CryptoSeed())
	}
}

func TestNilClientFallsBack(t *testing.T) {
	var c *Client
	assert.False(t, c.Enabled())
	assert.Positive(t, c.Seed(context.Background()))
	assert.Nil(t, NewClient(""))
}

func TestSeedFromRandomOrg(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "generateIntegers", req.Method)
		w.Write([]byte(`{"result":{"random":{"data":[12,34]}}}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.Endpoint = srv.URL
	assert.Equal(t, int64(12_000_000_034), c.Seed(context.Background()))
}

func TestSeedFallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.Endpoint = srv.URL
	_, err := c.fetch(context.Background())
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Positive(t, c.Seed(context.Background()))
}
