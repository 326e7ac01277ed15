package rpc_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shade/internal/chain"
	"github.com/mrz1836/shade/internal/chain/rpc"
)

// jsonRPCServer returns an httptest server answering each method with the
// given raw result (or a JSON-RPC error when err is non-nil).
func jsonRPCServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     uint64 `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, ok := results[req.Method]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": json.RawMessage(result)}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestTransactionStatus(t *testing.T) {
	srv := jsonRPCServer(t, map[string]string{
		"midnight_getTransactionStatus": `{"hash":"0xabc","status":"confirmed","confirmations":"0x3"}`,
	})
	defer srv.Close()

	client := rpc.NewClient(srv.URL)
	defer client.Close()

	status, err := client.TransactionStatus(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", status.Hash)
	assert.Equal(t, chain.StatusConfirmed, status.Kind)
	assert.Equal(t, uint64(3), status.Confirmations)
}

func TestTransactionStatusRejected(t *testing.T) {
	srv := jsonRPCServer(t, map[string]string{
		"midnight_getTransactionStatus": `{"hash":"0xdef","status":"rejected","confirmations":"0x0","reason":"proposal voting window closed"}`,
	})
	defer srv.Close()

	client := rpc.NewClient(srv.URL)
	defer client.Close()

	status, err := client.TransactionStatus(context.Background(), "0xdef")
	require.NoError(t, err)
	assert.Equal(t, chain.StatusRejected, status.Kind)
	assert.Equal(t, "proposal voting window closed", status.Reason)
}

func TestQueryCircuit(t *testing.T) {
	srv := jsonRPCServer(t, map[string]string{
		"midnight_queryCircuit": `"0x2a"`,
	})
	defer srv.Close()

	client := rpc.NewClient(srv.URL)
	defer client.Close()

	value, err := client.QueryCircuit(context.Background(), "mn1contrib", "getMyContributions", "mn1caller", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 42, value.Int64())
}

func TestNetworkID(t *testing.T) {
	srv := jsonRPCServer(t, map[string]string{
		"midnight_networkId": `"devnet"`,
	})
	defer srv.Close()

	client := rpc.NewClient(srv.URL)
	defer client.Close()

	id, err := client.NetworkID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, chain.Devnet, id)
}

func TestRPCErrorSurfaced(t *testing.T) {
	srv := jsonRPCServer(t, map[string]string{})
	defer srv.Close()

	client := rpc.NewClient(srv.URL)
	defer client.Close()

	_, err := client.TransactionStatus(context.Background(), "0xmissing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
}

func TestTransportErrorIsRetryable(t *testing.T) {
	srv := jsonRPCServer(t, nil)
	srv.Close() // Connection refused from here on

	client := rpc.NewClient(srv.URL)
	defer client.Close()

	_, err := client.TransactionStatus(context.Background(), "0xabc")
	require.Error(t, err)
	assert.True(t, chain.IsRetryable(err))
}

func TestRateLimitedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := rpc.NewClient(srv.URL)
	defer client.Close()

	_, err := client.NetworkID(context.Background())
	require.ErrorIs(t, err, chain.ErrRateLimited)
	assert.True(t, chain.IsRetryable(err))
}

func TestRequestTimeout(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		// Drain the body so the server starts its background read and can
		// cancel the request context when the client disconnects.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := rpc.NewClient(srv.URL)
	defer client.Close()

	_, err := client.NetworkID(ctx)
	<-started
	require.ErrorIs(t, err, chain.ErrTimeout)
	assert.True(t, chain.IsRetryable(err))
}
