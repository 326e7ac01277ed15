// Package rpc provides a minimal JSON-RPC 2.0 client for privacy-ledger nodes.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mrz1836/shade/internal/chain"
	"github.com/mrz1836/shade/internal/metrics"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

var (
	// ErrRPCRequest indicates an RPC request failed.
	ErrRPCRequest = &shadeerr.ShadeError{
		Code:     "RPC_REQUEST_FAILED",
		Message:  "RPC request failed",
		ExitCode: shadeerr.ExitGeneral,
	}

	// ErrRPCResponse indicates an invalid RPC response.
	ErrRPCResponse = &shadeerr.ShadeError{
		Code:     "RPC_INVALID_RESPONSE",
		Message:  "invalid RPC response",
		ExitCode: shadeerr.ExitGeneral,
	}

	// ErrNilResponse indicates a nil result from the RPC.
	ErrNilResponse = &shadeerr.ShadeError{
		Code:     "RPC_NIL_RESPONSE",
		Message:  "nil RPC response",
		ExitCode: shadeerr.ExitGeneral,
	}
)

// Client is a minimal JSON-RPC client for a ledger node.
type Client struct {
	url        string
	httpClient *http.Client
	idCounter  atomic.Uint64
}

// NewClient creates a new RPC client.
func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{},
	}
}

// URL returns the node endpoint this client talks to.
func (c *Client) URL() string {
	return c.url
}

// request represents a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

// response represents a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error returned by the remote side.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Call performs a JSON-RPC call.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	start := time.Now()
	result, err := c.call(ctx, method, params...)
	metrics.Global.RecordRPCCall(time.Since(start), err)
	return result, err
}

func (c *Client) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.idCounter.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, fmt.Errorf("%w: %w", chain.ErrTimeout, err)
		}
		return nil, chain.WrapRetryable(fmt.Errorf("sending HTTP request: %w", err))
	}
	// Body.Close error is intentionally ignored as it only fails if the
	// connection is already broken, and there's no recovery action.
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: node returned HTTP 429", chain.ErrRateLimited)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, chain.WrapRetryable(fmt.Errorf("reading response body: %w", err))
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRPCResponse, err)
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}

// txStatusResult is the wire shape of midnight_getTransactionStatus.
type txStatusResult struct {
	Hash          string         `json:"hash"`
	Status        string         `json:"status"`
	Confirmations hexutil.Uint64 `json:"confirmations"`
	Reason        string         `json:"reason,omitempty"`
}

// TransactionStatus returns the settlement state of a transaction.
func (c *Client) TransactionStatus(ctx context.Context, hash string) (chain.TxStatus, error) {
	result, err := c.Call(ctx, "midnight_getTransactionStatus", hash)
	if err != nil {
		return chain.TxStatus{}, err
	}
	if len(result) == 0 || string(result) == "null" {
		return chain.TxStatus{}, ErrNilResponse
	}

	var wire txStatusResult
	if err := json.Unmarshal(result, &wire); err != nil {
		return chain.TxStatus{}, fmt.Errorf("parsing tx status: %w", err)
	}

	return chain.TxStatus{
		Hash:          wire.Hash,
		Kind:          parseStatusKind(wire.Status),
		Confirmations: uint64(wire.Confirmations),
		Reason:        wire.Reason,
	}, nil
}

// queryCircuitParams is the wire shape of a midnight_queryCircuit call.
type queryCircuitParams struct {
	Contract string         `json:"contract"`
	Circuit  string         `json:"circuit"`
	Caller   string         `json:"caller,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
}

// QueryCircuit invokes a read-only circuit and returns its numeric result.
func (c *Client) QueryCircuit(ctx context.Context, contract, circuit, caller string, params map[string]any) (*big.Int, error) {
	result, err := c.Call(ctx, "midnight_queryCircuit", queryCircuitParams{
		Contract: contract,
		Circuit:  circuit,
		Caller:   caller,
		Params:   params,
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, ErrNilResponse
	}

	var value hexutil.Big
	if err := json.Unmarshal(result, &value); err != nil {
		return nil, fmt.Errorf("parsing circuit result: %w", err)
	}

	return (*big.Int)(&value), nil
}

// NetworkID returns the node's network identifier.
func (c *Client) NetworkID(ctx context.Context) (chain.NetworkID, error) {
	result, err := c.Call(ctx, "midnight_networkId")
	if err != nil {
		return "", err
	}

	var id string
	if err := json.Unmarshal(result, &id); err != nil {
		return "", fmt.Errorf("parsing network id: %w", err)
	}

	return chain.NetworkID(id), nil
}

// parseStatusKind maps a wire status string to a StatusKind.
func parseStatusKind(s string) chain.StatusKind {
	switch s {
	case "pending":
		return chain.StatusPending
	case "confirmed":
		return chain.StatusConfirmed
	case "rejected":
		return chain.StatusRejected
	default:
		return chain.StatusUnknown
	}
}

// Close closes the client.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Compile-time interface check
var _ chain.Node = (*Client)(nil)
