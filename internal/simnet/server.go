package simnet

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// Server exposes a Ledger over JSON-RPC 2.0, wire-compatible with the rpc
// client. Mount it on an http server (or httptest in tests) to get a node
// endpoint.
type Server struct {
	ledger *Ledger
}

// NewServer creates a JSON-RPC server over the ledger.
func NewServer(ledger *Ledger) *Server {
	return &Server{ledger: ledger}
}

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcErrorBody   `json:"error,omitempty"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// txStatusWire mirrors the client's expected result shape.
type txStatusWire struct {
	Hash          string         `json:"hash"`
	Status        string         `json:"status"`
	Confirmations hexutil.Uint64 `json:"confirmations"`
	Reason        string         `json:"reason,omitempty"`
}

// queryCircuitWire mirrors the client's request param shape.
type queryCircuitWire struct {
	Contract string         `json:"contract"`
	Circuit  string         `json:"circuit"`
	Caller   string         `json:"caller"`
	Params   map[string]any `json:"params"`
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, rpcResponse{JSONRPC: "2.0", Error: &rpcErrorBody{Code: codeParseError, Message: "parse error"}})
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeResponse(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcErrorBody{Code: codeInvalidRequest, Message: "invalid request"}})
		return
	}

	result, rpcErr := s.dispatch(r, req)
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result, Error: rpcErr}
	writeResponse(w, resp)
}

// dispatch routes one request to the ledger.
func (s *Server) dispatch(r *http.Request, req rpcRequest) (any, *rpcErrorBody) {
	switch req.Method {
	case "midnight_getTransactionStatus":
		var hash string
		if len(req.Params) != 1 || json.Unmarshal(req.Params[0], &hash) != nil {
			return nil, &rpcErrorBody{Code: codeInvalidParams, Message: "expected [hash]"}
		}
		status, err := s.ledger.TransactionStatus(r.Context(), hash)
		if err != nil {
			return nil, &rpcErrorBody{Code: codeServerError, Message: err.Error()}
		}
		return txStatusWire{
			Hash:          status.Hash,
			Status:        string(status.Kind),
			Confirmations: hexutil.Uint64(status.Confirmations),
			Reason:        status.Reason,
		}, nil

	case "midnight_queryCircuit":
		var q queryCircuitWire
		if len(req.Params) != 1 || json.Unmarshal(req.Params[0], &q) != nil {
			return nil, &rpcErrorBody{Code: codeInvalidParams, Message: "expected [query]"}
		}
		value, err := s.ledger.QueryCircuit(r.Context(), q.Contract, q.Circuit, q.Caller, q.Params)
		if err != nil {
			return nil, &rpcErrorBody{Code: codeServerError, Message: err.Error()}
		}
		return (*hexutil.Big)(value), nil

	case "midnight_networkId":
		id, err := s.ledger.NetworkID(r.Context())
		if err != nil {
			return nil, &rpcErrorBody{Code: codeServerError, Message: err.Error()}
		}
		return id.String(), nil

	case "midnight_submitTransaction":
		var raw hexutil.Bytes
		if len(req.Params) != 1 || json.Unmarshal(req.Params[0], &raw) != nil {
			return nil, &rpcErrorBody{Code: codeInvalidParams, Message: "expected [rawTx]"}
		}
		hash, err := s.ledger.Submit(raw)
		if err != nil {
			return nil, &rpcErrorBody{Code: codeServerError, Message: err.Error()}
		}
		return hash, nil

	default:
		return nil, &rpcErrorBody{Code: codeMethodNotFound, Message: "method not found"}
	}
}

func writeResponse(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	// Encode errors mean the client went away; nothing to do about it.
	_ = json.NewEncoder(w).Encode(resp)
}
