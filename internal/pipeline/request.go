package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"time"
)

// Request is a contract call handed to the pipeline. Params must already
// carry the circuit's full argument set; the pipeline validates shape but
// never fills values in.
type Request struct {
	Contract      string         // Deployed contract address
	Circuit       string         // Circuit name on that contract
	Params        map[string]any // Circuit arguments
	CorrelationID string         // Assigned by the pipeline when empty
}

// Status is the settlement state of a receipt.
type Status string

// Receipt statuses. Pending receipts are returned the moment the network
// accepts the submission; Confirmed and Failed are terminal.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Receipt tracks a submitted transaction. Correlation ids tie receipts back
// to the requests that produced them; two concurrent executes never observe
// each other's receipt.
type Receipt struct {
	CorrelationID string
	TxHash        string
	Status        Status
	Confirmations uint64
	SubmittedAt   time.Time
	SettledAt     time.Time // Zero until the receipt is terminal
	Err           error     // Terminal failure cause, nil otherwise
}

// Terminal reports whether the receipt will no longer change.
func (r *Receipt) Terminal() bool {
	return r.Status == StatusConfirmed || r.Status == StatusFailed
}

// clone returns a copy so confirmation polling never mutates a receipt the
// caller already holds.
func (r *Receipt) clone() *Receipt {
	out := *r
	return &out
}

// QueryResult is the outcome of a read-only circuit call.
type QueryResult struct {
	CorrelationID string
	Value         *big.Int
	AsOf          time.Time // Last session refresh backing the caller identity
	Stale         bool      // Session data older than the staleness window
}

// newCorrelationID generates an opaque request identifier.
func newCorrelationID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "req-degraded"
	}
	return "req-" + hex.EncodeToString(buf)
}
