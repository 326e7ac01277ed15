// Package chain provides ledger interface definitions and common utilities.
package chain

import (
	"context"
	"math/big"
)

// NetworkID identifies a target ledger network.
type NetworkID string

// Known network identifiers.
const (
	Devnet  NetworkID = "devnet"
	Testnet NetworkID = "testnet"
	Mainnet NetworkID = "mainnet"
)

// String returns the network identifier string.
func (id NetworkID) String() string {
	return string(id)
}

// IsValid returns true if the network ID is a known network.
func (id NetworkID) IsValid() bool {
	switch id {
	case Devnet, Testnet, Mainnet:
		return true
	default:
		return false
	}
}

// ParseNetworkID parses a string into a NetworkID.
func ParseNetworkID(s string) (NetworkID, bool) {
	id := NetworkID(s)
	return id, id.IsValid()
}

// StatusKind classifies the settlement state of a submitted transaction.
type StatusKind string

// Settlement states reported by the ledger.
const (
	StatusUnknown   StatusKind = "unknown"
	StatusPending   StatusKind = "pending"
	StatusConfirmed StatusKind = "confirmed"
	StatusRejected  StatusKind = "rejected"
)

// TxStatus is the settlement state of a transaction as reported by a node.
type TxStatus struct {
	Hash          string     // Network transaction hash
	Kind          StatusKind // Settlement state
	Confirmations uint64     // Confirmation depth; 0 while pending
	Reason        string     // Rejection reason, set when Kind is StatusRejected
}

// StatusReader reports settlement state for submitted transactions.
type StatusReader interface {
	// TransactionStatus returns the current settlement state of a transaction.
	TransactionStatus(ctx context.Context, hash string) (TxStatus, error)
}

// CircuitQuerier performs read-only circuit calls against deployed contracts.
type CircuitQuerier interface {
	// QueryCircuit invokes a read-only circuit and returns its numeric result.
	// The caller address scopes privacy-preserving per-account queries.
	QueryCircuit(ctx context.Context, contract, circuit, caller string, params map[string]any) (*big.Int, error)
}

// NetworkIdentifier reports which network a node serves.
type NetworkIdentifier interface {
	// NetworkID returns the node's network identifier.
	NetworkID(ctx context.Context) (NetworkID, error)
}

// Node combines the read-only ledger operations the client depends on.
type Node interface {
	StatusReader
	CircuitQuerier
	NetworkIdentifier
}
