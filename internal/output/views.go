package output

import (
	"fmt"
	"math/big"
	"time"

	"github.com/mrz1836/shade/internal/contracts"
	"github.com/mrz1836/shade/internal/pipeline"
	"github.com/mrz1836/shade/internal/session"
)

// ReceiptView is the serializable projection of a transaction receipt.
type ReceiptView struct {
	CorrelationID string `json:"correlation_id"`
	TxHash        string `json:"tx_hash,omitempty"`
	Status        string `json:"status"`
	Confirmations uint64 `json:"confirmations"`
	SubmittedAt   string `json:"submitted_at,omitempty"`
	SettledAt     string `json:"settled_at,omitempty"`
	Error         string `json:"error,omitempty"`
}

// NewReceiptView projects a receipt for display.
func NewReceiptView(r *pipeline.Receipt) ReceiptView {
	view := ReceiptView{
		CorrelationID: r.CorrelationID,
		TxHash:        r.TxHash,
		Status:        string(r.Status),
		Confirmations: r.Confirmations,
	}
	if !r.SubmittedAt.IsZero() {
		view.SubmittedAt = r.SubmittedAt.UTC().Format(time.RFC3339)
	}
	if !r.SettledAt.IsZero() {
		view.SettledAt = r.SettledAt.UTC().Format(time.RFC3339)
	}
	if r.Err != nil {
		view.Error = r.Err.Error()
	}
	return view
}

// Render writes the receipt in the formatter's format.
func (v ReceiptView) Render(f *Formatter) error {
	if f.IsJSON() {
		return f.Print(v)
	}

	table := NewTable("FIELD", "VALUE")
	table.AddRow("status", v.Status)
	table.AddRow("correlation id", v.CorrelationID)
	if v.TxHash != "" {
		table.AddRow("tx hash", v.TxHash)
	}
	table.AddRow("confirmations", fmt.Sprintf("%d", v.Confirmations))
	if v.SubmittedAt != "" {
		table.AddRow("submitted", v.SubmittedAt)
	}
	if v.SettledAt != "" {
		table.AddRow("settled", v.SettledAt)
	}
	if v.Error != "" {
		table.AddRow("error", v.Error)
	}
	return table.Render(f.Writer())
}

// SessionView is the serializable projection of the session status.
type SessionView struct {
	State           string `json:"state"`
	Address         string `json:"address,omitempty"`
	ShieldedAddress string `json:"shielded_address,omitempty"`
	Balance         string `json:"balance,omitempty"`
	Network         string `json:"network,omitempty"`
	LastRefresh     string `json:"last_refresh,omitempty"`
}

// NewSessionView projects the session state and snapshot for display.
// snapshot may be nil when no session is established.
func NewSessionView(state session.State, snapshot *session.Snapshot) SessionView {
	view := SessionView{State: state.String()}
	if snapshot == nil {
		return view
	}

	view.Address = snapshot.Address
	view.ShieldedAddress = snapshot.ShieldedAddress
	view.Network = snapshot.Network.String()
	if snapshot.Balance != nil {
		view.Balance = snapshot.Balance.String()
	}
	if !snapshot.LastRefresh.IsZero() {
		view.LastRefresh = snapshot.LastRefresh.UTC().Format(time.RFC3339)
	}
	return view
}

// Render writes the session status in the formatter's format.
func (v SessionView) Render(f *Formatter) error {
	if f.IsJSON() {
		return f.Print(v)
	}

	table := NewTable("FIELD", "VALUE")
	table.AddRow("state", v.State)
	if v.Address != "" {
		table.AddRow("address", v.Address)
	}
	if v.ShieldedAddress != "" {
		table.AddRow("shielded address", v.ShieldedAddress)
	}
	if v.Balance != "" {
		table.AddRow("balance", v.Balance)
	}
	if v.Network != "" {
		table.AddRow("network", v.Network)
	}
	if v.LastRefresh != "" {
		table.AddRow("last refresh", v.LastRefresh)
	}
	return table.Render(f.Writer())
}

// AnswerView is the serializable projection of a read-only query answer.
type AnswerView struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Stale    bool   `json:"stale,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
}

// NewAnswerView projects a query answer for display under a human label.
func NewAnswerView(label string, answer contracts.Answer) AnswerView {
	value := "0"
	if answer.Value != nil {
		value = answer.Value.String()
	}
	return AnswerView{
		Label:    label,
		Value:    value,
		Stale:    answer.Stale,
		Degraded: answer.Degraded,
	}
}

// Render writes the answer in the formatter's format. Degraded answers
// carry a warning so a zero is never mistaken for live chain state.
func (v AnswerView) Render(f *Formatter) error {
	if f.IsJSON() {
		return f.Print(v)
	}

	if err := f.Printf("%s: %s\n", v.Label, v.Value); err != nil {
		return err
	}
	if v.Degraded {
		return f.Println("warning: value is a fallback, the query did not reach the network")
	}
	if v.Stale {
		return f.Println("note: session state is stale, value may lag the chain")
	}
	return nil
}

// FormatAmount renders a token amount in smallest units.
func FormatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
