package output_test

import (
	"bytes"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shade/internal/contracts"
	"github.com/mrz1836/shade/internal/output"
	"github.com/mrz1836/shade/internal/pipeline"
	"github.com/mrz1836/shade/internal/session"
)

func TestReceiptViewText(t *testing.T) {
	t.Parallel()
	submitted := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	receipt := &pipeline.Receipt{
		CorrelationID: "req-aabbcc",
		TxHash:        "0xabc123",
		Status:        pipeline.StatusConfirmed,
		Confirmations: 3,
		SubmittedAt:   submitted,
		SettledAt:     submitted.Add(6 * time.Second),
	}

	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatText, &buf)
	require.NoError(t, output.NewReceiptView(receipt).Render(f))

	text := buf.String()
	assert.Contains(t, text, "confirmed")
	assert.Contains(t, text, "req-aabbcc")
	assert.Contains(t, text, "0xabc123")
	assert.Contains(t, text, "2026-03-14T09:26:53Z")
}

func TestReceiptViewJSONOmitsEmpty(t *testing.T) {
	t.Parallel()
	receipt := &pipeline.Receipt{
		CorrelationID: "req-aabbcc",
		Status:        pipeline.StatusPending,
	}

	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &buf)
	require.NoError(t, output.NewReceiptView(receipt).Render(f))

	assert.NotContains(t, buf.String(), "tx_hash")
	assert.NotContains(t, buf.String(), "error")

	var decoded output.ReceiptView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "pending", decoded.Status)
}

func TestSessionViewDisconnected(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatText, &buf)
	require.NoError(t, output.NewSessionView(session.Disconnected, nil).Render(f))

	assert.Contains(t, buf.String(), "disconnected")
	assert.NotContains(t, buf.String(), "address")
}

func TestSessionViewConnected(t *testing.T) {
	t.Parallel()
	snap := &session.Snapshot{
		Address: "mn1qdeadbeef",
		Balance: big.NewInt(5_000_000),
		Network: "devnet",
	}

	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &buf)
	require.NoError(t, output.NewSessionView(session.Connected, snap).Render(f))

	var decoded output.SessionView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "connected", decoded.State)
	assert.Equal(t, "mn1qdeadbeef", decoded.Address)
	assert.Equal(t, "5000000", decoded.Balance)
	assert.Equal(t, "devnet", decoded.Network)
}

func TestAnswerViewDegraded(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatText, &buf)

	answer := contracts.Answer{Value: big.NewInt(0), Degraded: true}
	require.NoError(t, output.NewAnswerView("rewards", answer).Render(f))

	assert.Contains(t, buf.String(), "rewards: 0")
	assert.Contains(t, buf.String(), "warning")
}

func TestAnswerViewValue(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatText, &buf)

	answer := contracts.Answer{Value: big.NewInt(750)}
	require.NoError(t, output.NewAnswerView("rewards", answer).Render(f))
	assert.Equal(t, "rewards: 750\n", buf.String())
}
