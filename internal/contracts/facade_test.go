package contracts

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shade/internal/pipeline"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// fakeExec records the last request and plays back scripted results.
type fakeExec struct {
	lastExec    *pipeline.Request
	lastQuery   *pipeline.Request
	receipt     *pipeline.Receipt
	execErr     error
	queryResult *pipeline.QueryResult
	queryErr    error
}

func (f *fakeExec) Execute(_ context.Context, req pipeline.Request) (*pipeline.Receipt, error) {
	f.lastExec = &req
	if f.execErr != nil {
		return nil, f.execErr
	}
	if f.receipt != nil {
		return f.receipt, nil
	}
	return &pipeline.Receipt{CorrelationID: "req-test", TxHash: "0xhash", Status: pipeline.StatusPending}, nil
}

func (f *fakeExec) Query(_ context.Context, req pipeline.Request) (*pipeline.QueryResult, error) {
	f.lastQuery = &req
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryResult != nil {
		return f.queryResult, nil
	}
	return &pipeline.QueryResult{CorrelationID: "req-test", Value: big.NewInt(0)}, nil
}

var frozenTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestFacade() (*Facade, *fakeExec) {
	exec := &fakeExec{}
	f := NewFacade(NewRegistry(Addresses{
		DataContribution: "0200dc00",
		Governance:       "0200da00",
		Treasury:         "0200ea00",
	}), exec, nil)
	f.now = func() time.Time { return frozenTime }
	return f, exec
}

func TestContributeDataBuildsRequest(t *testing.T) {
	t.Parallel()
	f, exec := newTestFacade()

	at := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)
	receipt, err := f.ContributeData(context.Background(), "0xdeadbeef", 85, at)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusPending, receipt.Status)

	require.NotNil(t, exec.lastExec)
	assert.Equal(t, "0200dc00", exec.lastExec.Contract)
	assert.Equal(t, "contributeData", exec.lastExec.Circuit)
	assert.Equal(t, "0xdeadbeef", exec.lastExec.Params["dataHash"])
	assert.Equal(t, 85, exec.lastExec.Params["dataQuality"])
	assert.Equal(t, at.Unix(), exec.lastExec.Params["timestamp"])
}

func TestContributeDataStampsZeroTimestamp(t *testing.T) {
	t.Parallel()
	f, exec := newTestFacade()

	_, err := f.ContributeData(context.Background(), "0xdeadbeef", 85, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, frozenTime.Unix(), exec.lastExec.Params["timestamp"])
}

func TestCreateProposalStampsCurrentTime(t *testing.T) {
	t.Parallel()
	f, exec := newTestFacade()

	_, err := f.CreateProposal(context.Background(), "raise quality floor", "minimum score 60")
	require.NoError(t, err)

	assert.Equal(t, "0200da00", exec.lastExec.Contract)
	assert.Equal(t, "createProposal", exec.lastExec.Circuit)
	assert.Equal(t, "raise quality floor", exec.lastExec.Params["title"])
	assert.Equal(t, frozenTime.Unix(), exec.lastExec.Params["currentTime"])
}

func TestVoteStampsCurrentTime(t *testing.T) {
	t.Parallel()
	f, exec := newTestFacade()

	_, err := f.Vote(context.Background(), 7, true)
	require.NoError(t, err)

	assert.Equal(t, "vote", exec.lastExec.Circuit)
	assert.Equal(t, uint64(7), exec.lastExec.Params["proposalId"])
	assert.Equal(t, true, exec.lastExec.Params["support"])
	assert.Equal(t, frozenTime.Unix(), exec.lastExec.Params["currentTime"])
}

func TestExecuteProposalStampsCurrentTime(t *testing.T) {
	t.Parallel()
	f, exec := newTestFacade()

	_, err := f.ExecuteProposal(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, frozenTime.Unix(), exec.lastExec.Params["currentTime"])
}

func TestJoinDAOAndClaimRewardsCarryNoExtraParams(t *testing.T) {
	t.Parallel()
	f, exec := newTestFacade()

	_, err := f.JoinDAO(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "joinDAO", exec.lastExec.Circuit)
	assert.Empty(t, exec.lastExec.Params)

	_, err = f.ClaimRewards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "claimRewards", exec.lastExec.Circuit)
	assert.Empty(t, exec.lastExec.Params)
}

func TestRequestWithdrawalStampsTimestamp(t *testing.T) {
	t.Parallel()
	f, exec := newTestFacade()

	amount := big.NewInt(250_000)
	_, err := f.RequestWithdrawal(context.Background(), amount)
	require.NoError(t, err)

	assert.Equal(t, "0200ea00", exec.lastExec.Contract)
	assert.Equal(t, "requestWithdrawal", exec.lastExec.Circuit)
	assert.Equal(t, amount, exec.lastExec.Params["amount"])
	assert.Equal(t, frozenTime.Unix(), exec.lastExec.Params["timestamp"])
}

func TestQueryReturnsValue(t *testing.T) {
	t.Parallel()
	f, exec := newTestFacade()
	exec.queryResult = &pipeline.QueryResult{Value: big.NewInt(12), Stale: true}

	answer, err := f.GetMyContributions(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 12, answer.Value.Int64())
	assert.True(t, answer.Stale)
	assert.False(t, answer.Degraded)
	assert.Equal(t, "getMyContributions", exec.lastQuery.Circuit)
	assert.Equal(t, "0200dc00", exec.lastQuery.Contract)
}

func TestQueryDegradesToZeroOnFailure(t *testing.T) {
	t.Parallel()
	f, exec := newTestFacade()
	exec.queryErr = assert.AnError

	for _, query := range []func(context.Context) (*Answer, error){
		f.GetMyContributions, f.GetMyRewards, f.GetMyBalance,
	} {
		answer, err := query(context.Background())
		require.NoError(t, err, "query failures degrade instead of erroring")
		assert.Zero(t, answer.Value.Sign())
		assert.True(t, answer.Degraded)
	}
}

func TestQueryMissingSessionStillErrors(t *testing.T) {
	t.Parallel()
	f, exec := newTestFacade()
	exec.queryErr = shadeerr.ErrNotConnected

	_, err := f.GetMyBalance(context.Background())
	require.ErrorIs(t, err, shadeerr.ErrNotConnected)
}

func TestQueryRoutesBalanceToTreasury(t *testing.T) {
	t.Parallel()
	f, exec := newTestFacade()

	_, err := f.GetMyBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0200ea00", exec.lastQuery.Contract)
	assert.Equal(t, "getMyBalance", exec.lastQuery.Circuit)
}
