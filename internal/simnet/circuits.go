package simnet

import (
	"math/big"
)

// Circuit economics. Rewards scale linearly with the reported quality
// score; claiming moves the accumulated rewards into the treasury balance,
// which withdrawals then draw down.
const (
	rewardPerQualityPoint = 10
	votingPeriodSeconds   = 7 * 24 * 60 * 60
)

// applyLocked runs a confirmed transaction's circuit against ledger state.
// It returns an empty string on success or the on-chain rejection reason.
// Caller holds l.mu; this is reached exactly once per transaction.
func (l *Ledger) applyLocked(env Envelope) string {
	intent := env.Intent
	acct := l.accountLocked(env.Caller)

	switch {
	case intent.Contract == l.cfg.Addresses.DataContribution:
		return l.applyDataContribution(acct, intent.Circuit, intent.Params)
	case intent.Contract == l.cfg.Addresses.Governance:
		return l.applyGovernance(acct, env.Caller, intent.Circuit, intent.Params)
	case intent.Contract == l.cfg.Addresses.Treasury:
		return l.applyTreasury(acct, intent.Circuit, intent.Params)
	default:
		return "unknown contract address"
	}
}

func (l *Ledger) applyDataContribution(acct *account, circuit string, params map[string]any) string {
	switch circuit {
	case "contributeData":
		hash, _ := params["dataHash"].(string)
		if hash == "" {
			return "empty data hash"
		}
		quality, ok := paramInt64(params, "dataQuality")
		if !ok || quality < 0 || quality > 100 {
			return "quality score out of range"
		}
		acct.contributions++
		acct.rewards.Add(acct.rewards, big.NewInt(quality*rewardPerQualityPoint))
		return ""

	case "claimRewards":
		if acct.rewards.Sign() == 0 {
			return "no rewards to claim"
		}
		acct.treasury.Add(acct.treasury, acct.rewards)
		acct.rewards.SetInt64(0)
		return ""

	default:
		return "unknown circuit " + circuit
	}
}

func (l *Ledger) applyGovernance(acct *account, caller, circuit string, params map[string]any) string {
	switch circuit {
	case "joinDAO":
		if acct.member {
			return "already a DAO member"
		}
		acct.member = true
		return ""

	case "createProposal":
		if !acct.member {
			return "caller is not a DAO member"
		}
		title, _ := params["title"].(string)
		if title == "" {
			return "empty proposal title"
		}
		now, ok := paramInt64(params, "currentTime")
		if !ok {
			return "missing currentTime"
		}
		l.nextID++
		l.proposals[l.nextID] = &proposal{
			id:        l.nextID,
			title:     title,
			createdAt: now,
			voters:    make(map[string]bool),
		}
		return ""

	case "vote":
		if !acct.member {
			return "caller is not a DAO member"
		}
		id, ok := paramInt64(params, "proposalId")
		if !ok || id < 0 {
			return "invalid proposal id"
		}
		p, exists := l.proposals[uint64(id)]
		if !exists {
			return "unknown proposal"
		}
		now, _ := paramInt64(params, "currentTime")
		if now > p.createdAt+votingPeriodSeconds {
			return "voting period has closed"
		}
		if p.voters[caller] {
			return "caller has already voted"
		}
		p.voters[caller] = true
		support, _ := params["support"].(bool)
		if support {
			p.yes++
		} else {
			p.no++
		}
		return ""

	case "executeProposal":
		id, ok := paramInt64(params, "proposalId")
		if !ok || id < 0 {
			return "invalid proposal id"
		}
		p, exists := l.proposals[uint64(id)]
		if !exists {
			return "unknown proposal"
		}
		if p.executed {
			return "proposal already executed"
		}
		now, _ := paramInt64(params, "currentTime")
		if now <= p.createdAt+votingPeriodSeconds {
			return "voting period still open"
		}
		p.executed = true
		return ""

	default:
		return "unknown circuit " + circuit
	}
}

func (l *Ledger) applyTreasury(acct *account, circuit string, params map[string]any) string {
	switch circuit {
	case "requestWithdrawal":
		amount, ok := paramBigInt(params, "amount")
		if !ok || amount.Sign() <= 0 {
			return "invalid withdrawal amount"
		}
		if acct.treasury.Cmp(amount) < 0 {
			return "insufficient treasury balance"
		}
		acct.treasury.Sub(acct.treasury, amount)
		return ""

	default:
		return "unknown circuit " + circuit
	}
}

// paramInt64 reads a numeric param. Envelopes that crossed a JSON boundary
// carry numbers as float64.
func paramInt64(params map[string]any, key string) (int64, bool) {
	switch n := params[key].(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func paramBigInt(params map[string]any, key string) (*big.Int, bool) {
	switch n := params[key].(type) {
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return n, true
	case string:
		v, ok := new(big.Int).SetString(n, 10)
		return v, ok
	case int:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case float64:
		return big.NewInt(int64(n)), true
	default:
		return nil, false
	}
}
