package contracts

import (
	"math/big"

	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// Quality scores are percentages.
const (
	minQualityScore = 0
	maxQualityScore = 100
)

func invalidParam(field, reason string) error {
	return shadeerr.WithDetails(shadeerr.ErrInvalidParameters, map[string]string{field: reason})
}

// validateContribution checks contributeData params: a non-empty data hash,
// a quality score within [0,100], and a positive timestamp.
func validateContribution(params map[string]any) error {
	hash, ok := params["dataHash"].(string)
	if !ok || hash == "" {
		return invalidParam("dataHash", "must be a non-empty hash string")
	}

	quality, ok := asInt64(params["dataQuality"])
	if !ok {
		return invalidParam("dataQuality", "must be an integer")
	}
	if quality < minQualityScore || quality > maxQualityScore {
		return invalidParam("dataQuality", "must be within [0,100]")
	}

	if ts, ok := asInt64(params["timestamp"]); !ok || ts <= 0 {
		return invalidParam("timestamp", "must be a positive unix time")
	}
	return nil
}

// validateProposal checks createProposal params. Descriptions may be empty;
// titles may not.
func validateProposal(params map[string]any) error {
	title, ok := params["title"].(string)
	if !ok || title == "" {
		return invalidParam("title", "must be a non-empty string")
	}
	if _, ok := params["description"].(string); !ok {
		return invalidParam("description", "must be a string")
	}
	return nil
}

// validateVote checks vote params. Proposal existence is a contract-level
// invariant and is deliberately not checked here.
func validateVote(params map[string]any) error {
	if id, ok := asInt64(params["proposalId"]); !ok || id < 0 {
		return invalidParam("proposalId", "must be a non-negative integer")
	}
	if _, ok := params["support"].(bool); !ok {
		return invalidParam("support", "must be a boolean")
	}
	return nil
}

func validateExecuteProposal(params map[string]any) error {
	if id, ok := asInt64(params["proposalId"]); !ok || id < 0 {
		return invalidParam("proposalId", "must be a non-negative integer")
	}
	return nil
}

// validateWithdrawal checks requestWithdrawal params: a strictly positive
// amount in smallest units.
func validateWithdrawal(params map[string]any) error {
	amount, ok := asBigInt(params["amount"])
	if !ok || amount.Sign() <= 0 {
		return invalidParam("amount", "must be a positive amount")
	}
	return nil
}

// asInt64 normalizes the numeric types a params map may carry.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
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

// asBigInt normalizes amounts, which may exceed int64 range.
func asBigInt(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return n, true
	case int:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case float64:
		return big.NewInt(int64(n)), true
	default:
		return nil, false
	}
}
