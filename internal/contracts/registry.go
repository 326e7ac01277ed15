// Package contracts maps the three deployed contract families to their
// circuits and exposes a typed facade over the transaction pipeline.
package contracts

import (
	"fmt"
	"math"
	"sort"

	"github.com/agnivade/levenshtein"

	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// Family identifies a deployed contract family.
type Family string

// Contract families.
const (
	FamilyDataContribution Family = "dataContribution"
	FamilyGovernance       Family = "governanceDAO"
	FamilyTreasury         Family = "incentiveTreasury"
)

// Kind distinguishes state-changing circuits from read-only ones.
type Kind int

// Operation kinds.
const (
	KindTransaction Kind = iota
	KindQuery
)

// Operation describes one circuit on a contract family.
type Operation struct {
	Name    string // Public operation name, same as the circuit name
	Family  Family
	Circuit string
	Kind    Kind

	// timeField names the param stamped with the current unix time at
	// build, for circuits that enforce freshness on-chain.
	timeField string
	validate  func(params map[string]any) error
}

// Addresses holds the deployed address of each contract family.
type Addresses struct {
	DataContribution string
	Governance       string
	Treasury         string
}

// Registry is the static operation table. Unknown operations and addresses
// are rejected here, before any session or provider interaction.
type Registry struct {
	addrs map[Family]string
	ops   map[string]*Operation
	names []string
}

// NewRegistry builds the registry over the deployed addresses.
func NewRegistry(addrs Addresses) *Registry {
	r := &Registry{
		addrs: map[Family]string{
			FamilyDataContribution: addrs.DataContribution,
			FamilyGovernance:       addrs.Governance,
			FamilyTreasury:         addrs.Treasury,
		},
		ops: make(map[string]*Operation),
	}
	for _, op := range operationTable() {
		r.ops[op.Name] = op
		r.names = append(r.names, op.Name)
	}
	sort.Strings(r.names)
	return r
}

// Operations returns the known operation names in sorted order.
func (r *Registry) Operations() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Address returns the deployed address for a family.
func (r *Registry) Address(f Family) string {
	return r.addrs[f]
}

// Resolve looks up an operation by name. Unknown names get a close-match
// suggestion when one exists.
func (r *Registry) Resolve(name string) (*Operation, error) {
	if op, ok := r.ops[name]; ok {
		return op, nil
	}

	err := shadeerr.WithDetails(shadeerr.ErrUnknownOperation, map[string]string{"operation": name})
	if suggestion := r.closest(name); suggestion != "" {
		err = shadeerr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", suggestion))
	}
	return nil, err
}

// Validate checks a request against the registry: the circuit must be
// known, the contract address must match the circuit's family, and the
// params must fit the circuit's shape.
func (r *Registry) Validate(contract, circuit string, params map[string]any) error {
	op, err := r.Resolve(circuit)
	if err != nil {
		return err
	}

	if want := r.addrs[op.Family]; contract != want {
		return shadeerr.WithDetails(shadeerr.ErrUnknownContract, map[string]string{
			"contract": contract,
			"circuit":  circuit,
		})
	}

	if op.validate != nil {
		return op.validate(params)
	}
	return nil
}

// closest returns the best fuzzy match for an unknown operation name, or
// empty when nothing is close enough to be a plausible typo.
func (r *Registry) closest(input string) string {
	const maxDistance = 4

	minDist := math.MaxInt
	var suggestion string
	for _, name := range r.names {
		dist := levenshtein.ComputeDistance(input, name)
		if dist < minDist {
			minDist = dist
			suggestion = name
		}
	}
	if minDist > maxDistance {
		return ""
	}
	return suggestion
}

// operationTable enumerates every circuit across the three families.
func operationTable() []*Operation {
	return []*Operation{
		{
			Name:     "contributeData",
			Family:   FamilyDataContribution,
			Circuit:  "contributeData",
			Kind:     KindTransaction,
			validate: validateContribution,
		},
		{
			Name:    "claimRewards",
			Family:  FamilyDataContribution,
			Circuit: "claimRewards",
			Kind:    KindTransaction,
		},
		{
			Name:    "getMyContributions",
			Family:  FamilyDataContribution,
			Circuit: "getMyContributions",
			Kind:    KindQuery,
		},
		{
			Name:    "getMyRewards",
			Family:  FamilyDataContribution,
			Circuit: "getMyRewards",
			Kind:    KindQuery,
		},
		{
			Name:      "createProposal",
			Family:    FamilyGovernance,
			Circuit:   "createProposal",
			Kind:      KindTransaction,
			timeField: "currentTime",
			validate:  validateProposal,
		},
		{
			Name:      "vote",
			Family:    FamilyGovernance,
			Circuit:   "vote",
			Kind:      KindTransaction,
			timeField: "currentTime",
			validate:  validateVote,
		},
		{
			Name:    "joinDAO",
			Family:  FamilyGovernance,
			Circuit: "joinDAO",
			Kind:    KindTransaction,
		},
		{
			Name:      "executeProposal",
			Family:    FamilyGovernance,
			Circuit:   "executeProposal",
			Kind:      KindTransaction,
			timeField: "currentTime",
			validate:  validateExecuteProposal,
		},
		{
			Name:    "getMyBalance",
			Family:  FamilyTreasury,
			Circuit: "getMyBalance",
			Kind:    KindQuery,
		},
		{
			Name:      "requestWithdrawal",
			Family:    FamilyTreasury,
			Circuit:   "requestWithdrawal",
			Kind:      KindTransaction,
			timeField: "timestamp",
			validate:  validateWithdrawal,
		},
	}
}
