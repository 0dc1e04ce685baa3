package engine

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/talgya/tradesim/internal/economy"
)

// ErrUnknownPolicy is returned for an unrecognised ranking policy name.
var ErrUnknownPolicy = errors.New("unknown ranking policy")

// Policy orders (and optionally prunes) scored options before the walker
// commits the first one.
type Policy string

const (
	PolicyStd                   Policy = "std"
	PolicyCreateFirst           Policy = "create_first"
	PolicyTransferFirst         Policy = "transfer_first"
	PolicyUtilityFirst          Policy = "utility_first"
	PolicyUtilityLast           Policy = "utility_last"
	PolicyUtilityFirstAndReduce Policy = "utility_first_and_reduce"
	PolicyRandom                Policy = "random"
	PolicyRandomAndReduce       Policy = "random_and_reduce"
)

// Policies lists every recognised policy.
var Policies = []Policy{
	PolicyStd,
	PolicyCreateFirst,
	PolicyTransferFirst,
	PolicyUtilityFirst,
	PolicyUtilityLast,
	PolicyUtilityFirstAndReduce,
	PolicyRandom,
	PolicyRandomAndReduce,
}

// minKeptAfterReduce is the smallest list a reduction may leave behind.
const minKeptAfterReduce = 4

// ParsePolicy validates a policy name.
func ParsePolicy(name string) (Policy, error) {
	for _, p := range Policies {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Rank reorders opts in place according to the policy and returns the
// resulting list, which may be shorter for the reducing policies.
func (p Policy) Rank(opts []ScoredOption, rng *rand.Rand, reduceFraction float64) []ScoredOption {
	switch p {
	case PolicyStd:
	case PolicyCreateFirst:
		sort.SliceStable(opts, func(i, j int) bool {
			return opts[i].Action.Kind() == economy.KindCreate && opts[j].Action.Kind() != economy.KindCreate
		})
	case PolicyTransferFirst:
		sort.SliceStable(opts, func(i, j int) bool {
			return opts[i].Action.Kind() == economy.KindTransfer && opts[j].Action.Kind() != economy.KindTransfer
		})
	case PolicyUtilityFirst:
		sort.SliceStable(opts, func(i, j int) bool { return opts[i].Score > opts[j].Score })
	case PolicyUtilityLast:
		sort.SliceStable(opts, func(i, j int) bool { return opts[i].Score < opts[j].Score })
	case PolicyUtilityFirstAndReduce:
		sort.SliceStable(opts, func(i, j int) bool { return opts[i].Score > opts[j].Score })
		opts = reduce(opts, rng, reduceFraction)
	case PolicyRandom:
		rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	case PolicyRandomAndReduce:
		opts = reduce(opts, rng, reduceFraction)
		rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	}
	return opts
}

// reduce drops ⌊len×fraction⌋ options picked uniformly at random, keeping
// the order of the survivors. Nothing is dropped if fewer than
// minKeptAfterReduce would remain.
func reduce(opts []ScoredOption, rng *rand.Rand, fraction float64) []ScoredOption {
	drop := int(math.Floor(float64(len(opts)) * fraction))
	if drop <= 0 || len(opts)-drop < minKeptAfterReduce {
		return opts
	}

	dropped := make(map[int]bool, drop)
	for _, i := range rng.Perm(len(opts))[:drop] {
		dropped[i] = true
	}
	kept := make([]ScoredOption, 0, len(opts)-drop)
	for i, o := range opts {
		if !dropped[i] {
			kept = append(kept, o)
		}
	}
	return kept
}
