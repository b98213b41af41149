/*

Ordered set of reward-source gauges with a reverse index for O(1) removal.
Storage is arena-style: a growable slice plus a handle-to-index map, with
swap-with-last removal. Iteration order is therefore not stable across
removals; no ordering guarantee is promised to callers.

*/

package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/solidex-labs/harvester/internal/chain"
	"github.com/solidex-labs/harvester/internal/logger"
	"github.com/solidex-labs/harvester/internal/types"
)

var (
	ErrZeroAddress       = errors.New("gauge address is zero")
	ErrNoContractCode    = errors.New("address has no contract code")
	ErrAlreadyRegistered = errors.New("gauge already registered")
	ErrNotRegistered     = errors.New("gauge not registered")
	ErrNoRewardToken     = errors.New("gauge exposes no reward token")
	ErrNoStakingToken    = errors.New("gauge exposes no staking token")
	ErrIndexOutOfRange   = errors.New("index out of range")
)

// Registry holds the registered gauges.
type Registry struct {
	logger zerolog.Logger
	code   chain.CodeChecker

	gauges  []chain.Gauge
	index   map[common.Address]int
	entries map[common.Address]types.GaugeEntry
}

// New creates an empty registry. The code checker guards against
// registering addresses with no deployed contract.
func New(code chain.CodeChecker) (*Registry, error) {
	if code == nil {
		return nil, errors.New("code checker cannot be nil")
	}
	return &Registry{
		logger:  logger.GetForComponent("gauge_registry"),
		code:    code,
		index:   make(map[common.Address]int),
		entries: make(map[common.Address]types.GaugeEntry),
	}, nil
}

// Add registers a gauge after validating that it is a deployed contract
// exposing non-zero reward and staking token identities. Returns the
// recorded entry with the discovered token identities.
func (r *Registry) Add(ctx context.Context, gauge chain.Gauge) (types.GaugeEntry, error) {
	if gauge == nil {
		return types.GaugeEntry{}, errors.New("gauge cannot be nil")
	}
	addr := gauge.Address()
	if addr == (common.Address{}) {
		return types.GaugeEntry{}, ErrZeroAddress
	}

	hasCode, err := r.code.HasCode(ctx, addr)
	if err != nil {
		return types.GaugeEntry{}, fmt.Errorf("code check for %s: %w", addr.Hex(), err)
	}
	if !hasCode {
		return types.GaugeEntry{}, fmt.Errorf("%w: %s", ErrNoContractCode, addr.Hex())
	}

	if _, exists := r.index[addr]; exists {
		return types.GaugeEntry{}, fmt.Errorf("%w: %s", ErrAlreadyRegistered, addr.Hex())
	}

	rewardToken, err := gauge.RewardToken(ctx)
	if err != nil {
		return types.GaugeEntry{}, errors.Join(ErrNoRewardToken, err)
	}
	if rewardToken == (common.Address{}) {
		return types.GaugeEntry{},
			fmt.Errorf("%w: %s", ErrNoRewardToken, addr.Hex())
	}

	stakingToken, err := gauge.StakingToken(ctx)
	if err != nil {
		return types.GaugeEntry{}, errors.Join(ErrNoStakingToken, err)
	}
	if stakingToken == (common.Address{}) {
		return types.GaugeEntry{},
			fmt.Errorf("%w: %s", ErrNoStakingToken, addr.Hex())
	}

	entry := types.GaugeEntry{
		Address:      addr,
		RewardToken:  rewardToken,
		StakingToken: stakingToken,
	}
	r.gauges = append(r.gauges, gauge)
	r.index[addr] = len(r.gauges) - 1
	r.entries[addr] = entry

	r.logger.Info().
		Str("gauge", addr.Hex()).
		Str("rewardToken", rewardToken.Hex()).
		Str("stakingToken", stakingToken.Hex()).
		Int("count", len(r.gauges)).
		Msg("Gauge registered")

	return entry, nil
}

// Remove deregisters a gauge in O(1) by copying the last element into the
// vacated slot and shrinking the collection. Returns the removed entry.
func (r *Registry) Remove(addr common.Address) (types.GaugeEntry, error) {
	idx, exists := r.index[addr]
	if !exists {
		return types.GaugeEntry{}, fmt.Errorf("%w: %s", ErrNotRegistered, addr.Hex())
	}
	entry := r.entries[addr]

	last := len(r.gauges) - 1
	if idx != last {
		moved := r.gauges[last]
		r.gauges[idx] = moved
		r.index[moved.Address()] = idx
	}
	r.gauges[last] = nil
	r.gauges = r.gauges[:last]
	delete(r.index, addr)
	delete(r.entries, addr)

	r.logger.Info().
		Str("gauge", addr.Hex()).
		Int("count", len(r.gauges)).
		Msg("Gauge removed")

	return entry, nil
}

// Count returns the number of registered gauges.
func (r *Registry) Count() int {
	return len(r.gauges)
}

// Contains reports whether the address is currently registered.
func (r *Registry) Contains(addr common.Address) bool {
	_, exists := r.index[addr]
	return exists
}

// At returns the gauge at position i in the current ordering.
func (r *Registry) At(i int) (chain.Gauge, error) {
	if i < 0 || i >= len(r.gauges) {
		return nil, fmt.Errorf("%w: %d (count %d)", ErrIndexOutOfRange, i, len(r.gauges))
	}
	return r.gauges[i], nil
}

// Gauge returns the registered gauge handle for an address.
func (r *Registry) Gauge(addr common.Address) (chain.Gauge, error) {
	idx, exists := r.index[addr]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, addr.Hex())
	}
	return r.gauges[idx], nil
}

// Entry returns the recorded entry for an address.
func (r *Registry) Entry(addr common.Address) (types.GaugeEntry, error) {
	entry, exists := r.entries[addr]
	if !exists {
		return types.GaugeEntry{}, fmt.Errorf("%w: %s", ErrNotRegistered, addr.Hex())
	}
	return entry, nil
}

// Gauges returns the registered gauges in current order.
func (r *Registry) Gauges() []chain.Gauge {
	out := make([]chain.Gauge, len(r.gauges))
	copy(out, r.gauges)
	return out
}

// Entries returns the recorded entries in current order.
func (r *Registry) Entries() []types.GaugeEntry {
	out := make([]types.GaugeEntry, 0, len(r.gauges))
	for _, g := range r.gauges {
		out = append(out, r.entries[g.Address()])
	}
	return out
}
