/*

Persistent per-token swap routing configuration. The owner curates which
collected tokens are swappable, through which pool granularity, and whether
the conversion goes straight to settlement B or two-hop via settlement A.
Removal mirrors the gauge registry's swap-with-last pattern.

*/

package routing

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/solidex-labs/harvester/internal/types"
)

var (
	ErrZeroToken          = errors.New("token address is zero")
	ErrSettlementToken    = errors.New("settlement assets cannot be routed")
	ErrAlreadyConfigured  = errors.New("token already configured")
	ErrNotConfigured      = errors.New("token not configured")
	ErrInvalidGranularity = errors.New("granularity must be positive")
	ErrInvalidSettlement  = errors.New("settlement asset pair is invalid")
)

// Table maps swappable tokens to their route configuration.
type Table struct {
	settlementA common.Address
	settlementB common.Address

	tokens []common.Address
	index  map[common.Address]int
	routes map[common.Address]types.RouteConfig
}

// New creates an empty table bound to the two settlement assets.
func New(settlementA, settlementB common.Address) (*Table, error) {
	if settlementA == (common.Address{}) || settlementB == (common.Address{}) {
		return nil, fmt.Errorf("%w: settlement addresses cannot be zero", ErrInvalidSettlement)
	}
	if settlementA == settlementB {
		return nil, fmt.Errorf("%w: settlement assets must differ", ErrInvalidSettlement)
	}
	return &Table{
		settlementA: settlementA,
		settlementB: settlementB,
		index:       make(map[common.Address]int),
		routes:      make(map[common.Address]types.RouteConfig),
	}, nil
}

// Add configures a new swappable token. The settlement assets themselves
// are never insertable: routing one into itself is meaningless.
func (t *Table) Add(route types.RouteConfig) error {
	if route.Token == (common.Address{}) {
		return ErrZeroToken
	}
	if route.Token == t.settlementA || route.Token == t.settlementB {
		return fmt.Errorf("%w: %s", ErrSettlementToken, route.Token.Hex())
	}
	if _, exists := t.index[route.Token]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyConfigured, route.Token.Hex())
	}
	if route.Granularity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidGranularity, route.Granularity)
	}

	t.tokens = append(t.tokens, route.Token)
	t.index[route.Token] = len(t.tokens) - 1
	t.routes[route.Token] = route
	return nil
}

// SetGranularity updates the pool granularity of a configured token.
func (t *Table) SetGranularity(token common.Address, granularity int64) error {
	route, exists := t.routes[token]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotConfigured, token.Hex())
	}
	if granularity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidGranularity, granularity)
	}
	route.Granularity = granularity
	t.routes[token] = route
	return nil
}

// Remove deletes a token's route in O(1) via swap-with-last removal.
func (t *Table) Remove(token common.Address) error {
	idx, exists := t.index[token]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotConfigured, token.Hex())
	}

	last := len(t.tokens) - 1
	if idx != last {
		moved := t.tokens[last]
		t.tokens[idx] = moved
		t.index[moved] = idx
	}
	t.tokens = t.tokens[:last]
	delete(t.index, token)
	delete(t.routes, token)
	return nil
}

// Get returns the route configuration for a token, if configured.
func (t *Table) Get(token common.Address) (types.RouteConfig, bool) {
	route, exists := t.routes[token]
	return route, exists
}

// Count returns the number of configured tokens.
func (t *Table) Count() int {
	return len(t.tokens)
}

// Tokens returns the configured token addresses in current order.
func (t *Table) Tokens() []common.Address {
	out := make([]common.Address, len(t.tokens))
	copy(out, t.tokens)
	return out
}

// Routes returns the route configurations in current order.
func (t *Table) Routes() []types.RouteConfig {
	out := make([]types.RouteConfig, 0, len(t.tokens))
	for _, token := range t.tokens {
		out = append(out, t.routes[token])
	}
	return out
}

// SettlementA returns the intermediate settlement asset.
func (t *Table) SettlementA() common.Address { return t.settlementA }

// SettlementB returns the final settlement asset.
func (t *Table) SettlementB() common.Address { return t.settlementB }
