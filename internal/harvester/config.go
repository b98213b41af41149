package harvester

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/solidex-labs/harvester/internal/swap"
	"github.com/solidex-labs/harvester/internal/types"
)

var ErrInvalidHarvesterConfig = errors.New("harvester configuration is invalid")

// Config is the shared mutable configuration consumed by the orchestrator.
// It is passed by reference and mutated only through the owner-gated admin
// surface; there are no hidden process-wide singletons.
type Config struct {
	// Owner may call the admin surface.
	Owner common.Address

	// Trigger is the single address permitted to invoke the harvest and
	// distribute entry points. The zero value means the system is paused:
	// every trigger-gated call fails until the owner sets a new trigger.
	Trigger common.Address

	// SlippageBps is the on-chain slippage bound in basis points, (0, 500].
	SlippageBps int64

	// Custody is the harvester's own account: reward recipient, swap
	// recipient, and the holder whose balances are read live.
	Custody common.Address

	// Treasury receives the settlement-asset balances at the end of a
	// distribute cycle.
	Treasury common.Address

	// SettlementA is the intermediate settlement asset (two-hop routes pass
	// through it); SettlementB is the final settlement asset.
	SettlementA types.TokenInfo
	SettlementB types.TokenInfo

	// SettlementGranularity selects the pool for the A -> B hop and for
	// direct reward-token conversions during harvest.
	SettlementGranularity int64
}

// Validate checks the configuration invariants at construction time.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config cannot be nil", ErrInvalidHarvesterConfig)
	}
	if c.Owner == (common.Address{}) {
		return fmt.Errorf("%w: owner cannot be zero", ErrInvalidHarvesterConfig)
	}
	if c.Custody == (common.Address{}) {
		return fmt.Errorf("%w: custody cannot be zero", ErrInvalidHarvesterConfig)
	}
	if c.Treasury == (common.Address{}) {
		return fmt.Errorf("%w: treasury cannot be zero", ErrInvalidHarvesterConfig)
	}
	if c.SettlementA.Address == (common.Address{}) || c.SettlementB.Address == (common.Address{}) {
		return fmt.Errorf("%w: settlement asset addresses cannot be zero", ErrInvalidHarvesterConfig)
	}
	if c.SettlementA.Address == c.SettlementB.Address {
		return fmt.Errorf("%w: settlement assets must differ", ErrInvalidHarvesterConfig)
	}
	if c.SettlementGranularity <= 0 {
		return fmt.Errorf("%w: settlement granularity must be positive", ErrInvalidHarvesterConfig)
	}
	if err := swap.ValidateSlippageBps(c.SlippageBps); err != nil {
		return errors.Join(ErrInvalidHarvesterConfig, err)
	}
	return nil
}
