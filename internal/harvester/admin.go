package harvester

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/solidex-labs/harvester/internal/chain"
	"github.com/solidex-labs/harvester/internal/swap"
	"github.com/solidex-labs/harvester/internal/types"
)

var (
	ErrZeroAddress         = errors.New("address is zero")
	ErrZeroAmount          = errors.New("amount must be positive")
	ErrNothingToRecover    = errors.New("token balance is zero")
	ErrInsufficientBalance = errors.New("amount exceeds token balance")
	ErrInsufficientStake   = errors.New("amount exceeds staked balance")
)

// AddGauge registers a reward source. Owner only.
func (h *Harvester) AddGauge(ctx context.Context, caller common.Address, gauge chain.Gauge) (types.GaugeEntry, error) {
	if err := h.requireOwner(caller); err != nil {
		return types.GaugeEntry{}, err
	}
	entry, err := h.registry.Add(ctx, gauge)
	if err != nil {
		return types.GaugeEntry{}, err
	}
	if h.store != nil {
		if err := h.store.SaveGauge(entry); err != nil {
			h.logger.Error().Err(err).Str("gauge", entry.Address.Hex()).Msg("Failed to persist gauge")
		}
	}
	return entry, nil
}

// RemoveGauge deregisters a reward source. Owner only.
func (h *Harvester) RemoveGauge(caller common.Address, addr common.Address) (types.GaugeEntry, error) {
	if err := h.requireOwner(caller); err != nil {
		return types.GaugeEntry{}, err
	}
	entry, err := h.registry.Remove(addr)
	if err != nil {
		return types.GaugeEntry{}, err
	}
	if h.store != nil {
		if err := h.store.DeleteGauge(addr); err != nil {
			h.logger.Error().Err(err).Str("gauge", addr.Hex()).Msg("Failed to delete persisted gauge")
		}
	}
	return entry, nil
}

// AddRoute configures a swappable token. Owner only.
func (h *Harvester) AddRoute(caller common.Address, route types.RouteConfig) error {
	if err := h.requireOwner(caller); err != nil {
		return err
	}
	if err := h.routes.Add(route); err != nil {
		return err
	}
	if h.store != nil {
		if err := h.store.SaveRoute(route); err != nil {
			h.logger.Error().Err(err).Str("token", route.Token.Hex()).Msg("Failed to persist route")
		}
	}
	h.logger.Info().
		Str("token", route.Token.Hex()).
		Int64("granularity", route.Granularity).
		Bool("directToB", route.DirectToB).
		Msg("Route added")
	return nil
}

// SetRouteGranularity updates a configured token's pool granularity. Owner only.
func (h *Harvester) SetRouteGranularity(caller common.Address, token common.Address, granularity int64) error {
	if err := h.requireOwner(caller); err != nil {
		return err
	}
	if err := h.routes.SetGranularity(token, granularity); err != nil {
		return err
	}
	if h.store != nil {
		if route, ok := h.routes.Get(token); ok {
			if err := h.store.SaveRoute(route); err != nil {
				h.logger.Error().Err(err).Str("token", token.Hex()).Msg("Failed to persist route update")
			}
		}
	}
	return nil
}

// RemoveRoute deletes a token's route configuration. Owner only.
func (h *Harvester) RemoveRoute(caller common.Address, token common.Address) error {
	if err := h.requireOwner(caller); err != nil {
		return err
	}
	if err := h.routes.Remove(token); err != nil {
		return err
	}
	if h.store != nil {
		if err := h.store.DeleteRoute(token); err != nil {
			h.logger.Error().Err(err).Str("token", token.Hex()).Msg("Failed to delete persisted route")
		}
	}
	h.logger.Info().Str("token", token.Hex()).Msg("Route removed")
	return nil
}

// SetTrigger rotates the authorized trigger address. Owner only. The zero
// address is rejected here; pausing is a deliberate act via PauseTrigger.
func (h *Harvester) SetTrigger(caller common.Address, trigger common.Address) error {
	if err := h.requireOwner(caller); err != nil {
		return err
	}
	if trigger == (common.Address{}) {
		return fmt.Errorf("%w: trigger", ErrZeroAddress)
	}
	old := h.cfg.Trigger
	h.cfg.Trigger = trigger
	h.logger.Info().
		Str("old", old.Hex()).
		Str("new", trigger.Hex()).
		Msg("Authorized trigger rotated")
	return nil
}

// PauseTrigger sets the zero sentinel as the trigger, making every
// trigger-gated operation unreachable until SetTrigger is called again.
// Owner only.
func (h *Harvester) PauseTrigger(caller common.Address) error {
	if err := h.requireOwner(caller); err != nil {
		return err
	}
	old := h.cfg.Trigger
	h.cfg.Trigger = common.Address{}
	h.logger.Warn().
		Str("old", old.Hex()).
		Msg("Trigger cleared; harvest operations paused")
	return nil
}

// SetSlippageBps updates the on-chain slippage bound. Owner only.
func (h *Harvester) SetSlippageBps(caller common.Address, bps int64) error {
	if err := h.requireOwner(caller); err != nil {
		return err
	}
	if err := swap.ValidateSlippageBps(bps); err != nil {
		return err
	}
	old := h.cfg.SlippageBps
	h.cfg.SlippageBps = bps
	h.logger.Info().
		Int64("old", old).
		Int64("new", bps).
		Msg("Slippage bound updated")
	return nil
}

// RecoverToken transfers a stuck token balance to a recipient. Owner only.
// An amount of zero means the full current balance.
func (h *Harvester) RecoverToken(ctx context.Context, caller common.Address, token, recipient common.Address, amount sdkmath.Int) (sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()
	if err := h.requireOwner(caller); err != nil {
		return zero, err
	}
	if token == (common.Address{}) {
		return zero, fmt.Errorf("%w: token", ErrZeroAddress)
	}
	if recipient == (common.Address{}) {
		return zero, fmt.Errorf("%w: recipient", ErrZeroAddress)
	}
	if amount.IsNil() || amount.IsNegative() {
		return zero, fmt.Errorf("%w: recovery amount cannot be negative", ErrZeroAmount)
	}

	handle := h.tokens.Token(token)
	balance, err := handle.BalanceOf(ctx, h.cfg.Custody)
	if err != nil {
		return zero, fmt.Errorf("balance of %s: %w", token.Hex(), err)
	}
	if balance.IsZero() {
		return zero, fmt.Errorf("%w: %s", ErrNothingToRecover, token.Hex())
	}

	// Zero is the full-balance sentinel; an explicit amount above the
	// balance is a typo, not a request to drain everything.
	if amount.IsZero() {
		amount = balance
	} else if amount.GT(balance) {
		return zero, fmt.Errorf("%w: requested %s, balance %s", ErrInsufficientBalance, amount.String(), balance.String())
	}
	if err := handle.Transfer(ctx, recipient, amount); err != nil {
		return zero, fmt.Errorf("recover %s: %w", token.Hex(), err)
	}

	h.logger.Info().
		Str("token", token.Hex()).
		Str("recipient", recipient.Hex()).
		Str("amount", amount.String()).
		Msg("Token recovered")
	return amount, nil
}

// WithdrawFromGauge pulls a staked position out of a registered gauge and
// forwards the staking tokens to a recipient, for migrating a liquidity
// position. Owner only.
func (h *Harvester) WithdrawFromGauge(ctx context.Context, caller common.Address, gaugeAddr common.Address, amount sdkmath.Int, recipient common.Address) error {
	if err := h.requireOwner(caller); err != nil {
		return err
	}
	if recipient == (common.Address{}) {
		return fmt.Errorf("%w: recipient", ErrZeroAddress)
	}
	if amount.IsNil() || !amount.IsPositive() {
		return ErrZeroAmount
	}

	gauge, err := h.registry.Gauge(gaugeAddr)
	if err != nil {
		return err
	}
	entry, err := h.registry.Entry(gaugeAddr)
	if err != nil {
		return err
	}

	staked, err := gauge.StakedBalance(ctx, h.cfg.Custody)
	if err != nil {
		return fmt.Errorf("staked balance at %s: %w", gaugeAddr.Hex(), err)
	}
	if amount.GT(staked) {
		return fmt.Errorf("%w: requested %s, staked %s", ErrInsufficientStake, amount.String(), staked.String())
	}

	if err := gauge.Withdraw(ctx, amount); err != nil {
		return fmt.Errorf("withdraw from %s: %w", gaugeAddr.Hex(), err)
	}
	if err := h.tokens.Token(entry.StakingToken).Transfer(ctx, recipient, amount); err != nil {
		return fmt.Errorf("forward staking token to %s: %w", recipient.Hex(), err)
	}

	h.logger.Info().
		Str("gauge", gaugeAddr.Hex()).
		Str("recipient", recipient.Hex()).
		Str("amount", amount.String()).
		Msg("Staked position withdrawn")
	return nil
}
