/*

HarvestOrchestrator: the two-phase claim/distribute protocol over the gauge
registry and the route table. States are implicit in the call sequence
(Idle -> Claimed -> Routed -> Distributed) and nothing is carried between
cycles except registry and configuration contents; every balance is read
live from the token contracts, never cached across an external call.

The claim and distribute entry points are gated behind a single authorized
trigger address. An unrestricted combined entry point would let anyone force
repeated claim+swap cycles and burn the collected rewards on swap fees; the
gate plus the two-step split caps this to one actor who controls cadence.

*/

package harvester

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/solidex-labs/harvester/internal/chain"
	"github.com/solidex-labs/harvester/internal/logger"
	"github.com/solidex-labs/harvester/internal/registry"
	"github.com/solidex-labs/harvester/internal/routing"
	"github.com/solidex-labs/harvester/internal/swap"
	"github.com/solidex-labs/harvester/internal/types"
)

// Error definitions. Authorization failures are distinct per gate so a
// caller can tell an owner check from a trigger check.
var (
	ErrNotOwner            = errors.New("caller is not the owner")
	ErrNotTrigger          = errors.New("caller is not the authorized trigger")
	ErrNoGauges            = errors.New("no gauges registered")
	ErrNothingToDistribute = errors.New("both settlement balances are zero")
	ErrInvalidDeps         = errors.New("harvester dependencies are invalid")
	ErrStagingFailed       = errors.New("distribution staging rejected")
)

// Store persists registry, route and cycle state across restarts. All
// methods are optional side channels: a nil Store disables persistence.
type Store interface {
	SaveGauge(entry types.GaugeEntry) error
	DeleteGauge(addr common.Address) error
	SaveRoute(route types.RouteConfig) error
	DeleteRoute(token common.Address) error
	NextCycleNumber() (int, error)
	SaveCycleReport(report types.CycleReport) (int64, error)
}

// Deps holds the collaborators for creating a Harvester.
type Deps struct {
	Registry    *registry.Registry
	Routes      *routing.Table
	Executor    *swap.Executor
	Tokens      chain.TokenSource
	Distributor chain.Distributor
	Store       Store // may be nil
}

// Harvester drives the claim / convert / distribute cycle.
type Harvester struct {
	logger      zerolog.Logger
	cfg         *Config
	registry    *registry.Registry
	routes      *routing.Table
	executor    *swap.Executor
	tokens      chain.TokenSource
	distributor chain.Distributor
	store       Store

	cycleCount int
}

// New creates a Harvester after validating configuration and dependencies.
func New(cfg *Config, deps Deps) (*Harvester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("%w: registry cannot be nil", ErrInvalidDeps)
	}
	if deps.Routes == nil {
		return nil, fmt.Errorf("%w: route table cannot be nil", ErrInvalidDeps)
	}
	if deps.Executor == nil {
		return nil, fmt.Errorf("%w: swap executor cannot be nil", ErrInvalidDeps)
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("%w: token source cannot be nil", ErrInvalidDeps)
	}
	if deps.Distributor == nil {
		return nil, fmt.Errorf("%w: distributor cannot be nil", ErrInvalidDeps)
	}

	return &Harvester{
		logger:      logger.GetForComponent("harvester"),
		cfg:         cfg,
		registry:    deps.Registry,
		routes:      deps.Routes,
		executor:    deps.Executor,
		tokens:      deps.Tokens,
		distributor: deps.Distributor,
		store:       deps.Store,
	}, nil
}

// Config returns the shared configuration.
func (h *Harvester) Config() *Config { return h.cfg }

// Registry returns the gauge registry.
func (h *Harvester) Registry() *registry.Registry { return h.registry }

// Routes returns the route table.
func (h *Harvester) Routes() *routing.Table { return h.routes }

func (h *Harvester) requireOwner(caller common.Address) error {
	if caller != h.cfg.Owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller.Hex())
	}
	return nil
}

func (h *Harvester) requireTrigger(caller common.Address) error {
	// A zero trigger is the pause sentinel: nothing satisfies the gate.
	if h.cfg.Trigger == (common.Address{}) || caller != h.cfg.Trigger {
		return fmt.Errorf("%w: %s", ErrNotTrigger, caller.Hex())
	}
	return nil
}

// Claim invokes every registered gauge's reward-claim entry point with the
// harvester as recipient. A single gauge's failure is isolated: it is
// recorded in the report and the batch continues, so one broken reward
// source cannot block harvesting from the others.
func (h *Harvester) Claim(ctx context.Context, caller common.Address) (types.ClaimReport, error) {
	if err := h.requireTrigger(caller); err != nil {
		return types.ClaimReport{}, err
	}
	if h.registry.Count() == 0 {
		return types.ClaimReport{}, ErrNoGauges
	}

	report := types.ClaimReport{}
	for _, gauge := range h.registry.Gauges() {
		entry, err := h.registry.Entry(gauge.Address())
		if err != nil {
			// Registry changed mid-iteration cannot happen in the serialized
			// execution model; treat as a claim failure if it ever does.
			report.Outcomes = append(report.Outcomes, types.ClaimOutcome{
				Gauge: gauge.Address(), Error: err.Error(),
			})
			continue
		}
		outcome := types.ClaimOutcome{
			Gauge:       entry.Address,
			RewardToken: entry.RewardToken,
		}
		if err := gauge.ClaimRewards(ctx, h.cfg.Custody); err != nil {
			outcome.Error = err.Error()
			h.logger.Warn().
				Str("gauge", entry.Address.Hex()).
				Err(err).
				Msg("Gauge claim failed; continuing with remaining gauges")
		} else {
			outcome.Claimed = true
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	h.logger.Info().
		Int("gauges", len(report.Outcomes)).
		Int("claimed", report.Claimed()).
		Int("failed", report.Failed()).
		Msg("Claim batch complete")

	return report, nil
}

// HarvestAndConvert claims each gauge's rewards and immediately converts
// any positive reward-token delta straight to settlement asset B. Gauges
// with a zero delta are skipped without error. Exposed separately from
// Distribute for operational testing.
func (h *Harvester) HarvestAndConvert(ctx context.Context, caller common.Address) error {
	if err := h.requireTrigger(caller); err != nil {
		return err
	}
	if h.registry.Count() == 0 {
		return ErrNoGauges
	}

	for _, entry := range h.registry.Entries() {
		gauge, err := h.registry.Gauge(entry.Address)
		if err != nil {
			return err
		}
		rewardToken := h.tokens.Token(entry.RewardToken)

		before, err := rewardToken.BalanceOf(ctx, h.cfg.Custody)
		if err != nil {
			return fmt.Errorf("balance of %s before claim: %w", entry.RewardToken.Hex(), err)
		}
		if err := gauge.ClaimRewards(ctx, h.cfg.Custody); err != nil {
			h.logger.Warn().
				Str("gauge", entry.Address.Hex()).
				Err(err).
				Msg("Gauge claim failed during harvest; continuing")
			continue
		}
		after, err := rewardToken.BalanceOf(ctx, h.cfg.Custody)
		if err != nil {
			return fmt.Errorf("balance of %s after claim: %w", entry.RewardToken.Hex(), err)
		}

		delta := after.Sub(before)
		if !delta.IsPositive() {
			continue
		}
		if entry.RewardToken == h.cfg.SettlementA.Address || entry.RewardToken == h.cfg.SettlementB.Address {
			// Already a settlement asset; nothing to convert.
			continue
		}

		granularity := h.cfg.SettlementGranularity
		if route, ok := h.routes.Get(entry.RewardToken); ok {
			granularity = route.Granularity
		}
		if _, err := h.executor.Convert(ctx, entry.RewardToken, h.cfg.SettlementB.Address, delta, granularity, sdkmath.ZeroInt()); err != nil {
			return fmt.Errorf("convert harvested %s: %w", entry.RewardToken.Hex(), err)
		}
	}
	return nil
}

// Distribute converts every configured token balance into the settlement
// assets, transfers the resulting balances to the treasury, and notifies
// the distribution module with the exact amounts. A market failure on any
// token aborts the whole cycle; partial distribution would understate the
// round. Fails when both settlement balances end up zero.
func (h *Harvester) Distribute(ctx context.Context, caller common.Address) (sdkmath.Int, sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()
	if err := h.requireTrigger(caller); err != nil {
		return zero, zero, err
	}

	for _, route := range h.routes.Routes() {
		token := h.tokens.Token(route.Token)
		balance, err := token.BalanceOf(ctx, h.cfg.Custody)
		if err != nil {
			return zero, zero, fmt.Errorf("balance of %s: %w", route.Token.Hex(), err)
		}
		// Tokens accrue unevenly week to week; a zero balance is not an error.
		if balance.IsZero() {
			continue
		}

		if route.DirectToB {
			_, err = h.executor.Convert(ctx, route.Token, h.cfg.SettlementB.Address, balance, route.Granularity, zero)
		} else {
			_, err = h.executor.ConvertVia(ctx, route.Token, h.cfg.SettlementA.Address, h.cfg.SettlementB.Address,
				balance, route.Granularity, h.cfg.SettlementGranularity, zero)
		}
		if err != nil {
			return zero, zero, fmt.Errorf("route %s: %w", route.Token.Hex(), err)
		}
	}

	tokenA := h.tokens.Token(h.cfg.SettlementA.Address)
	tokenB := h.tokens.Token(h.cfg.SettlementB.Address)

	balanceA, err := tokenA.BalanceOf(ctx, h.cfg.Custody)
	if err != nil {
		return zero, zero, fmt.Errorf("settlement A balance: %w", err)
	}
	balanceB, err := tokenB.BalanceOf(ctx, h.cfg.Custody)
	if err != nil {
		return zero, zero, fmt.Errorf("settlement B balance: %w", err)
	}
	if balanceA.IsZero() && balanceB.IsZero() {
		return zero, zero, ErrNothingToDistribute
	}

	if balanceA.IsPositive() {
		if err := tokenA.Transfer(ctx, h.cfg.Treasury, balanceA); err != nil {
			return zero, zero, fmt.Errorf("transfer settlement A: %w", err)
		}
	}
	if balanceB.IsPositive() {
		if err := tokenB.Transfer(ctx, h.cfg.Treasury, balanceB); err != nil {
			return zero, zero, fmt.Errorf("transfer settlement B: %w", err)
		}
	}

	// A staging rejection means the downstream module is not ready; surface
	// it rather than forcing partial progress.
	if err := h.distributor.StageRewards(ctx, balanceA, balanceB); err != nil {
		return zero, zero, errors.Join(ErrStagingFailed, err)
	}

	h.logger.Info().
		Str("amountA", balanceA.String()).
		Str("amountB", balanceB.String()).
		Str("treasury", h.cfg.Treasury.Hex()).
		Msg("Distribution cycle complete")

	return balanceA, balanceB, nil
}
