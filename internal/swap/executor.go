package swap

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/solidex-labs/harvester/internal/chain"
	"github.com/solidex-labs/harvester/internal/logger"
)

// DeadlineBuffer bounds how long a submitted swap remains valid.
const DeadlineBuffer = 300 * time.Second

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidGranularity = errors.New("granularity must be positive")
	ErrInvalidAmount      = errors.New("amount is invalid")
	ErrApprovalFailed     = errors.New("approval grant failed")
	ErrQuoteFailed        = errors.New("quote request failed")
	ErrSwapFailed         = errors.New("swap execution failed")
	ErrOutputBelowMinimum = errors.New("realized output below effective minimum")
	ErrInvalidConfig      = errors.New("executor configuration is invalid")
)

// Config holds the dependencies for creating a swap Executor.
type Config struct {
	Quoter  chain.Quoter
	Router  chain.SwapRouter
	Tokens  chain.TokenSource
	Custody common.Address // account holding the balances being converted

	// SlippageBps reads the current on-chain slippage bound before each swap.
	SlippageBps func() int64
}

// Executor wraps the quoting service and the swap-execution service into a
// single "convert amount of token A into token B with protection" operation.
type Executor struct {
	logger  zerolog.Logger
	quoter  chain.Quoter
	router  chain.SwapRouter
	tokens  chain.TokenSource
	custody common.Address
	bound   func() int64
}

// NewExecutor creates an Executor after validating its dependencies.
func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.Quoter == nil {
		return nil, fmt.Errorf("%w: quoter cannot be nil", ErrInvalidConfig)
	}
	if cfg.Router == nil {
		return nil, fmt.Errorf("%w: router cannot be nil", ErrInvalidConfig)
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("%w: token source cannot be nil", ErrInvalidConfig)
	}
	if cfg.Custody == (common.Address{}) {
		return nil, fmt.Errorf("%w: custody address cannot be zero", ErrInvalidConfig)
	}
	if cfg.SlippageBps == nil {
		return nil, fmt.Errorf("%w: slippage bound source cannot be nil", ErrInvalidConfig)
	}

	return &Executor{
		logger:  logger.GetForComponent("swap_executor"),
		quoter:  cfg.Quoter,
		router:  cfg.Router,
		tokens:  cfg.Tokens,
		custody: cfg.Custody,
		bound:   cfg.SlippageBps,
	}, nil
}

// Convert swaps amountIn of tokenIn into tokenOut through the pool selected
// by granularity, protected by both the on-chain slippage bound and an
// optional caller-supplied external minimum. Pass a zero externalMinOut when
// no off-chain estimate exists.
//
// The router's spending authority is re-granted per call for exactly
// amountIn; no standing approvals are retained between calls.
func (e *Executor) Convert(ctx context.Context, tokenIn, tokenOut common.Address, amountIn sdkmath.Int, granularity int64, externalMinOut sdkmath.Int) (sdkmath.Int, error) {
	if granularity <= 0 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d", ErrInvalidGranularity, granularity)
	}
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: amountIn must be positive", ErrInvalidAmount)
	}

	quoted, err := e.quoter.Quote(ctx, tokenIn, tokenOut, amountIn, granularity)
	if err != nil {
		return sdkmath.ZeroInt(), errors.Join(ErrQuoteFailed, err)
	}
	if quoted.IsNil() || quoted.IsZero() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s -> %s for %s",
			ErrZeroQuote, tokenIn.Hex(), tokenOut.Hex(), amountIn.String())
	}

	onChainMinOut, err := MinimumOutput(quoted, e.bound())
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	// The caller-supplied bound must never be weaker than the on-chain one.
	effectiveMinOut := onChainMinOut
	if !externalMinOut.IsNil() && externalMinOut.GT(effectiveMinOut) {
		effectiveMinOut = externalMinOut
	}

	// Approval is granted last, once the conversion is known to proceed; a
	// failed swap must not leave the router holding spending authority.
	if err := e.tokens.Token(tokenIn).Approve(ctx, e.router.Address(), amountIn); err != nil {
		return sdkmath.ZeroInt(), errors.Join(ErrApprovalFailed, err)
	}

	deadline := time.Now().Add(DeadlineBuffer)
	realized, err := e.router.Swap(ctx, chain.SwapParams{
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		Granularity: granularity,
		Recipient:   e.custody,
		Deadline:    deadline,
		AmountIn:    amountIn,
		MinOut:      effectiveMinOut,
	})
	if err != nil {
		e.revokeApproval(ctx, tokenIn)
		return sdkmath.ZeroInt(), errors.Join(ErrSwapFailed, err)
	}

	// The router is expected to enforce the minimum itself; re-validate anyway.
	if realized.LT(effectiveMinOut) {
		e.revokeApproval(ctx, tokenIn)
		return sdkmath.ZeroInt(), fmt.Errorf("%w: realized %s, minimum %s",
			ErrOutputBelowMinimum, realized.String(), effectiveMinOut.String())
	}

	e.logger.Debug().
		Str("tokenIn", tokenIn.Hex()).
		Str("tokenOut", tokenOut.Hex()).
		Str("amountIn", amountIn.String()).
		Str("quoted", quoted.String()).
		Str("minOut", effectiveMinOut.String()).
		Str("realized", realized.String()).
		Int64("granularity", granularity).
		Msg("Swap executed")

	return realized, nil
}

// revokeApproval zeroes the router's remaining allowance after a failed
// swap. Best effort: the conversion error stands either way.
func (e *Executor) revokeApproval(ctx context.Context, tokenIn common.Address) {
	if err := e.tokens.Token(tokenIn).Approve(ctx, e.router.Address(), sdkmath.ZeroInt()); err != nil {
		e.logger.Error().
			Str("tokenIn", tokenIn.Hex()).
			Err(err).
			Msg("Failed to revoke router allowance after failed swap")
	}
}

// ConvertVia performs the two-hop composition tokenIn -> via -> tokenOut.
// The realized output of hop 1 becomes the input to hop 2, and the
// external minimum (if any) applies only to the final hop's output.
func (e *Executor) ConvertVia(ctx context.Context, tokenIn, via, tokenOut common.Address, amountIn sdkmath.Int, granularityIn, granularityOut int64, externalMinOut sdkmath.Int) (sdkmath.Int, error) {
	intermediate, err := e.Convert(ctx, tokenIn, via, amountIn, granularityIn, sdkmath.ZeroInt())
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("hop 1 (%s -> %s): %w", tokenIn.Hex(), via.Hex(), err)
	}
	realized, err := e.Convert(ctx, via, tokenOut, intermediate, granularityOut, externalMinOut)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("hop 2 (%s -> %s): %w", via.Hex(), tokenOut.Hex(), err)
	}
	return realized, nil
}
