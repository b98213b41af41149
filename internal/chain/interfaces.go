package chain

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// Gauge defines the interface for interacting with a single reward source.
// This interface abstracts away the specific implementation details of the
// gauge contract, allowing for different implementations (live, in-memory, etc.).
type Gauge interface {
	// Address returns the gauge contract address.
	Address() common.Address

	// RewardToken returns the token the gauge pays out.
	RewardToken(ctx context.Context) (common.Address, error)

	// StakingToken returns the token the gauge accepts for staking.
	StakingToken(ctx context.Context) (common.Address, error)

	// StakedBalance returns the amount of staking token the account has deposited.
	StakedBalance(ctx context.Context, account common.Address) (sdkmath.Int, error)

	// Earned returns the account's accrued, unclaimed rewards.
	Earned(ctx context.Context, account common.Address) (sdkmath.Int, error)

	// ClaimRewards releases the account's accrued rewards to the recipient.
	ClaimRewards(ctx context.Context, recipient common.Address) error

	// Withdraw removes staked tokens from the gauge to the caller.
	Withdraw(ctx context.Context, amount sdkmath.Int) error

	// Deposit stakes tokens into the gauge on behalf of the recipient.
	Deposit(ctx context.Context, amount sdkmath.Int, recipient common.Address) error
}

// Token is the standard balance/transfer/allowance surface of a handled token.
type Token interface {
	Address() common.Address
	BalanceOf(ctx context.Context, account common.Address) (sdkmath.Int, error)
	Transfer(ctx context.Context, to common.Address, amount sdkmath.Int) error
	Approve(ctx context.Context, spender common.Address, amount sdkmath.Int) error
}

// TokenSource resolves token handles by address.
type TokenSource interface {
	Token(addr common.Address) Token
}

// Quoter is the external quoting service. A zero quote means no viable path.
type Quoter interface {
	Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn sdkmath.Int, granularity int64) (sdkmath.Int, error)
}

// SwapParams carries everything the swap-execution service needs for one conversion.
type SwapParams struct {
	TokenIn     common.Address
	TokenOut    common.Address
	Granularity int64
	Recipient   common.Address
	Deadline    time.Time
	AmountIn    sdkmath.Int
	MinOut      sdkmath.Int
}

// SwapRouter is the external swap-execution service. It performs the
// conversion and returns the realized output, enforcing MinOut itself.
type SwapRouter interface {
	Address() common.Address
	Swap(ctx context.Context, params SwapParams) (sdkmath.Int, error)
}

// Distributor is the downstream rewards-staging module. StageRewards is
// expected to reject while a previous round is not yet finalized; that
// rejection is surfaced, not retried.
type Distributor interface {
	StageRewards(ctx context.Context, amountA, amountB sdkmath.Int) error
}

// CodeChecker reports whether an address has executable contract code.
// The registry uses it to reject misconfigured gauge addresses.
type CodeChecker interface {
	HasCode(ctx context.Context, addr common.Address) (bool, error)
}
