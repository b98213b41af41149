package evm

import (
	"context"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/solidex-labs/harvester/internal/chain"
	"github.com/solidex-labs/harvester/internal/utils"
)

// Router is a live adapter over the on-chain swap-execution service. The
// realized output is measured as the recipient's balance delta around the
// swap transaction; a contract return value is not recoverable from a
// mined transaction.
type Router struct {
	client  *Client
	address common.Address
}

// NewRouter wraps the deployed swap router contract.
func NewRouter(client *Client, address common.Address) *Router {
	return &Router{client: client, address: address}
}

func (r *Router) Address() common.Address {
	return r.address
}

func (r *Router) Swap(ctx context.Context, params chain.SwapParams) (sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()

	parsed, err := abiInstance("router")
	if err != nil {
		return zero, err
	}
	rawIn, err := utils.SDKIntToBigInt(params.AmountIn)
	if err != nil {
		return zero, err
	}
	rawMin, err := utils.SDKIntToBigInt(params.MinOut)
	if err != nil {
		return zero, err
	}
	data, err := parsed.Pack("swap",
		params.TokenIn, params.TokenOut,
		big.NewInt(params.Granularity),
		rawIn, rawMin,
		params.Recipient,
		big.NewInt(params.Deadline.Unix()),
	)
	if err != nil {
		return zero, fmt.Errorf("failed to pack swap: %w", err)
	}

	outToken := r.client.Token(params.TokenOut)
	before, err := outToken.BalanceOf(ctx, params.Recipient)
	if err != nil {
		return zero, fmt.Errorf("output balance before swap: %w", err)
	}

	if err := r.client.transact(ctx, r.address, data); err != nil {
		return zero, err
	}

	after, err := outToken.BalanceOf(ctx, params.Recipient)
	if err != nil {
		return zero, fmt.Errorf("output balance after swap: %w", err)
	}
	return after.Sub(before), nil
}
