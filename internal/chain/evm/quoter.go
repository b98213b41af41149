package evm

import (
	"context"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/solidex-labs/harvester/internal/utils"
)

// Quoter is a live adapter over the on-chain quoting service.
type Quoter struct {
	client  *Client
	address common.Address
}

// NewQuoter wraps the deployed quoter contract.
func NewQuoter(client *Client, address common.Address) *Quoter {
	return &Quoter{client: client, address: address}
}

// Quote asks the quoting service for the expected output of a conversion.
// A zero result means no viable path and is returned as-is; the caller
// decides whether that is an error.
func (q *Quoter) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn sdkmath.Int, granularity int64) (sdkmath.Int, error) {
	parsed, err := abiInstance("quoter")
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	rawIn, err := utils.SDKIntToBigInt(amountIn)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	data, err := parsed.Pack("quote", tokenIn, tokenOut, rawIn, big.NewInt(granularity))
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to pack quote: %w", err)
	}
	out, err := q.client.call(ctx, q.address, data)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	results, err := parsed.Unpack("quote", out)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to unpack quote: %w", err)
	}
	quoted, ok := results[0].(*big.Int)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("unexpected quote result type %T", results[0])
	}
	return utils.BigIntToSDKInt(quoted)
}
