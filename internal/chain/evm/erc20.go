package evm

import (
	"context"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/solidex-labs/harvester/internal/utils"
)

// ERC20 is a live token handle bound to the client's sending account.
type ERC20 struct {
	client  *Client
	address common.Address
}

func (t *ERC20) Address() common.Address {
	return t.address
}

func (t *ERC20) BalanceOf(ctx context.Context, account common.Address) (sdkmath.Int, error) {
	parsed, err := abiInstance("erc20")
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	data, err := parsed.Pack("balanceOf", account)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to pack balanceOf: %w", err)
	}
	out, err := t.client.call(ctx, t.address, data)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	results, err := parsed.Unpack("balanceOf", out)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to unpack balanceOf: %w", err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}
	return utils.BigIntToSDKInt(balance)
}

func (t *ERC20) Transfer(ctx context.Context, to common.Address, amount sdkmath.Int) error {
	parsed, err := abiInstance("erc20")
	if err != nil {
		return err
	}
	raw, err := utils.SDKIntToBigInt(amount)
	if err != nil {
		return err
	}
	data, err := parsed.Pack("transfer", to, raw)
	if err != nil {
		return fmt.Errorf("failed to pack transfer: %w", err)
	}
	return t.client.transact(ctx, t.address, data)
}

func (t *ERC20) Approve(ctx context.Context, spender common.Address, amount sdkmath.Int) error {
	parsed, err := abiInstance("erc20")
	if err != nil {
		return err
	}
	raw, err := utils.SDKIntToBigInt(amount)
	if err != nil {
		return err
	}
	data, err := parsed.Pack("approve", spender, raw)
	if err != nil {
		return fmt.Errorf("failed to pack approve: %w", err)
	}
	return t.client.transact(ctx, t.address, data)
}
