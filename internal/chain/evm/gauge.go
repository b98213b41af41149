package evm

import (
	"context"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/solidex-labs/harvester/internal/utils"
)

// Gauge is a live adapter over one on-chain reward gauge.
type Gauge struct {
	client  *Client
	address common.Address
}

// NewGauge wraps a deployed gauge contract.
func NewGauge(client *Client, address common.Address) *Gauge {
	return &Gauge{client: client, address: address}
}

func (g *Gauge) Address() common.Address {
	return g.address
}

func (g *Gauge) RewardToken(ctx context.Context) (common.Address, error) {
	return g.viewAddress(ctx, "rewardToken")
}

func (g *Gauge) StakingToken(ctx context.Context) (common.Address, error) {
	return g.viewAddress(ctx, "stakingToken")
}

func (g *Gauge) StakedBalance(ctx context.Context, account common.Address) (sdkmath.Int, error) {
	return g.viewUint(ctx, "balanceOf", account)
}

func (g *Gauge) Earned(ctx context.Context, account common.Address) (sdkmath.Int, error) {
	return g.viewUint(ctx, "earned", account)
}

func (g *Gauge) ClaimRewards(ctx context.Context, recipient common.Address) error {
	parsed, err := abiInstance("gauge")
	if err != nil {
		return err
	}
	data, err := parsed.Pack("getReward", recipient)
	if err != nil {
		return fmt.Errorf("failed to pack getReward: %w", err)
	}
	return g.client.transact(ctx, g.address, data)
}

func (g *Gauge) Withdraw(ctx context.Context, amount sdkmath.Int) error {
	parsed, err := abiInstance("gauge")
	if err != nil {
		return err
	}
	raw, err := utils.SDKIntToBigInt(amount)
	if err != nil {
		return err
	}
	data, err := parsed.Pack("withdraw", raw)
	if err != nil {
		return fmt.Errorf("failed to pack withdraw: %w", err)
	}
	return g.client.transact(ctx, g.address, data)
}

func (g *Gauge) Deposit(ctx context.Context, amount sdkmath.Int, recipient common.Address) error {
	parsed, err := abiInstance("gauge")
	if err != nil {
		return err
	}
	raw, err := utils.SDKIntToBigInt(amount)
	if err != nil {
		return err
	}
	data, err := parsed.Pack("deposit", raw, recipient)
	if err != nil {
		return fmt.Errorf("failed to pack deposit: %w", err)
	}
	return g.client.transact(ctx, g.address, data)
}

func (g *Gauge) viewAddress(ctx context.Context, method string) (common.Address, error) {
	parsed, err := abiInstance("gauge")
	if err != nil {
		return common.Address{}, err
	}
	data, err := parsed.Pack(method)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	out, err := g.client.call(ctx, g.address, data)
	if err != nil {
		return common.Address{}, err
	}
	results, err := parsed.Unpack(method, out)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	addr, ok := results[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected %s result type %T", method, results[0])
	}
	return addr, nil
}

func (g *Gauge) viewUint(ctx context.Context, method string, account common.Address) (sdkmath.Int, error) {
	parsed, err := abiInstance("gauge")
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	data, err := parsed.Pack(method, account)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to pack %s: %w", method, err)
	}
	out, err := g.client.call(ctx, g.address, data)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	results, err := parsed.Unpack(method, out)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	value, ok := results[0].(*big.Int)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("unexpected %s result type %T", method, results[0])
	}
	return utils.BigIntToSDKInt(value)
}
