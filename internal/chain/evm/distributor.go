package evm

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/solidex-labs/harvester/internal/utils"
)

// Distributor is a live adapter over the downstream rewards-staging module.
type Distributor struct {
	client  *Client
	address common.Address
}

// NewDistributor wraps the deployed distribution contract.
func NewDistributor(client *Client, address common.Address) *Distributor {
	return &Distributor{client: client, address: address}
}

// StageRewards records the settled amounts with the distribution module.
// The contract rejects while a previous round is unfinalized; that revert
// surfaces here as a failed transaction.
func (d *Distributor) StageRewards(ctx context.Context, amountA, amountB sdkmath.Int) error {
	parsed, err := abiInstance("distributor")
	if err != nil {
		return err
	}
	rawA, err := utils.SDKIntToBigInt(amountA)
	if err != nil {
		return err
	}
	rawB, err := utils.SDKIntToBigInt(amountB)
	if err != nil {
		return err
	}
	data, err := parsed.Pack("stageRewards", rawA, rawB)
	if err != nil {
		return fmt.Errorf("failed to pack stageRewards: %w", err)
	}
	return d.client.transact(ctx, d.address, data)
}
