/*

EVM transport for the live adapters. One Client wraps the RPC connection,
the signing key, and the transaction send/wait plumbing; the contract
adapters in this package only build calldata and decode results.

*/

package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"github.com/solidex-labs/harvester/internal/chain"
	"github.com/solidex-labs/harvester/internal/logger"
)

const receiptTimeout = 2 * time.Minute

// Client wraps go-ethereum RPC plus the harvester's signing key.
type Client struct {
	logger    zerolog.Logger
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	chainID   *big.Int
	key       *ecdsa.PrivateKey
	from      common.Address
}

// NewClient dials the RPC endpoint and derives the sending account from the
// hex-encoded private key.
func NewClient(ctx context.Context, rpcURL, privateKeyHex string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}
	ethClient := ethclient.NewClient(rpcClient)

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	c := &Client{
		logger:    logger.GetForComponent("evm_client"),
		rpcClient: rpcClient,
		ethClient: ethClient,
		chainID:   chainID,
		key:       key,
		from:      crypto.PubkeyToAddress(key.PublicKey),
	}

	c.logger.Info().
		Str("chainID", chainID.String()).
		Str("from", c.from.Hex()).
		Msg("EVM client connected")

	return c, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// From returns the sending account address.
func (c *Client) From() common.Address {
	return c.from
}

// HasCode reports whether the address has deployed contract code.
func (c *Client) HasCode(ctx context.Context, addr common.Address) (bool, error) {
	code, err := c.ethClient.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("failed to read code at %s: %w", addr.Hex(), err)
	}
	return len(code) > 0, nil
}

// Token returns a live ERC20 handle, satisfying the token-source interface.
func (c *Client) Token(addr common.Address) chain.Token {
	return &ERC20{client: c, address: addr}
}

// call performs a read-only eth_call against the latest block.
func (c *Client) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{From: c.from, To: &to, Data: data}
	out, err := c.ethClient.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call to %s failed: %w", to.Hex(), err)
	}
	return out, nil
}

// transact signs, broadcasts, and waits for one transaction, failing on a
// reverted receipt.
func (c *Client) transact(ctx context.Context, to common.Address, data []byte) error {
	nonce, err := c.ethClient.PendingNonceAt(ctx, c.from)
	if err != nil {
		return fmt.Errorf("failed to get pending nonce: %w", err)
	}
	gasPrice, err := c.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to suggest gas price: %w", err)
	}
	gasLimit, err := c.ethClient.EstimateGas(ctx, ethereum.CallMsg{
		From: c.from, To: &to, Data: data, GasPrice: gasPrice,
	})
	if err != nil {
		return fmt.Errorf("gas estimation failed for call to %s: %w", to.Hex(), err)
	}

	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := c.ethClient.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, receiptTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.ethClient, signed)
	if err != nil {
		return fmt.Errorf("failed waiting for receipt of %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
	}

	c.logger.Debug().
		Str("tx", signed.Hash().Hex()).
		Str("to", to.Hex()).
		Uint64("gasUsed", receipt.GasUsed).
		Msg("Transaction mined")
	return nil
}
