/*

This is a small descriptor for the tokens the harvester settles into,
carrying the metadata needed for display and conversion.

*/

package types

import "github.com/ethereum/go-ethereum/common"

type TokenInfo struct {
	Symbol   string         `json:"symbol"`   // e.g., "WETH"
	Address  common.Address `json:"address"`  // ERC-20 contract address
	Decimals int            `json:"decimals"` // e.g., 18 = 1 token is 10^18 base units
}
