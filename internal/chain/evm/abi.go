package evm

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABIJSON = `[
  {"inputs": [{"name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "to", "type": "address"}, {"name": "amount", "type": "uint256"}], "name": "transfer", "outputs": [{"type": "bool"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "spender", "type": "address"}, {"name": "amount", "type": "uint256"}], "name": "approve", "outputs": [{"type": "bool"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "owner", "type": "address"}, {"name": "spender", "type": "address"}], "name": "allowance", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const gaugeABIJSON = `[
  {"inputs": [], "name": "rewardToken", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "stakingToken", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "account", "type": "address"}], "name": "earned", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "account", "type": "address"}], "name": "getReward", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "amount", "type": "uint256"}], "name": "withdraw", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "amount", "type": "uint256"}, {"name": "recipient", "type": "address"}], "name": "deposit", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

const quoterABIJSON = `[
  {"inputs": [
    {"name": "tokenIn", "type": "address"},
    {"name": "tokenOut", "type": "address"},
    {"name": "amountIn", "type": "uint256"},
    {"name": "granularity", "type": "uint256"}
  ], "name": "quote", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const routerABIJSON = `[
  {"inputs": [
    {"name": "tokenIn", "type": "address"},
    {"name": "tokenOut", "type": "address"},
    {"name": "granularity", "type": "uint256"},
    {"name": "amountIn", "type": "uint256"},
    {"name": "minOut", "type": "uint256"},
    {"name": "recipient", "type": "address"},
    {"name": "deadline", "type": "uint256"}
  ], "name": "swap", "outputs": [{"type": "uint256"}], "stateMutability": "nonpayable", "type": "function"}
]`

const distributorABIJSON = `[
  {"inputs": [
    {"name": "amountA", "type": "uint256"},
    {"name": "amountB", "type": "uint256"}
  ], "name": "stageRewards", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

var (
	parsedABIs = make(map[string]abi.ABI)
	parsedErrs = make(map[string]error)
	parseOnce  sync.Once
)

func parseAll() {
	for name, raw := range map[string]string{
		"erc20":       erc20ABIJSON,
		"gauge":       gaugeABIJSON,
		"quoter":      quoterABIJSON,
		"router":      routerABIJSON,
		"distributor": distributorABIJSON,
	} {
		parsed, err := abi.JSON(strings.NewReader(raw))
		parsedABIs[name] = parsed
		parsedErrs[name] = err
	}
}

func abiInstance(name string) (abi.ABI, error) {
	parseOnce.Do(parseAll)
	return parsedABIs[name], parsedErrs[name]
}
