/*

GaugeEntry captures one registered reward source together with the token
identities discovered from it at registration time. Entries are immutable:
a gauge is added or removed, never edited in place.

*/

package types

import "github.com/ethereum/go-ethereum/common"

type GaugeEntry struct {
	Address      common.Address `json:"address"`       // the gauge contract
	RewardToken  common.Address `json:"reward_token"`  // token the gauge pays out
	StakingToken common.Address `json:"staking_token"` // token the gauge accepts for staking
}
