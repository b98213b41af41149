package types

import "github.com/ethereum/go-ethereum/common"

// RouteConfig describes how one collected token is converted into the
// settlement assets during a distribute cycle.
type RouteConfig struct {
	Token       common.Address `json:"token"`
	Granularity int64          `json:"granularity"` // pool tick spacing used to select the swap pool
	DirectToB   bool           `json:"direct_to_b"` // skip the intermediate hop, swap straight to settlement B
}
