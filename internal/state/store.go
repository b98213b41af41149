// ./internal/state/store.go
package state

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/solidex-labs/harvester/internal/types"
)

// PgStore adapts the package-level persistence functions to the store
// interface the harvester consumes.
type PgStore struct{}

// NewStore returns a store backed by the global connection pool. InitDB
// and EnsureSchema must have run first.
func NewStore() *PgStore { return &PgStore{} }

func (s *PgStore) SaveGauge(entry types.GaugeEntry) error { return SaveGauge(entry) }

func (s *PgStore) DeleteGauge(addr common.Address) error { return DeleteGauge(addr) }

func (s *PgStore) SaveRoute(route types.RouteConfig) error { return SaveRoute(route) }

func (s *PgStore) DeleteRoute(token common.Address) error { return DeleteRoute(token) }

func (s *PgStore) NextCycleNumber() (int, error) { return IncrementCycleNumber() }

func (s *PgStore) SaveCycleReport(report types.CycleReport) (int64, error) {
	return SaveCycleReport(report)
}
