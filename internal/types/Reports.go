package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Cycle status values recorded in cycle reports.
const (
	CycleStatusCompleted = "completed"
	CycleStatusSkipped   = "skipped"
	CycleStatusFailed    = "failed"
)

// ClaimOutcome records the result of a single gauge's reward-claim call.
// A failed claim does not abort the batch; the failure is carried here so
// one broken reward source cannot block harvesting from the others.
type ClaimOutcome struct {
	Gauge       common.Address `json:"gauge"`
	RewardToken common.Address `json:"reward_token"`
	Claimed     bool           `json:"claimed"`
	Error       string         `json:"error,omitempty"`
}

// ClaimReport aggregates the per-gauge outcomes of one claim batch.
type ClaimReport struct {
	Outcomes []ClaimOutcome `json:"outcomes"`
}

// Claimed returns how many gauges were claimed successfully.
func (r ClaimReport) Claimed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Claimed {
			n++
		}
	}
	return n
}

// Failed returns how many gauge claims failed.
func (r ClaimReport) Failed() int {
	return len(r.Outcomes) - r.Claimed()
}

// CycleReport is the persistent record of one harvest cycle: what was
// claimed, what was settled, and how the cycle ended.
type CycleReport struct {
	CycleNumber   int            `json:"cycle_number"`
	CycleID       string         `json:"cycle_id"`
	Timestamp     time.Time      `json:"timestamp"`
	ClaimOutcomes []ClaimOutcome `json:"claim_outcomes"`
	AmountA       string         `json:"amount_a"` // settlement asset A, base units
	AmountB       string         `json:"amount_b"` // settlement asset B, base units
	Status        string         `json:"status"`
	Error         string         `json:"error,omitempty"`
	DurationMs    int64          `json:"duration_ms"`
}
