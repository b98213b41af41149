package harvester

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solidex-labs/harvester/internal/types"
)

// RunLoop drives harvest cycles at the given interval until the context is
// cancelled. The first cycle runs immediately.
func (h *Harvester) RunLoop(ctx context.Context, interval time.Duration) {
	h.logger.Info().
		Dur("interval", interval).
		Msg("Starting harvest loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.cycleCount++
	h.logger.Info().Int("cycle", h.cycleCount).Msg("Initiating harvest cycle")
	h.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Msg("Harvest loop stopped due to context cancellation")
			return
		case <-ticker.C:
			h.cycleCount++
			h.logger.Info().Int("cycle", h.cycleCount).Msg("Initiating harvest cycle")
			h.RunCycle(ctx)
		}
	}
}

// RunCycle executes one claim-then-distribute round as the configured
// trigger and records the outcome. A cycle where every balance turned out
// zero is recorded as skipped, not failed.
func (h *Harvester) RunCycle(ctx context.Context) types.CycleReport {
	start := time.Now()

	cycleID := uuid.New().String()
	cycleLogger := h.logger.With().Str("cycle_id", cycleID).Logger()
	cycleLogger.Info().Msg("--- Starting harvest cycle ---")

	report := types.CycleReport{
		CycleNumber: h.nextCycleNumber(),
		CycleID:     cycleID,
		Timestamp:   start,
		Status:      types.CycleStatusCompleted,
	}

	claimReport, err := h.Claim(ctx, h.cfg.Trigger)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Cycle aborted: claim batch failed")
		report.Status = types.CycleStatusFailed
		report.Error = err.Error()
		return h.finishCycle(report, start, cycleLogger)
	}
	report.ClaimOutcomes = claimReport.Outcomes
	cycleLogger.Info().
		Int("claimed", claimReport.Claimed()).
		Int("failed", claimReport.Failed()).
		Msg("Claim batch done")

	amountA, amountB, err := h.Distribute(ctx, h.cfg.Trigger)
	switch {
	case errors.Is(err, ErrNothingToDistribute):
		cycleLogger.Info().Msg("No settlement balances accrued; nothing to distribute")
		report.Status = types.CycleStatusSkipped
	case err != nil:
		cycleLogger.Error().Err(err).Msg("Cycle aborted: distribution failed")
		report.Status = types.CycleStatusFailed
		report.Error = err.Error()
	default:
		report.AmountA = amountA.String()
		report.AmountB = amountB.String()
	}

	return h.finishCycle(report, start, cycleLogger)
}

func (h *Harvester) nextCycleNumber() int {
	if h.store == nil {
		return h.cycleCount
	}
	n, err := h.store.NextCycleNumber()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to advance persistent cycle counter; using in-memory count")
		return h.cycleCount
	}
	return n
}

// finishCycle stamps the duration, persists the report when a store is
// configured, and logs the terminal state.
func (h *Harvester) finishCycle(report types.CycleReport, start time.Time, log zerolog.Logger) types.CycleReport {
	report.DurationMs = time.Since(start).Milliseconds()

	if h.store != nil {
		if _, err := h.store.SaveCycleReport(report); err != nil {
			log.Error().Err(err).Msg("Failed to persist cycle report")
		}
	}

	log.Info().
		Int("cycleNumber", report.CycleNumber).
		Str("status", report.Status).
		Int64("durationMs", report.DurationMs).
		Msg("--- Harvest cycle finished ---")
	return report
}
