// ./internal/state/reports_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/solidex-labs/harvester/internal/types"
)

// SaveCycleReport saves a completed cycle report to the database.
func SaveCycleReport(report types.CycleReport) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	claimOutcomesJSON, err := json.Marshal(report.ClaimOutcomes)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal claim_outcomes: %w", err)
	}

	query := `
		INSERT INTO cycle_reports (
			cycle_number, cycle_id, report_timestamp,
			claim_outcomes, amount_a, amount_b,
			status, error, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING report_id;
	`

	// NUMERIC columns reject the empty string; skipped and failed cycles
	// carry no settled amounts.
	amountA := sql.NullString{String: report.AmountA, Valid: report.AmountA != ""}
	amountB := sql.NullString{String: report.AmountB, Valid: report.AmountB != ""}

	var reportID int64
	err = DB.QueryRow(
		query,
		report.CycleNumber, report.CycleID, report.Timestamp,
		claimOutcomesJSON, amountA, amountB,
		report.Status, report.Error, report.DurationMs,
	).Scan(&reportID)

	if err != nil {
		return 0, fmt.Errorf("failed to save cycle report: %w", err)
	}

	log.Info().
		Int64("report_id", reportID).
		Int("cycle_number", report.CycleNumber).
		Str("status", report.Status).
		Msg("Cycle report saved to database")

	return reportID, nil
}

// GetRecentCycleReports returns the most recent cycle reports, newest first.
func GetRecentCycleReports(limit int) ([]types.CycleReport, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := DB.Query(`
		SELECT cycle_number, cycle_id, report_timestamp,
		       claim_outcomes, COALESCE(amount_a::TEXT, ''), COALESCE(amount_b::TEXT, ''),
		       status, COALESCE(error, ''), duration_ms
		FROM cycle_reports
		ORDER BY report_timestamp DESC
		LIMIT $1;`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle reports: %w", err)
	}
	defer rows.Close()

	var reports []types.CycleReport
	for rows.Next() {
		report, err := scanCycleReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cycle report rows: %w", err)
	}
	return reports, nil
}

// GetCycleReportByID fetches a single report by its cycle UUID.
func GetCycleReportByID(cycleID string) (types.CycleReport, error) {
	if DB == nil {
		return types.CycleReport{}, fmt.Errorf("database not initialized")
	}

	row := DB.QueryRow(`
		SELECT cycle_number, cycle_id, report_timestamp,
		       claim_outcomes, COALESCE(amount_a::TEXT, ''), COALESCE(amount_b::TEXT, ''),
		       status, COALESCE(error, ''), duration_ms
		FROM cycle_reports
		WHERE cycle_id = $1;`, cycleID)

	return scanCycleReport(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCycleReport(row rowScanner) (types.CycleReport, error) {
	var report types.CycleReport
	var claimOutcomesJSON []byte

	err := row.Scan(
		&report.CycleNumber, &report.CycleID, &report.Timestamp,
		&claimOutcomesJSON, &report.AmountA, &report.AmountB,
		&report.Status, &report.Error, &report.DurationMs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.CycleReport{}, fmt.Errorf("cycle report not found")
		}
		return types.CycleReport{}, fmt.Errorf("failed to scan cycle report: %w", err)
	}

	if len(claimOutcomesJSON) > 0 {
		if err := json.Unmarshal(claimOutcomesJSON, &report.ClaimOutcomes); err != nil {
			return types.CycleReport{}, fmt.Errorf("failed to unmarshal claim_outcomes: %w", err)
		}
	}
	return report, nil
}
