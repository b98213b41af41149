// ./internal/state/gauges_store.go
package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/solidex-labs/harvester/internal/types"
)

// SaveGauge upserts a registered gauge so the registry survives restarts.
func SaveGauge(entry types.GaugeEntry) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO gauges (gauge_address, reward_token, staking_token)
		VALUES ($1, $2, $3)
		ON CONFLICT (gauge_address) DO UPDATE SET
			reward_token = EXCLUDED.reward_token,
			staking_token = EXCLUDED.staking_token;
	`
	_, err := DB.Exec(query, entry.Address.Hex(), entry.RewardToken.Hex(), entry.StakingToken.Hex())
	if err != nil {
		return fmt.Errorf("failed to save gauge %s: %w", entry.Address.Hex(), err)
	}

	log.Debug().Str("gauge", entry.Address.Hex()).Msg("Gauge persisted")
	return nil
}

// DeleteGauge removes a gauge row after deregistration.
func DeleteGauge(addr common.Address) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := DB.Exec(`DELETE FROM gauges WHERE gauge_address = $1;`, addr.Hex())
	if err != nil {
		return fmt.Errorf("failed to delete gauge %s: %w", addr.Hex(), err)
	}
	return nil
}

// LoadGauges returns every persisted gauge entry, oldest first, so the
// registry can be rehydrated at startup in registration order.
func LoadGauges() ([]types.GaugeEntry, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.Query(`
		SELECT gauge_address, reward_token, staking_token
		FROM gauges ORDER BY created_at ASC;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query gauges: %w", err)
	}
	defer rows.Close()

	var entries []types.GaugeEntry
	for rows.Next() {
		var gauge, reward, staking string
		if err := rows.Scan(&gauge, &reward, &staking); err != nil {
			return nil, fmt.Errorf("failed to scan gauge row: %w", err)
		}
		entries = append(entries, types.GaugeEntry{
			Address:      common.HexToAddress(gauge),
			RewardToken:  common.HexToAddress(reward),
			StakingToken: common.HexToAddress(staking),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gauge rows: %w", err)
	}

	log.Info().Int("count", len(entries)).Msg("Loaded persisted gauges")
	return entries, nil
}
