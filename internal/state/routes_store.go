// ./internal/state/routes_store.go
package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/solidex-labs/harvester/internal/types"
)

// SaveRoute upserts a token's route configuration.
func SaveRoute(route types.RouteConfig) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO routes (token_address, granularity, direct_to_b, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (token_address) DO UPDATE SET
			granularity = EXCLUDED.granularity,
			direct_to_b = EXCLUDED.direct_to_b,
			updated_at = CURRENT_TIMESTAMP;
	`
	_, err := DB.Exec(query, route.Token.Hex(), route.Granularity, route.DirectToB)
	if err != nil {
		return fmt.Errorf("failed to save route %s: %w", route.Token.Hex(), err)
	}

	log.Debug().Str("token", route.Token.Hex()).Msg("Route persisted")
	return nil
}

// DeleteRoute removes a token's route configuration.
func DeleteRoute(token common.Address) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := DB.Exec(`DELETE FROM routes WHERE token_address = $1;`, token.Hex())
	if err != nil {
		return fmt.Errorf("failed to delete route %s: %w", token.Hex(), err)
	}
	return nil
}

// LoadRoutes returns every persisted route configuration.
func LoadRoutes() ([]types.RouteConfig, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.Query(`
		SELECT token_address, granularity, direct_to_b
		FROM routes ORDER BY updated_at ASC;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	var routes []types.RouteConfig
	for rows.Next() {
		var token string
		var route types.RouteConfig
		if err := rows.Scan(&token, &route.Granularity, &route.DirectToB); err != nil {
			return nil, fmt.Errorf("failed to scan route row: %w", err)
		}
		route.Token = common.HexToAddress(token)
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate route rows: %w", err)
	}

	log.Info().Int("count", len(routes)).Msg("Loaded persisted routes")
	return routes, nil
}
