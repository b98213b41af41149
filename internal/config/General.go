package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// OwnerAddress may call the admin surface.
	OwnerAddress common.Address
	// TriggerAddress is the single address permitted to run harvest cycles.
	TriggerAddress common.Address
	// CustodyAddress is the harvester account: reward and swap recipient.
	CustodyAddress common.Address
	// TreasuryAddress receives settled balances after each distribute cycle.
	TreasuryAddress common.Address

	// SettlementAAddress is the intermediate settlement asset.
	SettlementAAddress  common.Address
	SettlementASymbol   string
	SettlementADecimals int64
	// SettlementBAddress is the final settlement asset.
	SettlementBAddress  common.Address
	SettlementBSymbol   string
	SettlementBDecimals int64

	// SettlementGranularity selects the pool for the A -> B hop.
	SettlementGranularity int64
	// SlippageBps is the on-chain slippage bound in basis points.
	SlippageBps int64

	// RouterAddress is the swap-execution contract.
	RouterAddress common.Address
	// QuoterAddress is the quoting contract.
	QuoterAddress common.Address
	// DistributorAddress is the downstream rewards-staging contract.
	DistributorAddress common.Address

	// CycleIntervalMinutes is the wait between harvest cycles.
	CycleIntervalMinutes int64

	// PrivateKey signs live transactions. Required only in live mode.
	PrivateKey string
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set, except HARVESTER_PRIVATE_KEY
// which live mode checks separately.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	OwnerAddress, err = getEnvAsAddress("HARVESTER_OWNER_ADDRESS")
	if err != nil {
		return err
	}

	TriggerAddress, err = getEnvAsAddress("HARVESTER_TRIGGER_ADDRESS")
	if err != nil {
		return err
	}

	CustodyAddress, err = getEnvAsAddress("HARVESTER_CUSTODY_ADDRESS")
	if err != nil {
		return err
	}

	TreasuryAddress, err = getEnvAsAddress("HARVESTER_TREASURY_ADDRESS")
	if err != nil {
		return err
	}

	SettlementAAddress, err = getEnvAsAddress("SETTLEMENT_A_ADDRESS")
	if err != nil {
		return err
	}

	SettlementASymbol, err = getEnv("SETTLEMENT_A_SYMBOL")
	if err != nil {
		return err
	}

	SettlementADecimals, err = getEnvAsInt64("SETTLEMENT_A_DECIMALS")
	if err != nil {
		return err
	}

	SettlementBAddress, err = getEnvAsAddress("SETTLEMENT_B_ADDRESS")
	if err != nil {
		return err
	}

	SettlementBSymbol, err = getEnv("SETTLEMENT_B_SYMBOL")
	if err != nil {
		return err
	}

	SettlementBDecimals, err = getEnvAsInt64("SETTLEMENT_B_DECIMALS")
	if err != nil {
		return err
	}

	SettlementGranularity, err = getEnvAsInt64("SETTLEMENT_GRANULARITY")
	if err != nil {
		return err
	}

	SlippageBps, err = getEnvAsInt64("SLIPPAGE_BPS")
	if err != nil {
		return err
	}

	RouterAddress, err = getEnvAsAddress("ROUTER_ADDRESS")
	if err != nil {
		return err
	}

	QuoterAddress, err = getEnvAsAddress("QUOTER_ADDRESS")
	if err != nil {
		return err
	}

	DistributorAddress, err = getEnvAsAddress("DISTRIBUTOR_ADDRESS")
	if err != nil {
		return err
	}

	CycleIntervalMinutes, err = getEnvAsInt64("CYCLE_INTERVAL_MINUTES")
	if err != nil {
		return err
	}

	// Optional here; live mode fails at startup without it.
	PrivateKey = os.Getenv("HARVESTER_PRIVATE_KEY")

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("Owner", OwnerAddress.Hex()).
		Str("Trigger", TriggerAddress.Hex()).
		Str("Custody", CustodyAddress.Hex()).
		Int64("SlippageBps", SlippageBps).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsInt64 retrieves an environment variable as an int64. Returns error if not set or invalid.
func getEnvAsInt64(key string) (int64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsAddress retrieves an environment variable as a checksummed EVM address.
func getEnvAsAddress(key string) (common.Address, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(valueStr) {
		return common.Address{}, errors.New("environment variable " + key + " must be a valid hex address, got: " + valueStr)
	}
	return common.HexToAddress(valueStr), nil
}
