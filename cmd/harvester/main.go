package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/solidex-labs/harvester/internal/chain"
	"github.com/solidex-labs/harvester/internal/chain/evm"
	"github.com/solidex-labs/harvester/internal/chain/memchain"
	"github.com/solidex-labs/harvester/internal/config"
	"github.com/solidex-labs/harvester/internal/harvester"
	"github.com/solidex-labs/harvester/internal/logger"
	"github.com/solidex-labs/harvester/internal/registry"
	"github.com/solidex-labs/harvester/internal/routing"
	"github.com/solidex-labs/harvester/internal/state"
	"github.com/solidex-labs/harvester/internal/swap"
	"github.com/solidex-labs/harvester/internal/types"
	"github.com/solidex-labs/harvester/internal/web"
)

// main is the entry point for the harvester service.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Harvester starting...")

	// Initialize database connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	ctx := context.Background()

	// --- 2. Chain Adapters (with Safety Switch) ---
	var (
		codeChecker chain.CodeChecker
		tokens      chain.TokenSource
		quoter      chain.Quoter
		router      chain.SwapRouter
		distributor chain.Distributor
	)

	var liveClient *evm.Client
	var mem *memchain.Ledger

	mode := os.Getenv("HARVESTER_MODE")
	switch mode {
	case "live":
		log.Warn().Msg("Initializing harvester in LIVE mode. Real transactions will be broadcast.")
		if config.PrivateKey == "" {
			log.Fatal().Msg("HARVESTER_PRIVATE_KEY is required in live mode")
		}
		client, err := evm.NewClient(ctx, config.NodeRPC, config.PrivateKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize EVM client")
		}
		defer client.Close()
		if client.From() != config.CustodyAddress {
			log.Fatal().
				Str("signer", client.From().Hex()).
				Str("custody", config.CustodyAddress.Hex()).
				Msg("Signing key does not control the custody account")
		}
		liveClient = client
		codeChecker = client
		tokens = client
		quoter = evm.NewQuoter(client, config.QuoterAddress)
		router = evm.NewRouter(client, config.RouterAddress)
		distributor = evm.NewDistributor(client, config.DistributorAddress)
	case "paper":
		log.Info().Msg("Initializing harvester in PAPER mode. All chain activity is simulated in memory.")
		mem = memchain.NewLedger()
		mem.SetCode(config.RouterAddress)
		mem.SetCode(config.QuoterAddress)
		mem.SetCode(config.DistributorAddress)
		codeChecker = mem
		tokens = mem.ForAccount(config.CustodyAddress)
		memQuoter := memchain.NewQuoter()
		quoter = memQuoter
		router = memchain.NewRouter(mem, config.RouterAddress, memQuoter)
		distributor = memchain.NewDistributor()
	default:
		log.Fatal().Msg("HARVESTER_MODE is not set to 'live' or 'paper'. Halting to prevent accidental execution.")
	}

	// --- 3. Assemble the Harvester ---
	harvesterCfg := &harvester.Config{
		Owner:       config.OwnerAddress,
		Trigger:     config.TriggerAddress,
		SlippageBps: config.SlippageBps,
		Custody:     config.CustodyAddress,
		Treasury:    config.TreasuryAddress,
		SettlementA: types.TokenInfo{
			Symbol:   config.SettlementASymbol,
			Address:  config.SettlementAAddress,
			Decimals: int(config.SettlementADecimals),
		},
		SettlementB: types.TokenInfo{
			Symbol:   config.SettlementBSymbol,
			Address:  config.SettlementBAddress,
			Decimals: int(config.SettlementBDecimals),
		},
		SettlementGranularity: config.SettlementGranularity,
	}

	reg, err := registry.New(codeChecker)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create registry")
	}
	routes, err := routing.New(config.SettlementAAddress, config.SettlementBAddress)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create route table")
	}

	// Rehydrate persisted registry and routes
	hydrateFromState(ctx, reg, routes, mode, liveClient, mem)

	executor, err := swap.NewExecutor(swap.Config{
		Quoter:      quoter,
		Router:      router,
		Tokens:      tokens,
		Custody:     config.CustodyAddress,
		SlippageBps: func() int64 { return harvesterCfg.SlippageBps },
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create swap executor")
	}

	h, err := harvester.New(harvesterCfg, harvester.Deps{
		Registry:    reg,
		Routes:      routes,
		Executor:    executor,
		Tokens:      tokens,
		Distributor: distributor,
		Store:       state.NewStore(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create harvester")
	}

	// --- 4. Start Web Server ---
	webServer := web.NewWebServer(config.WebPort, h)
	go func() {
		log.Info().Str("port", config.WebPort).Msg("Starting harvester web API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 5. Start Harvest Loop ---
	interval := time.Duration(config.CycleIntervalMinutes) * time.Minute
	log.Info().Str("interval", interval.String()).Msg("Starting harvest loop")
	h.RunLoop(ctx, interval)
}

// hydrateFromState reloads persisted gauges and routes so registry contents
// survive restarts. A persisted gauge that fails validation is logged and
// skipped rather than aborting startup.
func hydrateFromState(ctx context.Context, reg *registry.Registry, routes *routing.Table, mode string, liveClient *evm.Client, mem *memchain.Ledger) {
	entries, err := state.LoadGauges()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load persisted gauges")
	}
	for _, entry := range entries {
		var gauge chain.Gauge
		if mode == "live" {
			gauge = evm.NewGauge(liveClient, entry.Address)
		} else {
			mem.SetCode(entry.Address)
			gauge = memchain.NewGauge(mem, entry.Address, entry.RewardToken, entry.StakingToken)
		}
		if _, err := reg.Add(ctx, gauge); err != nil {
			log.Error().Err(err).Str("gauge", entry.Address.Hex()).Msg("Skipping persisted gauge that failed validation")
		}
	}

	persisted, err := state.LoadRoutes()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load persisted routes")
	}
	for _, route := range persisted {
		if err := routes.Add(route); err != nil {
			log.Error().Err(err).Str("token", route.Token.Hex()).Msg("Skipping persisted route that failed validation")
		}
	}

	log.Info().
		Int("gauges", reg.Count()).
		Int("routes", routes.Count()).
		Msg("Persisted registry state rehydrated")
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
