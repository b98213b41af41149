package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/solidex-labs/harvester/internal/harvester"
	"github.com/solidex-labs/harvester/internal/logger"
	"github.com/solidex-labs/harvester/internal/state"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes a read-only HTTP view of the harvester: registry and
// route contents, effective configuration, and persisted cycle history.
// All mutation goes through the owner-gated admin surface, never HTTP.
type WebServer struct {
	router    *mux.Router
	port      string
	harvester *harvester.Harvester
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, h *harvester.Harvester) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:    mux.NewRouter(),
		port:      port,
		harvester: h,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/registry", ws.handleGetRegistry).Methods("GET")
	api.HandleFunc("/routes", ws.handleGetRoutes).Methods("GET")
	api.HandleFunc("/config", ws.handleGetConfig).Methods("GET")
	api.HandleFunc("/cycles", ws.handleGetCycles).Methods("GET")
	api.HandleFunc("/cycles/latest", ws.handleGetLatestCycle).Methods("GET")
	api.HandleFunc("/cycles/{id}", ws.handleGetCycle).Methods("GET")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns service health: database reachability, registry
// and route counts, and pause state.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	status := "OK"
	if !dbHealthy {
		status = "DEGRADED"
	}

	cfg := ws.harvester.Config()
	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"database":  dbHealthy,
		"gauges":    ws.harvester.Registry().Count(),
		"routes":    ws.harvester.Routes().Count(),
		"paused":    cfg.Trigger == (common.Address{}),
	}

	statusCode := http.StatusOK
	if !dbHealthy {
		statusCode = http.StatusServiceUnavailable
	}
	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetRegistry returns the registered gauge entries
func (ws *WebServer) handleGetRegistry(w http.ResponseWriter, r *http.Request) {
	entries := ws.harvester.Registry().Entries()
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"count":  len(entries),
		"gauges": entries,
	})
}

// handleGetRoutes returns the configured conversion routes
func (ws *WebServer) handleGetRoutes(w http.ResponseWriter, r *http.Request) {
	routes := ws.harvester.Routes().Routes()
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"count":  len(routes),
		"routes": routes,
	})
}

// handleGetConfig returns the effective configuration. The private key and
// database credentials never pass through this struct.
func (ws *WebServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := ws.harvester.Config()
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"owner":                  cfg.Owner.Hex(),
		"trigger":                cfg.Trigger.Hex(),
		"paused":                 cfg.Trigger == (common.Address{}),
		"slippage_bps":           cfg.SlippageBps,
		"custody":                cfg.Custody.Hex(),
		"treasury":               cfg.Treasury.Hex(),
		"settlement_a":           cfg.SettlementA,
		"settlement_b":           cfg.SettlementB,
		"settlement_granularity": cfg.SettlementGranularity,
	})
}

// handleGetCycles returns recent cycle reports
func (ws *WebServer) handleGetCycles(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	reports, err := state.GetRecentCycleReports(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get cycle reports")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve cycle reports")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"count":  len(reports),
		"cycles": reports,
	})
}

// handleGetLatestCycle returns the most recent cycle report
func (ws *WebServer) handleGetLatestCycle(w http.ResponseWriter, r *http.Request) {
	reports, err := state.GetRecentCycleReports(1)
	if err != nil || len(reports) == 0 {
		ws.writeErrorResponse(w, http.StatusNotFound, "No cycle reports available")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, reports[0])
}

// handleGetCycle returns a specific cycle report by its cycle UUID
func (ws *WebServer) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cycleID := vars["id"]

	report, err := state.GetCycleReportByID(cycleID)
	if err != nil {
		webLogger.Error().Err(err).Str("cycleId", cycleID).Msg("Failed to get cycle report")
		ws.writeErrorResponse(w, http.StatusNotFound, "Cycle report not found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, report)
}

// writeJSONResponse writes a JSON response with the given status code
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriterWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
