package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/portfoliotracker/backend/docs"
	"github.com/portfoliotracker/backend/internal/db"
	"github.com/portfoliotracker/backend/internal/handlers"
	"github.com/portfoliotracker/backend/internal/logger"
	"github.com/portfoliotracker/backend/internal/repositories"
	"github.com/portfoliotracker/backend/internal/services"
)

// @title Portfolio Tracker API
// @version 1.0
// @description Investment portfolio tracking with transaction reconciliation, valuation and market data.
// @BasePath /api/v1
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	zlog, err := logger.New()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync()

	config := db.NewConfig()
	database, err := db.Connect(config)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Health(); err != nil {
		zlog.Fatal("database health check failed", zap.Error(err))
	}
	if err := database.Migrate(); err != nil {
		zlog.Fatal("database migration failed", zap.Error(err))
	}
	zlog.Info("database connection established")

	portfolioRepo := repositories.NewPortfolioRepository(database)
	assetRepo := repositories.NewAssetRepository(database)
	holdingRepo := repositories.NewHoldingRepository(database)
	transactionRepo := repositories.NewTransactionRepository(database)

	var provider services.PriceProvider
	if os.Getenv("PRICE_PROVIDER") == "mock" {
		provider = services.NewMockPriceProvider()
		zlog.Info("using mock price provider")
	} else {
		provider = services.NewYahooPriceProvider()
	}

	engine := services.NewPortfolioService(database, holdingRepo, zlog)
	analytics := services.NewAnalyticsService(database, zlog)
	prices := services.NewPriceService(assetRepo, provider, zlog)

	portfolioHandler := handlers.NewPortfolioHandler(portfolioRepo, holdingRepo, engine, analytics, prices, zlog)
	assetHandler := handlers.NewAssetHandler(assetRepo, prices, zlog)
	transactionHandler := handlers.NewTransactionHandler(transactionRepo, engine, zlog)
	holdingHandler := handlers.NewHoldingHandler(holdingRepo, zlog)

	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status":  status,
			"service": "portfolio-tracker-backend",
		})
	}).Methods(http.MethodGet)

	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/portfolios", portfolioHandler.HandleCreate).Methods(http.MethodPost)
	api.HandleFunc("/portfolios", portfolioHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/portfolios/{id}", portfolioHandler.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/portfolios/{id}", portfolioHandler.HandleUpdate).Methods(http.MethodPut)
	api.HandleFunc("/portfolios/{id}", portfolioHandler.HandleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/portfolios/{id}/holdings", portfolioHandler.HandleHoldings).Methods(http.MethodGet)
	api.HandleFunc("/portfolios/{id}/performance", portfolioHandler.HandlePerformance).Methods(http.MethodGet)
	api.HandleFunc("/portfolios/{id}/diversification", portfolioHandler.HandleDiversification).Methods(http.MethodGet)
	api.HandleFunc("/portfolios/{id}/allocation", portfolioHandler.HandleAllocation).Methods(http.MethodGet)
	api.HandleFunc("/portfolios/{id}/metrics", portfolioHandler.HandleMetrics).Methods(http.MethodGet)

	api.HandleFunc("/assets", assetHandler.HandleCreate).Methods(http.MethodPost)
	api.HandleFunc("/assets", assetHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/assets/refresh-prices", assetHandler.HandleRefreshPrices).Methods(http.MethodPost)
	api.HandleFunc("/assets/lookup/{symbol}", assetHandler.HandleLookup).Methods(http.MethodGet)
	api.HandleFunc("/assets/lookup/{symbol}", assetHandler.HandleCreateFromLookup).Methods(http.MethodPost)
	api.HandleFunc("/assets/historical/{symbol}", assetHandler.HandleHistorical).Methods(http.MethodGet)
	api.HandleFunc("/assets/{id}", assetHandler.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/assets/{id}", assetHandler.HandleUpdate).Methods(http.MethodPut)
	api.HandleFunc("/assets/{id}", assetHandler.HandleDelete).Methods(http.MethodDelete)

	api.HandleFunc("/transactions", transactionHandler.HandleCreate).Methods(http.MethodPost)
	api.HandleFunc("/transactions", transactionHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", transactionHandler.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", transactionHandler.HandleUpdate).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id}", transactionHandler.HandleDelete).Methods(http.MethodDelete)

	api.HandleFunc("/holdings/{id}", holdingHandler.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/holdings/{id}", holdingHandler.HandleDelete).Methods(http.MethodDelete)

	// CORS middleware
	corsHandler := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	zlog.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, corsHandler(router)); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
