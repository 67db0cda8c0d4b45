package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfoliotracker/backend/internal/models"
)

// PortfolioRepository defines the interface for portfolio data operations
type PortfolioRepository interface {
	Create(ctx context.Context, p *models.Portfolio) error
	GetByID(ctx context.Context, id string) (*models.Portfolio, error)
	GetWithHoldings(ctx context.Context, id string) (*models.Portfolio, error)
	List(ctx context.Context, limit, offset int) ([]*models.Portfolio, error)
	Update(ctx context.Context, p *models.Portfolio) error
	// Delete removes the portfolio together with its holdings and
	// transactions in one database transaction.
	Delete(ctx context.Context, id string) error
}

// AssetRepository defines the interface for asset data operations
type AssetRepository interface {
	Create(ctx context.Context, a *models.Asset) error
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	GetBySymbol(ctx context.Context, symbol string) (*models.Asset, error)
	List(ctx context.Context, limit, offset int) ([]*models.Asset, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.Asset, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Asset, error)
	Update(ctx context.Context, a *models.Asset) error
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// HoldingRepository defines the interface for holding data operations
type HoldingRepository interface {
	// ListByPortfolio returns the portfolio's holdings joined with their
	// assets, the query the valuation and diversification engines run on.
	ListByPortfolio(ctx context.Context, portfolioID string) ([]*models.Holding, error)
	GetByID(ctx context.Context, id string) (*models.Holding, error)
	GetByPortfolioAndAsset(ctx context.Context, portfolioID, assetID string) (*models.Holding, error)
	Delete(ctx context.Context, id string) error
}

// TransactionRepository defines the interface for transaction data operations
type TransactionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	List(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error)
	// Update and Delete exist for record correction only. They do NOT
	// re-reconcile holdings; the reconciliation flow is append-only.
	Update(ctx context.Context, tx *models.Transaction) error
	Delete(ctx context.Context, id string) error
}
