package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/portfoliotracker/backend/internal/apperrors"
	"github.com/portfoliotracker/backend/internal/db"
	"github.com/portfoliotracker/backend/internal/models"
	"github.com/portfoliotracker/backend/internal/repositories"
)

var oneHundred = decimal.NewFromInt(100)

type portfolioService struct {
	db       *db.DB
	holdings repositories.HoldingRepository
	logger   *zap.Logger
}

// NewPortfolioService creates the portfolio engine.
func NewPortfolioService(database *db.DB, holdings repositories.HoldingRepository, logger *zap.Logger) PortfolioService {
	return &portfolioService{db: database, holdings: holdings, logger: logger}
}

// ProcessTransaction validates the transaction, applies its holding effect and
// persists the record, all inside one database transaction. If any step fails
// the whole operation rolls back: a rejected sell leaves no transaction row
// behind.
func (s *portfolioService) ProcessTransaction(ctx context.Context, tx *models.Transaction) (*models.TransactionReceipt, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	run := func(dbtx *gorm.DB) error {
		var portfolio models.Portfolio
		if err := dbtx.First(&portfolio, "id = ?", tx.PortfolioID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFound("portfolio", tx.PortfolioID)
			}
			return fmt.Errorf("failed to get portfolio: %w", err)
		}
		var asset models.Asset
		if err := dbtx.First(&asset, "id = ?", tx.AssetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFound("asset", tx.AssetID)
			}
			return fmt.Errorf("failed to get asset: %w", err)
		}

		switch tx.Type.HoldingEffect() {
		case models.HoldingEffectIncrease:
			if err := s.applyBuy(dbtx, tx); err != nil {
				return err
			}
		case models.HoldingEffectDecrease:
			if err := s.applySell(dbtx, tx, asset.Symbol); err != nil {
				return err
			}
		case models.HoldingEffectNone:
			// Recorded as history only.
		}

		if err := dbtx.Create(tx).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(run)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Two first buys for the same position can both miss the holding
		// lookup and race on the unique (portfolio, asset) index. The loser's
		// transaction is aborted, so rerun it; the second pass finds the
		// winner's row and merges into it under the lock.
		err = s.db.WithContext(ctx).Transaction(run)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction processed",
		zap.String("transaction_id", tx.ID),
		zap.String("portfolio_id", tx.PortfolioID),
		zap.String("type", string(tx.Type)))

	return &models.TransactionReceipt{TransactionID: tx.ID, Status: "processed"}, nil
}

// lockedHolding fetches the (portfolio, asset) holding row for update so that
// concurrent submissions against the same position serialize. SQLite has a
// single writer and no FOR UPDATE syntax, so the clause is Postgres-only.
func (s *portfolioService) lockedHolding(dbtx *gorm.DB, portfolioID, assetID string) (*models.Holding, error) {
	q := dbtx.Where("portfolio_id = ? AND asset_id = ?", portfolioID, assetID)
	if dbtx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var h models.Holding
	if err := q.First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *portfolioService) applyBuy(dbtx *gorm.DB, tx *models.Transaction) error {
	h, err := s.lockedHolding(dbtx, tx.PortfolioID, tx.AssetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h = &models.Holding{
			PortfolioID: tx.PortfolioID,
			AssetID:     tx.AssetID,
			Quantity:    tx.Quantity,
			AverageCost: tx.Price,
		}
		if err := dbtx.Create(h).Error; err != nil {
			return fmt.Errorf("failed to create holding: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get holding: %w", err)
	}

	h.ApplyBuy(tx.Quantity, tx.Price)
	if err := dbtx.Save(h).Error; err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	return nil
}

func (s *portfolioService) applySell(dbtx *gorm.DB, tx *models.Transaction, symbol string) error {
	h, err := s.lockedHolding(dbtx, tx.PortfolioID, tx.AssetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperrors.InsufficientHoldingsError{
			Symbol:    symbol,
			Held:      decimal.Zero,
			Requested: tx.Quantity,
		}
	}
	if err != nil {
		return fmt.Errorf("failed to get holding: %w", err)
	}
	if h.Quantity.LessThan(tx.Quantity) {
		return &apperrors.InsufficientHoldingsError{
			Symbol:    symbol,
			Held:      h.Quantity,
			Requested: tx.Quantity,
		}
	}

	h.ApplySell(tx.Quantity)
	if h.IsClosed() {
		if err := dbtx.Delete(h).Error; err != nil {
			return fmt.Errorf("failed to delete holding: %w", err)
		}
		return nil
	}
	if err := dbtx.Save(h).Error; err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	return nil
}

// CalculatePortfolioValue prices every holding against the stored current
// prices. Holdings whose asset has no price are left out of both the
// breakdown and the totals; an empty or fully unpriced portfolio values to
// zero rather than erroring.
func (s *portfolioService) CalculatePortfolioValue(ctx context.Context, portfolioID string) (*models.PortfolioValuation, error) {
	holdings, err := s.pricedHoldings(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	valuation := &models.PortfolioValuation{
		PortfolioID: portfolioID,
		Holdings:    make([]models.HoldingValuation, 0, len(holdings)),
	}
	for _, h := range holdings {
		if h.Asset == nil || !h.Asset.HasPrice() {
			continue
		}
		price := *h.Asset.CurrentPrice
		value := h.Quantity.Mul(price)
		cost := h.CostBasis()
		gainLoss := value.Sub(cost)

		hv := models.HoldingValuation{
			Asset:        assetRef(h.Asset),
			Quantity:     h.Quantity,
			AverageCost:  h.AverageCost,
			CurrentPrice: price,
			CurrentValue: value,
			CostBasis:    cost,
			GainLoss:     gainLoss,
		}
		if cost.IsPositive() {
			hv.GainLossPercent = gainLoss.Div(cost).Mul(oneHundred)
		}
		valuation.Holdings = append(valuation.Holdings, hv)

		valuation.TotalValue = valuation.TotalValue.Add(value)
		valuation.TotalCost = valuation.TotalCost.Add(cost)
	}

	valuation.TotalGainLoss = valuation.TotalValue.Sub(valuation.TotalCost)
	if valuation.TotalCost.IsPositive() {
		valuation.TotalGainLossPercent = valuation.TotalGainLoss.Div(valuation.TotalCost).Mul(oneHundred)
	}
	return valuation, nil
}

// GetPortfolioDiversification computes the percentage weight of each asset
// type and each individual holding. Unpriced holdings are excluded; when
// nothing is priced both breakdowns are empty and the total is zero.
func (s *portfolioService) GetPortfolioDiversification(ctx context.Context, portfolioID string) (*models.Diversification, error) {
	holdings, err := s.pricedHoldings(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	div := &models.Diversification{
		ByAssetType: make(map[string]decimal.Decimal),
		ByAsset:     make([]models.HoldingWeight, 0, len(holdings)),
	}

	typeValues := make(map[string]decimal.Decimal)
	for _, h := range holdings {
		if h.Asset == nil || !h.Asset.HasPrice() {
			continue
		}
		value := h.Quantity.Mul(*h.Asset.CurrentPrice)
		div.TotalValue = div.TotalValue.Add(value)
		typeValues[string(h.Asset.Type)] = typeValues[string(h.Asset.Type)].Add(value)
		div.ByAsset = append(div.ByAsset, models.HoldingWeight{
			Asset: assetRef(h.Asset),
			Value: value,
		})
	}

	if !div.TotalValue.IsPositive() {
		div.ByAsset = div.ByAsset[:0]
		return div, nil
	}

	for assetType, value := range typeValues {
		div.ByAssetType[assetType] = value.Div(div.TotalValue).Mul(oneHundred)
	}
	for i := range div.ByAsset {
		div.ByAsset[i].Percentage = div.ByAsset[i].Value.Div(div.TotalValue).Mul(oneHundred)
	}
	return div, nil
}

// pricedHoldings loads the portfolio's holdings with their assets preloaded,
// erroring when the portfolio itself does not exist.
func (s *portfolioService) pricedHoldings(ctx context.Context, portfolioID string) ([]*models.Holding, error) {
	var portfolio models.Portfolio
	if err := s.db.WithContext(ctx).First(&portfolio, "id = ?", portfolioID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("portfolio", portfolioID)
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return s.holdings.ListByPortfolio(ctx, portfolioID)
}

func assetRef(a *models.Asset) models.AssetRef {
	return models.AssetRef{ID: a.ID, Symbol: a.Symbol, Name: a.Name, Type: a.Type}
}
