package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/portfoliotracker/backend/internal/apperrors"
	"github.com/portfoliotracker/backend/internal/db"
	"github.com/portfoliotracker/backend/internal/models"
)

type assetRepository struct {
	db *db.DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(database *db.DB) AssetRepository {
	return &assetRepository{db: database}
}

func (r *assetRepository) Create(ctx context.Context, a *models.Asset) error {
	a.Symbol = strings.ToUpper(a.Symbol)
	if a.Currency == "" {
		a.Currency = "USD"
	}
	if err := a.Validate(); err != nil {
		return err
	}

	// Symbol is unique and immutable after creation.
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("symbol = ?", a.Symbol).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check symbol uniqueness: %w", err)
	}
	if count > 0 {
		return &apperrors.ErrValidation{Field: "symbol", Message: "already exists"}
	}

	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

func (r *assetRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	var a models.Asset
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("asset", id)
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return &a, nil
}

func (r *assetRepository) GetBySymbol(ctx context.Context, symbol string) (*models.Asset, error) {
	var a models.Asset
	err := r.db.WithContext(ctx).First(&a, "symbol = ?", strings.ToUpper(symbol)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("asset", symbol)
		}
		return nil, fmt.Errorf("failed to get asset by symbol: %w", err)
	}
	return &a, nil
}

func (r *assetRepository) List(ctx context.Context, limit, offset int) ([]*models.Asset, error) {
	var assets []*models.Asset
	q := r.db.WithContext(ctx).Order("symbol ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

func (r *assetRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Asset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var assets []*models.Asset
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to list assets by ids: %w", err)
	}
	return assets, nil
}

func (r *assetRepository) Search(ctx context.Context, query string, limit int) ([]*models.Asset, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + strings.ToUpper(query) + "%"
	var assets []*models.Asset
	err := r.db.WithContext(ctx).
		Where("UPPER(symbol) LIKE ? OR UPPER(name) LIKE ?", pattern, pattern).
		Order("symbol ASC").
		Limit(limit).
		Find(&assets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search assets: %w", err)
	}
	return assets, nil
}

func (r *assetRepository) Update(ctx context.Context, a *models.Asset) error {
	existing, err := r.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	// The symbol is immutable; ignore any attempt to change it.
	a.Symbol = existing.Symbol
	if a.Currency == "" {
		a.Currency = existing.Currency
	}
	if err := a.Validate(); err != nil {
		return err
	}
	// Only the metadata columns are written. Prices go through UpdatePrice,
	// so a request body without current_price cannot clear the stored price.
	err = r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"name":       a.Name,
			"asset_type": a.Type,
			"exchange":   a.Exchange,
			"currency":   a.Currency,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	return nil
}

func (r *assetRepository) UpdatePrice(ctx context.Context, id string, price decimal.Decimal, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_price": price,
			"last_updated":  at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update asset price: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("asset", id)
	}
	return nil
}

func (r *assetRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Asset{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete asset: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("asset", id)
	}
	return nil
}
