package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/portfoliotracker/backend/internal/apperrors"
	"github.com/portfoliotracker/backend/internal/db"
	"github.com/portfoliotracker/backend/internal/models"
)

type holdingRepository struct {
	db *db.DB
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(database *db.DB) HoldingRepository {
	return &holdingRepository{db: database}
}

func (r *holdingRepository) ListByPortfolio(ctx context.Context, portfolioID string) ([]*models.Holding, error) {
	var holdings []*models.Holding
	err := r.db.WithContext(ctx).
		Preload("Asset").
		Where("portfolio_id = ?", portfolioID).
		Order("created_at ASC").
		Find(&holdings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return holdings, nil
}

func (r *holdingRepository) GetByID(ctx context.Context, id string) (*models.Holding, error) {
	var h models.Holding
	err := r.db.WithContext(ctx).Preload("Asset").First(&h, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("holding", id)
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &h, nil
}

func (r *holdingRepository) GetByPortfolioAndAsset(ctx context.Context, portfolioID, assetID string) (*models.Holding, error) {
	var h models.Holding
	err := r.db.WithContext(ctx).
		Where("portfolio_id = ? AND asset_id = ?", portfolioID, assetID).
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("holding", portfolioID+"/"+assetID)
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &h, nil
}

func (r *holdingRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Holding{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete holding: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("holding", id)
	}
	return nil
}
