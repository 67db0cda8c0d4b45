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

type portfolioRepository struct {
	db *db.DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(database *db.DB) PortfolioRepository {
	return &portfolioRepository{db: database}
}

func (r *portfolioRepository) Create(ctx context.Context, p *models.Portfolio) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}
	return nil
}

func (r *portfolioRepository) GetByID(ctx context.Context, id string) (*models.Portfolio, error) {
	var p models.Portfolio
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("portfolio", id)
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return &p, nil
}

func (r *portfolioRepository) GetWithHoldings(ctx context.Context, id string) (*models.Portfolio, error) {
	var p models.Portfolio
	err := r.db.WithContext(ctx).
		Preload("Holdings").
		Preload("Holdings.Asset").
		First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("portfolio", id)
		}
		return nil, fmt.Errorf("failed to get portfolio with holdings: %w", err)
	}
	return &p, nil
}

func (r *portfolioRepository) List(ctx context.Context, limit, offset int) ([]*models.Portfolio, error) {
	var portfolios []*models.Portfolio
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&portfolios).Error; err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	return portfolios, nil
}

func (r *portfolioRepository) Update(ctx context.Context, p *models.Portfolio) error {
	if err := p.Validate(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&models.Portfolio{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"description": p.Description,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update portfolio: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("portfolio", p.ID)
	}
	return nil
}

// Delete removes the portfolio and everything it owns. Holdings and
// transactions are deleted explicitly so the cascade does not depend on
// driver-level foreign key enforcement.
func (r *portfolioRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Portfolio
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFound("portfolio", id)
			}
			return fmt.Errorf("failed to get portfolio: %w", err)
		}
		if err := tx.Where("portfolio_id = ?", id).Delete(&models.Holding{}).Error; err != nil {
			return fmt.Errorf("failed to delete portfolio holdings: %w", err)
		}
		if err := tx.Where("portfolio_id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return fmt.Errorf("failed to delete portfolio transactions: %w", err)
		}
		if err := tx.Delete(&p).Error; err != nil {
			return fmt.Errorf("failed to delete portfolio: %w", err)
		}
		return nil
	})
}
