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

type transactionRepository struct {
	db *db.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(database *db.DB) TransactionRepository {
	return &transactionRepository{db: database}
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Preload("Asset").First(&tx, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("transaction", id)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) List(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error) {
	q := r.db.WithContext(ctx).Preload("Asset").
		Order("transaction_date DESC, created_at DESC")

	if filter != nil {
		if filter.PortfolioID != "" {
			q = q.Where("portfolio_id = ?", filter.PortfolioID)
		}
		if filter.AssetID != "" {
			q = q.Where("asset_id = ?", filter.AssetID)
		}
		if len(filter.Types) > 0 {
			q = q.Where("transaction_type IN ?", filter.Types)
		}
		if filter.StartDate != nil {
			q = q.Where("transaction_date >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			q = q.Where("transaction_date <= ?", *filter.EndDate)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}

	var transactions []*models.Transaction
	if err := q.Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// Update corrects a stored record. Holdings are NOT re-reconciled: the
// reconciliation flow is append-only and editing history does not restate it.
func (r *transactionRepository) Update(ctx context.Context, tx *models.Transaction) error {
	existing, err := r.GetByID(ctx, tx.ID)
	if err != nil {
		return err
	}
	// Portfolio and asset references are immutable on a historical record.
	tx.PortfolioID = existing.PortfolioID
	tx.AssetID = existing.AssetID
	tx.CreatedAt = existing.CreatedAt
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(tx).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// Delete removes a stored record without re-reconciling holdings.
func (r *transactionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("transaction", id)
	}
	return nil
}
