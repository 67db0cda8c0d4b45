package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/portfoliotracker/backend/internal/apperrors"
)

// TransactionType enumerates the supported transaction kinds.
type TransactionType string

const (
	TransactionTypeBuy        TransactionType = "buy"
	TransactionTypeSell       TransactionType = "sell"
	TransactionTypeDividend   TransactionType = "dividend"
	TransactionTypeSplit      TransactionType = "split"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeBuy, TransactionTypeSell, TransactionTypeDividend,
		TransactionTypeSplit, TransactionTypeDeposit, TransactionTypeWithdrawal:
		return true
	}
	return false
}

// HoldingEffect describes how a transaction type mutates the holding set.
type HoldingEffect int

const (
	// HoldingEffectNone records the transaction without touching holdings.
	HoldingEffectNone HoldingEffect = iota
	// HoldingEffectIncrease creates or grows a position (buy).
	HoldingEffectIncrease
	// HoldingEffectDecrease shrinks or closes a position (sell).
	HoldingEffectDecrease
)

// HoldingEffect maps the type to its reconciliation behavior. Only buy and
// sell mutate holdings; dividend, split, deposit and withdrawal are recorded
// as history and nothing else.
func (t TransactionType) HoldingEffect() HoldingEffect {
	switch t {
	case TransactionTypeBuy:
		return HoldingEffectIncrease
	case TransactionTypeSell:
		return HoldingEffectDecrease
	default:
		return HoldingEffectNone
	}
}

// Transaction is an immutable historical record. The reconciliation flow is
// append-only; editing or deleting a transaction afterwards does not
// retroactively adjust holdings.
type Transaction struct {
	ID          string          `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	PortfolioID string          `json:"portfolio_id" gorm:"column:portfolio_id;type:varchar(255);not null;index"`
	AssetID     string          `json:"asset_id" gorm:"column:asset_id;type:varchar(255);not null;index"`
	Type        TransactionType `json:"transaction_type" gorm:"column:transaction_type;type:varchar(20);not null;index"`

	Quantity decimal.Decimal `json:"quantity" gorm:"column:quantity;type:decimal(30,18);not null"`
	Price    decimal.Decimal `json:"price" gorm:"column:price;type:decimal(30,18);not null"`
	Fees     decimal.Decimal `json:"fees" gorm:"column:fees;type:decimal(30,18);not null;default:0"`

	// TotalAmount is informational and stored as supplied; it is never
	// recomputed from quantity and price.
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"column:total_amount;type:decimal(30,18);not null"`

	TransactionDate time.Time `json:"transaction_date" gorm:"column:transaction_date;not null;index"`
	Notes           *string   `json:"notes" gorm:"column:notes;type:varchar(500)"`

	Asset *Asset `json:"asset,omitempty" gorm:"foreignKey:AssetID"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Validate validates the transaction data
func (t *Transaction) Validate() error {
	if t.PortfolioID == "" {
		return &apperrors.ErrValidation{Field: "portfolio_id", Message: "is required"}
	}
	if t.AssetID == "" {
		return &apperrors.ErrValidation{Field: "asset_id", Message: "is required"}
	}
	if !t.Type.Valid() {
		return &apperrors.ErrValidation{Field: "transaction_type", Message: "must be one of buy, sell, dividend, split, deposit, withdrawal"}
	}
	if !t.Quantity.IsPositive() {
		return &apperrors.ErrValidation{Field: "quantity", Message: "must be positive"}
	}
	if t.Price.IsNegative() {
		return &apperrors.ErrValidation{Field: "price", Message: "must be non-negative"}
	}
	if t.Fees.IsNegative() {
		return &apperrors.ErrValidation{Field: "fees", Message: "must be non-negative"}
	}
	if t.TransactionDate.IsZero() {
		return &apperrors.ErrValidation{Field: "transaction_date", Message: "is required"}
	}
	return nil
}

// TransactionFilter represents filters for querying transactions
type TransactionFilter struct {
	PortfolioID string
	AssetID     string
	Types       []TransactionType
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int
	Offset      int
}

// TransactionReceipt is returned by the reconciler after a successful
// process_transaction operation.
type TransactionReceipt struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}
