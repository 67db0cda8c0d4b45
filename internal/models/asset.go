package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/portfoliotracker/backend/internal/apperrors"
)

// AssetType categorizes an asset for diversification breakdowns.
type AssetType string

const (
	AssetTypeStock     AssetType = "stock"
	AssetTypeBond      AssetType = "bond"
	AssetTypeETF       AssetType = "etf"
	AssetTypeCash      AssetType = "cash"
	AssetTypeCrypto    AssetType = "crypto"
	AssetTypeCommodity AssetType = "commodity"
)

// Valid reports whether t is one of the known asset types.
func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeStock, AssetTypeBond, AssetTypeETF, AssetTypeCash, AssetTypeCrypto, AssetTypeCommodity:
		return true
	}
	return false
}

// Asset is a tradeable instrument identified by its symbol. Assets are shared:
// holdings and transactions across portfolios reference them, so deleting a
// portfolio never deletes an asset.
type Asset struct {
	ID       string    `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	Symbol   string    `json:"symbol" gorm:"column:symbol;type:varchar(20);not null;uniqueIndex"`
	Name     string    `json:"name" gorm:"column:name;type:varchar(200);not null"`
	Type     AssetType `json:"asset_type" gorm:"column:asset_type;type:varchar(20);not null;index"`
	Exchange *string   `json:"exchange" gorm:"column:exchange;type:varchar(50)"`
	Currency string    `json:"currency" gorm:"column:currency;type:varchar(3);not null;default:USD"`

	// CurrentPrice stays nil until the first successful price fetch. A nil
	// price excludes the asset from valuation and diversification entirely.
	CurrentPrice *decimal.Decimal `json:"current_price" gorm:"column:current_price;type:decimal(30,18)"`
	LastUpdated  *time.Time       `json:"last_updated" gorm:"column:last_updated"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for the Asset model
func (Asset) TableName() string {
	return "assets"
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Validate validates the asset data
func (a *Asset) Validate() error {
	if a.Symbol == "" {
		return &apperrors.ErrValidation{Field: "symbol", Message: "is required"}
	}
	if a.Name == "" {
		return &apperrors.ErrValidation{Field: "name", Message: "is required"}
	}
	if !a.Type.Valid() {
		return &apperrors.ErrValidation{Field: "asset_type", Message: "must be one of stock, bond, etf, cash, crypto, commodity"}
	}
	if a.CurrentPrice != nil && a.CurrentPrice.IsNegative() {
		return &apperrors.ErrValidation{Field: "current_price", Message: "must be non-negative"}
	}
	return nil
}

// HasPrice reports whether the asset carries a usable current price.
func (a *Asset) HasPrice() bool {
	return a.CurrentPrice != nil
}

// SetPrice records a freshly fetched price and its timestamp.
func (a *Asset) SetPrice(price decimal.Decimal, at time.Time) {
	a.CurrentPrice = &price
	a.LastUpdated = &at
}
