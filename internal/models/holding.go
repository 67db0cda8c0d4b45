package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Holding is the current position of one asset inside one portfolio.
// Invariant: at most one row per (portfolio_id, asset_id). A holding is
// created by the first buy, adjusted by later buys and sells, and deleted
// when a sell brings the quantity to exactly zero.
type Holding struct {
	ID          string `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	PortfolioID string `json:"portfolio_id" gorm:"column:portfolio_id;type:varchar(255);not null;uniqueIndex:idx_holdings_portfolio_asset"`
	AssetID     string `json:"asset_id" gorm:"column:asset_id;type:varchar(255);not null;uniqueIndex:idx_holdings_portfolio_asset"`

	Quantity    decimal.Decimal `json:"quantity" gorm:"column:quantity;type:decimal(30,18);not null"`
	AverageCost decimal.Decimal `json:"average_cost" gorm:"column:average_cost;type:decimal(30,18);not null"`

	Asset *Asset `json:"asset,omitempty" gorm:"foreignKey:AssetID"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Holding model
func (Holding) TableName() string {
	return "holdings"
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// CostBasis is the total amount invested in the current position.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AverageCost)
}

// ApplyBuy folds a purchase into the position using the quantity-weighted
// average cost. Safe for quantity > 0: the new quantity is always positive.
func (h *Holding) ApplyBuy(quantity, price decimal.Decimal) {
	newQuantity := h.Quantity.Add(quantity)
	h.AverageCost = h.Quantity.Mul(h.AverageCost).
		Add(quantity.Mul(price)).
		Div(newQuantity)
	h.Quantity = newQuantity
}

// ApplySell reduces the position. Average cost is deliberately untouched:
// realized gains are not tracked here. Callers must have verified
// h.Quantity >= quantity beforehand.
func (h *Holding) ApplySell(quantity decimal.Decimal) {
	h.Quantity = h.Quantity.Sub(quantity)
}

// IsClosed reports whether the position reached exactly zero and should be
// removed rather than kept as an empty row.
func (h *Holding) IsClosed() bool {
	return h.Quantity.IsZero()
}
