package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/portfoliotracker/backend/internal/apperrors"
)

// Portfolio groups holdings and transactions. It owns both: deleting a
// portfolio cascades to its holdings and transactions, never to assets.
type Portfolio struct {
	ID          string  `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	Name        string  `json:"name" gorm:"column:name;type:varchar(100);not null"`
	Description *string `json:"description" gorm:"column:description;type:text"`

	Holdings     []Holding     `json:"holdings,omitempty" gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE"`
	Transactions []Transaction `json:"transactions,omitempty" gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Portfolio model
func (Portfolio) TableName() string {
	return "portfolios"
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Validate validates the portfolio data
func (p *Portfolio) Validate() error {
	if p.Name == "" {
		return &apperrors.ErrValidation{Field: "name", Message: "is required"}
	}
	return nil
}
