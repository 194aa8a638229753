package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PurchasePending  = "pending"
	PurchaseApproved = "approved"
	PurchaseRejected = "rejected"

	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// PurchaseRequest moves pending → approved | rejected, never back.
type PurchaseRequest struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IngredientID   *uuid.UUID      `gorm:"type:uuid;index"`
	IngredientName string          `gorm:"not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Unit           string
	Urgency        string     `gorm:"type:varchar(10);not null;default:'medium'"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	RequestedBy    *uuid.UUID `gorm:"type:uuid"`
	ApprovedBy     *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt     *time.Time
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Requester *User `gorm:"foreignKey:RequestedBy"`
}
