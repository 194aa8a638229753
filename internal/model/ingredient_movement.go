package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	MovementPreparation   = "preparation"
	MovementWriteOff      = "write_off"
	MovementReplenishment = "replenishment"
	MovementAdjustment    = "adjustment"
)

// IngredientMovement records every change of an ingredient's on-hand quantity.
// Rows are append-only.
type IngredientMovement struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IngredientID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind           string          `gorm:"type:varchar(20);not null"`
	Delta          decimal.Decimal `gorm:"type:decimal(12,3);not null"` // positive = credit, negative = debit
	QuantityBefore decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	QuantityAfter  decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Reason         string
	ReferenceID    *uuid.UUID        `gorm:"type:uuid"` // batch or purchase request
	ActorID        *uuid.UUID        `gorm:"type:uuid"`
	Details        datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time

	Ingredient *IngredientStock `gorm:"foreignKey:IngredientID"`
}
