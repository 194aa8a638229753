package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IngredientStock is one row of the inventory ledger.
// Quantity never goes negative; LastUpdated moves on every debit or credit.
type IngredientStock struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string          `gorm:"uniqueIndex;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	Unit        string          `gorm:"type:varchar(20);not null;default:'pcs'"`
	MinQuantity decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	LastUpdated time.Time       `gorm:"not null"`
	CreatedAt   time.Time
}

// IsLow reports whether the on-hand quantity has reached the reorder threshold.
func (s *IngredientStock) IsLow() bool {
	return s.Quantity.LessThanOrEqual(s.MinQuantity)
}

// RecipeEntry is the per-portion requirement of one ingredient for one meal.
type RecipeEntry struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MealID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_meal_ingredient"`
	IngredientID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_meal_ingredient"`
	QuantityPerPortion decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	// Unit is optional; an empty value means "use the ingredient's unit".
	Unit      string
	CreatedAt time.Time

	Ingredient *IngredientStock `gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT"`
}

// EffectiveUnit resolves the unit the requirement is expressed in.
func (e *RecipeEntry) EffectiveUnit() string {
	if e.Unit != "" {
		return e.Unit
	}
	if e.Ingredient != nil {
		return e.Ingredient.Unit
	}
	return ""
}
