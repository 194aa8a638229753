package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MealTypeBreakfast = "breakfast"
	MealTypeLunch     = "lunch"
	MealTypeDrink     = "drink"
)

// ValidMealType reports whether t is one of the served meal types.
func ValidMealType(t string) bool {
	switch t {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDrink:
		return true
	}
	return false
}

type Meal struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"not null;index"`
	Description *string
	MealType    string          `gorm:"type:varchar(20);not null;index"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Calories    *int
	Allergens   *string
	IsAvailable bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Recipe []RecipeEntry `gorm:"foreignKey:MealID"`
}

// PreparedBatch is a dated lot of ready portions of one meal. Quantity only
// ever decreases after creation; empty or expired batches stay for audit.
type PreparedBatch struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MealID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_batches_meal_expiry,priority:1"`
	Quantity     int        `gorm:"not null;default:0"`
	PreparedDate time.Time  `gorm:"type:date;not null"`
	ExpiryDate   *time.Time `gorm:"type:date;index:idx_batches_meal_expiry,priority:2"`
	PreparerID   *uuid.UUID `gorm:"type:uuid"`
	Notes        string
	CreatedAt    time.Time

	Meal *Meal `gorm:"foreignKey:MealID"`
}

// TableName keeps the table name readable (prepared_batches).
func (PreparedBatch) TableName() string { return "prepared_batches" }

// Eligible reports whether the batch can still serve an order on day.
// Batches without an expiry date never qualify.
func (b *PreparedBatch) Eligible(day time.Time) bool {
	return b.Quantity > 0 && b.ExpiryDate != nil && !b.ExpiryDate.Before(day)
}
