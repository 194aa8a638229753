package dto

import "github.com/shopspring/decimal"

type PrepareRequest struct {
	MealID     string  `json:"meal_id"     validate:"required,uuid"`
	Portions   int     `json:"portions"    validate:"required,min=1,max=100"`
	ExpiryDate *string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	Notes      string  `json:"notes"       validate:"omitempty,max=500"`
}

type PreviewQuery struct {
	MealID   string `form:"meal_id"  validate:"required,uuid"`
	Portions int    `form:"portions" validate:"required,min=1,max=100"`
}

type BatchResponse struct {
	ID           string  `json:"id"`
	MealID       string  `json:"meal_id"`
	Quantity     int     `json:"quantity"`
	PreparedDate string  `json:"prepared_date"`
	ExpiryDate   *string `json:"expiry_date"`
	PreparerID   *string `json:"preparer_id"`
	Notes        string  `json:"notes,omitempty"`
}

// MealStockResponse is one meal's prepared portions that can still be served.
type MealStockResponse struct {
	MealID   string          `json:"meal_id"`
	Meal     string          `json:"meal"`
	MealType string          `json:"meal_type"`
	Total    int             `json:"total"`
	Batches  []BatchResponse `json:"batches"`
}

type PreviewLine struct {
	IngredientID string          `json:"ingredient_id"`
	Name         string          `json:"name"`
	PerPortion   decimal.Decimal `json:"per_portion"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	Unit         string          `json:"unit"`
	Sufficient   bool            `json:"sufficient"`
}

type PreviewResponse struct {
	MealID     string        `json:"meal_id"`
	MealName   string        `json:"meal_name"`
	Portions   int           `json:"portions"`
	CanPrepare bool          `json:"can_prepare"`
	Lines      []PreviewLine `json:"lines"`
}

type ShortfallLine struct {
	IngredientID string          `json:"ingredient_id"`
	Name         string          `json:"name"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	Shortfall    decimal.Decimal `json:"shortfall"`
	Unit         string          `json:"unit"`
}
