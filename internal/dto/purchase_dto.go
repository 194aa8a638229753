package dto

import "github.com/shopspring/decimal"

type CreatePurchaseRequest struct {
	IngredientID   *string         `json:"ingredient_id"   validate:"omitempty,uuid"`
	IngredientName string          `json:"ingredient_name" validate:"omitempty,max=100"`
	Quantity       decimal.Decimal `json:"quantity"        validate:"required,gt=0"`
	Unit           string          `json:"unit"            validate:"omitempty,max=20"`
	Urgency        string          `json:"urgency"         validate:"omitempty,oneof=low medium high"`
	Notes          string          `json:"notes"           validate:"omitempty,max=500"`
}

// FromShortfallRequest asks for purchase requests covering whatever is
// missing to prepare Portions of a meal.
type FromShortfallRequest struct {
	MealID   string `json:"meal_id"  validate:"required,uuid"`
	Portions int    `json:"portions" validate:"required,min=1,max=100"`
	Urgency  string `json:"urgency"  validate:"omitempty,oneof=low medium high"`
}

type ReviewPurchaseRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=500"`
}

type PurchaseRequestResponse struct {
	ID             string          `json:"id"`
	IngredientID   *string         `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	Urgency        string          `json:"urgency"`
	Status         string          `json:"status"`
	RequestedBy    *string         `json:"requested_by"`
	Requester      string          `json:"requester,omitempty"`
	ApprovedBy     *string         `json:"approved_by"`
	ApprovedAt     *string         `json:"approved_at"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

type PurchaseListQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=pending approved rejected"`
}
