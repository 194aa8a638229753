package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// UpsertIngredientRequest sets the on-hand level of an ingredient by name,
// creating the row when it does not exist yet.
type UpsertIngredientRequest struct {
	Name        string           `json:"name"         validate:"required,min=1,max=100"`
	Quantity    decimal.Decimal  `json:"quantity"     validate:"min=0"`
	Unit        string           `json:"unit"         validate:"omitempty,max=20"`
	MinQuantity *decimal.Decimal `json:"min_quantity"`
}

type UseIngredientRequest struct {
	IngredientID string          `json:"ingredient_id" validate:"required,uuid"`
	Amount       decimal.Decimal `json:"amount"        validate:"required,gt=0"`
	Reason       string          `json:"reason"        validate:"omitempty,max=255"`
}

type MovementFilter struct {
	IngredientID string `form:"ingredient_id" validate:"omitempty,uuid"`
	Kind         string `form:"kind"          validate:"omitempty,oneof=preparation write_off replenishment adjustment"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type IngredientResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	IsLow       bool            `json:"is_low"`
	LastUpdated string          `json:"last_updated"`
}

type MovementResponse struct {
	ID             string                 `json:"id"`
	IngredientID   string                 `json:"ingredient_id"`
	Ingredient     string                 `json:"ingredient"`
	Kind           string                 `json:"kind"`
	Delta          decimal.Decimal        `json:"delta"`
	QuantityBefore decimal.Decimal        `json:"quantity_before"`
	QuantityAfter  decimal.Decimal        `json:"quantity_after"`
	Reason         string                 `json:"reason"`
	ReferenceID    *string                `json:"reference_id"`
	Details        map[string]interface{} `json:"details,omitempty"`
	CreatedAt      string                 `json:"created_at"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
