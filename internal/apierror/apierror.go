// Package apierror holds the JSON envelopes used for every 4xx/5xx response.
// Handlers never put database or stack details in them.
package apierror

import "schoolfood/internal/dto"

// APIError is the canonical error envelope.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Fields: fields}
}

// ShortfallError lists every ingredient line that blocked a preparation.
type ShortfallError struct {
	Detail     string              `json:"detail"`
	MealID     string              `json:"meal_id"`
	Portions   int                 `json:"portions"`
	Shortfalls []dto.ShortfallLine `json:"shortfalls"`
}

func NewShortfall(detail, mealID string, portions int, lines []dto.ShortfallLine) *ShortfallError {
	return &ShortfallError{Detail: detail, MealID: mealID, Portions: portions, Shortfalls: lines}
}
