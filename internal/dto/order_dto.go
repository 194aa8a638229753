package dto

import "github.com/shopspring/decimal"

type PlaceOrderRequest struct {
	MealID        string  `json:"meal_id"        validate:"required,uuid"`
	DrinkID       *string `json:"drink_id"       validate:"omitempty,uuid"`
	MealDate      string  `json:"meal_date"      validate:"required,datetime=2006-01-02"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=one-time subscription"`
}

type MenuQuery struct {
	MealType string `form:"meal_type" validate:"omitempty,oneof=breakfast lunch drink"`
	Date     string `form:"date"      validate:"omitempty,datetime=2006-01-02"`
}

type OrderResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	MealID        string          `json:"meal_id"`
	Meal          string          `json:"meal,omitempty"`
	BatchID       *string         `json:"batch_id"`
	MealDate      string          `json:"meal_date"`
	MealType      string          `json:"meal_type"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	IsServed      bool            `json:"is_served"`
	ServedAt      *string         `json:"served_at"`
	PaidAt        *string         `json:"paid_at"`
	CreatedAt     string          `json:"created_at"`

	// Drink is the add-on order placed together with this one.
	Drink *OrderResponse `json:"drink,omitempty"`
}

type MenuItemResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	MealType    string          `json:"meal_type"`
	Price       decimal.Decimal `json:"price"`
	Calories    *int            `json:"calories"`
	Allergens   *string         `json:"allergens"`
	Available   int             `json:"available"`
	Batches     []BatchResponse `json:"batches"`
}

type OrderListQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=pending paid served"`
	Date   string `form:"date"   validate:"omitempty,datetime=2006-01-02"`
}
