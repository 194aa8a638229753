package dto

import "github.com/shopspring/decimal"

type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

type BalanceResponse struct {
	UserID  string          `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

type NotificationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

type NotificationQuery struct {
	Unread bool `form:"unread"`
}
