package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentOneTime      = "one-time"
	PaymentSubscription = "subscription"

	OrderPending = "pending"
	OrderPaid    = "paid"
	OrderServed  = "served"
)

type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_orders_user_day,priority:1"`
	MealID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID       *uuid.UUID      `gorm:"type:uuid"` // batch the portion was taken from, informational
	MealDate      time.Time       `gorm:"type:date;not null;index:idx_orders_user_day,priority:2"`
	MealType      string          `gorm:"type:varchar(20);not null"`
	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending'"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	IsServed      bool            `gorm:"not null;default:false"`
	ServedAt      *time.Time
	ServedBy      *uuid.UUID `gorm:"type:uuid"`
	PaidAt        *time.Time
	CreatedAt     time.Time

	Meal *Meal `gorm:"foreignKey:MealID"`
	User *User `gorm:"foreignKey:UserID"`
}
