package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleStudent = "student"
	RoleChef    = "chef"
	RoleAdmin   = "admin"
)

// User is a cafeteria account. Students pay for one-time orders and
// subscriptions out of Balance.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        *string
	PasswordHash string          `gorm:"not null"`
	Role         string          `gorm:"type:varchar(20);not null;index"`
	Grade        *string         `gorm:"type:varchar(10)"`
	Balance      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Active       bool            `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
