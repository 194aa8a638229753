package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotifyOrder     = "order"
	NotifyPayment   = "payment"
	NotifySystem    = "system"
	NotifyInventory = "inventory"
)

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"not null"`
	Message   string    `gorm:"type:text;not null"`
	Category  string    `gorm:"type:varchar(20)"`
	IsRead    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}
