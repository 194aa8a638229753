package model

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a prepaid weekly entitlement for one meal type.
// UsedMeals never exceeds MealsPerWeek; reaching it deactivates the row.
type Subscription struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	MealType     string    `gorm:"type:varchar(20);not null"`
	StartDate    time.Time `gorm:"type:date;not null"`
	EndDate      time.Time `gorm:"type:date;not null"`
	MealsPerWeek int       `gorm:"not null;default:5"`
	UsedMeals    int       `gorm:"not null;default:0"`
	IsActive     bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Subscription) MealsRemaining() int { return s.MealsPerWeek - s.UsedMeals }

// Covers reports whether day falls inside [StartDate, EndDate].
func (s *Subscription) Covers(day time.Time) bool {
	return !day.Before(s.StartDate) && !day.After(s.EndDate)
}
