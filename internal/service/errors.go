package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Business-rule rejections. None of them is transient: callers surface the
// message and leave state unchanged.
var (
	ErrInvalidQuantity             = errors.New("quantity must be positive")
	ErrInvalidPortions             = errors.New("portions must be between 1 and 100")
	ErrNoRecipe                    = errors.New("meal has no recipe entries")
	ErrInsufficientIngredients     = errors.New("insufficient ingredients")
	ErrInsufficientStock           = errors.New("insufficient ingredient stock")
	ErrNoStock                     = errors.New("no prepared portions available")
	ErrInsufficientBalance         = errors.New("insufficient balance")
	ErrDuplicateActiveSubscription = errors.New("an active subscription for this meal type already exists")
	ErrAlreadyProcessed            = errors.New("already processed")
	ErrNotFound                    = errors.New("not found")

	ErrInvalidMealDate         = errors.New("meal date must not be in the past")
	ErrInvalidMealType         = errors.New("meal type is not offered for subscription")
	ErrInvalidDrink            = errors.New("drink add-on must be a meal of type drink")
	ErrMealUnavailable         = errors.New("meal is not available")
	ErrNotPaid                 = errors.New("order is not paid")
	ErrForbidden               = errors.New("operation not allowed for this user")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
	ErrSubscriptionUnavailable = errors.New("no usable subscription for this meal")
	ErrInvalidExpiryDate       = errors.New("expiry date must not be in the past")
)

// Shortfall is one ingredient line that blocked a preparation.
type Shortfall struct {
	IngredientID uuid.UUID
	Name         string
	Required     decimal.Decimal
	Available    decimal.Decimal
	Shortfall    decimal.Decimal
	Unit         string
}

// InsufficientIngredientsError is returned by Prepare when at least one
// ingredient is short. It carries every short line so the caller can turn
// it into purchase requests; errors.Is(err, ErrInsufficientIngredients) holds.
type InsufficientIngredientsError struct {
	MealID     uuid.UUID
	MealName   string
	Portions   int
	Shortfalls []Shortfall
}

func (e *InsufficientIngredientsError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s: need %s %s, have %s", s.Name, s.Required, s.Unit, s.Available))
	}
	return fmt.Sprintf("insufficient ingredients for %d portion(s) of %s (%s)",
		e.Portions, e.MealName, strings.Join(parts, "; "))
}

func (e *InsufficientIngredientsError) Is(target error) bool {
	return target == ErrInsufficientIngredients
}

// notFound maps a missing row to ErrNotFound, annotated with what was looked up.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
