package dto

type PurchaseSubscriptionRequest struct {
	MealType string `json:"meal_type" validate:"required,oneof=breakfast lunch"`
	Weeks    int    `json:"weeks"     validate:"required,min=1,max=12"`
}

type CanUseQuery struct {
	MealType string `form:"meal_type" validate:"required,oneof=breakfast lunch drink"`
	Date     string `form:"date"      validate:"omitempty,datetime=2006-01-02"`
}

type SubscriptionResponse struct {
	ID             string `json:"id"`
	MealType       string `json:"meal_type"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	MealsPerWeek   int    `json:"meals_per_week"`
	UsedMeals      int    `json:"used_meals"`
	MealsRemaining int    `json:"meals_remaining"`
	IsActive       bool   `json:"is_active"`
}

type CanUseResponse struct {
	MealType string `json:"meal_type"`
	Date     string `json:"date"`
	CanUse   bool   `json:"can_use"`
}
