package repository

import (
	"context"

	"schoolfood/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealFilter narrows the menu listing. Empty MealType means every type.
type MealFilter struct {
	MealType      string
	OnlyAvailable bool
}

type MealRepository interface {
	Create(ctx context.Context, m *model.Meal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Meal, error)
	List(ctx context.Context, filter MealFilter) ([]model.Meal, error)
	Update(ctx context.Context, m *model.Meal) error
}

type mealRepo struct{ db *gorm.DB }

func NewMealRepository(db *gorm.DB) MealRepository { return &mealRepo{db: db} }

func (r *mealRepo) Create(ctx context.Context, m *model.Meal) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *mealRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Meal, error) {
	var m model.Meal
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return &m, err
}

func (r *mealRepo) List(ctx context.Context, filter MealFilter) ([]model.Meal, error) {
	q := r.db.WithContext(ctx).Model(&model.Meal{})
	if filter.MealType != "" {
		q = q.Where("meal_type = ?", filter.MealType)
	}
	if filter.OnlyAvailable {
		q = q.Where("is_available = true")
	}
	var meals []model.Meal
	err := q.Order("name ASC").Find(&meals).Error
	return meals, err
}

func (r *mealRepo) Update(ctx context.Context, m *model.Meal) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// RecipeRepository reads and writes the per-portion ingredient table.
type RecipeRepository interface {
	Create(ctx context.Context, e *model.RecipeEntry) error
	// ListByMeal returns the entries of a meal with their ingredient preloaded.
	ListByMeal(ctx context.Context, mealID uuid.UUID) ([]model.RecipeEntry, error)
}

type recipeRepo struct{ db *gorm.DB }

func NewRecipeRepository(db *gorm.DB) RecipeRepository { return &recipeRepo{db: db} }

func (r *recipeRepo) Create(ctx context.Context, e *model.RecipeEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *recipeRepo) ListByMeal(ctx context.Context, mealID uuid.UUID) ([]model.RecipeEntry, error) {
	var entries []model.RecipeEntry
	err := r.db.WithContext(ctx).
		Preload("Ingredient").
		Where("meal_id = ?", mealID).
		Find(&entries).Error
	return entries, err
}
