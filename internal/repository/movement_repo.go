package repository

import (
	"context"

	"schoolfood/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementFilter defines filters for listing ingredient movements.
type MovementFilter struct {
	IngredientID *uuid.UUID
	Kind         string
	Page         int
	Limit        int
}

type MovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.IngredientMovement) error
	List(ctx context.Context, filter MovementFilter) ([]model.IngredientMovement, int64, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) CreateTx(tx *gorm.DB, m *model.IngredientMovement) error {
	return tx.Create(m).Error
}

func (r *movementRepo) List(ctx context.Context, filter MovementFilter) ([]model.IngredientMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.IngredientMovement{}).
		Preload("Ingredient")
	if filter.IngredientID != nil {
		q = q.Where("ingredient_id = ?", *filter.IngredientID)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var movements []model.IngredientMovement
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movements).Error
	return movements, total, err
}
