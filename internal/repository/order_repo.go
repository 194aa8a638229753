package repository

import (
	"context"
	"time"

	"schoolfood/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter defines filters for listing orders.
type OrderFilter struct {
	UserID   *uuid.UUID
	Status   string
	MealDate *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	// CountSubscriptionOrders counts the subscription-funded orders a user
	// placed for mealType on day. tx may be nil outside a transaction.
	CountSubscriptionOrders(ctx context.Context, tx *gorm.DB, userID uuid.UUID, mealType string, day time.Time) (int64, error)

	CreateTx(tx *gorm.DB, o *model.Order) error
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	UpdateTx(tx *gorm.DB, o *model.Order) error

	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Meal").First(&o, "id = ?", id).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Preload("Meal")
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.MealDate != nil {
		q = q.Where("meal_date = ?", filter.MealDate.Format("2006-01-02"))
	}
	var orders []model.Order
	err := q.Order("meal_date DESC").Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) CountSubscriptionOrders(ctx context.Context, tx *gorm.DB, userID uuid.UUID, mealType string, day time.Time) (int64, error) {
	var n int64
	err := conn(ctx, r.db, tx).Model(&model.Order{}).
		Where("user_id = ? AND meal_type = ? AND meal_date = ? AND payment_method = ?",
			userID, mealType, day.Format("2006-01-02"), model.PaymentSubscription).
		Count(&n).Error
	return n, err
}

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Create(o).Error
}

func (r *orderRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, "id = ?", id).Error
	return &o, err
}

func (r *orderRepo) UpdateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Omit(clause.Associations).Save(o).Error
}

func (r *orderRepo) DB() *gorm.DB { return r.db }
