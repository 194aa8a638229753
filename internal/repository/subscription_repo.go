package repository

import (
	"context"
	"time"

	"schoolfood/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository interface {
	FindActive(ctx context.Context, userID uuid.UUID, mealType string) (*model.Subscription, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Subscription, error)
	// DeactivateAllExpired flips is_active on every active row whose end date
	// is before today. Used by the housekeeping cron.
	DeactivateAllExpired(ctx context.Context, today time.Time) (int64, error)

	CreateTx(tx *gorm.DB, s *model.Subscription) error
	FindActiveForUpdateTx(tx *gorm.DB, userID uuid.UUID, mealType string) (*model.Subscription, error)
	DeactivateExpiredTx(tx *gorm.DB, userID uuid.UUID, mealType string, today time.Time) (int64, error)
	UpdateTx(tx *gorm.DB, s *model.Subscription) error

	DB() *gorm.DB
}

type subscriptionRepo struct{ db *gorm.DB }

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) FindActive(ctx context.Context, userID uuid.UUID, mealType string) (*model.Subscription, error) {
	var s model.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND meal_type = ? AND is_active = true", userID, mealType).
		First(&s).Error
	return &s, err
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("start_date DESC").Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepo) DeactivateAllExpired(ctx context.Context, today time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("is_active = true AND end_date < ?", today.Format("2006-01-02")).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *subscriptionRepo) CreateTx(tx *gorm.DB, s *model.Subscription) error {
	return tx.Create(s).Error
}

func (r *subscriptionRepo) FindActiveForUpdateTx(tx *gorm.DB, userID uuid.UUID, mealType string) (*model.Subscription, error) {
	var s model.Subscription
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND meal_type = ? AND is_active = true", userID, mealType).
		First(&s).Error
	return &s, err
}

func (r *subscriptionRepo) DeactivateExpiredTx(tx *gorm.DB, userID uuid.UUID, mealType string, today time.Time) (int64, error) {
	res := tx.Model(&model.Subscription{}).
		Where("user_id = ? AND meal_type = ? AND is_active = true AND end_date < ?",
			userID, mealType, today.Format("2006-01-02")).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *subscriptionRepo) UpdateTx(tx *gorm.DB, s *model.Subscription) error {
	return tx.Save(s).Error
}

func (r *subscriptionRepo) DB() *gorm.DB { return r.db }
