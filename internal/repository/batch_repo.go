package repository

import (
	"context"
	"time"

	"schoolfood/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BatchRepository manages the prepared-stock pool. A batch is eligible on a
// day when its quantity is positive and its expiry date is not before that
// day. Eligible batches are always returned soonest-expiry first, ties broken
// by lowest id.
type BatchRepository interface {
	CreateTx(tx *gorm.DB, b *model.PreparedBatch) error
	ListEligible(ctx context.Context, mealID uuid.UUID, onDate time.Time) ([]model.PreparedBatch, error)
	SumAvailable(ctx context.Context, mealID uuid.UUID, onDate time.Time) (int, error)
	CountExpiredNonEmpty(ctx context.Context, today time.Time) (int64, error)
	// ListActive returns every batch eligible on onDate across all meals,
	// with its meal preloaded, grouped by meal.
	ListActive(ctx context.Context, onDate time.Time) ([]model.PreparedBatch, error)

	// FindFirstEligibleForUpdateTx locks the batch FEFO would serve next.
	FindFirstEligibleForUpdateTx(tx *gorm.DB, mealID uuid.UUID, onDate time.Time) (*model.PreparedBatch, error)
	// DecrementTx takes one portion off the batch. It reports false when the
	// batch was already empty so no negative quantity is ever written.
	DecrementTx(tx *gorm.DB, id uuid.UUID) (bool, error)
}

type batchRepo struct{ db *gorm.DB }

func NewBatchRepository(db *gorm.DB) BatchRepository { return &batchRepo{db: db} }

func eligible(q *gorm.DB, mealID uuid.UUID, onDate time.Time) *gorm.DB {
	return q.Where("meal_id = ? AND quantity > 0 AND expiry_date IS NOT NULL AND expiry_date >= ?",
		mealID, onDate.Format("2006-01-02"))
}

func (r *batchRepo) CreateTx(tx *gorm.DB, b *model.PreparedBatch) error {
	return tx.Create(b).Error
}

func (r *batchRepo) ListEligible(ctx context.Context, mealID uuid.UUID, onDate time.Time) ([]model.PreparedBatch, error) {
	var batches []model.PreparedBatch
	err := eligible(r.db.WithContext(ctx), mealID, onDate).
		Order("expiry_date ASC").Order("id ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) SumAvailable(ctx context.Context, mealID uuid.UUID, onDate time.Time) (int, error) {
	var total int64
	err := eligible(r.db.WithContext(ctx).Model(&model.PreparedBatch{}), mealID, onDate).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *batchRepo) CountExpiredNonEmpty(ctx context.Context, today time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.PreparedBatch{}).
		Where("quantity > 0 AND expiry_date < ?", today.Format("2006-01-02")).
		Count(&n).Error
	return n, err
}

func (r *batchRepo) ListActive(ctx context.Context, onDate time.Time) ([]model.PreparedBatch, error) {
	var batches []model.PreparedBatch
	err := r.db.WithContext(ctx).
		Preload("Meal").
		Where("quantity > 0 AND expiry_date IS NOT NULL AND expiry_date >= ?", onDate.Format("2006-01-02")).
		Order("meal_id ASC").Order("expiry_date ASC").Order("id ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) FindFirstEligibleForUpdateTx(tx *gorm.DB, mealID uuid.UUID, onDate time.Time) (*model.PreparedBatch, error) {
	var b model.PreparedBatch
	err := eligible(tx.Clauses(clause.Locking{Strength: "UPDATE"}), mealID, onDate).
		Order("expiry_date ASC").Order("id ASC").
		Take(&b).Error
	return &b, err
}

func (r *batchRepo) DecrementTx(tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := tx.Model(&model.PreparedBatch{}).
		Where("id = ? AND quantity > 0", id).
		Update("quantity", gorm.Expr("quantity - 1"))
	return res.RowsAffected == 1, res.Error
}
