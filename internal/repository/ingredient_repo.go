package repository

import (
	"context"
	"time"

	"schoolfood/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngredientRepository is the data access contract for the inventory ledger.
// Every *Tx method expects the caller's transaction; the ForUpdate variants
// take a row lock that is held until that transaction ends.
type IngredientRepository interface {
	Create(ctx context.Context, i *model.IngredientStock) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.IngredientStock, error)
	FindByName(ctx context.Context, name string) (*model.IngredientStock, error)
	List(ctx context.Context) ([]model.IngredientStock, error)
	ListLowStock(ctx context.Context) ([]model.IngredientStock, error)

	CreateTx(tx *gorm.DB, i *model.IngredientStock) error
	// LockByIDsTx locks the given rows in ascending id order so that two
	// preparations touching overlapping ingredients cannot deadlock.
	LockByIDsTx(tx *gorm.DB, ids []uuid.UUID) ([]model.IngredientStock, error)
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.IngredientStock, error)
	FindByNameForUpdateTx(tx *gorm.DB, name string) (*model.IngredientStock, error)
	SetQuantityTx(tx *gorm.DB, id uuid.UUID, quantity decimal.Decimal, at time.Time) error
	UpdateTx(tx *gorm.DB, i *model.IngredientStock) error

	DB() *gorm.DB
}

type ingredientRepo struct{ db *gorm.DB }

func NewIngredientRepository(db *gorm.DB) IngredientRepository { return &ingredientRepo{db: db} }

func (r *ingredientRepo) Create(ctx context.Context, i *model.IngredientStock) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *ingredientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.IngredientStock, error) {
	var i model.IngredientStock
	err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error
	return &i, err
}

func (r *ingredientRepo) FindByName(ctx context.Context, name string) (*model.IngredientStock, error) {
	var i model.IngredientStock
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&i).Error
	return &i, err
}

func (r *ingredientRepo) List(ctx context.Context) ([]model.IngredientStock, error) {
	var items []model.IngredientStock
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *ingredientRepo) ListLowStock(ctx context.Context) ([]model.IngredientStock, error) {
	var items []model.IngredientStock
	err := r.db.WithContext(ctx).
		Where("quantity <= min_quantity").
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *ingredientRepo) CreateTx(tx *gorm.DB, i *model.IngredientStock) error {
	return tx.Create(i).Error
}

func (r *ingredientRepo) LockByIDsTx(tx *gorm.DB, ids []uuid.UUID) ([]model.IngredientStock, error) {
	var items []model.IngredientStock
	if len(ids) == 0 {
		return items, nil
	}
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *ingredientRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.IngredientStock, error) {
	var i model.IngredientStock
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&i, "id = ?", id).Error
	return &i, err
}

func (r *ingredientRepo) FindByNameForUpdateTx(tx *gorm.DB, name string) (*model.IngredientStock, error) {
	var i model.IngredientStock
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("name = ?", name).First(&i).Error
	return &i, err
}

func (r *ingredientRepo) SetQuantityTx(tx *gorm.DB, id uuid.UUID, quantity decimal.Decimal, at time.Time) error {
	return tx.Model(&model.IngredientStock{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity":     quantity,
		"last_updated": at,
	}).Error
}

func (r *ingredientRepo) UpdateTx(tx *gorm.DB, i *model.IngredientStock) error {
	return tx.Save(i).Error
}

func (r *ingredientRepo) DB() *gorm.DB { return r.db }
