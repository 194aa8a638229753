package repository

import (
	"context"

	"schoolfood/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRequestRepository interface {
	Create(ctx context.Context, p *model.PurchaseRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error)
	List(ctx context.Context, status string) ([]model.PurchaseRequest, error)

	CreateTx(tx *gorm.DB, p *model.PurchaseRequest) error
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.PurchaseRequest, error)
	UpdateTx(tx *gorm.DB, p *model.PurchaseRequest) error

	DB() *gorm.DB
}

type purchaseRequestRepo struct{ db *gorm.DB }

func NewPurchaseRequestRepository(db *gorm.DB) PurchaseRequestRepository {
	return &purchaseRequestRepo{db: db}
}

func (r *purchaseRequestRepo) Create(ctx context.Context, p *model.PurchaseRequest) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *purchaseRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error) {
	var p model.PurchaseRequest
	err := r.db.WithContext(ctx).Preload("Requester").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *purchaseRequestRepo) List(ctx context.Context, status string) ([]model.PurchaseRequest, error) {
	q := r.db.WithContext(ctx).Model(&model.PurchaseRequest{}).Preload("Requester")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reqs []model.PurchaseRequest
	err := q.Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

func (r *purchaseRequestRepo) CreateTx(tx *gorm.DB, p *model.PurchaseRequest) error {
	return tx.Create(p).Error
}

func (r *purchaseRequestRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.PurchaseRequest, error) {
	var p model.PurchaseRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *purchaseRequestRepo) UpdateTx(tx *gorm.DB, p *model.PurchaseRequest) error {
	return tx.Omit(clause.Associations).Save(p).Error
}

func (r *purchaseRequestRepo) DB() *gorm.DB { return r.db }
