package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"schoolfood/internal/dto"
	"schoolfood/internal/model"
	"schoolfood/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LedgerEntry describes why a debit or credit happens. It is stored on the
// movement row written alongside every quantity change.
type LedgerEntry struct {
	Kind        string
	Reason      string
	ReferenceID *uuid.UUID
	ActorID     *uuid.UUID
	Details     datatypes.JSONMap
}

// InventoryService is the ingredient ledger. Debit and Credit run inside the
// caller's transaction and lock the ingredient row they touch.
type InventoryService interface {
	Debit(ctx context.Context, tx *gorm.DB, ingredientID uuid.UUID, amount decimal.Decimal, entry LedgerEntry) (*model.IngredientStock, error)
	Credit(ctx context.Context, tx *gorm.DB, ingredientID uuid.UUID, amount decimal.Decimal, entry LedgerEntry) (*model.IngredientStock, error)
	Level(ctx context.Context, ingredientID uuid.UUID) (decimal.Decimal, error)

	UseIngredient(ctx context.Context, actorID uuid.UUID, req dto.UseIngredientRequest) (*dto.IngredientResponse, error)
	Upsert(ctx context.Context, actorID uuid.UUID, req dto.UpsertIngredientRequest) (*dto.IngredientResponse, error)
	List(ctx context.Context) ([]dto.IngredientResponse, error)
	LowStock(ctx context.Context) ([]dto.IngredientResponse, error)
	ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)
}

type inventoryService struct {
	repo      repository.IngredientRepository
	movements repository.MovementRepository
	alerts    alerter
	clock     Clock
}

func NewInventoryService(
	repo repository.IngredientRepository,
	movements repository.MovementRepository,
	users repository.UserRepository,
	notifier Notifier,
	clock Clock,
) InventoryService {
	return &inventoryService{
		repo:      repo,
		movements: movements,
		alerts:    alerter{notifier: notifier, users: users},
		clock:     clock,
	}
}

// ── Ledger primitives ─────────────────────────────────────────────────────────

func (s *inventoryService) Debit(ctx context.Context, tx *gorm.DB, ingredientID uuid.UUID, amount decimal.Decimal, entry LedgerEntry) (*model.IngredientStock, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	ing, err := s.repo.FindByIDForUpdateTx(tx, ingredientID)
	if err != nil {
		return nil, notFound(err, "ingredient")
	}
	if amount.GreaterThan(ing.Quantity) {
		return nil, fmt.Errorf("%w: %s has %s %s, %s requested",
			ErrInsufficientStock, ing.Name, ing.Quantity, ing.Unit, amount)
	}
	return s.apply(tx, ing, amount.Neg(), entry)
}

func (s *inventoryService) Credit(ctx context.Context, tx *gorm.DB, ingredientID uuid.UUID, amount decimal.Decimal, entry LedgerEntry) (*model.IngredientStock, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	ing, err := s.repo.FindByIDForUpdateTx(tx, ingredientID)
	if err != nil {
		return nil, notFound(err, "ingredient")
	}
	return s.apply(tx, ing, amount, entry)
}

// apply writes the new level and its movement row. ing must be locked.
func (s *inventoryService) apply(tx *gorm.DB, ing *model.IngredientStock, delta decimal.Decimal, entry LedgerEntry) (*model.IngredientStock, error) {
	before := ing.Quantity
	after := before.Add(delta)
	now := s.clock.now()

	if err := s.repo.SetQuantityTx(tx, ing.ID, after, now); err != nil {
		return nil, err
	}
	mov := &model.IngredientMovement{
		IngredientID:   ing.ID,
		Kind:           entry.Kind,
		Delta:          delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reason:         entry.Reason,
		ReferenceID:    entry.ReferenceID,
		ActorID:        entry.ActorID,
		Details:        entry.Details,
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return nil, err
	}

	ing.Quantity = after
	ing.LastUpdated = now
	return ing, nil
}

func (s *inventoryService) Level(ctx context.Context, ingredientID uuid.UUID) (decimal.Decimal, error) {
	ing, err := s.repo.FindByID(ctx, ingredientID)
	if err != nil {
		return decimal.Zero, notFound(err, "ingredient")
	}
	return ing.Quantity, nil
}

// ── Administrative operations ─────────────────────────────────────────────────

func (s *inventoryService) UseIngredient(ctx context.Context, actorID uuid.UUID, req dto.UseIngredientRequest) (*dto.IngredientResponse, error) {
	id, err := uuid.Parse(req.IngredientID)
	if err != nil {
		return nil, fmt.Errorf("invalid ingredient_id: %w", err)
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "manual use"
	}

	var ing *model.IngredientStock
	box := &outbox{}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		ing, err = s.Debit(ctx, tx, id, req.Amount, LedgerEntry{
			Kind:    model.MovementWriteOff,
			Reason:  reason,
			ActorID: &actorID,
		})
		if err != nil {
			return err
		}
		box.toUser(actorID, "Ingredient used",
			fmt.Sprintf("Used %s %s of %s. Remaining: %s %s.", req.Amount, ing.Unit, ing.Name, ing.Quantity, ing.Unit),
			model.NotifySystem)
		if ing.IsLow() {
			lowIngredientNotice(box, ing)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.alerts.flush(ctx, box)

	resp := ingredientToResponse(ing)
	return &resp, nil
}

// Upsert sets an ingredient's level by name. The difference to the previous
// level is recorded as an adjustment movement.
func (s *inventoryService) Upsert(ctx context.Context, actorID uuid.UUID, req dto.UpsertIngredientRequest) (*dto.IngredientResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New("ingredient name is required")
	}
	if req.Quantity.IsNegative() {
		return nil, ErrInvalidQuantity
	}
	if req.MinQuantity != nil && req.MinQuantity.IsNegative() {
		return nil, ErrInvalidQuantity
	}

	var ing *model.IngredientStock
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		now := s.clock.now()
		existing, err := s.repo.FindByNameForUpdateTx(tx, name)
		switch {
		case err == nil:
			ing = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			ing = &model.IngredientStock{Name: name, Unit: "pcs", LastUpdated: now}
			if req.Unit != "" {
				ing.Unit = req.Unit
			}
			if req.MinQuantity != nil {
				ing.MinQuantity = *req.MinQuantity
			}
			if err := s.repo.CreateTx(tx, ing); err != nil {
				return err
			}
		default:
			return err
		}

		before := ing.Quantity
		ing.Quantity = req.Quantity
		ing.LastUpdated = now
		if req.MinQuantity != nil {
			ing.MinQuantity = *req.MinQuantity
		}
		if err := s.repo.UpdateTx(tx, ing); err != nil {
			return err
		}

		delta := req.Quantity.Sub(before)
		if delta.IsZero() {
			return nil
		}
		return s.movements.CreateTx(tx, &model.IngredientMovement{
			IngredientID:   ing.ID,
			Kind:           model.MovementAdjustment,
			Delta:          delta,
			QuantityBefore: before,
			QuantityAfter:  req.Quantity,
			Reason:         "inventory count",
			ActorID:        &actorID,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("ingredient", ing.Name).Str("quantity", ing.Quantity.String()).Msg("inventory: level set")
	resp := ingredientToResponse(ing)
	return &resp, nil
}

func (s *inventoryService) List(ctx context.Context) ([]dto.IngredientResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return ingredientsToResponse(items), nil
}

func (s *inventoryService) LowStock(ctx context.Context) ([]dto.IngredientResponse, error) {
	items, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return ingredientsToResponse(items), nil
}

func (s *inventoryService) ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	f := repository.MovementFilter{Kind: filter.Kind, Page: filter.Page, Limit: filter.Limit}
	if filter.IngredientID != "" {
		id, err := uuid.Parse(filter.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("invalid ingredient_id: %w", err)
		}
		f.IngredientID = &id
	}
	rows, total, err := s.movements.List(ctx, f)
	if err != nil {
		return nil, err
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	out := &dto.MovementListResponse{Data: make([]dto.MovementResponse, 0, len(rows)), Total: total, Page: page, Limit: limit}
	for i := range rows {
		m := &rows[i]
		r := dto.MovementResponse{
			ID:             m.ID.String(),
			IngredientID:   m.IngredientID.String(),
			Kind:           m.Kind,
			Delta:          m.Delta,
			QuantityBefore: m.QuantityBefore,
			QuantityAfter:  m.QuantityAfter,
			Reason:         m.Reason,
			Details:        m.Details,
			CreatedAt:      formatTime(m.CreatedAt),
		}
		if m.Ingredient != nil {
			r.Ingredient = m.Ingredient.Name
		}
		if m.ReferenceID != nil {
			ref := m.ReferenceID.String()
			r.ReferenceID = &ref
		}
		out.Data = append(out.Data, r)
	}
	return out, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func lowIngredientNotice(box *outbox, ing *model.IngredientStock) {
	box.toRoles(staffRoles, "Low ingredient stock",
		fmt.Sprintf("%s is down to %s %s (minimum %s %s).", ing.Name, ing.Quantity, ing.Unit, ing.MinQuantity, ing.Unit),
		model.NotifyInventory)
}

func ingredientToResponse(i *model.IngredientStock) dto.IngredientResponse {
	return dto.IngredientResponse{
		ID:          i.ID.String(),
		Name:        i.Name,
		Quantity:    i.Quantity,
		Unit:        i.Unit,
		MinQuantity: i.MinQuantity,
		IsLow:       i.IsLow(),
		LastUpdated: formatTime(i.LastUpdated),
	}
}

func ingredientsToResponse(items []model.IngredientStock) []dto.IngredientResponse {
	out := make([]dto.IngredientResponse, 0, len(items))
	for i := range items {
		out = append(out, ingredientToResponse(&items[i]))
	}
	return out
}
