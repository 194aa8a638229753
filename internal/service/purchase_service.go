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
	"gorm.io/gorm"
)

// newIngredientMinRatio sets the reorder threshold of an ingredient first
// introduced by an approved purchase request.
var newIngredientMinRatio = decimal.NewFromFloat(0.2)

// SlipQueue schedules the purchase slip (PDF + e-mail) of an approved request.
type SlipQueue interface {
	EnqueuePurchaseSlip(ctx context.Context, requestID uuid.UUID) error
}

// PurchaseService runs the replenishment workflow:
// pending → approved | rejected, both terminal.
type PurchaseService interface {
	CreateRequest(ctx context.Context, requesterID uuid.UUID, req dto.CreatePurchaseRequest) (*dto.PurchaseRequestResponse, error)
	// RequestFromShortfall opens one pending request per short ingredient of
	// a failed preparation.
	RequestFromShortfall(ctx context.Context, requesterID uuid.UUID, short *InsufficientIngredientsError, urgency string) ([]dto.PurchaseRequestResponse, error)
	Approve(ctx context.Context, requestID, approverID uuid.UUID) (*dto.PurchaseRequestResponse, error)
	Reject(ctx context.Context, requestID, approverID uuid.UUID, notes string) (*dto.PurchaseRequestResponse, error)
	List(ctx context.Context, status string) ([]dto.PurchaseRequestResponse, error)
}

type purchaseService struct {
	repo        repository.PurchaseRequestRepository
	ingredients repository.IngredientRepository
	inventory   InventoryService
	slips       SlipQueue
	alerts      alerter
	clock       Clock
}

func NewPurchaseService(
	repo repository.PurchaseRequestRepository,
	ingredients repository.IngredientRepository,
	inventory InventoryService,
	users repository.UserRepository,
	notifier Notifier,
	slips SlipQueue,
	clock Clock,
) PurchaseService {
	return &purchaseService{
		repo:        repo,
		ingredients: ingredients,
		inventory:   inventory,
		slips:       slips,
		alerts:      alerter{notifier: notifier, users: users},
		clock:       clock,
	}
}

func normalizeUrgency(u string) (string, error) {
	switch u {
	case "":
		return model.UrgencyMedium, nil
	case model.UrgencyLow, model.UrgencyMedium, model.UrgencyHigh:
		return u, nil
	}
	return "", fmt.Errorf("invalid urgency %q", u)
}

func (s *purchaseService) CreateRequest(ctx context.Context, requesterID uuid.UUID, req dto.CreatePurchaseRequest) (*dto.PurchaseRequestResponse, error) {
	if !req.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	urgency, err := normalizeUrgency(req.Urgency)
	if err != nil {
		return nil, err
	}

	p := &model.PurchaseRequest{
		IngredientName: strings.TrimSpace(req.IngredientName),
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		Urgency:        urgency,
		Status:         model.PurchasePending,
		RequestedBy:    &requesterID,
		Notes:          req.Notes,
	}

	switch {
	case req.IngredientID != nil && *req.IngredientID != "":
		id, err := uuid.Parse(*req.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("invalid ingredient_id: %w", err)
		}
		ing, err := s.ingredients.FindByID(ctx, id)
		if err != nil {
			return nil, notFound(err, "ingredient")
		}
		p.IngredientID = &ing.ID
		p.IngredientName = ing.Name
		if p.Unit == "" {
			p.Unit = ing.Unit
		}
	case p.IngredientName != "":
		// Link to an existing row when the name is already known.
		if ing, err := s.ingredients.FindByName(ctx, p.IngredientName); err == nil {
			p.IngredientID = &ing.ID
			if p.Unit == "" {
				p.Unit = ing.Unit
			}
		}
	default:
		return nil, errors.New("ingredient_id or ingredient_name is required")
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	box := &outbox{}
	box.toRoles(adminRoles, "New purchase request",
		fmt.Sprintf("%s %s of %s requested (%s urgency).", p.Quantity, p.Unit, p.IngredientName, p.Urgency),
		model.NotifyInventory)
	s.alerts.flush(ctx, box)

	resp := purchaseToResponse(p)
	return &resp, nil
}

func (s *purchaseService) RequestFromShortfall(ctx context.Context, requesterID uuid.UUID, short *InsufficientIngredientsError, urgency string) ([]dto.PurchaseRequestResponse, error) {
	if short == nil || len(short.Shortfalls) == 0 {
		return []dto.PurchaseRequestResponse{}, nil
	}
	urgency, err := normalizeUrgency(urgency)
	if err != nil {
		return nil, err
	}

	created := make([]*model.PurchaseRequest, 0, len(short.Shortfalls))
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, line := range short.Shortfalls {
			ingredientID := line.IngredientID
			p := &model.PurchaseRequest{
				IngredientID:   &ingredientID,
				IngredientName: line.Name,
				Quantity:       line.Shortfall,
				Unit:           line.Unit,
				Urgency:        urgency,
				Status:         model.PurchasePending,
				RequestedBy:    &requesterID,
				Notes:          fmt.Sprintf("needed for %d portion(s) of %s", short.Portions, short.MealName),
			}
			if err := s.repo.CreateTx(tx, p); err != nil {
				return err
			}
			created = append(created, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	box := &outbox{}
	box.toRoles(adminRoles, "New purchase requests",
		fmt.Sprintf("%d ingredient(s) requested to prepare %d portion(s) of %s.", len(created), short.Portions, short.MealName),
		model.NotifyInventory)
	s.alerts.flush(ctx, box)

	out := make([]dto.PurchaseRequestResponse, 0, len(created))
	for _, p := range created {
		out = append(out, purchaseToResponse(p))
	}
	return out, nil
}

// ── Approve / Reject ──────────────────────────────────────────────────────────
// Both lock the request row; only a pending request can move.

func (s *purchaseService) Approve(ctx context.Context, requestID, approverID uuid.UUID) (*dto.PurchaseRequestResponse, error) {
	var p *model.PurchaseRequest
	box := &outbox{}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByIDForUpdateTx(tx, requestID)
		if err != nil {
			return notFound(err, "purchase request")
		}
		if p.Status != model.PurchasePending {
			return ErrAlreadyProcessed
		}

		ing, err := s.resolveIngredient(tx, p)
		if err != nil {
			return err
		}
		ing, err = s.inventory.Credit(ctx, tx, ing.ID, p.Quantity, LedgerEntry{
			Kind:        model.MovementReplenishment,
			Reason:      "purchase request approved",
			ReferenceID: &p.ID,
			ActorID:     &approverID,
		})
		if err != nil {
			return err
		}

		now := s.clock.now()
		p.IngredientID = &ing.ID
		p.Status = model.PurchaseApproved
		p.ApprovedBy = &approverID
		p.ApprovedAt = &now
		if err := s.repo.UpdateTx(tx, p); err != nil {
			return err
		}

		if p.RequestedBy != nil {
			box.toUser(*p.RequestedBy, "Purchase request approved",
				fmt.Sprintf("%s %s of %s approved. Stock is now %s %s.", p.Quantity, ing.Unit, ing.Name, ing.Quantity, ing.Unit),
				model.NotifyInventory)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.alerts.flush(ctx, box)
	if s.slips != nil {
		if err := s.slips.EnqueuePurchaseSlip(context.WithoutCancel(ctx), p.ID); err != nil {
			log.Warn().Err(err).Str("request_id", p.ID.String()).Msg("purchase: slip not queued")
		}
	}
	log.Info().Str("request_id", p.ID.String()).Str("approver_id", approverID.String()).Msg("purchase: approved")
	resp := purchaseToResponse(p)
	return &resp, nil
}

// resolveIngredient finds the ledger row a request credits: by id, else by
// name, else a new row whose threshold is a fifth of the purchased amount.
func (s *purchaseService) resolveIngredient(tx *gorm.DB, p *model.PurchaseRequest) (*model.IngredientStock, error) {
	if p.IngredientID != nil {
		ing, err := s.ingredients.FindByIDForUpdateTx(tx, *p.IngredientID)
		if err == nil {
			return ing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	ing, err := s.ingredients.FindByNameForUpdateTx(tx, p.IngredientName)
	if err == nil {
		return ing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	unit := p.Unit
	if unit == "" {
		unit = "pcs"
	}
	ing = &model.IngredientStock{
		Name:        p.IngredientName,
		Unit:        unit,
		MinQuantity: p.Quantity.Mul(newIngredientMinRatio),
		LastUpdated: s.clock.now(),
	}
	if err := s.ingredients.CreateTx(tx, ing); err != nil {
		return nil, err
	}
	return ing, nil
}

func (s *purchaseService) Reject(ctx context.Context, requestID, approverID uuid.UUID, notes string) (*dto.PurchaseRequestResponse, error) {
	var p *model.PurchaseRequest
	box := &outbox{}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByIDForUpdateTx(tx, requestID)
		if err != nil {
			return notFound(err, "purchase request")
		}
		if p.Status != model.PurchasePending {
			return ErrAlreadyProcessed
		}
		now := s.clock.now()
		p.Status = model.PurchaseRejected
		p.ApprovedBy = &approverID
		p.ApprovedAt = &now
		if notes = strings.TrimSpace(notes); notes != "" {
			p.Notes = strings.TrimSpace(p.Notes + "\n" + notes)
		}
		if err := s.repo.UpdateTx(tx, p); err != nil {
			return err
		}
		if p.RequestedBy != nil {
			box.toUser(*p.RequestedBy, "Purchase request rejected",
				fmt.Sprintf("Request for %s %s of %s was rejected.", p.Quantity, p.Unit, p.IngredientName),
				model.NotifyInventory)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.alerts.flush(ctx, box)
	resp := purchaseToResponse(p)
	return &resp, nil
}

func (s *purchaseService) List(ctx context.Context, status string) ([]dto.PurchaseRequestResponse, error) {
	reqs, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PurchaseRequestResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, purchaseToResponse(&reqs[i]))
	}
	return out, nil
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func purchaseToResponse(p *model.PurchaseRequest) dto.PurchaseRequestResponse {
	r := dto.PurchaseRequestResponse{
		ID:             p.ID.String(),
		IngredientID:   uuidPtrString(p.IngredientID),
		IngredientName: p.IngredientName,
		Quantity:       p.Quantity,
		Unit:           p.Unit,
		Urgency:        p.Urgency,
		Status:         p.Status,
		RequestedBy:    uuidPtrString(p.RequestedBy),
		ApprovedBy:     uuidPtrString(p.ApprovedBy),
		ApprovedAt:     formatTimePtr(p.ApprovedAt),
		Notes:          p.Notes,
		CreatedAt:      formatTime(p.CreatedAt),
	}
	if p.Requester != nil {
		r.Requester = p.Requester.Username
	}
	return r
}
