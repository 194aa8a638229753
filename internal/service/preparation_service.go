package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"schoolfood/internal/dto"
	"schoolfood/internal/model"
	"schoolfood/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MinPortions = 1
	MaxPortions = 100
)

type PrepareInput struct {
	MealID     uuid.UUID
	Portions   int
	PreparerID uuid.UUID
	// ExpiryDate defaults to today plus the configured shelf life.
	ExpiryDate *time.Time
	Notes      string
}

// PreparationService turns raw ingredients into prepared batches.
type PreparationService interface {
	// Prepare debits recipe × portions from the ledger and creates one batch,
	// all in one transaction. When any ingredient is short it returns an
	// *InsufficientIngredientsError and changes nothing.
	Prepare(ctx context.Context, in PrepareInput) (*model.PreparedBatch, error)
	Preview(ctx context.Context, mealID uuid.UUID, portions int) (*dto.PreviewResponse, error)
	// Shortfall reports what is missing to prepare portions right now, or
	// nil when nothing is.
	Shortfall(ctx context.Context, mealID uuid.UUID, portions int) (*InsufficientIngredientsError, error)
	// ActiveBatches lists batches that can still serve today, totalled per
	// meal and sorted by meal name.
	ActiveBatches(ctx context.Context) ([]dto.MealStockResponse, error)
}

type preparationService struct {
	meals         repository.MealRepository
	recipes       RecipeService
	ingredients   repository.IngredientRepository
	batches       repository.BatchRepository
	inventory     InventoryService
	alerts        alerter
	clock         Clock
	shelfLifeDays int
}

func NewPreparationService(
	meals repository.MealRepository,
	recipes RecipeService,
	ingredients repository.IngredientRepository,
	batches repository.BatchRepository,
	inventory InventoryService,
	users repository.UserRepository,
	notifier Notifier,
	clock Clock,
	shelfLifeDays int,
) PreparationService {
	if shelfLifeDays < 0 {
		shelfLifeDays = 0
	}
	return &preparationService{
		meals:         meals,
		recipes:       recipes,
		ingredients:   ingredients,
		batches:       batches,
		inventory:     inventory,
		alerts:        alerter{notifier: notifier, users: users},
		clock:         clock,
		shelfLifeDays: shelfLifeDays,
	}
}

// need is the total amount of one ingredient a preparation consumes.
type need struct {
	Requirement
	required decimal.Decimal
}

// needsFor multiplies every requirement by portions. Lines naming the same
// ingredient twice are merged so the two-phase check sees the real total.
func needsFor(reqs []Requirement, portions int) []need {
	n := decimal.NewFromInt(int64(portions))
	out := make([]need, 0, len(reqs))
	index := make(map[uuid.UUID]int, len(reqs))
	for _, r := range reqs {
		if i, ok := index[r.IngredientID]; ok {
			out[i].QuantityPerPortion = out[i].QuantityPerPortion.Add(r.QuantityPerPortion)
			out[i].required = out[i].required.Add(r.QuantityPerPortion.Mul(n))
			continue
		}
		index[r.IngredientID] = len(out)
		out = append(out, need{Requirement: r, required: r.QuantityPerPortion.Mul(n)})
	}
	return out
}

func shortfallsOf(needs []need, levels map[uuid.UUID]*model.IngredientStock) []Shortfall {
	var out []Shortfall
	for _, nd := range needs {
		available := decimal.Zero
		if ing, ok := levels[nd.IngredientID]; ok {
			available = ing.Quantity
		}
		if nd.required.GreaterThan(available) {
			out = append(out, Shortfall{
				IngredientID: nd.IngredientID,
				Name:         nd.Name,
				Required:     nd.required,
				Available:    available,
				Shortfall:    nd.required.Sub(available),
				Unit:         nd.Unit,
			})
		}
	}
	return out
}

// plan validates the request and resolves the meal and its needs.
func (s *preparationService) plan(ctx context.Context, mealID uuid.UUID, portions int) (*model.Meal, []need, error) {
	if portions < MinPortions || portions > MaxPortions {
		return nil, nil, ErrInvalidPortions
	}
	meal, err := s.meals.FindByID(ctx, mealID)
	if err != nil {
		return nil, nil, notFound(err, "meal")
	}
	reqs, err := s.recipes.Requirements(ctx, mealID)
	if err != nil {
		return nil, nil, err
	}
	if len(reqs) == 0 {
		return nil, nil, ErrNoRecipe
	}
	return meal, needsFor(reqs, portions), nil
}

// ── Prepare ───────────────────────────────────────────────────────────────────
//   1. Validate portions, meal and recipe (outside TX)
//   2. BEGIN TX: lock every ingredient row (ascending id)
//   3. Check all levels before any debit; any shortfall aborts untouched
//   4. Debit every ingredient, create the batch
//   5. COMMIT, then notify preparer and staff (low levels)

func (s *preparationService) Prepare(ctx context.Context, in PrepareInput) (*model.PreparedBatch, error) {
	meal, needs, err := s.plan(ctx, in.MealID, in.Portions)
	if err != nil {
		return nil, err
	}

	today := s.clock.today()
	expiry := today.AddDate(0, 0, s.shelfLifeDays)
	if in.ExpiryDate != nil {
		expiry = DateOf(*in.ExpiryDate)
		if expiry.Before(today) {
			return nil, ErrInvalidExpiryDate
		}
	}

	ids := make([]uuid.UUID, 0, len(needs))
	for _, nd := range needs {
		ids = append(ids, nd.IngredientID)
	}

	preparer := in.PreparerID
	batch := &model.PreparedBatch{
		ID:           uuid.New(),
		MealID:       meal.ID,
		Quantity:     in.Portions,
		PreparedDate: today,
		ExpiryDate:   &expiry,
		PreparerID:   &preparer,
		Notes:        in.Notes,
	}
	box := &outbox{}

	txErr := runTx(ctx, s.ingredients.DB(), func(tx *gorm.DB) error {
		locked, err := s.ingredients.LockByIDsTx(tx, ids)
		if err != nil {
			return err
		}
		levels := make(map[uuid.UUID]*model.IngredientStock, len(locked))
		for i := range locked {
			levels[locked[i].ID] = &locked[i]
		}

		if short := shortfallsOf(needs, levels); len(short) > 0 {
			return &InsufficientIngredientsError{
				MealID:     meal.ID,
				MealName:   meal.Name,
				Portions:   in.Portions,
				Shortfalls: short,
			}
		}

		var usage []string
		for _, nd := range needs {
			ing, err := s.inventory.Debit(ctx, tx, nd.IngredientID, nd.required, LedgerEntry{
				Kind:        model.MovementPreparation,
				Reason:      fmt.Sprintf("prepared %d × %s", in.Portions, meal.Name),
				ReferenceID: &batch.ID,
				ActorID:     &preparer,
				Details: datatypes.JSONMap{
					"meal_id":     meal.ID.String(),
					"portions":    in.Portions,
					"per_portion": nd.QuantityPerPortion.String(),
				},
			})
			if err != nil {
				return err
			}
			usage = append(usage, fmt.Sprintf("%s %s %s", ing.Name, nd.required, nd.Unit))
			if ing.IsLow() {
				lowIngredientNotice(box, ing)
			}
		}

		if err := s.batches.CreateTx(tx, batch); err != nil {
			return err
		}

		box.toUser(preparer, "Meal prepared",
			fmt.Sprintf("Prepared %d portion(s) of %s. Used: %s.", in.Portions, meal.Name, strings.Join(usage, ", ")),
			model.NotifySystem)
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, ErrInsufficientIngredients) {
			log.Warn().Str("meal_id", meal.ID.String()).Int("portions", in.Portions).Msg("prepare: insufficient ingredients")
		}
		return nil, txErr
	}

	s.alerts.flush(ctx, box)
	log.Info().
		Str("meal_id", meal.ID.String()).
		Str("batch_id", batch.ID.String()).
		Int("portions", in.Portions).
		Msg("prepare: batch created")
	return batch, nil
}

// ── Read-only checks ──────────────────────────────────────────────────────────

func (s *preparationService) levels(ctx context.Context, needs []need) (map[uuid.UUID]*model.IngredientStock, error) {
	levels := make(map[uuid.UUID]*model.IngredientStock, len(needs))
	for _, nd := range needs {
		ing, err := s.ingredients.FindByID(ctx, nd.IngredientID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		levels[ing.ID] = ing
	}
	return levels, nil
}

func (s *preparationService) Preview(ctx context.Context, mealID uuid.UUID, portions int) (*dto.PreviewResponse, error) {
	meal, needs, err := s.plan(ctx, mealID, portions)
	if err != nil {
		return nil, err
	}
	levels, err := s.levels(ctx, needs)
	if err != nil {
		return nil, err
	}

	resp := &dto.PreviewResponse{
		MealID:     meal.ID.String(),
		MealName:   meal.Name,
		Portions:   portions,
		CanPrepare: true,
		Lines:      make([]dto.PreviewLine, 0, len(needs)),
	}
	for _, nd := range needs {
		available := decimal.Zero
		if ing, ok := levels[nd.IngredientID]; ok {
			available = ing.Quantity
		}
		ok := !nd.required.GreaterThan(available)
		resp.CanPrepare = resp.CanPrepare && ok
		resp.Lines = append(resp.Lines, dto.PreviewLine{
			IngredientID: nd.IngredientID.String(),
			Name:         nd.Name,
			PerPortion:   nd.QuantityPerPortion,
			Required:     nd.required,
			Available:    available,
			Unit:         nd.Unit,
			Sufficient:   ok,
		})
	}
	return resp, nil
}

func (s *preparationService) Shortfall(ctx context.Context, mealID uuid.UUID, portions int) (*InsufficientIngredientsError, error) {
	meal, needs, err := s.plan(ctx, mealID, portions)
	if err != nil {
		return nil, err
	}
	levels, err := s.levels(ctx, needs)
	if err != nil {
		return nil, err
	}
	short := shortfallsOf(needs, levels)
	if len(short) == 0 {
		return nil, nil
	}
	return &InsufficientIngredientsError{MealID: meal.ID, MealName: meal.Name, Portions: portions, Shortfalls: short}, nil
}

// ── Stock view ────────────────────────────────────────────────────────────────

func (s *preparationService) ActiveBatches(ctx context.Context) ([]dto.MealStockResponse, error) {
	batches, err := s.batches.ListActive(ctx, s.clock.today())
	if err != nil {
		return nil, err
	}
	byMeal := make(map[uuid.UUID]*dto.MealStockResponse)
	var order []uuid.UUID
	for i := range batches {
		b := &batches[i]
		stock, ok := byMeal[b.MealID]
		if !ok {
			meal := b.Meal
			if meal == nil {
				if meal, err = s.meals.FindByID(ctx, b.MealID); err != nil {
					return nil, notFound(err, "meal")
				}
			}
			stock = &dto.MealStockResponse{
				MealID:   b.MealID.String(),
				Meal:     meal.Name,
				MealType: meal.MealType,
				Batches:  []dto.BatchResponse{},
			}
			byMeal[b.MealID] = stock
			order = append(order, b.MealID)
		}
		stock.Total += b.Quantity
		stock.Batches = append(stock.Batches, BatchToResponse(b))
	}

	out := make([]dto.MealStockResponse, 0, len(order))
	for _, id := range order {
		out = append(out, *byMeal[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Meal < out[j].Meal })
	return out, nil
}
