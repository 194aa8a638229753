package service

import (
	"bytes"
	"context"
	"sort"

	"schoolfood/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Requirement is one recipe line resolved against its ingredient.
type Requirement struct {
	IngredientID       uuid.UUID
	Name               string
	QuantityPerPortion decimal.Decimal
	Unit               string
}

type RecipeService interface {
	// Requirements lists the per-portion needs of a meal ordered by
	// ingredient name, then id. An empty result means the meal cannot be
	// prepared.
	Requirements(ctx context.Context, mealID uuid.UUID) ([]Requirement, error)
}

type recipeService struct {
	repo repository.RecipeRepository
}

func NewRecipeService(repo repository.RecipeRepository) RecipeService {
	return &recipeService{repo: repo}
}

func (s *recipeService) Requirements(ctx context.Context, mealID uuid.UUID) ([]Requirement, error) {
	entries, err := s.repo.ListByMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}
	reqs := make([]Requirement, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		r := Requirement{
			IngredientID:       e.IngredientID,
			QuantityPerPortion: e.QuantityPerPortion,
			Unit:               e.EffectiveUnit(),
		}
		if e.Ingredient != nil {
			r.Name = e.Ingredient.Name
		}
		reqs = append(reqs, r)
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Name != reqs[j].Name {
			return reqs[i].Name < reqs[j].Name
		}
		return bytes.Compare(reqs[i].IngredientID[:], reqs[j].IngredientID[:]) < 0
	})
	return reqs, nil
}
