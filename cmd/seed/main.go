// Command seed loads demo accounts, ingredients and meals with their recipes.
// It is idempotent: existing rows (matched by name) are left alone.
package main

import (
	"os"
	"time"

	"schoolfood/internal/config"
	"schoolfood/internal/infra"
	"schoolfood/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type seedUser struct {
	username, password, role string
	balance                  int64
}

type seedLine struct {
	ingredient string
	perPortion string
}

type seedMeal struct {
	name, mealType, price string
	recipe                []seedLine
}

var users = []seedUser{
	{"admin", "admin12345", model.RoleAdmin, 0},
	{"chef", "chef12345", model.RoleChef, 0},
	{"student", "student12345", model.RoleStudent, 1000},
}

var ingredients = []struct{ name, qty, unit, min string }{
	{"Milk", "20", "l", "5"},
	{"Oats", "10", "kg", "2"},
	{"Eggs", "120", "pcs", "30"},
	{"Bread", "60", "pcs", "20"},
	{"Chicken", "15", "kg", "3"},
	{"Rice", "25", "kg", "5"},
	{"Apples", "80", "pcs", "20"},
}

var meals = []seedMeal{
	{"Porridge", model.MealTypeBreakfast, "120", []seedLine{{"Milk", "0.2"}, {"Oats", "0.05"}}},
	{"Omelette with toast", model.MealTypeBreakfast, "150", []seedLine{{"Eggs", "2"}, {"Milk", "0.05"}, {"Bread", "1"}}},
	{"Chicken with rice", model.MealTypeLunch, "250", []seedLine{{"Chicken", "0.15"}, {"Rice", "0.1"}}},
	{"Apple juice", model.MealTypeDrink, "60", []seedLine{{"Apples", "3"}}},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	if err := db.Transaction(seed); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Msg("seed complete")
}

func seed(tx *gorm.DB) error {
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), 12)
		if err != nil {
			return err
		}
		row := model.User{
			Username:     u.username,
			PasswordHash: string(hash),
			Role:         u.role,
			Balance:      decimal.NewFromInt(u.balance),
			Active:       true,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
		log.Info().Str("username", u.username).Str("role", u.role).Msg("user ready")
	}

	byName := make(map[string]uuid.UUID, len(ingredients))
	now := time.Now().UTC()
	for _, i := range ingredients {
		row := model.IngredientStock{
			Name:        i.name,
			Quantity:    decimal.RequireFromString(i.qty),
			Unit:        i.unit,
			MinQuantity: decimal.RequireFromString(i.min),
			LastUpdated: now,
		}
		if err := tx.Where(model.IngredientStock{Name: i.name}).FirstOrCreate(&row).Error; err != nil {
			return err
		}
		byName[i.name] = row.ID
	}

	for _, m := range meals {
		meal := model.Meal{
			Name:        m.name,
			MealType:    m.mealType,
			Price:       decimal.RequireFromString(m.price),
			IsAvailable: true,
		}
		if err := tx.Where(model.Meal{Name: m.name}).FirstOrCreate(&meal).Error; err != nil {
			return err
		}
		for _, l := range m.recipe {
			entry := model.RecipeEntry{
				MealID:             meal.ID,
				IngredientID:       byName[l.ingredient],
				QuantityPerPortion: decimal.RequireFromString(l.perPortion),
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
				return err
			}
		}
		log.Info().Str("meal", m.name).Int("recipe_lines", len(m.recipe)).Msg("meal ready")
	}
	return nil
}
