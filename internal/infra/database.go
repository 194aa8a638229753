package infra

import (
	"fmt"

	"schoolfood/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx and brings the schema up
// to date (AutoMigrate followed by the SQL patches GORM cannot express).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table and applies the schema patches.
// Integration tests call it against a fresh container.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.IngredientStock{},
		&model.Meal{},
		&model.RecipeEntry{},
		&model.PreparedBatch{},
		&model.Order{},
		&model.Subscription{},
		&model.PurchaseRequest{},
		&model.IngredientMovement{},
		&model.Notification{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches adds the check constraints and partial indexes that back
// the ledger invariants. Every statement is idempotent.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"ingredient quantity never negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_ingredient_stocks_quantity') THEN
    ALTER TABLE ingredient_stocks ADD CONSTRAINT chk_ingredient_stocks_quantity CHECK (quantity >= 0);
  END IF;
END $$`},
		{"batch quantity never negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_prepared_batches_quantity') THEN
    ALTER TABLE prepared_batches ADD CONSTRAINT chk_prepared_batches_quantity CHECK (quantity >= 0);
  END IF;
END $$`},
		{"subscription usage bounded", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_subscriptions_used_meals') THEN
    ALTER TABLE subscriptions ADD CONSTRAINT chk_subscriptions_used_meals
      CHECK (used_meals >= 0 AND used_meals <= meals_per_week);
  END IF;
END $$`},
		{"user balance never negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_users_balance') THEN
    ALTER TABLE users ADD CONSTRAINT chk_users_balance CHECK (balance >= 0);
  END IF;
END $$`},
		{"one active subscription per user and meal type",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_one_active
			   ON subscriptions (user_id, meal_type) WHERE is_active`},
		{"eligible batch lookup",
			`CREATE INDEX IF NOT EXISTS idx_prepared_batches_eligible
			   ON prepared_batches (meal_id, expiry_date, id) WHERE quantity > 0`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
