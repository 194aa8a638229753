package repository

import (
	"context"

	"gorm.io/gorm"
)

// conn returns tx when the caller runs inside a transaction, else the
// repository's own handle bound to ctx.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
