package uow

import (
	"context"

	"gorm.io/gorm"

	"encuesta/internal/ports"
)

// UnitOfWork implements ports.UnitOfWork with gorm. gorm commits when fn
// returns nil and rolls back on error or panic.
type UnitOfWork struct {
	db *gorm.DB
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx))
	})
}
