package persistence

import (
	"context"

	appstore "github.com/playhub/backend/internal/application/store"
	"github.com/playhub/backend/internal/domain/store"
	"gorm.io/gorm"
)

// GormTransactionScope implements the store TransactionScope with GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn in a transaction, rolling back when fn returns an error
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appstore.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) ProductRepo() store.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) OrderRepo() store.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) CartRepo() store.CartRepository {
	return NewGormCartRepository(r.tx)
}

var (
	_ appstore.TransactionScope          = (*GormTransactionScope)(nil)
	_ appstore.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
