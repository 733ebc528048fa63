package store

import (
	"context"

	"github.com/playhub/backend/internal/domain/store"
)

// TransactionScope runs checkout and order state changes atomically.
// Every repository handed to fn shares one database transaction.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to the store repositories inside a transaction
type TransactionalRepositories interface {
	ProductRepo() store.ProductRepository
	OrderRepo() store.OrderRepository
	CartRepo() store.CartRepository
}

// NoOpTransactionScope calls fn directly with plain repositories. Used in tests.
type NoOpTransactionScope struct {
	productRepo store.ProductRepository
	orderRepo   store.OrderRepository
	cartRepo    store.CartRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(
	productRepo store.ProductRepository,
	orderRepo store.OrderRepository,
	cartRepo store.CartRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
	}
}

// Execute runs fn without a transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) ProductRepo() store.ProductRepository { return s.productRepo }
func (s *NoOpTransactionScope) OrderRepo() store.OrderRepository     { return s.orderRepo }
func (s *NoOpTransactionScope) CartRepo() store.CartRepository       { return s.cartRepo }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
