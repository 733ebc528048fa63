package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/store"
	"go.uber.org/zap"
)

// CartService manages the shopping cart of each user
type CartService struct {
	cartRepo    store.CartRepository
	productRepo store.ProductRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewCartService creates a new cart service
func NewCartService(cartRepo store.CartRepository, productRepo store.ProductRepository, logger *zap.Logger) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// GetCart reconciles the cart with current products, persists the result
// and reports what changed
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, products, adjustments, err := s.loadReconciled(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toCartDTO(cart, products, adjustments), nil
}

// AddItem puts quantity units of productID into the cart
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartDTO, error) {
	cart, products, adjustments, err := s.loadReconciled(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.product(ctx, products, productID)
	if err != nil {
		return nil, err
	}
	if err := cart.AddItem(p, quantity, s.now()); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return toCartDTO(cart, products, adjustments), nil
}

// UpdateItem sets the quantity of a line; zero removes it
func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartDTO, error) {
	cart, products, adjustments, err := s.loadReconciled(ctx, userID)
	if err != nil {
		return nil, err
	}
	if quantity == 0 {
		if err := cart.RemoveItem(productID); err != nil {
			return nil, err
		}
	} else {
		p, err := s.product(ctx, products, productID)
		if err != nil {
			return nil, err
		}
		if err := cart.UpdateItem(p, quantity); err != nil {
			return nil, err
		}
	}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return toCartDTO(cart, products, adjustments), nil
}

// RemoveItem deletes a line
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	return s.UpdateItem(ctx, userID, productID, 0)
}

// ClearCart empties the cart
func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return toCartDTO(cart, nil, nil), nil
}

func (s *CartService) loadReconciled(ctx context.Context, userID uuid.UUID) (*store.Cart, map[uuid.UUID]*store.Product, []store.CartAdjustment, error) {
	return reconcileCart(ctx, s.cartRepo, s.productRepo, userID, s.logger)
}

// product returns productID from the already loaded set or the repository
func (s *CartService) product(ctx context.Context, loaded map[uuid.UUID]*store.Product, productID uuid.UUID) (*store.Product, error) {
	if p, ok := loaded[productID]; ok {
		return p, nil
	}
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errProductNotFound
		}
		return nil, err
	}
	loaded[productID] = p
	return p, nil
}

// reconcileCart loads the cart of userID, reconciles it against the stored
// products and saves it when anything changed
func reconcileCart(
	ctx context.Context,
	cartRepo store.CartRepository,
	productRepo store.ProductRepository,
	userID uuid.UUID,
	logger *zap.Logger,
) (*store.Cart, map[uuid.UUID]*store.Product, []store.CartAdjustment, error) {
	cart, err := cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	products := make(map[uuid.UUID]*store.Product, len(cart.Items))
	if !cart.IsEmpty() {
		found, err := productRepo.FindByIDs(ctx, cart.ProductIDs())
		if err != nil {
			return nil, nil, nil, err
		}
		for _, p := range found {
			products[p.ID] = p
		}
	}

	adjustments := cart.Reconcile(products)
	if len(adjustments) > 0 {
		if err := cartRepo.Save(ctx, cart); err != nil {
			return nil, nil, nil, err
		}
		logger.Info("Cart reconciled",
			zap.String("user_id", userID.String()),
			zap.Int("adjustments", len(adjustments)))
	}
	return cart, products, adjustments, nil
}
