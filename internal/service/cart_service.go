package service

import (
	"context"
	"fmt"

	"martxmart/internal/models"
	"martxmart/internal/store"
	"martxmart/internal/util"

	"go.uber.org/zap"
)

// CartService handles cart accumulation for a user
type CartService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store *store.Store) *CartService {
	return &CartService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CartView is a cart with its computed total
type CartView struct {
	CartID      int64             `json:"cart_id"`
	Items       []models.CartItem `json:"items"`
	TotalAmount int64             `json:"total_amount"`
}

// GetCart returns the user's cart items with the computed total. A user
// without a cart gets an empty view, not an error.
func (cs *CartService) GetCart(ctx context.Context, userID int64) (*CartView, error) {
	cart, err := cs.store.GetCartByUserID(ctx, userID)
	if err == store.ErrCartNotFound {
		return &CartView{Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := cs.store.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	return &CartView{
		CartID:      cart.ID,
		Items:       items,
		TotalAmount: cartTotal(items),
	}, nil
}

// AddItem upserts a cart line. Quantity accumulates onto an existing
// line for the same product. The requested total line quantity is
// checked against current catalog stock.
func (cs *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	product, err := cs.store.GetProductByID(ctx, productID)
	if err != nil {
		util.CartAddsRejectedTotal.WithLabelValues("product_not_found").Inc()
		return nil, err
	}

	cart, err := cs.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	requested := quantity
	if existing, err := cs.store.GetCartItem(ctx, cart.ID, productID); err != nil {
		return nil, err
	} else if existing != nil {
		requested += existing.Quantity
	}

	if requested > product.Stock {
		util.CartAddsRejectedTotal.WithLabelValues("insufficient_stock").Inc()
		return nil, store.ErrInsufficientStock
	}

	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: product.Price,
	}
	if err := cs.store.UpsertCartItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	util.CartAddsTotal.Inc()
	cs.logger.Info("Cart item added",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", item.Quantity))

	return item, nil
}

// RemoveItem deletes a single line from the user's cart
func (cs *CartService) RemoveItem(ctx context.Context, userID, productID int64) error {
	cart, err := cs.store.GetCartByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return cs.store.RemoveCartItem(ctx, cart.ID, productID)
}

// Clear removes all lines from the user's cart
func (cs *CartService) Clear(ctx context.Context, userID int64) error {
	cart, err := cs.store.GetCartByUserID(ctx, userID)
	if err == store.ErrCartNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return cs.store.ClearCart(ctx, cart.ID)
}

// cartTotal sums price-at-add-time times quantity across lines
func cartTotal(items []models.CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}
