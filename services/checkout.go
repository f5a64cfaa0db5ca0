package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/httperr"
	"storefront/models"
	"storefront/pricing"
)

var (
	ErrNoOrder           = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type OrderStore interface {
	InsertOrder(ctx context.Context, order models.Order) error
	OrdersForUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error)
	// CancelPendingOrder flips a pending order owned by user to
	// canceled; ErrNoOrder when no such order matched.
	CancelPendingOrder(ctx context.Context, user, id primitive.ObjectID) error
}

type StockStore interface {
	// DecrementStock subtracts qty, guarded so stock never goes
	// negative; ErrInsufficientStock when the guard fails.
	DecrementStock(ctx context.Context, product primitive.ObjectID, qty int) error
	IncrementStock(ctx context.Context, product primitive.ObjectID, qty int) error
}

// Checkout converts a full cart into a priced order: stock is
// decremented per line, the order is stored with the quoted totals and
// the cart is cleared.
type Checkout struct {
	cart     CartStore
	products ProductReader
	stock    StockStore
	orders   OrderStore
	policy   pricing.Policy
	log      *slog.Logger
}

func NewCheckout(cart CartStore, products ProductReader, stock StockStore, orders OrderStore, policy pricing.Policy) *Checkout {
	return &Checkout{
		cart:     cart,
		products: products,
		stock:    stock,
		orders:   orders,
		policy:   policy,
		log:      slog.Default(),
	}
}

func (s *Checkout) Checkout(ctx context.Context, owner primitive.ObjectID) (models.Order, error) {
	lines, err := s.cart.LinesForOwner(ctx, owner)
	if err != nil {
		return models.Order{}, err
	}
	if len(lines) == 0 {
		return models.Order{}, httperr.Errorf(httperr.EINVALID, "cart is empty")
	}

	// Validate everything before touching stock so an impossible cart
	// fails without side effects.
	products := make([]models.Product, len(lines))
	for i, line := range lines {
		product, err := s.products.Product(ctx, line.ProductID)
		if errors.Is(err, ErrNoProduct) {
			return models.Order{}, httperr.Errorf(httperr.ENOTFOUND, "product no longer exists")
		}
		if err != nil {
			return models.Order{}, err
		}
		if line.Quantity > product.StockQuantity {
			return models.Order{}, httperr.Errorf(httperr.EINVALID,
				"not enough stock for %s, available: %d", product.Name, product.StockQuantity)
		}
		products[i] = product
	}

	var decremented []models.OrderItem
	rollback := func() {
		for _, it := range decremented {
			if err := s.stock.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				s.log.Error("stock rollback failed", "productId", it.ProductID.Hex(), "err", err)
			}
		}
	}

	items := make([]models.OrderItem, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))
	for i, line := range lines {
		product := products[i]
		if err := s.stock.DecrementStock(ctx, product.ID, line.Quantity); err != nil {
			rollback()
			if errors.Is(err, ErrInsufficientStock) {
				return models.Order{}, httperr.Errorf(httperr.EINVALID,
					"not enough stock for %s", product.Name)
			}
			return models.Order{}, err
		}

		item := models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			Price:     product.Price,
		}
		decremented = append(decremented, item)
		items = append(items, item)
		priced = append(priced, pricing.LineOf(product.Price, line.Quantity))
	}

	quote := s.policy.Quote(priced)
	order := models.Order{
		ID:        primitive.NewObjectID(),
		UserID:    owner,
		Items:     items,
		Subtotal:  quote.Subtotal.InexactFloat64(),
		Tax:       quote.Tax.InexactFloat64(),
		Shipping:  quote.Shipping.InexactFloat64(),
		Total:     quote.Total.InexactFloat64(),
		Status:    models.OrderStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.orders.InsertOrder(ctx, order); err != nil {
		rollback()
		return models.Order{}, err
	}

	if _, err := s.cart.DeleteLinesForOwner(ctx, owner); err != nil {
		// The order exists; a stale cart is recoverable, so log and go on.
		s.log.Warn("failed to clear cart after checkout", "userId", owner.Hex(), "err", err)
	}

	return order, nil
}

func (s *Checkout) Orders(ctx context.Context, owner primitive.ObjectID) ([]models.Order, error) {
	return s.orders.OrdersForUser(ctx, owner)
}

func (s *Checkout) Cancel(ctx context.Context, owner, orderID primitive.ObjectID) error {
	err := s.orders.CancelPendingOrder(ctx, owner, orderID)
	if errors.Is(err, ErrNoOrder) {
		return httperr.Errorf(httperr.ENOTFOUND, "order not found or not cancelable")
	}
	return err
}
