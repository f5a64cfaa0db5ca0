package services

import (
	"context"
	"errors"
	"sort"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/httperr"
	"storefront/models"
	"storefront/pricing"
)

func (f *fakeStore) DecrementStock(ctx context.Context, product primitive.ObjectID, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[product]
	if !ok || p.StockQuantity < qty {
		return ErrInsufficientStock
	}
	p.StockQuantity -= qty
	f.products[product] = p
	return nil
}

func (f *fakeStore) IncrementStock(ctx context.Context, product primitive.ObjectID, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[product]
	if !ok {
		return ErrNoProduct
	}
	p.StockQuantity += qty
	f.products[product] = p
	return nil
}

type fakeOrders struct {
	orders     []models.Order
	failInsert bool
}

func (f *fakeOrders) InsertOrder(ctx context.Context, order models.Order) error {
	if f.failInsert {
		return errors.New("order insert failed")
	}
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeOrders) OrdersForUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == user {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeOrders) CancelPendingOrder(ctx context.Context, user, id primitive.ObjectID) error {
	for i, o := range f.orders {
		if o.ID == id && o.UserID == user && o.Status == models.OrderStatusPending {
			f.orders[i].Status = models.OrderStatusCanceled
			return nil
		}
	}
	return ErrNoOrder
}

func newTestCheckout(store *fakeStore, orders *fakeOrders) *Checkout {
	return NewCheckout(store, store, store, orders, pricing.Default())
}

func TestCheckoutPricesAndClearsCart(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	orders := &fakeOrders{}
	cart := newTestCart(store)
	svc := newTestCheckout(store, orders)

	owner := primitive.NewObjectID()
	product := store.addProduct(20, 10)
	if _, err := cart.Add(ctx, owner, product, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	order, err := svc.Checkout(ctx, owner)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if order.Subtotal != 40 || order.Tax != 3.2 || order.Shipping != 0 || order.Total != 43.2 {
		t.Fatalf("totals = %+v, want 40/3.2/0/43.2", order)
	}
	if order.Status != models.OrderStatusPending {
		t.Fatalf("status = %q, want pending", order.Status)
	}

	p, _ := store.Product(ctx, product)
	if p.StockQuantity != 8 {
		t.Fatalf("stock = %d, want 8", p.StockQuantity)
	}
	if lines, _ := store.LinesForOwner(ctx, owner); len(lines) != 0 {
		t.Fatalf("cart not cleared after checkout")
	}
	if len(orders.orders) != 1 {
		t.Fatalf("orders stored = %d, want 1", len(orders.orders))
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	ctx := context.Background()
	svc := newTestCheckout(newFakeStore(), &fakeOrders{})

	_, err := svc.Checkout(ctx, primitive.NewObjectID())
	if httperr.ErrorCode(err) != httperr.EINVALID {
		t.Fatalf("code = %q, want EINVALID", httperr.ErrorCode(err))
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	orders := &fakeOrders{}
	cart := newTestCart(store)
	svc := newTestCheckout(store, orders)

	owner := primitive.NewObjectID()
	product := store.addProduct(10, 2)
	if _, err := cart.Add(ctx, owner, product, 5); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	_, err := svc.Checkout(ctx, owner)
	if httperr.ErrorCode(err) != httperr.EINVALID {
		t.Fatalf("code = %q, want EINVALID", httperr.ErrorCode(err))
	}

	p, _ := store.Product(ctx, product)
	if p.StockQuantity != 2 {
		t.Fatalf("failed checkout touched stock: %d", p.StockQuantity)
	}
	if lines, _ := store.LinesForOwner(ctx, owner); len(lines) != 1 {
		t.Fatalf("failed checkout touched the cart")
	}
}

func TestCheckoutRollsBackStockWhenOrderInsertFails(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	orders := &fakeOrders{failInsert: true}
	cart := newTestCart(store)
	svc := newTestCheckout(store, orders)

	owner := primitive.NewObjectID()
	a := store.addProduct(10, 4)
	b := store.addProduct(5, 6)
	if _, err := cart.Add(ctx, owner, a, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := cart.Add(ctx, owner, b, 3); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if _, err := svc.Checkout(ctx, owner); err == nil {
		t.Fatal("expected checkout to fail")
	}

	pa, _ := store.Product(ctx, a)
	pb, _ := store.Product(ctx, b)
	if pa.StockQuantity != 4 || pb.StockQuantity != 6 {
		t.Fatalf("stock not rolled back: a=%d b=%d", pa.StockQuantity, pb.StockQuantity)
	}
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	orders := &fakeOrders{}
	cart := newTestCart(store)
	svc := newTestCheckout(store, orders)

	owner := primitive.NewObjectID()
	product := store.addProduct(10, 10)
	if _, err := cart.Add(ctx, owner, product, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	order, err := svc.Checkout(ctx, owner)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if err := svc.Cancel(ctx, primitive.NewObjectID(), order.ID); httperr.ErrorCode(err) != httperr.ENOTFOUND {
		t.Fatalf("foreign cancel: code = %q, want ENOTFOUND", httperr.ErrorCode(err))
	}
	if err := svc.Cancel(ctx, owner, order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := svc.Cancel(ctx, owner, order.ID); httperr.ErrorCode(err) != httperr.ENOTFOUND {
		t.Fatalf("second cancel: code = %q, want ENOTFOUND", httperr.ErrorCode(err))
	}
}
