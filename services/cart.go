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

// Sentinels returned by store implementations; the service maps them to
// the API error taxonomy.
var (
	ErrNoLine    = errors.New("cart line not found")
	ErrNoProduct = errors.New("product not found")
)

// CartStore is the persistence port for cart lines. Implementations
// must keep (ownerId, productId) unique and return lines newest-first
// from LinesForOwner.
type CartStore interface {
	FindLine(ctx context.Context, owner, product primitive.ObjectID) (models.CartLine, error)
	GetLine(ctx context.Context, id primitive.ObjectID) (models.CartLine, error)
	InsertLine(ctx context.Context, line models.CartLine) error
	SetLineQuantity(ctx context.Context, id primitive.ObjectID, quantity int) error
	DeleteLine(ctx context.Context, id primitive.ObjectID) error
	DeleteLinesForOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
	LinesForOwner(ctx context.Context, owner primitive.ObjectID) ([]models.CartLine, error)
}

type ProductReader interface {
	Product(ctx context.Context, id primitive.ObjectID) (models.Product, error)
}

type Cart struct {
	store    CartStore
	products ProductReader
	policy   pricing.Policy
	log      *slog.Logger
}

func NewCart(store CartStore, products ProductReader, policy pricing.Policy) *Cart {
	return &Cart{
		store:    store,
		products: products,
		policy:   policy,
		log:      slog.Default(),
	}
}

// Add is the upsert-merge: a line already holding this product gains
// quantity, otherwise a new line is created. Exactly one row is written
// either way. The merged quantity is deliberately not clamped to stock;
// an over-stock result is logged so the gap stays visible.
func (s *Cart) Add(ctx context.Context, owner, productID primitive.ObjectID, quantity int) (models.CartLine, error) {
	if quantity < 1 {
		return models.CartLine{}, httperr.Errorf(httperr.EINVALID, "quantity must be at least 1")
	}

	product, err := s.products.Product(ctx, productID)
	if errors.Is(err, ErrNoProduct) {
		return models.CartLine{}, httperr.Errorf(httperr.ENOTFOUND, "product not found")
	}
	if err != nil {
		return models.CartLine{}, err
	}

	line, err := s.store.FindLine(ctx, owner, productID)
	switch {
	case err == nil:
		merged := line.Quantity + quantity
		if err := s.store.SetLineQuantity(ctx, line.ID, merged); err != nil {
			return models.CartLine{}, err
		}
		line.Quantity = merged
		if merged > product.StockQuantity {
			s.log.Warn("cart line exceeds stock",
				"productId", productID.Hex(),
				"quantity", merged,
				"stock", product.StockQuantity)
		}
		return line, nil

	case errors.Is(err, ErrNoLine):
		line = models.CartLine{
			ID:        primitive.NewObjectID(),
			OwnerID:   owner,
			ProductID: productID,
			Quantity:  quantity,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.InsertLine(ctx, line); err != nil {
			return models.CartLine{}, err
		}
		return line, nil

	default:
		return models.CartLine{}, err
	}
}

// SetQuantity overwrites a line's quantity unconditionally (no merge).
// The line must exist and belong to the caller; a foreign line is a
// Forbidden, not a silent zero-row update.
func (s *Cart) SetQuantity(ctx context.Context, owner, lineID primitive.ObjectID, quantity int) (models.CartLine, error) {
	if quantity < 1 {
		return models.CartLine{}, httperr.Errorf(httperr.EINVALID, "quantity must be at least 1")
	}

	line, err := s.store.GetLine(ctx, lineID)
	if errors.Is(err, ErrNoLine) {
		return models.CartLine{}, httperr.Errorf(httperr.ENOTFOUND, "cart item not found")
	}
	if err != nil {
		return models.CartLine{}, err
	}
	if line.OwnerID != owner {
		return models.CartLine{}, httperr.Errorf(httperr.EFORBIDDEN, "cart item belongs to another account")
	}

	if err := s.store.SetLineQuantity(ctx, lineID, quantity); err != nil {
		return models.CartLine{}, err
	}
	line.Quantity = quantity
	return line, nil
}

// Remove deletes one line after the same existence and ownership
// checks as SetQuantity.
func (s *Cart) Remove(ctx context.Context, owner, lineID primitive.ObjectID) error {
	line, err := s.store.GetLine(ctx, lineID)
	if errors.Is(err, ErrNoLine) {
		return httperr.Errorf(httperr.ENOTFOUND, "cart item not found")
	}
	if err != nil {
		return err
	}
	if line.OwnerID != owner {
		return httperr.Errorf(httperr.EFORBIDDEN, "cart item belongs to another account")
	}

	return s.store.DeleteLine(ctx, lineID)
}

// Clear deletes every line the owner holds. Clearing an already empty
// cart is fine and reports zero.
func (s *Cart) Clear(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	return s.store.DeleteLinesForOwner(ctx, owner)
}

// LineView is a cart line joined with its product for display.
type LineView struct {
	Line    models.CartLine
	Product models.Product
}

// List returns the owner's lines newest-first, joined with product
// data, plus the priced summary. Lines whose product vanished are
// skipped rather than failing the whole cart.
func (s *Cart) List(ctx context.Context, owner primitive.ObjectID) ([]LineView, pricing.Summary, error) {
	lines, err := s.store.LinesForOwner(ctx, owner)
	if err != nil {
		return nil, pricing.Summary{}, err
	}

	views := make([]LineView, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		product, err := s.products.Product(ctx, line.ProductID)
		if errors.Is(err, ErrNoProduct) {
			continue
		}
		if err != nil {
			return nil, pricing.Summary{}, err
		}
		views = append(views, LineView{Line: line, Product: product})
		priced = append(priced, pricing.LineOf(product.Price, line.Quantity))
	}

	return views, s.policy.Quote(priced), nil
}
