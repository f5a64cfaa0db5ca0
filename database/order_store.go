package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
	"storefront/services"
)

// OrderStore is the Mongo implementation of services.OrderStore and
// services.StockStore.
type OrderStore struct {
	orders   *mongo.Collection
	products *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{
		orders:   db.Collection("orders"),
		products: db.Collection("products"),
	}
}

func (s *OrderStore) InsertOrder(ctx context.Context, order models.Order) error {
	_, err := s.orders.InsertOne(ctx, order)
	return err
}

func (s *OrderStore) OrdersForUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.orders.Find(ctx, bson.M{"userId": user}, opts)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderStore) CancelPendingOrder(ctx context.Context, user, id primitive.ObjectID) error {
	res, err := s.orders.UpdateOne(ctx,
		bson.M{"_id": id, "userId": user, "status": models.OrderStatusPending},
		bson.M{"$set": bson.M{"status": models.OrderStatusCanceled}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrNoOrder
	}
	return nil
}

// DecrementStock is guarded so two concurrent checkouts cannot drive
// stock negative; the filter only matches while enough stock remains.
func (s *OrderStore) DecrementStock(ctx context.Context, product primitive.ObjectID, qty int) error {
	res, err := s.products.UpdateOne(ctx,
		bson.M{"_id": product, "stockQuantity": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stockQuantity": -qty}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrInsufficientStock
	}
	return nil
}

func (s *OrderStore) IncrementStock(ctx context.Context, product primitive.ObjectID, qty int) error {
	_, err := s.products.UpdateOne(ctx,
		bson.M{"_id": product},
		bson.M{"$inc": bson.M{"stockQuantity": qty}})
	return err
}

var _ services.OrderStore = (*OrderStore)(nil)
var _ services.StockStore = (*OrderStore)(nil)
