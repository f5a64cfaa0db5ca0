package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
	"storefront/services"
)

// CartStore is the Mongo implementation of services.CartStore and
// services.ProductReader.
type CartStore struct {
	lines    *mongo.Collection
	products *mongo.Collection
}

func NewCartStore(db *mongo.Database) *CartStore {
	return &CartStore{
		lines:    db.Collection("cart"),
		products: db.Collection("products"),
	}
}

func (s *CartStore) FindLine(ctx context.Context, owner, product primitive.ObjectID) (models.CartLine, error) {
	var line models.CartLine
	err := s.lines.FindOne(ctx, bson.M{"ownerId": owner, "productId": product}).Decode(&line)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.CartLine{}, services.ErrNoLine
	}
	return line, err
}

func (s *CartStore) GetLine(ctx context.Context, id primitive.ObjectID) (models.CartLine, error) {
	var line models.CartLine
	err := s.lines.FindOne(ctx, bson.M{"_id": id}).Decode(&line)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.CartLine{}, services.ErrNoLine
	}
	return line, err
}

func (s *CartStore) InsertLine(ctx context.Context, line models.CartLine) error {
	_, err := s.lines.InsertOne(ctx, line)
	return err
}

func (s *CartStore) SetLineQuantity(ctx context.Context, id primitive.ObjectID, quantity int) error {
	_, err := s.lines.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"quantity": quantity}})
	return err
}

func (s *CartStore) DeleteLine(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.lines.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *CartStore) DeleteLinesForOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	res, err := s.lines.DeleteMany(ctx, bson.M{"ownerId": owner})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *CartStore) LinesForOwner(ctx context.Context, owner primitive.ObjectID) ([]models.CartLine, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.lines.Find(ctx, bson.M{"ownerId": owner}, opts)
	if err != nil {
		return nil, err
	}

	var lines []models.CartLine
	if err := cursor.All(ctx, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *CartStore) Product(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	var product models.Product
	err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, services.ErrNoProduct
	}
	return product, err
}
