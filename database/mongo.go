package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Client *mongo.Client
var DB *mongo.Database

var (
	UserCollection      *mongo.Collection
	ProductCollection   *mongo.Collection
	CartCollection      *mongo.Collection
	ReviewCollection    *mongo.Collection
	OrderCollection     *mongo.Collection
	BlacklistCollection *mongo.Collection
)

func ConnectMongo(ctx context.Context, uri, dbName string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return err
	}

	Client = client
	DB = client.Database(dbName)
	return nil
}

func InitCollections() {
	UserCollection = DB.Collection("users")
	ProductCollection = DB.Collection("products")
	CartCollection = DB.Collection("cart")
	ReviewCollection = DB.Collection("reviews")
	OrderCollection = DB.Collection("orders")
	BlacklistCollection = DB.Collection("blacklist_tokens")
}

// EnsureIndexes creates the uniqueness constraints the domain relies
// on: one cart line per (owner, product), one review per
// (product, user), one account per email.
func EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)

	_, err := CartCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "productId", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = ReviewCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "productId", Value: 1}, {Key: "userId", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	return err
}
