package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TokenBlacklist records logged-out JWTs until they expire on their
// own. Lookup failures are treated as "not blacklisted" so an
// unreachable store degrades to stateless JWT checking.
type TokenBlacklist struct {
	col *mongo.Collection
}

func NewTokenBlacklist(db *mongo.Database) *TokenBlacklist {
	return &TokenBlacklist{col: db.Collection("blacklist_tokens")}
}

func (b *TokenBlacklist) Add(ctx context.Context, token string, exp int64) error {
	_, err := b.col.InsertOne(ctx, bson.M{"token": token, "exp": exp})
	return err
}

func (b *TokenBlacklist) Contains(ctx context.Context, token string) bool {
	err := b.col.FindOne(ctx, bson.M{"token": token}).Err()
	return err == nil
}
