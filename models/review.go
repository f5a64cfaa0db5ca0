package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is unique per (productId, userId), enforced by index.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Rating    int                `bson:"rating" json:"rating"`
	Title     string             `bson:"title" json:"title"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
