package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartLine is one product's presence in one owner's cart. At most one
// line exists per (ownerId, productId); adds merge into it. OwnerID and
// CreatedAt are immutable after insert.
type CartLine struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
