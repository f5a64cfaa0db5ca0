package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is read-only from the cart's point of view: the cart reads
// price and stock, it never writes back.
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name" binding:"required"`
	Brand         string             `bson:"brand" json:"brand"`
	Description   string             `bson:"description" json:"description"`
	ImageURL      string             `bson:"imageUrl" json:"imageUrl"`
	Price         float64            `bson:"price" json:"price" binding:"required,gte=0"`
	StockQuantity int                `bson:"stockQuantity" json:"stockQuantity" binding:"gte=0"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
