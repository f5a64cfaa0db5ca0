package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPending  = "pending"
	OrderStatusPaid     = "paid"
	OrderStatusShipped  = "shipped"
	OrderStatusCanceled = "canceled"
)

type Order struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Items     []OrderItem        `bson:"items" json:"items"`
	Subtotal  float64            `bson:"subtotal" json:"subtotal"`
	Tax       float64            `bson:"tax" json:"tax"`
	Shipping  float64            `bson:"shipping" json:"shipping"`
	Total     float64            `bson:"total" json:"total"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// OrderItem keeps the unit price at checkout time so later product
// edits do not rewrite order history.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
}
