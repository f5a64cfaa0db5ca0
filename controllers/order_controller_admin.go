package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/database"
	"storefront/httperr"
	"storefront/models"
)

func GetOrdersAdmin(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := database.OrderCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": orders})
}

var allowedStatuses = map[string]bool{
	models.OrderStatusPending:  true,
	models.OrderStatusPaid:     true,
	models.OrderStatusShipped:  true,
	models.OrderStatusCanceled: true,
}

func UpdateOrderStatus(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid order id"))
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || !allowedStatuses[body.Status] {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid status"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := database.OrderCollection.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"status": body.Status}})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	if res.MatchedCount == 0 {
		httperr.Respond(c, httperr.Errorf(httperr.ENOTFOUND, "order not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order status updated"})
}
