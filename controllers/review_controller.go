package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/database"
	"storefront/httperr"
	"storefront/middleware"
	"storefront/models"
)

// CreateReview inserts one review per (product, user); the unique
// index turns a second attempt into a conflict.
func CreateReview(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		httperr.Respond(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "no valid session"))
		return
	}

	var body struct {
		ProductID string `json:"productId" binding:"required"`
		Rating    int    `json:"rating" binding:"required,gte=1,lte=5"`
		Title     string `json:"title"`
		Comment   string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid input"))
		return
	}

	productID, err := primitive.ObjectIDFromHex(body.ProductID)
	if err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid productId"))
		return
	}

	review := models.Review{
		ID:        primitive.NewObjectID(),
		ProductID: productID,
		UserID:    ident.UserID,
		Rating:    body.Rating,
		Title:     body.Title,
		Comment:   body.Comment,
		CreatedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := database.ReviewCollection.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			httperr.Respond(c, httperr.Errorf(httperr.ECONFLICT, "you have already reviewed this product"))
			return
		}
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review created", "data": review})
}

func GetReviews(c *gin.Context) {
	raw := c.Query("productId")
	if raw == "" {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "product ID is required"))
		return
	}

	productID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid productId"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := database.ReviewCollection.Find(ctx, bson.M{"productId": productID}, opts)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": reviews})
}
