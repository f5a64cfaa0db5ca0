package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/database"
	"storefront/httperr"
	"storefront/models"
)

func GetProductsPublic(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	cursor, err := database.ProductCollection.Find(ctx, bson.M{})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": products})
}

func GetProductPublic(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid product id"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var product models.Product
	err = database.ProductCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httperr.Respond(c, httperr.Errorf(httperr.ENOTFOUND, "product not found"))
		return
	}
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": product})
}
