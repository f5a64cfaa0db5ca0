package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/database"
	"storefront/httperr"
	"storefront/models"
)

func CreateProduct(c *gin.Context) {
	var input struct {
		Name          string  `json:"name" binding:"required"`
		Brand         string  `json:"brand"`
		Description   string  `json:"description"`
		ImageURL      string  `json:"imageUrl"`
		Price         float64 `json:"price" binding:"required,gte=0"`
		StockQuantity int     `json:"stockQuantity" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid input"))
		return
	}

	now := time.Now().UTC()
	product := models.Product{
		ID:            primitive.NewObjectID(),
		Name:          input.Name,
		Brand:         input.Brand,
		Description:   input.Description,
		ImageURL:      input.ImageURL,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := database.ProductCollection.InsertOne(ctx, product); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Product created", "data": product})
}

func UpdateProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid product id"))
		return
	}

	var input struct {
		Name          *string  `json:"name"`
		Brand         *string  `json:"brand"`
		Description   *string  `json:"description"`
		ImageURL      *string  `json:"imageUrl"`
		Price         *float64 `json:"price"`
		StockQuantity *int     `json:"stockQuantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid input"))
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if input.Name != nil {
		set["name"] = *input.Name
	}
	if input.Brand != nil {
		set["brand"] = *input.Brand
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.ImageURL != nil {
		set["imageUrl"] = *input.ImageURL
	}
	if input.Price != nil {
		if *input.Price < 0 {
			httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "price must not be negative"))
			return
		}
		set["price"] = *input.Price
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "stockQuantity must not be negative"))
			return
		}
		set["stockQuantity"] = *input.StockQuantity
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := database.ProductCollection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	if res.MatchedCount == 0 {
		httperr.Respond(c, httperr.Errorf(httperr.ENOTFOUND, "product not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated"})
}

func DeleteProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid product id"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := database.ProductCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	if res.DeletedCount == 0 {
		httperr.Respond(c, httperr.Errorf(httperr.ENOTFOUND, "product not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
