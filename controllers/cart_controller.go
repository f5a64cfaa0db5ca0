package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/httperr"
	"storefront/middleware"
	"storefront/services"
)

type CartController struct {
	Cart *services.Cart
}

// GetCart lists the caller's lines newest-first, joined with product
// data, plus the priced summary.
func (cc *CartController) GetCart(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		httperr.Respond(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "no valid session"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	views, summary, err := cc.Cart.List(ctx, ident.UserID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	items := make([]gin.H, 0, len(views))
	for _, v := range views {
		items = append(items, gin.H{
			"id":        v.Line.ID.Hex(),
			"productId": v.Line.ProductID.Hex(),
			"quantity":  v.Line.Quantity,
			"createdAt": v.Line.CreatedAt,
			"product": gin.H{
				"name":          v.Product.Name,
				"brand":         v.Product.Brand,
				"imageUrl":      v.Product.ImageURL,
				"price":         v.Product.Price,
				"stockQuantity": v.Product.StockQuantity,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Fetch success",
		"data": gin.H{
			"items": items,
			"summary": gin.H{
				"subtotal": summary.Subtotal.InexactFloat64(),
				"tax":      summary.Tax.InexactFloat64(),
				"shipping": summary.Shipping.InexactFloat64(),
				"total":    summary.Total.InexactFloat64(),
			},
		},
	})
}

// AddToCart is the upsert-merge entry point.
func (cc *CartController) AddToCart(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		httperr.Respond(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "no valid session"))
		return
	}

	var body struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid request"))
		return
	}

	productID, err := primitive.ObjectIDFromHex(body.ProductID)
	if err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid productId"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	line, err := cc.Cart.Add(ctx, ident.UserID, productID, body.Quantity)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Added to cart",
		"data": gin.H{
			"id":        line.ID.Hex(),
			"productId": line.ProductID.Hex(),
			"quantity":  line.Quantity,
			"createdAt": line.CreatedAt,
		},
	})
}

// UpdateCart overwrites one line's quantity (no merge).
func (cc *CartController) UpdateCart(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		httperr.Respond(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "no valid session"))
		return
	}

	var body struct {
		CartItemID string `json:"cartItemId" binding:"required"`
		Quantity   int    `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid request"))
		return
	}

	lineID, err := primitive.ObjectIDFromHex(body.CartItemID)
	if err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid cartItemId"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	line, err := cc.Cart.SetQuantity(ctx, ident.UserID, lineID, body.Quantity)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart updated",
		"data": gin.H{
			"id":        line.ID.Hex(),
			"productId": line.ProductID.Hex(),
			"quantity":  line.Quantity,
		},
	})
}

// RemoveFromCart deletes one line, identified by the cartItemId query
// parameter.
func (cc *CartController) RemoveFromCart(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		httperr.Respond(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "no valid session"))
		return
	}

	raw := c.Query("cartItemId")
	if raw == "" {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "cart item ID is required"))
		return
	}

	lineID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid cartItemId"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := cc.Cart.Remove(ctx, ident.UserID, lineID); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Removed from cart"})
}

// ClearCart deletes every line the caller owns.
func (cc *CartController) ClearCart(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		httperr.Respond(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "no valid session"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	removed, err := cc.Cart.Clear(ctx, ident.UserID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
		"data":    gin.H{"removed": removed},
	})
}
