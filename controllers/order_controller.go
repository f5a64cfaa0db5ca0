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

type OrderController struct {
	Checkout *services.Checkout
}

// DoCheckout converts the caller's full cart into a priced order.
func (oc *OrderController) DoCheckout(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		httperr.Respond(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "no valid session"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	order, err := oc.Checkout.Checkout(ctx, ident.UserID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Checkout success", "order": order})
}

func (oc *OrderController) GetOrders(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		httperr.Respond(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "no valid session"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	orders, err := oc.Checkout.Orders(ctx, ident.UserID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": orders})
}

func (oc *OrderController) CancelOrder(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		httperr.Respond(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "no valid session"))
		return
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid order id"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := oc.Checkout.Cancel(ctx, ident.UserID, orderID); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order canceled"})
}
