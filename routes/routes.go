package routes

import (
	"github.com/gin-gonic/gin"

	"storefront/controllers"
	"storefront/middleware"
)

type Deps struct {
	Auth      *controllers.AuthController
	Cart      *controllers.CartController
	Order     *controllers.OrderController
	Secret    []byte
	Blacklist middleware.Blacklist
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")
	{
		api.POST("/register", d.Auth.Register)
		api.POST("/login", d.Auth.Login)
		api.POST("/logout", d.Auth.Logout)

		api.GET("/products", controllers.GetProductsPublic)
		api.GET("/products/:id", controllers.GetProductPublic)
		api.GET("/reviews", controllers.GetReviews)

		protected := api.Group("/")
		protected.Use(middleware.RequireAuth(d.Secret, d.Blacklist))
		{
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/products", controllers.CreateProduct)
				admin.PUT("/products/:id", controllers.UpdateProduct)
				admin.DELETE("/products/:id", controllers.DeleteProduct)

				admin.GET("/orders", controllers.GetOrdersAdmin)
				admin.PUT("/orders/:id/status", controllers.UpdateOrderStatus)
			}

			user := protected.Group("/user")
			{
				user.GET("/cart", d.Cart.GetCart)
				user.POST("/cart", d.Cart.AddToCart)
				user.PUT("/cart", d.Cart.UpdateCart)
				user.DELETE("/cart", d.Cart.RemoveFromCart)
				user.DELETE("/cart/all", d.Cart.ClearCart)

				user.POST("/reviews", controllers.CreateReview)

				user.POST("/checkout", d.Order.DoCheckout)
				user.GET("/orders", d.Order.GetOrders)
				user.PUT("/orders/:id/cancel", d.Order.CancelOrder)
			}
		}
	}
}
