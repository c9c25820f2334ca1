package handlers

import (
	"github.com/gin-gonic/gin"

	"bookstore/internal/services"
)

// Services bundles everything the route table needs.
type Services struct {
	Auth     services.AuthService
	Catalog  services.CatalogService
	Customer services.CustomerService
	Cart     services.CartService
	Order    services.OrderService
	Review   services.ReviewService
}

// RegisterRoutes wires every endpoint. The auth middleware must already be
// attached to the engine; handlers read the principal off the context.
func RegisterRoutes(r *gin.Engine, svcs Services) {
	ah := &AuthHandler{svc: svcs.Auth}
	r.POST("/api/token", ah.token)
	r.POST("/api/token/refresh", ah.refresh)

	bh := &BookHandler{svc: svcs.Catalog}
	r.GET("/books", bh.list)
	r.GET("/books/by-author", bh.byAuthor)
	r.GET("/books/by-genre", bh.byGenre)
	r.GET("/books/search", bh.search)
	r.GET("/books/:id", bh.get)
	r.POST("/books", bh.create)
	r.PUT("/books/:id", bh.update)
	r.DELETE("/books/:id", bh.delete)

	ch := &CustomerHandler{svc: svcs.Customer}
	r.GET("/customer", ch.list)
	r.POST("/customer", ch.create)
	r.GET("/customer/:id", ch.get)
	r.PUT("/customer/:id", ch.update)
	r.PATCH("/customer/:id", ch.partialUpdate)
	r.DELETE("/customer/:id", ch.delete)

	rh := &ReviewHandler{svc: svcs.Review}
	r.GET("/reviews", rh.list)
	r.POST("/reviews", rh.create)
	r.PUT("/reviews/:id", rh.update)
	r.DELETE("/reviews/:id", rh.delete)
	r.GET("/reviews/my-reviews", rh.myReviews)
	r.GET("/reviews/user-reviews/:customerId", rh.customerReviews)
	r.GET("/reviews/book-reviews/:bookId", rh.bookReviews)

	cth := &CartHandler{svc: svcs.Cart}
	r.GET("/cart", cth.list)
	r.POST("/cart", cth.add)
	r.PUT("/cart/:id", cth.updateQuantity)
	r.DELETE("/cart/:id", cth.remove)
	r.DELETE("/cart/clear-cart", cth.clear)
	r.GET("/cart/user-cart/:customerId", cth.customerCart)

	oh := &OrderHandler{svc: svcs.Order}
	r.GET("/orders", oh.list)
	r.GET("/orders/:id", oh.get)
	r.POST("/orders/create-order", oh.checkout)
	r.PUT("/orders/:id", oh.updateStatus)
}
