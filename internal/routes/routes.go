package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"flower_shop/internal/auth"
	"flower_shop/internal/handlers"
	"flower_shop/internal/logger"
	"flower_shop/internal/middleware"
)

type Options struct {
	Sessions     sessions.Store
	Users        middleware.UserLookup
	Tokens       *auth.Tokens
	Origins      []string
	UploadFolder string
}

func New(h *handlers.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware())

	if len(opts.Origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.Origins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if opts.UploadFolder != "" {
		r.Static("/static/uploads", opts.UploadFolder)
	}
	r.GET("/health", handlers.Health)

	r.Use(middleware.Session(opts.Sessions, opts.Users, opts.Tokens))
	Register(r, h)
	return r
}

func Register(r *gin.Engine, h *handlers.Handler) {
	// Catalog
	r.GET("/", h.ListProducts)
	api := r.Group("/api")
	{
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/categories", h.ListCategories)
		api.GET("/session", h.Session)
		api.GET("/cart", h.GetCart)
		api.GET("/checkout", h.CheckoutForm)
		api.GET("/orders", middleware.RequireLogin(), h.MyOrders)
	}

	// Cart & checkout
	r.POST("/cart/add/:id", h.AddToCart)
	r.GET("/cart", h.GetCart)
	r.POST("/cart", h.UpdateCart)
	r.GET("/checkout", h.CheckoutForm)
	r.POST("/checkout", h.Checkout)
	r.GET("/ws/cart", h.CartWebSocket)

	// Accounts
	r.GET("/login", h.AuthPage)
	r.GET("/register", h.AuthPage)
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/logout", middleware.RequireLogin(), h.Logout)
	r.GET("/auth/:provider", h.BeginOAuth)
	r.GET("/auth/:provider/callback", h.OAuthCallback)

	// Admin
	admin := r.Group("/", middleware.RequireLogin(), middleware.RequireAdmin())
	{
		admin.GET("/admin", h.AdminDashboard)
		admin.GET("/api/admin", h.AdminDashboard)
		admin.POST("/admin/product/new", h.CreateProduct)
	}
}
