package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/saltyperk/kidocart/internal/addresses"
	"github.com/saltyperk/kidocart/internal/auth"
	"github.com/saltyperk/kidocart/internal/cart"
	"github.com/saltyperk/kidocart/internal/config"
	"github.com/saltyperk/kidocart/internal/db"
	"github.com/saltyperk/kidocart/internal/events"
	"github.com/saltyperk/kidocart/internal/mail"
	"github.com/saltyperk/kidocart/internal/orders"
	"github.com/saltyperk/kidocart/internal/payment"
	"github.com/saltyperk/kidocart/internal/products"
	"github.com/saltyperk/kidocart/internal/wishlist"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	pool, err := db.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres connect failed", zap.Error(err))
	}
	defer pool.Close()

	var pub events.Publisher = events.Noop{}
	if cfg.RabbitMQURL != "" {
		p, err := events.NewAMQPPublisher(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatal("rabbitmq connect failed", zap.Error(err))
		}
		pub = p
	}

	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		})
	}

	jwtMgr := auth.NewJWTManager(auth.JWTConfig{
		Issuer:         cfg.JWTIssuer,
		AccessSecret:   cfg.JWTAccessSecret,
		RefreshSecret:  cfg.JWTRefreshSecret,
		AccessTTLMin:   cfg.AccessTokenTTLMin,
		RefreshTTLDays: cfg.RefreshTokenTTLDays,
	})

	// Repos
	userRepo := auth.NewUserRepo(pool)
	refreshRepo := auth.NewRefreshRepo(pool)
	addressRepo := addresses.NewRepo(pool)
	productRepo := products.NewRepo(pool)
	cartRepo := cart.NewRepo(pool)
	wishlistRepo := wishlist.NewRepo(pool)
	orderRepo := orders.NewRepo(pool)

	authHandler := auth.NewHandler(auth.Dependencies{
		JWT:     jwtMgr,
		Users:   userRepo,
		Refresh: refreshRepo,
	})
	addressHandler := addresses.NewHandler(addressRepo)
	productHandler := products.NewHandler(productRepo)
	cartHandler := cart.NewHandler(cartRepo)
	wishlistHandler := wishlist.NewHandler(wishlistRepo)

	orderSvc := orders.NewService(orderRepo, cartRepo, orders.Pricing{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFee:           cfg.ShippingFee,
		TaxRate:               cfg.TaxRate,
	}, pub)
	orderHandler := orders.NewHandler(orderSvc)

	gatewayClient := payment.NewClient(payment.ClientConfig{
		BaseURL:    cfg.PhonePeBaseURL,
		MerchantID: cfg.PhonePeMerchantID,
		SaltKey:    cfg.PhonePeSaltKey,
		SaltIndex:  cfg.PhonePeSaltIndex,
		Timeout:    cfg.GatewayTimeout,
	})
	processor := payment.NewProcessor(cfg.PhonePeSaltKey, cfg.PhonePeSaltIndex,
		orderRepo, cartRepo, pub, mailer, userRepo, logger)
	paymentHandler := payment.NewHandler(gatewayClient, processor, orderRepo, cfg.FrontendURL, logger)

	r := gin.Default()

	api := r.Group("/api")
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Public catalog routes (no login required)
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)

	// gateway callback is authenticated by checksum, not by JWT
	api.POST("/payment/phonepe/callback", paymentHandler.Callback)

	protected := api.Group("/")
	protected.Use(auth.AuthMiddleware(jwtMgr))
	{
		protected.GET("/me", authHandler.Me)
		protected.PATCH("/me", authHandler.UpdateMe)
		protected.PATCH("/me/password", authHandler.ChangePassword)

		protected.GET("/addresses", addressHandler.List)
		protected.POST("/addresses", addressHandler.Create)
		protected.PUT("/addresses/:id", addressHandler.Update)
		protected.DELETE("/addresses/:id", addressHandler.Delete)

		protected.GET("/cart", cartHandler.GetMyCart)
		protected.POST("/cart/items", cartHandler.AddItem)
		protected.PATCH("/cart/items", cartHandler.UpdateItem)
		protected.DELETE("/cart/items", cartHandler.RemoveItem)
		protected.DELETE("/cart", cartHandler.Clear)

		protected.GET("/wishlist", wishlistHandler.List)
		protected.POST("/wishlist/toggle", wishlistHandler.Toggle)
		protected.DELETE("/wishlist/items", wishlistHandler.Remove)

		protected.GET("/orders", orderHandler.List)
		protected.POST("/orders", orderHandler.Create)
		protected.GET("/orders/:id", orderHandler.Get)
		protected.PUT("/orders/:id/cancel", orderHandler.Cancel)

		protected.POST("/payment/phonepe/initiate", paymentHandler.Initiate)

		adminOnly := protected.Group("/admin")
		adminOnly.Use(auth.RequireRole("admin"))

		adminOnly.POST("/products", productHandler.AdminCreate)
		adminOnly.PATCH("/products/:id", productHandler.AdminUpdate)
		adminOnly.GET("/orders", orderHandler.AdminList)
		adminOnly.PATCH("/orders/:id/status", orderHandler.AdminUpdateStatus)
	}

	logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
