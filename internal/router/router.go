package router

import (
	"schoolfood/internal/config"
	_ "schoolfood/internal/docs"
	"schoolfood/internal/handler"
	"schoolfood/internal/middleware"
	"schoolfood/internal/model"
	"schoolfood/internal/repository"
	"schoolfood/internal/service"
	"schoolfood/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Services bundles the engine services so the composition root can share
// them with background jobs.
type Services struct {
	Auth          service.AuthService
	Account       service.AccountService
	Inventory     service.InventoryService
	Preparation   service.PreparationService
	Fulfillment   service.FulfillmentService
	Subscriptions service.SubscriptionService
	Purchases     service.PurchaseService
}

// NewServices wires repositories into services.
// Dependency graph: Service ← Repository ← DB; notifications leave via dispatcher.
func NewServices(cfg *config.Config, db *gorm.DB, dispatcher *worker.Dispatcher, clock service.Clock) *Services {
	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	ingredientRepo := repository.NewIngredientRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	mealRepo := repository.NewMealRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	purchaseRepo := repository.NewPurchaseRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	inventorySvc := service.NewInventoryService(ingredientRepo, movementRepo, userRepo, dispatcher, clock)
	recipeSvc := service.NewRecipeService(recipeRepo)
	subSvc := service.NewSubscriptionService(subRepo, orderRepo, userRepo, dispatcher, clock, cfg.SubscriptionPrices())

	return &Services{
		Auth:          service.NewAuthService(userRepo, cfg),
		Account:       service.NewAccountService(userRepo, notificationRepo, dispatcher, cfg.MaxTopUp()),
		Inventory:     inventorySvc,
		Preparation:   service.NewPreparationService(mealRepo, recipeSvc, ingredientRepo, batchRepo, inventorySvc, userRepo, dispatcher, clock, cfg.DefaultShelfLifeDays),
		Fulfillment:   service.NewFulfillmentService(orderRepo, batchRepo, mealRepo, userRepo, subSvc, dispatcher, clock),
		Subscriptions: subSvc,
		Purchases:     service.NewPurchaseService(purchaseRepo, ingredientRepo, inventorySvc, userRepo, dispatcher, dispatcher, clock),
	}
}

// New returns a configured Gin engine serving svcs.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher, svcs *Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.ErrorHandler())

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(svcs.Auth)
	accountH := handler.NewAccountHandler(svcs.Account)
	ordersH := handler.NewOrdersHandler(svcs.Fulfillment)
	kitchenH := handler.NewKitchenHandler(svcs.Preparation)
	inventoryH := handler.NewInventoryHandler(svcs.Inventory)
	subsH := handler.NewSubscriptionsHandler(svcs.Subscriptions)
	purchasesH := handler.NewPurchaseRequestsHandler(svcs.Purchases, svcs.Preparation)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb, dispatcher.Breaker()))

	// Unauthenticated routes count per client IP, everything behind JWTAuth
	// per user.
	auth := r.Group("/v1/auth", middleware.RateLimiter(cfg.RateLimitPerMinute, middleware.ClientIPKey))
	{
		auth.POST("/login", middleware.LoginRateLimiter(cfg.LoginRateLimitPerMinute), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	const (
		student = model.RoleStudent
		chef    = model.RoleChef
		admin   = model.RoleAdmin
	)
	anyone := middleware.RequireRole(student, chef, admin)
	staff := middleware.RequireRole(chef, admin)

	v1 := r.Group("/v1",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RateLimiter(cfg.RateLimitPerMinute, middleware.UserKey),
	)
	{
		v1.GET("/menu", anyone, ordersH.Menu)

		orders := v1.Group("/orders", middleware.RequireRole(student))
		{
			orders.POST("", ordersH.Place)
			orders.GET("", ordersH.Mine)
			orders.POST("/:id/pay", ordersH.Pay)
			orders.POST("/:id/receive", ordersH.Receive)
		}

		kitchen := v1.Group("/kitchen", staff)
		{
			kitchen.POST("/prepare", kitchenH.Prepare)
			kitchen.GET("/preview", kitchenH.Preview)
			kitchen.GET("/batches", kitchenH.Batches)
			kitchen.GET("/orders", ordersH.All)
			kitchen.POST("/orders/:id/serve", ordersH.Serve)
		}

		inv := v1.Group("/inventory", staff)
		{
			inv.GET("", inventoryH.List)
			inv.PUT("", inventoryH.Upsert)
			inv.POST("/use", inventoryH.Use)
			inv.GET("/alerts", inventoryH.Alerts)
			inv.GET("/movements", inventoryH.Movements)
		}

		subs := v1.Group("/subscriptions", middleware.RequireRole(student))
		{
			subs.POST("", subsH.Purchase)
			subs.GET("", subsH.List)
			subs.GET("/can-use", subsH.CanUse)
		}

		purchases := v1.Group("/purchase-requests")
		{
			purchases.POST("", staff, purchasesH.Create)
			purchases.POST("/from-shortfall", staff, purchasesH.FromShortfall)
			purchases.GET("", staff, purchasesH.List)
			purchases.POST("/:id/approve", middleware.RequireRole(admin), purchasesH.Approve)
			purchases.POST("/:id/reject", middleware.RequireRole(admin), purchasesH.Reject)
		}

		account := v1.Group("/account", anyone)
		{
			account.POST("/topup", middleware.RequireRole(student), accountH.TopUp)
			account.GET("/balance", accountH.Balance)
			account.GET("/notifications", accountH.Notifications)
			account.POST("/notifications/:id/read", accountH.MarkRead)
		}

		v1.POST("/users", middleware.RequireRole(admin), authH.CreateUser)
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
