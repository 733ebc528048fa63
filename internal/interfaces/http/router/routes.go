package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playhub/backend/internal/infrastructure/config"
	"github.com/playhub/backend/internal/infrastructure/logger"
	"github.com/playhub/backend/internal/infrastructure/telemetry"
	"github.com/playhub/backend/internal/interfaces/http/handler"
	"github.com/playhub/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by New. Socket may be nil when
// the realtime hub is not running.
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Product      *handler.ProductHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Stream       *handler.StreamHandler
	Chat         *handler.ChatHandler
	Notification *handler.NotificationHandler
	Socket       *handler.SocketHandler
	System       *handler.SystemHandler
}

// Config controls the engine's middleware stack
type Config struct {
	APIVersion       string
	ServiceName      string
	TracingEnabled   bool
	ProfilingEnabled bool // labels profile samples per route
	HTTP             config.HTTPConfig
	Swagger          config.SwaggerConfig
}

// Deps are the shared services the middleware stack needs
type Deps struct {
	Logger  *zap.Logger
	Metrics *telemetry.Metrics // nil disables /metrics and request metrics
	JWT     middleware.JWTMiddlewareConfig
}

// New builds the gin engine with the full middleware chain and every route.
//
// Order matters: the request id must exist before the span and the access
// log read it, and panics are recovered inside the logger so they are
// logged with the request fields.
func New(cfg Config, deps Deps, h Handlers) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.TracingEnabled,
	}))
	if cfg.TracingEnabled {
		engine.Use(middleware.SpanEnricher())
	}
	if cfg.ProfilingEnabled {
		engine.Use(middleware.ProfileLabels())
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.CORS(corsConfig(cfg.HTTP)))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if deps.Metrics != nil {
		engine.Use(middleware.Metrics(middleware.DefaultHTTPMetricsConfig(deps.Metrics)))
		engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}

	jwtAuth := middleware.JWTAuth(deps.JWT)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, jwtAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	version := cfg.APIVersion
	if version == "" {
		version = "v1"
	}
	r := NewRouter(engine, WithAPIVersion(version))
	r.Register(Groups(h, deps.JWT, authLimiter(cfg.HTTP))...)
	r.Setup()

	return engine
}

// Groups returns the API route groups. authLimit guards the credential
// endpoints and may be nil.
func Groups(h Handlers, jwt middleware.JWTMiddlewareConfig, authLimit gin.HandlerFunc) []RouteRegistrar {
	jwtAuth := middleware.JWTAuth(jwt)
	optionalAuth := middleware.OptionalJWTAuth(jwt)

	limited := func(next gin.HandlerFunc) []gin.HandlerFunc {
		if authLimit == nil {
			return []gin.HandlerFunc{next}
		}
		return []gin.HandlerFunc{authLimit, next}
	}

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", limited(h.Auth.Register)...)
	authRoutes.POST("/login", limited(h.Auth.Login)...)
	authRoutes.POST("/refresh", h.Auth.Refresh)
	session := authRoutes.Group("session", "", jwtAuth)
	session.POST("/logout", h.Auth.Logout)
	session.GET("/me", h.Auth.Me)
	session.PUT("/password", h.Auth.ChangePassword)

	// Public reads; a token, when present, personalizes the response.
	public := NewDomainGroup("public", "", optionalAuth)
	public.GET("/users", h.User.Search)
	public.GET("/users/:username", h.User.GetProfile)
	public.GET("/users/:username/followers", h.User.ListFollowers)
	public.GET("/users/:username/following", h.User.ListFollowing)
	public.GET("/store/items", h.Product.ListStoreItems)
	public.GET("/store/items/:id", h.Product.GetStoreItem)
	public.GET("/store/categories", h.Product.Categories)
	public.GET("/streams", h.Stream.List)
	public.GET("/streams/:id", h.Stream.Get)
	public.GET("/streamers/:id/streams", h.Stream.ListByStreamer)
	if h.System != nil {
		public.GET("/system/info", h.System.GetSystemInfo)
	}

	// Called by the payment provider; authenticity comes from the signature.
	webhooks := NewDomainGroup("payments", "/payments")
	webhooks.POST("/webhook", h.Order.PaymentWebhook)

	social := NewDomainGroup("social", "", jwtAuth)
	social.PATCH("/profile", h.User.UpdateProfile)
	social.POST("/profile/avatar/upload", h.User.CreateAvatarUpload)
	social.PUT("/profile/avatar", h.User.ConfirmAvatar)
	social.POST("/users/:username/follow", h.User.Follow)
	social.DELETE("/users/:username/follow", h.User.Unfollow)

	store := NewDomainGroup("store", "", jwtAuth)
	products := store.Group("products", "/products")
	products.POST("", h.Product.Create)
	products.GET("", h.Product.ListMine)
	products.GET("/:id", h.Product.Get)
	products.PATCH("/:id", h.Product.Update)
	products.DELETE("/:id", h.Product.Archive)
	products.POST("/:id/stock", h.Product.AdjustStock)
	products.POST("/:id/images/upload", h.Product.CreateImageUpload)
	products.POST("/:id/images", h.Product.AttachImage)

	cart := store.Group("cart", "/cart")
	cart.GET("", h.Cart.Get)
	cart.DELETE("", h.Cart.Clear)
	cart.POST("/items", h.Cart.AddItem)
	cart.PUT("/items/:productId", h.Cart.UpdateItem)
	cart.DELETE("/items/:productId", h.Cart.RemoveItem)
	cart.POST("/checkout", h.Cart.Checkout)

	orders := store.Group("orders", "/orders")
	orders.GET("", h.Order.ListMine)
	orders.GET("/sales", h.Order.ListSales)
	orders.GET("/:id", h.Order.Get)
	orders.POST("/:id/cancel", h.Order.Cancel)
	orders.POST("/:id/fulfill", h.Order.Fulfill)

	streams := NewDomainGroup("streams", "/streams", jwtAuth)
	streams.POST("", h.Stream.Create)
	streams.PATCH("/:id", h.Stream.Update)
	streams.POST("/:id/key", h.Stream.RegenerateKey)
	streams.POST("/:id/thumbnail/upload", h.Stream.CreateThumbnailUpload)
	streams.PUT("/:id/thumbnail", h.Stream.SetThumbnail)
	streams.POST("/:id/start", h.Stream.Start)
	streams.POST("/:id/end", h.Stream.End)
	streams.POST("/:id/join", h.Stream.Join)
	streams.POST("/:id/leave", h.Stream.Leave)
	streams.POST("/:id/like", h.Stream.Like)
	streams.GET("/:id/analytics", h.Stream.Analytics)

	messaging := NewDomainGroup("chat", "", jwtAuth)
	conversations := messaging.Group("conversations", "/conversations")
	conversations.GET("", h.Chat.ListConversations)
	conversations.POST("", h.Chat.StartConversation)
	conversations.GET("/unread-count", h.Chat.UnreadCount)
	conversations.GET("/:id/messages", h.Chat.GetMessages)
	conversations.POST("/:id/messages", h.Chat.SendMessage)
	conversations.POST("/:id/read", h.Chat.MarkAsRead)

	notifications := messaging.Group("notifications", "/notifications")
	notifications.GET("", h.Notification.List)
	notifications.GET("/unread-count", h.Notification.UnreadCount)
	notifications.POST("/read-all", h.Notification.MarkAllRead)
	notifications.POST("/:id/read", h.Notification.MarkRead)
	notifications.DELETE("/:id", h.Notification.Delete)

	if h.Socket != nil {
		messaging.GET("/ws", h.Socket.Connect)
	}

	admin := NewDomainGroup("admin", "/admin", jwtAuth, middleware.RequireAdmin())
	admin.POST("/users/:id/suspend", h.User.Suspend)
	admin.POST("/users/:id/reactivate", h.User.Reactivate)

	return []RouteRegistrar{authRoutes, public, webhooks, social, store, streams, messaging, admin}
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}

// authLimiter keys by client IP with a tighter budget than the global limiter
func authLimiter(cfg config.HTTPConfig) gin.HandlerFunc {
	if !cfg.AuthRateLimitEnabled {
		return nil
	}
	window := cfg.AuthRateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	limiter := middleware.NewRateLimiter(cfg.AuthRateLimitRequests, window)
	return middleware.RateLimitByKey(limiter, func(c *gin.Context) string {
		return "auth:" + c.ClientIP()
	})
}
