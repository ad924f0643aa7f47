// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"reelfeed/internal/auth"
	"reelfeed/internal/cache"
	"reelfeed/internal/config"
	"reelfeed/internal/database"
	"reelfeed/internal/middleware"
	"reelfeed/internal/models"
	"reelfeed/internal/notifications"
	"reelfeed/internal/repository"
	"reelfeed/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config      *config.Config
	db          *gorm.DB
	redis       *redis.Client
	app         *fiber.App
	shutdownCtx context.Context
	shutdownFn  context.CancelFunc

	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	followRepo  repository.FollowRepository
	messageRepo repository.MessageRepository

	followCache *cache.FollowGraphCache
	feedCache   *cache.FeedCache

	tokens    *auth.TokenManager
	wsTickets *localTicketStore
	notifier  *notifications.Notifier
	hub       *notifications.Hub

	feedService       *service.FeedService
	engagementService *service.EngagementService
	followService     *service.FollowService
	moderationService *service.ModerationService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	server := &Server{
		config:      cfg,
		db:          db,
		redis:       redisClient,
		userRepo:    repository.NewUserRepository(db),
		postRepo:    repository.NewPostRepository(db),
		followRepo:  repository.NewFollowRepository(db),
		messageRepo: repository.NewMessageRepository(db),
		followCache: cache.NewFollowGraphCache(redisClient, cfg.FollowCacheSize, cfg.FollowCacheTTL()),
		feedCache:   cache.NewFeedCache(cfg.FeedCacheSize, cfg.FeedCacheTTL()),
		tokens:      auth.NewTokenManager(cfg.JWTSecret, 24*time.Hour),
		wsTickets:   newLocalTicketStore(),
	}

	server.feedService = service.NewFeedService(
		server.postRepo, server.followRepo, server.followCache, server.feedCache)
	server.engagementService = service.NewEngagementService(server.postRepo, server.feedCache)
	server.followService = service.NewFollowService(
		server.userRepo, server.followRepo, server.followCache, server.feedCache)
	server.moderationService = service.NewModerationService(
		server.postRepo, server.feedCache, cfg.MediaRoot)

	// With Redis the presence set and event fan-out are shared across
	// instances; without it the hub serves this instance alone.
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub(
			notifications.NewRedisPresence(redisClient), server.notifier)
	} else {
		server.hub = notifications.NewHub(notifications.NewLocalPresence(), nil)
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	middleware.RegisterMetrics(app, "reelfeed-api")

	// Security headers
	app.Use(helmet.New())

	// Distributed tracing (after requestid so the span carries it)
	app.Use(middleware.TracingMiddleware())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Range, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Reelfeed Backend Metrics Dashboard",
	}))

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	authGroup.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	authGroup.Post("/logout", s.AuthRequired(), s.Logout)
	authGroup.Post("/change-password", s.AuthRequired(), s.ChangePassword)

	// Public feed routes; the viewer is picked up from the token when present.
	posts := api.Group("/posts")
	posts.Get("/", s.GetFeed)
	posts.Get("/reels", s.GetReels)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/view", s.RecordView)
	posts.Get("/:id", s.GetPost)

	// Media streaming with range support
	api.Get("/media/*", s.ServeMedia)

	// User search and profiles
	users := api.Group("/users")
	users.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.SearchUsers)
	users.Get("/:username/posts", s.GetUserPosts)
	users.Get("/:username/followers", s.GetFollowers)
	users.Get("/:username/following", s.GetFollowing)
	users.Get("/:username", s.GetProfile)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// WebSocket ticket issuance
	protected.Post("/ws/ticket", s.IssueWSTicket)

	// Engagement routes
	engagement := protected.Group("/posts")
	engagement.Post("/:id/like", s.LikePost)
	engagement.Post("/:id/unlike", s.UnlikePost)
	engagement.Post("/:id/comment", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)

	// Follow routes
	protected.Get("/follow/check/:username", s.GetFollowStatus)
	protected.Post("/follow/:username", s.FollowUser)
	protected.Post("/unfollow/:username", s.UnfollowUser)

	// Messaging routes
	protected.Get("/chats", s.GetChats)
	protected.Get("/messages/:username", s.GetMessages)
	protected.Post("/messages", middleware.RateLimit(
		s.redis, 30, time.Minute, "send_message"), s.SendMessage)
	protected.Get("/online", s.GetOnlineUsers)

	// Websocket endpoint - protected by AuthRequired (ticket or token)
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/", s.WebsocketHandler())

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/posts", s.AdminListPosts)
	admin.Post("/posts/:id/approve", s.ApprovePost)
	admin.Delete("/posts/:id", s.AdminDeletePost)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: caches and presence degrade to local state.
	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that the role is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if role != models.RoleAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// AuthRequired returns the authentication middleware. A credential is only
// accepted when its revocation epoch matches the user's current one, so a
// logout or password change cuts off every token issued before it.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		isWSPath := strings.HasPrefix(path, "/api/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		ticket := c.Query("ticket")
		if ticket != "" {
			if t, ok := s.takeTicket(c.Context(), ticket); ok {
				// The ticket pins the revocation epoch at issuance time; a
				// logout in the issue-to-redeem window kills it too.
				user, uerr := s.userRepo.GetByID(c.Context(), t.UserID)
				if uerr != nil || user.TokenVersion != t.TokenVersion {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
				}
				s.setAuthLocals(c, user.ID, user.Username, user.Role)
				return c.Next()
			}
			// If ticket was provided but invalid/expired, we fail if it's a WS path
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to a Bearer token
		tokenString := bearerToken(c)
		if tokenString == "" && !isWSPath {
			// WS routes must use tickets; query tokens end up in access logs.
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.tokens.Verify(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		// Revocation epoch check against the store.
		current, err := s.userRepo.TokenVersion(c.Context(), claims.UserID)
		if err != nil || current != claims.TokenVersion {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		s.setAuthLocals(c, claims.UserID, claims.Username, claims.Role)
		return c.Next()
	}
}

func (s *Server) setAuthLocals(c *fiber.Ctx, userID uint, username, role string) {
	c.Locals("userID", userID)
	c.Locals("username", username)
	c.Locals("role", role)
	// Sync to UserContext for logging and downstream services
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
	c.SetUserContext(ctx)
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// optionalUserID extracts the viewer from the Authorization header when one is
// present but does not enforce it. Revoked tokens count as anonymous rather
// than failing the request; public pages stay available either way.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return 0, false
	}
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return 0, false
	}
	current, err := s.userRepo.TokenVersion(c.Context(), claims.UserID)
	if err != nil || current != claims.TokenVersion {
		return 0, false
	}
	return claims.UserID, true
}

// IssueWSTicket creates a short-lived single-use ticket for the websocket
// endpoint, so the credential never travels in a query string.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	tokenVersion, err := s.userRepo.TokenVersion(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	ticket := newTicketID()
	t := wsTicket{UserID: userID, TokenVersion: tokenVersion}
	if err := s.storeTicket(c.Context(), ticket, t); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"ticket": ticket, "expiresIn": int(wsTicketTTL.Seconds())})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Reelfeed API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire the hub to the Redis subscriber if available
	if s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the wiring goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", s.hub.Name(), err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
