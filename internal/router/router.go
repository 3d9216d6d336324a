package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/arefin-dev/cliply/backend/internal/engine"
	"github.com/arefin-dev/cliply/backend/internal/handlers"
	"github.com/arefin-dev/cliply/backend/internal/middleware"
	"github.com/arefin-dev/cliply/backend/internal/models"
	"github.com/arefin-dev/cliply/backend/internal/repositories"
	"github.com/arefin-dev/cliply/backend/pkg/config"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// Deps holds what SetupRoutes wires together and returns for the caller
// to run workers against.
type Deps struct {
	Engine     *engine.Engine
	Reconciler *engine.Reconciler
	Views      engine.ViewStore
	RateLimit  *middleware.RateLimiter
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, mgClient *mongo.Client, log *slog.Logger) (*Deps, error) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Like{},
		&models.Comment{},
		&models.Notification{},
	)
	if err != nil {
		return nil, err
	}
	log.Info("postgres auto-migrations completed")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Repositories ---
	mongoDB := mgClient.Database(cfg.MongoDBName)
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	likeRepo := repositories.NewPostgresLikeRepository(pgdb)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	videoRepo := repositories.NewMongoVideoRepository(mongoDB)
	viewRepo := repositories.NewMongoViewRepository(mongoDB)

	// --- Engine ---
	ranking := engine.NewRanking(engine.RankingConfig{
		ViewWeight:     cfg.RankViewWeight,
		LikeWeight:     cfg.RankLikeWeight,
		CommentWeight:  cfg.RankCommentWeight,
		ShareWeight:    cfg.RankShareWeight,
		RecencyBoost:   cfg.RankRecencyBoost,
		RecencyWindow:  cfg.RecencyWindow,
		TrendingWindow: cfg.TrendingWindow,
		ScoreStaleness: cfg.ScoreStaleness,
	})
	counters := engine.NewCounterStore(userRepo, videoRepo, commentRepo, ranking, log)
	notifier := engine.NewNotifier(notificationRepo, userRepo, cfg.NotificationRetention, log)
	ledger := engine.NewLedger(userRepo, videoRepo, commentRepo, followRepo, likeRepo,
		counters, notifier, cfg.StorageTimeout, cfg.ToggleRetries, log)
	feed := engine.NewFeedAssembler(videoRepo, viewRepo, followRepo, counters, ranking, log)
	eng := engine.New(ledger, counters, feed, notifier, ranking,
		userRepo, videoRepo, commentRepo, likeRepo, viewRepo, cfg.StorageTimeout, log)
	reconciler := engine.NewReconciler(userRepo, videoRepo, followRepo, likeRepo, commentRepo, log)

	// --- Routes ---
	// Optional-auth reads: anonymous viewers get the cold-start ordering.
	public := e.Group("/api/v1")
	public.Use(middleware.OptionalJWTAuthMiddleware())

	// Protected mutations and per-viewer reads, rate limited.
	rateLimit := middleware.NewRateLimiter(120, 30)
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	api.Use(rateLimit.Middleware())

	feedHandler := handlers.NewFeedHandler(feed)
	feedHandler.RegisterFeedRoutes(public)
	feedHandler.RegisterProtectedFeedRoutes(api)

	videoHandler := handlers.NewVideoHandler(eng)
	videoHandler.RegisterPublicVideoRoutes(public)
	videoHandler.RegisterVideoRoutes(api)

	engagementHandler := handlers.NewEngagementHandler(ledger)
	engagementHandler.RegisterEngagementRoutes(api)

	commentHandler := handlers.NewCommentHandler(eng)
	commentHandler.RegisterPublicCommentRoutes(public)
	commentHandler.RegisterCommentRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(notifier)
	notificationHandler.RegisterNotificationRoutes(api)

	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(public)

	log.Info("all routes configured")

	return &Deps{Engine: eng, Reconciler: reconciler, Views: viewRepo, RateLimit: rateLimit}, nil
}
