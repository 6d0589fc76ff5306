package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"minishop/internal/activity"
	"minishop/internal/api/auth"
	"minishop/internal/api/middleware"
	"minishop/internal/catalog"
	"minishop/internal/comment"
	"minishop/internal/config"
	"minishop/internal/model"
	"minishop/internal/pkg/metrics"
	"minishop/internal/pkg/notify"
	"minishop/internal/pkg/ratelimit"
	"minishop/internal/recommend"
	"minishop/internal/refresh"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Server 封装了 API 服务所需的依赖和路由处理。
//
// 它持有数据库连接、Redis 客户端、各业务服务以及 Gin 路由引擎。
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
	rdb    *redis.Client
	router *gin.Engine

	auth      *auth.Handler
	catalog   *catalog.Service
	views     *activity.ViewTracker
	purchases *activity.PurchaseTracker
	favorites *activity.Favorites
	comments  *comment.Service
	engine    *recommend.Engine
	refresher *refresh.Refresher

	globalLimiter *ratelimit.Limiter
	loginLimiter  *ratelimit.Limiter
	otpLimiter    *ratelimit.Limiter
}

// NewServer 初始化 API 服务器。
//
// 它负责：
// 1. 连接 MySQL 数据库并执行自动迁移
// 2. 连接 Redis
// 3. 组装业务服务与限流器
// 4. 初始化 Gin 路由引擎
//
// 参数:
//
//	ctx: 上下文
//	cfg: 配置对象
//	logger: 日志记录器
//
// 返回值:
//
//	*Server: 初始化完成的服务器实例
//	error: 初始化失败返回错误
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent), // 关闭GORM调试日志
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Category{},
		&model.Favorite{},
		&model.ProductView{},
		&model.ProductComment{},
		&model.ProductPurchase{},
	); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	metrics.InitMetrics()

	emailNotifier := notify.NewEmailNotifier(&cfg.Email, logger)
	activityStore := activity.NewGormStore(db)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		rdb:       rdb,
		router:    r,
		auth:      auth.NewHandler(db, cfg.Security.JWTSecret, cfg.Security.JWTExpire, emailNotifier, logger),
		catalog:   catalog.NewService(catalog.NewGormStore(db), logger),
		views:     activity.NewViewTracker(activityStore, logger),
		purchases: activity.NewPurchaseTracker(activityStore, logger),
		favorites: activity.NewFavorites(activityStore, logger),
		comments:  comment.NewService(comment.NewGormStore(db), logger),
		engine:    recommend.NewEngine(recommend.NewGormStore(db), logger),
		refresher: refresh.NewRefresher(refresh.NewGormStore(db), cfg.App.RefreshInterval, logger),

		globalLimiter: ratelimit.NewRedisLimiter(rdb, "global", cfg.App.GlobalRate, cfg.App.GlobalBurst),
		loginLimiter:  ratelimit.NewRedisLimiter(rdb, "login", cfg.App.LoginRate, cfg.App.LoginBurst),
		otpLimiter:    ratelimit.NewRedisLimiter(rdb, "otp", cfg.App.OTPRate, cfg.App.OTPBurst),
	}
	s.registerRoutes()
	return s, nil
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// StartRefresher 启动统计刷新任务。
func (s *Server) StartRefresher(ctx context.Context) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("PANIC in stat refresher", slog.Any("panic", r))
			}
		}()
		s.refresher.Run(ctx)
	}()
}

// Close 关闭数据库与缓存连接。
func (s *Server) Close() error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else {
			if closeErr := sqlDB.Close(); closeErr != nil {
				if firstErr == nil {
					firstErr = closeErr
				}
			}
		}
	}
	return firstErr
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes() {
	// Prometheus metrics 端点
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/healthz", s.handleHealthz)

	v1 := s.router.Group("/v1/api")
	v1.Use(middleware.RateLimit(s.globalLimiter, "global"))
	v1.Use(middleware.OptionalAuthMiddleware(s.cfg.Security.JWTSecret))
	v1.Use(middleware.SessionActivityMiddleware(s.rdb, s.cfg.App.SessionTTL))

	v1.GET("/", s.handleRoot)

	// 账号
	v1.POST("/register", s.auth.Register)
	v1.POST("/login", middleware.RateLimit(s.loginLimiter, "login"), s.auth.Login)
	v1.POST("/logout", s.auth.Logout)
	v1.POST("/forgot-password", middleware.RateLimit(s.otpLimiter, "otp"), s.auth.ForgotPassword)
	v1.POST("/check-otp", s.auth.CheckOTP)
	v1.POST("/reset-password", s.auth.ResetPassword)

	// 商品与分类（公开读）
	v1.GET("/products", s.handleListProducts)
	v1.GET("/products/all", s.handleAllProducts)
	v1.GET("/products/filter", s.handleFilterProducts)
	v1.GET("/products/search", s.handleSearchProducts)
	v1.GET("/products/popular", s.handlePopularProducts)
	v1.GET("/products/recommended", s.handleRecommendedProducts)
	v1.GET("/products/recently-viewed", s.handleRecentlyViewed)
	v1.GET("/products/:productId", s.handleGetProduct)
	v1.GET("/products/:productId/similar", s.handleSimilarProducts)
	v1.GET("/products/:productId/comments", s.handleListComments)
	v1.GET("/products/:productId/stats", s.handleProductStats)
	v1.GET("/categories", s.handleListCategories)
	v1.GET("/categories/:id", s.handleGetCategory)

	// 浏览与购买事件（匿名可写）
	v1.POST("/productviews", s.handleRecordView)
	v1.GET("/productviews", s.handleListViewedProducts)
	v1.POST("/productpurchases", s.handleRecordPurchase)
	v1.GET("/productpurchases/counts", s.handlePurchaseCounts)
	v1.GET("/productpurchases/count/:productId", s.handlePurchaseCount)

	// 需要登录
	authed := v1.Group("/")
	authed.Use(middleware.AuthMiddleware(s.cfg.Security.JWTSecret))
	authed.GET("/user", s.auth.ListUsers)
	authed.POST("/merge-session-data", s.handleMergeSession)
	authed.GET("/favorites", s.handleListFavorites)
	authed.POST("/favorites", s.handleAddFavorite)
	authed.DELETE("/favorites/:productId", s.handleRemoveFavorite)
	authed.GET("/favorites/:productId/status", s.handleFavoriteStatus)
	authed.POST("/products/:productId/comments", s.handleAddComment)
	authed.DELETE("/products/comments/:commentId", s.handleDeleteComment)

	// 管理员
	admin := authed.Group("/")
	admin.Use(middleware.RequireAdmin())
	admin.POST("/products", s.handleCreateProduct)
	admin.PUT("/products/:productId", s.handleUpdateProduct)
	admin.DELETE("/products/:productId", s.handleDeleteProduct)
	admin.POST("/categories", s.handleCreateCategory)
	admin.PUT("/categories/:id", s.handleUpdateCategory)
	admin.DELETE("/categories/:id", s.handleDeleteCategory)
	admin.POST("/admin/users", s.auth.CreateUser)
	admin.GET("/admin/users", s.auth.ListUsers)
	admin.GET("/admin/users/:id", s.auth.GetUser)
	admin.PUT("/admin/users/:id", s.auth.UpdateUser)
	admin.PUT("/admin/users/:id/role", s.auth.UpdateUserRole)
	admin.DELETE("/admin/users/:id", s.auth.DeleteUser)
}

func (s *Server) handleRoot(c *gin.Context) {
	respondOK(c, "Hello world", nil)
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// pageParams 解析分页参数并套用默认与上限。
func (s *Server) pageParams(c *gin.Context) (page, pageSize int) {
	page = intQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize = intQuery(c, "limit", s.cfg.App.DefaultPageSize)
	if pageSize < 1 {
		pageSize = s.cfg.App.DefaultPageSize
	}
	if pageSize > s.cfg.App.MaxPageSize {
		pageSize = s.cfg.App.MaxPageSize
	}
	return page, pageSize
}
