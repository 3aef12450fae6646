// Package app wires the services to the HTTP routes
package app

import (
	"bitwise74/expense-api/app/expense"
	"bitwise74/expense-api/app/premium"
	"bitwise74/expense-api/app/root"
	"bitwise74/expense-api/app/user"
	"bitwise74/expense-api/aws"
	"bitwise74/expense-api/db"
	"bitwise74/expense-api/internal"
	"bitwise74/expense-api/internal/service"
	"bitwise74/expense-api/pkg/middleware"
	"bitwise74/expense-api/pkg/security"
	"bitwise74/expense-api/razorpay"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

// LeaderboardCacheKey holds the cached leaderboard response. Every successful
// expense write drops it so the next read sums the rows again.
const LeaderboardCacheKey = "leaderboard"

// NewRouter builds every dependency from the loaded config. The returned cron
// runs the reset token cleanup and should be stopped on shutdown.
func NewRouter(ctx context.Context) (*gin.Engine, *cron.Cron, error) {
	if err := makeLogger(viper.GetString("app.log_level")); err != nil {
		return nil, nil, err
	}

	conn, err := db.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	d, err := NewDeps(ctx, conn)
	if err != nil {
		return nil, nil, err
	}

	store, err := newCacheStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	cleanup, err := service.TokenCleanup(viper.GetString("cleanup.schedule"), conn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to schedule token cleanup, %w", err)
	}

	return Routes(d, store), cleanup, nil
}

// NewDeps constructs the services. Optional collaborators (gateway, mailer,
// object storage) are left nil when unconfigured and the matching endpoints
// answer with an error instead.
func NewDeps(ctx context.Context, conn *gorm.DB) (*internal.Deps, error) {
	tokens, err := security.NewTokens(
		viper.GetString("jwt.secret"),
		viper.GetDuration("session.ttl"),
		viper.GetDuration("reset.ttl"),
	)
	if err != nil {
		return nil, err
	}

	argon := security.New()
	expenses := service.NewExpenses(conn)

	var gateway service.PaymentGateway
	if rp, err := razorpay.New(); err == nil {
		gateway = rp
	} else {
		zap.L().Warn("Payment gateway disabled", zap.Error(err))
	}

	var mailer service.Mailer
	if m, err := service.NewSMTPMailerFromConfig(); err == nil {
		mailer = m
	} else {
		zap.L().Warn("Reset mails disabled", zap.Error(err))
	}

	var objects service.ObjectStore
	if viper.GetBool("reports.enabled") {
		s3, err := aws.NewS3(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		objects = s3
	}

	return &internal.Deps{
		DB:       conn,
		Argon:    argon,
		Tokens:   tokens,
		Auth:     service.NewAuth(conn, argon, tokens),
		Expenses: expenses,
		Premium: service.NewPremium(conn, gateway, tokens,
			viper.GetInt64("premium.price"),
			viper.GetString("premium.currency"),
		),
		Reset:   service.NewPasswordReset(conn, argon, tokens, mailer, viper.GetString("reset.url")),
		Reports: service.NewReports(conn, expenses, objects, viper.GetDuration("reports.link_ttl")),
	}, nil
}

// Routes registers every endpoint on a fresh engine
func Routes(d *internal.Deps, store persist.CacheStore) *gin.Engine {
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     strings.Split(viper.GetString("host.cors"), ","),
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	rateLimit := viper.GetInt("security.rate_limit")

	jwt := middleware.NewJWTMiddleware(d.Auth)
	premiumOnly := middleware.RequirePremium()
	turnstile := middleware.NewTurnstileMiddleware("")
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
	})

	m := router.Group("/api", middleware.BodySizeLimiter(1<<20))
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/validate		-> Returns the identity bound to a token
		m.GET("/validate", jwt, root.Validate)

		// POST /api/signup		-> Registers a new user
		m.POST("/signup", rateLimiter, turnstile, func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/login		-> Logs in a user and returns a session token
		m.POST("/login", rateLimiter, func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /api/forgotpassword	-> Mails a password reset link
		m.POST("/forgotpassword", rateLimiter, turnstile, func(c *gin.Context) { user.UserForgotPassword(c, d) })

		// POST /api/resetpassword	-> Sets a new password using a reset token
		m.POST("/resetpassword", rateLimiter, func(c *gin.Context) { user.UserResetPassword(c, d) })
	}

	dropLeaderboard := invalidateOnSuccess(store, LeaderboardCacheKey)

	e := m.Group("/expenses", jwt)
	{
		// GET /api/expenses		-> Lists the caller's expenses with their live total
		e.GET("", func(c *gin.Context) { expense.ExpenseList(c, d) })

		// POST /api/expenses		-> Adds an expense
		e.POST("", dropLeaderboard, func(c *gin.Context) { expense.ExpenseAdd(c, d) })

		// PUT /api/expenses/:id	-> Edits an expense owned by the caller
		e.PUT("/:id", dropLeaderboard, func(c *gin.Context) { expense.ExpenseEdit(c, d) })

		// DELETE /api/expenses/:id	-> Deletes an expense owned by the caller
		e.DELETE("/:id", dropLeaderboard, func(c *gin.Context) { expense.ExpenseDelete(c, d) })
	}

	p := m.Group("/premium", jwt)
	{
		// GET /api/premium/buy				-> Opens a gateway order
		p.GET("/buy", func(c *gin.Context) { premium.PremiumBuy(c, d) })

		// POST /api/premium/updatetransactionstatus	-> Confirms a payment and upgrades the account
		p.POST("/updatetransactionstatus", func(c *gin.Context) { premium.PremiumConfirm(c, d) })

		// GET /api/premium/orders			-> Lists the caller's purchases
		p.GET("/orders", func(c *gin.Context) { premium.PremiumOrders(c, d) })

		// GET /api/premium/showleaderboard		-> Ranks users by total spend
		p.GET("/showleaderboard", premiumOnly, cacheLeaderboard(store), func(c *gin.Context) { premium.PremiumLeaderboard(c, d) })

		// GET /api/premium/report			-> Exports the caller's expenses to xlsx
		p.GET("/report", premiumOnly, func(c *gin.Context) { premium.PremiumReport(c, d) })

		// GET /api/premium/reports			-> Lists previous exports
		p.GET("/reports", premiumOnly, func(c *gin.Context) { premium.PremiumReports(c, d) })
	}

	return router
}

// cacheLeaderboard stores the response under one fixed key, the leaderboard
// is the same for every caller
func cacheLeaderboard(store persist.CacheStore) gin.HandlerFunc {
	return cache.Cache(store, 30*time.Second,
		cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
			return true, cache.Strategy{CacheKey: LeaderboardCacheKey}
		}),
	)
}

func invalidateOnSuccess(store persist.CacheStore, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.IsAborted() || c.Writer.Status() >= http.StatusMultipleChoices {
			return
		}

		// Missing keys report an error too
		if err := store.Delete(key); err != nil {
			zap.L().Debug("Cache key not dropped", zap.String("key", key), zap.Error(err))
		}
	}
}

func newCacheStore(ctx context.Context) (persist.CacheStore, error) {
	if viper.GetString("cache.type") != "redis" {
		return persist.NewMemoryStore(time.Minute), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis, %w", err)
	}

	return persist.NewRedisStore(client), nil
}

func makeLogger(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level, %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(log)
	return nil
}
