package web

import (
	"context"
	"time"

	"wealthreactor/application"
	"wealthreactor/domain/entities"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// SiteInfo is the public configuration echoed by the self-describing routes
type SiteInfo struct {
	Name            string
	Version         string
	BaseURL         string
	Pricing         entities.Pricing
	ChainID         int64
	TokenAddress    string
	Treasury        string
	ContractAddress string
	Strategy        string
	RotatorLease    time.Duration
}

// Dependencies are the application handlers and collaborators the routes call
type Dependencies struct {
	Users       application.UserHandler
	Payments    application.PaymentHandler
	Rotator     application.RotatorHandler
	Agents      application.AgentHandler
	Leaderboard application.LeaderboardHandler

	// Tokens verifies admin bearer tokens; nil disables the admin routes
	Tokens TokenVerifier

	// Healthy reports storage health for /health
	Healthy func(ctx context.Context) bool

	RateLimiter *RateLimiter

	// TrustedProxies may set X-Forwarded-For; nil keys clients by socket peer
	TrustedProxies []string

	Site SiteInfo
}

type routes struct {
	deps Dependencies
}

// NewRouter builds the gin engine with middleware and every route registered
func NewRouter(deps Dependencies) *gin.Engine {
	r := &routes{deps: deps}

	engine := gin.New()
	if err := engine.SetTrustedProxies(deps.TrustedProxies); err != nil {
		log.WithError(err).WithField("trustedProxies", deps.TrustedProxies).Warn("Invalid trusted proxies, trusting none")
		_ = engine.SetTrustedProxies(nil)
	}
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger())

	engine.GET("/health", r.health)
	engine.GET("/go", r.featuredRedirect)

	api := engine.Group("/api")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Middleware())
	}

	user := api.Group("/user")
	user.POST("/check", r.reserveUsername)
	user.POST("/save", r.saveLinks)
	user.GET("/by-wallet", r.profileByWallet)
	user.GET("/:username", r.profile)
	user.GET("/:username/stats", r.userStats)

	api.POST("/verify-payment", r.verifyPayment)
	api.GET("/verify-payment", r.checkWallet)

	api.GET("/rotator", r.rotatorSnapshot)
	api.POST("/rotator", r.joinRotator)

	api.GET("/leaderboard", r.leaderboard)

	api.GET("/agent", r.agentDocument)
	api.POST("/agent", r.agentAction)

	api.GET("/refer", r.referDocument)
	api.POST("/refer", r.refer)

	admin := api.Group("/admin", AdminAuth(deps.Tokens))
	admin.GET("/users", r.adminUsers)
	admin.POST("/rotator", r.adminSetActive)
	admin.PUT("/rotator", r.adminAddToRotator)
	admin.DELETE("/rotator", r.adminRemoveFromRotator)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, Response{Success: false, Error: &APIError{Code: CodeNotFound, Message: "route not found"}})
	})

	return engine
}

func (r *routes) health(c *gin.Context) {
	database := "unknown"
	if r.deps.Healthy != nil {
		database = "unavailable"
		if r.deps.Healthy(c.Request.Context()) {
			database = "ok"
		}
	}
	respondOK(c, gin.H{
		"status":   "ok",
		"database": database,
		"time":     time.Now().UTC(),
	})
}
