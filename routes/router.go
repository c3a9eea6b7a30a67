package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cppla/awe/config"
	"github.com/cppla/awe/controllers"
	"github.com/cppla/awe/middleware"
	"github.com/cppla/awe/store"
	"github.com/cppla/awe/utils"
	"github.com/cppla/awe/wiki"
)

// Deps are the long-lived services the router is built over. Config may change
// between builds; the others survive a reload.
type Deps struct {
	Config     config.AppConfig
	ConfigPath string
	Store      *store.Store
	// Redis may be nil; cache and captcha then fall back to memory or no-ops.
	Redis     *redis.Client
	Blacklist *utils.TokenBlacklist
	// AccessLog receives one line per request; nil uses the global logger.
	AccessLog *zap.Logger
	Reload    controllers.ReloadFunc
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	accessLog := d.AccessLog
	if accessLog == nil {
		accessLog = utils.Logger
	}
	blacklist := d.Blacklist
	if blacklist == nil {
		blacklist = utils.NewTokenBlacklist(d.Redis)
	}

	r := gin.New()
	r.Use(ginzap.Ginzap(accessLog, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(accessLog, true))
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled()))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.CSRFHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	signer := utils.NewTokenSigner(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	auth := middleware.NewAuth(signer, blacklist)
	r.Use(auth.Optional())
	r.Use(middleware.CSRF(cfg.CookieSecure || cfg.TLSEnabled()))
	r.Use(middleware.PageViewRecorder(d.Store))

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute).Middleware()
	cache := utils.NewCache(d.Redis)
	engine := wiki.NewEngine(d.Store, utils.Named("wiki"))
	resolver := wiki.NewResolver(d.Store)

	articleController := controllers.NewArticleController(d.Store, engine, resolver, cache, cfg.HomeSlug())
	discussionController := controllers.NewDiscussionController(engine)
	userController := controllers.NewUserController(d.Store, engine, cache, discussionController)
	authController := controllers.NewAuthController(d.Store, controllers.AuthOptions{
		Signer:         signer,
		Blacklist:      blacklist,
		Captcha:        utils.NewCaptcha(d.Redis),
		CaptchaEnabled: cfg.RegisterCaptchaEnabled,
		SecureCookie:   cfg.CookieSecure || cfg.TLSEnabled(),
	})
	uploadController := controllers.NewUploadController(d.Store, controllers.UploadOptions{
		Dir:         cfg.UploadDir,
		MaxBytes:    cfg.UploadMaxBytes(),
		AllowedExts: cfg.UploadAllowedExts,
	})
	statsController := controllers.NewStatsController(d.Store)
	configController := controllers.NewConfigController(cfg, d.ConfigPath, d.Reload)
	pagesController := controllers.NewPagesController()

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/", articleController.Home)
	r.GET("/wiki/*slug", limiter, articleController.View)
	r.Static("/uploads", cfg.UploadDir)

	api := r.Group("/api/v1")
	api.Use(limiter)

	api.GET("/home", articleController.Home)
	api.GET("/wiki/*slug", articleController.View)
	api.GET("/edit/*slug", articleController.EditForm)
	api.POST("/edit/*slug", auth.Required(), articleController.Edit)
	api.GET("/history/*slug", articleController.History)
	api.GET("/versions/:id", articleController.Version)
	api.GET("/search", articleController.Search)
	api.GET("/recent_changes", articleController.RecentChanges)
	api.GET("/contributions/:username", articleController.Contributions)

	api.GET("/discussion/*slug", discussionController.Thread)
	api.POST("/discussion/*slug", discussionController.CreateTopic)
	api.POST("/reply/:topicId/*slug", discussionController.CreateReply)

	api.GET("/users/:username", userController.Profile)
	api.POST("/users/:username", auth.Required(), userController.EditProfile)
	api.POST("/users/:username/discussion", userController.CreateTopic)
	api.POST("/users/:username/discussion/:topicId/reply", userController.CreateReply)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/captcha", authController.Captcha)
	authGroup.POST("/logout", auth.Required(), authController.Logout)
	authGroup.GET("/me", auth.Required(), authController.Me)

	api.POST("/upload", auth.Required(), uploadController.Upload)
	api.GET("/uploads", uploadController.List)
	api.GET("/uploads/:name", uploadController.Get)

	api.GET("/config", configController.Get)
	api.POST("/config", auth.Required(), auth.Admin(), configController.Save)

	api.GET("/stats", statsController.GetStats)
	api.GET("/stats/wiki/*slug", statsController.GetPageStats)

	api.GET("/pages", pagesController.List)
	api.GET("/pages/:name", pagesController.Get)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") || !utils.WantsHTML(ctx) {
			utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
			return
		}
		utils.FlashRedirect(ctx, "/", "Página não encontrada.")
	})

	return r
}
