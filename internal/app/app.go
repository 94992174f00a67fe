package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/pressrank/pressrank/internal/config"
	"github.com/pressrank/pressrank/internal/email"
	"github.com/pressrank/pressrank/internal/events"
	"github.com/pressrank/pressrank/internal/handler"
	"github.com/pressrank/pressrank/internal/repository"
	"github.com/pressrank/pressrank/internal/service"
	"github.com/pressrank/pressrank/internal/utils"
	"github.com/pressrank/pressrank/pkg/export"
	"github.com/pressrank/pressrank/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

type handlers struct {
	auth     *handler.AuthHandler
	content  *handler.ContentHandler
	donation *handler.DonationHandler
	admin    *handler.AdminHandler
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	repos := repository.NewRepositories(infra.Postgres())

	issuer := utils.NewTokenIssuer(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
		cfg.JWT.PasswordResetExpiry.Duration,
	)

	var sender email.Sender = email.NoopSender{}
	if cfg.SMTP.Username != "" {
		sender = email.NewGomailSender(cfg.SMTP)
	}

	var captcha service.CaptchaVerifier
	if cfg.Captcha.Enabled {
		captcha = service.NewCaptchaVerifier(cfg.Captcha)
	}

	var publisher *events.Publisher
	if cfg.AMQP.Enabled {
		publisher = events.NewPublisher(cfg.AMQP.URL, infra.Logger())
	}

	var scorer service.ArticleScorer
	if cfg.AI.Enabled && cfg.AI.ScoreURL != "" {
		scorer = service.NewArticleScorer(cfg.AI)
	}

	var gateway service.PaymentGateway
	if cfg.Payment.CheckoutURL != "" {
		gateway = service.NewPaymentGateway(cfg.Payment)
	}

	rateLimiter := service.NewRateLimiter(infra.Redis())
	scoreCache := service.NewScoreCache(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authService := service.NewAuthService(
		repos.User,
		repos.Token,
		issuer,
		sender,
		captcha,
		cfg.Server.PublicURL,
		cfg.Security.BCryptCost,
		infra.Logger(),
	)
	contentService := service.NewContentService(repos.Author, repos.Article, infra.Logger())
	rankingService := service.NewRankingService(repos.Ranking, repos.Article, scoreCache, publisher, infra.Logger())
	aiService := service.NewAIScoringService(scorer, repos.Article, repos.Ranking, scoreCache, infra.Logger())
	donationService := service.NewDonationService(
		repos.Donation,
		repos.User,
		gateway,
		export.NewReceiptExporter("pressrank"),
		publisher,
		infra.Logger(),
	)
	adminService := service.NewUserAdminService(repos.User, repos.Token, infra.Logger())

	h := handlers{
		auth:     handler.NewAuthHandler(authService),
		content:  handler.NewContentHandler(contentService, rankingService, aiService),
		donation: handler.NewDonationHandler(donationService),
		admin:    handler.NewAdminHandler(adminService),
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("pressrank"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, h, authService, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	h handlers,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	limited := handler.RateLimitMiddleware(rateLimiter,
		cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.IPBasedKey)
	authed := handler.AuthMiddleware(authService)
	admin := handler.RequireAdmin()

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", limited, h.auth.Register)
			auth.GET("/confirm", h.auth.Confirm)
			auth.POST("/login", limited, h.auth.Login)
			auth.POST("/refresh", h.auth.Refresh)
			auth.POST("/logout", h.auth.Logout)
			auth.POST("/password-reset/request", limited, h.auth.RequestPasswordReset)
			auth.POST("/password-reset/confirm", h.auth.ConfirmPasswordReset)
			auth.GET("/me", authed, h.auth.Me)
		}

		authors := api.Group("/authors")
		{
			authors.GET("", h.content.ListAuthors)
			authors.POST("", authed, h.content.CreateAuthor)
		}

		articles := api.Group("/articles")
		{
			articles.GET("", h.content.ListArticles)
			articles.GET("/:id", h.content.GetArticle)
			articles.GET("/:id/scores", h.content.GetArticleScores)
			articles.POST("", authed, h.content.CreateArticle)
			articles.POST("/:id/rankings", authed, h.content.RankArticle)
			articles.POST("/:id/ai-score", authed, admin, h.content.ScoreArticleAI)
			articles.DELETE("/:id", authed, admin, h.content.DeleteArticle)
		}

		donations := api.Group("/donations")
		{
			donations.POST("", authed, h.donation.Create)
			donations.GET("", authed, h.donation.List)
			donations.GET("/:id/receipt", authed, h.donation.Receipt)
			donations.POST("/webhook", h.donation.Webhook)
		}

		users := api.Group("/users", authed, admin)
		{
			users.PATCH("/:id/active", h.admin.SetActive)
			users.PATCH("/:id/role", h.admin.UpdateRole)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
