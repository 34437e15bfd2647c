package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"account-backend/config"
	"account-backend/internal/auth"
	"account-backend/internal/database"
	"account-backend/internal/handlers"
	"account-backend/internal/mail"
	"account-backend/internal/middleware"
	"account-backend/internal/models"
	"account-backend/internal/repository"
	"account-backend/internal/revocation"
	"account-backend/internal/scheduler"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logLevel, err := zerolog.ParseLevel(cfg.Logger.Level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	output := os.Stdout
	if cfg.Logger.OutputPath != "" {
		file, err := os.OpenFile(cfg.Logger.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			output = file
		}
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
	})
}

func main() {
	cfg := config.Get()

	if err := database.Initialize(&cfg.Database); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close()

	if err := database.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Repositories
	userRepo := repository.NewUserRepository(database.GetDB())
	refreshRepo := repository.NewRefreshTokenRepository(database.GetDB())
	codeRepo := repository.NewVerificationCodeRepository(database.GetDB())

	// Revocation backend per deployment: durable table or expiring keys
	var revocations revocation.Store
	switch cfg.Auth.RevocationBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		revocations = revocation.NewRedisStore(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Using redis revocation store")
	case "postgres":
		revocations = revocation.NewGormStore(database.GetDB())
		log.Info().Msg("Using postgres revocation store")
	default:
		log.Fatal().Str("backend", cfg.Auth.RevocationBackend).Msg("Unknown revocation backend")
	}

	// Token machinery
	signer := auth.NewSigner(cfg.Auth.JWTSecret)
	issuer := auth.NewTokenIssuer(signer, refreshRepo, cfg.Auth.AccessTokenDuration(), cfg.Auth.RefreshTokenDuration())
	rotator := auth.NewRefreshRotator(signer, issuer, refreshRepo, userRepo)
	mailer := mail.NewSMTPMailer(&cfg.SMTP)
	verification := auth.NewVerificationCodeManager(
		codeRepo,
		mailer,
		cfg.Verification.CodeDuration(),
		cfg.Verification.CodeLength,
		cfg.Verification.CodeAlphabet,
	)
	authService := auth.NewAuthService(userRepo, refreshRepo, issuer, rotator, signer, revocations, verification)

	scheduler.Initialize(revocations, refreshRepo, codeRepo)
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "Account API",
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Error().Err(err).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("Error handling request")

			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:5173,http://127.0.0.1:5173",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
	}))

	// Every route not under a public prefix goes through the token gate
	app.Use(middleware.Authenticate(&cfg.Auth, signer, revocations))

	app.Get("/health", healthCheck)
	app.Get("/ready", readinessCheck)

	authHandler := handlers.NewAuthHandler(authService)
	usersHandler := handlers.NewUsersHandler(userRepo, authService)

	// Public auth routes
	app.Post("/auth/register", authHandler.Register)
	app.Post("/auth/login", authHandler.Login)
	app.Post("/auth/refresh", authHandler.Refresh)
	app.Post("/auth/forgot-password", authHandler.ForgotPassword)
	app.Post("/auth/reset-password", authHandler.ResetPassword)
	app.Post("/auth/verify-email", authHandler.VerifyEmail)

	// Protected auth routes
	app.Post("/auth/logout", authHandler.Logout)
	app.Get("/auth/me", authHandler.GetMe)
	app.Post("/auth/resend-verification", authHandler.ResendVerification)

	// Admin routes
	adminGroup := app.Group("/admin", middleware.RequireAccess(userRepo, models.AccessAdmin))
	adminGroup.Get("/users", usersHandler.ListUsers)
	adminGroup.Put("/users/:id/status", usersHandler.UpdateUserStatus)
	adminGroup.Post("/users/:id/revoke-sessions", usersHandler.RevokeSessions)

	serverAddr := cfg.Server.Host + ":" + cfg.Server.Port
	go func() {
		if err := app.Listen(serverAddr); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
}

func healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func readinessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}
