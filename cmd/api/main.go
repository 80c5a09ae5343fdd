package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/novelverse/docs" // Swagger docs
	"github.com/redmonkez12/novelverse/internal/auth"
	"github.com/redmonkez12/novelverse/internal/blob"
	"github.com/redmonkez12/novelverse/internal/config"
	"github.com/redmonkez12/novelverse/internal/database"
	"github.com/redmonkez12/novelverse/internal/email"
	httpServer "github.com/redmonkez12/novelverse/internal/http"
	"github.com/redmonkez12/novelverse/internal/logging"
	"github.com/redmonkez12/novelverse/internal/novel"
	"github.com/redmonkez12/novelverse/internal/ratelimit"
	"github.com/redmonkez12/novelverse/internal/upload"
	"github.com/redmonkez12/novelverse/internal/user"
)

// @title           NovelVerse API
// @version         1.0
// @description     Write, publish and read web novels. Cookie sessions, likes and cover uploads.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"verification", cfg.Auth.Verification,
		"blob_driver", cfg.Blob.Driver,
	)

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sqlDB, err := database.OpenSQL(startupCtx, cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	db := database.NewBunDB(sqlDB)
	defer db.Close()

	redisClient, err := initRedis(startupCtx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Repositories
	userRepo := user.NewRepository(db)
	sessionStore := auth.NewSessionStore(db)
	novelRepo := novel.NewRepository(db)

	rateLimiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Registration policy collaborators
	var (
		verifier *auth.Verifier
		captcha  auth.CaptchaVerifier
	)
	switch cfg.Auth.Verification {
	case config.VerificationCode:
		emailService, err := email.NewService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.From,
			cfg.Email.SiteName,
		)
		if err != nil {
			return fmt.Errorf("failed to initialize email service: %w", err)
		}
		verifier = auth.NewVerifier(auth.NewVerificationStore(db), emailService)
	case config.VerificationCaptcha:
		captcha = auth.NewTurnstileVerifier(cfg.Auth.TurnstileSecret, cfg.Auth.TurnstileURL)
	}

	blobStore, err := blob.NewStore(cfg.Blob)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}
	var uploadsDir string
	if local, ok := blobStore.(*blob.LocalStore); ok {
		uploadsDir = local.Dir()
	}

	// Services
	sessions := auth.NewSessionManager(sessionStore, !cfg.Server.IsDevelopment())
	authService := auth.NewService(userRepo, verifier, captcha, cfg.Auth.Verification)
	novelService := novel.NewService(novelRepo)
	uploadService := upload.NewService(blobStore)

	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:           auth.NewHandler(authService, sessions, rateLimiter),
		AuthMiddleware: auth.NewMiddleware(sessions),
		Novels:         novel.NewHandler(novelService),
		Uploads:        upload.NewHandler(uploadService),
		UploadsDir:     uploadsDir,
	}, logger)

	server := httpServer.NewServer(
		cfg.Server.Address(),
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis connects to Redis and verifies the connection
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
