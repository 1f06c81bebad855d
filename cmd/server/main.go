package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JoaoGuilhermeTP/fatex/internal/api"
	"github.com/JoaoGuilhermeTP/fatex/internal/api/handler"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/flash"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/service"
	"github.com/JoaoGuilhermeTP/fatex/internal/common/security"
	"github.com/JoaoGuilhermeTP/fatex/internal/domain/repository"
	"github.com/JoaoGuilhermeTP/fatex/internal/platform/cache"
	"github.com/JoaoGuilhermeTP/fatex/internal/platform/config"
	"github.com/JoaoGuilhermeTP/fatex/internal/platform/database"
	"github.com/JoaoGuilhermeTP/fatex/internal/platform/mail"
	"github.com/JoaoGuilhermeTP/fatex/internal/platform/storage"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT(config.AppConfig.SecretKey)
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	if err := database.Migrate(context.Background()); err != nil {
		log.Fatalf("Could not run migrations: %v", err)
	}
	fmt.Println("Database connected and migrated.")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize platform collaborators
	mailer, err := mail.NewSMTPMailer(config.AppConfig)
	if err != nil {
		log.Fatalf("Could not initialize mailer: %v", err)
	}
	avatars, err := storage.NewAvatarStore(config.AppConfig.AvatarDir)
	if err != nil {
		log.Fatalf("Could not initialize avatar store: %v", err)
	}
	flashes := flash.NewRedisStore(cache.RDB)

	// 6. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	postRepo := repository.NewPgPostRepository(database.DB)

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, mailer, config.AppConfig.ResetExp, config.AppConfig.BaseURL)
	accountService := service.NewAccountService(userRepo, avatars)
	postService := service.NewPostService(postRepo, userRepo)

	// 8. Initialize Router & HTTP Server
	authHandler := handler.NewAuthHandler(authService, userRepo, flashes,
		config.AppConfig.EmailDomain, config.AppConfig.SessionExp, config.AppConfig.RememberExp)
	accountHandler := handler.NewAccountHandler(accountService, userRepo, flashes)
	postHandler := handler.NewPostHandler(postService, flashes)

	router := api.NewRouter(authHandler, accountHandler, postHandler, config.AppConfig.AvatarDir)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
