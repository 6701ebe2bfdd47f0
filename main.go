// api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"linkboard/api/analytics"
	"linkboard/api/cache"
	"linkboard/api/database"
	"linkboard/api/handlers"
	"linkboard/api/middleware"
	"linkboard/api/store"
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Initialize database (visits, clicks, short links, users) ---
	dbClient, err := database.NewDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbClient.Close()

	// --- Initialize stores ---
	eventStore := store.NewEventStore(dbClient)
	shortLinkStore := store.NewShortLinkStore(dbClient)
	userStore := store.NewUserStore(dbClient)

	// --- Optional Redis cache for the redirect hot path ---
	var shortLinkCache handlers.ShortLinkCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unavailable at %s, continuing without short link cache: %v", addr, err)
		} else {
			shortLinkCache = cache.NewShortLinks(rdb)
			log.Printf("Short link cache enabled (redis at %s)", addr)
		}
	}

	// --- Initialize engines ---
	engine := analytics.NewEngine(eventStore)
	reporter := analytics.NewReporter(engine)
	retention := analytics.NewRetention(eventStore)

	// One-shot startup purge. Best effort: a failure is logged, never fatal.
	func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		result, err := retention.PurgeExpired(ctx)
		if err != nil {
			log.Printf("Startup retention purge failed: %v", err)
			return
		}
		if result.DeletedVisits > 0 || result.DeletedClicks > 0 {
			log.Printf("Startup retention purge removed %d visits and %d clicks", result.DeletedVisits, result.DeletedClicks)
		}
	}()

	// --- Initialize handlers ---
	authHandlers := handlers.NewAuthHandlers(userStore)
	trackHandlers := handlers.NewTrackHandlers(eventStore)
	statsHandlers := handlers.NewStatsHandlers(engine, reporter, retention)
	redirectHandlers := handlers.NewRedirectHandlers(shortLinkStore, shortLinkCache)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	r.GET("/s/:code", redirectHandlers.Redirect)

	api := r.Group("/api")
	{
		api.POST("/auth/signup", authHandlers.Signup)
		api.POST("/auth/login", authHandlers.Login)
		api.POST("/auth/logout", authHandlers.Logout)
		api.GET("/auth/check", authHandlers.Check)

		api.POST("/track/visit", trackHandlers.TrackVisit)
		api.POST("/track/click", trackHandlers.TrackClick)

		// Reporting surface requires a valid admin JWT.
		protected := api.Group("/analytics")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/stats", statsHandlers.GetStats)
			protected.GET("/visitors", statsHandlers.GetVisitorsByDay)
			protected.GET("/clicks", statsHandlers.GetClicksByDay)
			protected.GET("/export", statsHandlers.ExportReport)
			protected.POST("/purge", statsHandlers.PurgeExpired)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Linkboard API server starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Linkboard API server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
