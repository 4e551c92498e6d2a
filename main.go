package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pitch-referral-system/handlers"
	"pitch-referral-system/middleware"
	"pitch-referral-system/models"
	"pitch-referral-system/services"
	"pitch-referral-system/utils"
	"pitch-referral-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB — tracking payloads are tiny
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}
	utils.InitRedis()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Referral{},
		&models.ReferralEvent{},
		&models.PitchMirror{},
		&models.SupporterMirror{},
		&models.KeywordSuggestion{},
		&models.Nudge{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	referralService := services.NewReferralService(db)
	eventService := services.NewEventService(db)
	metricsService := services.NewMetricsService(db)
	reportService := services.NewReportService(db, metricsService)

	// --- CONFIGURE marketplace sync details for pitch/supporter mirrors ---
	marketplaceURL := os.Getenv("MARKETPLACE_SERVICE_URL")
	if marketplaceURL == "" {
		log.Fatal("MARKETPLACE_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("REFERRAL_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("REFERRAL_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	syncWorker := workers.NewPitchSyncWorker(db, marketplaceURL, "/api/v1/public/pitches", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Pitch Sync Worker...")
		syncWorker.Start(ctx)
	}()

	reportService.StartReportScheduler()

	// 🛡️ Public tracking surface sits behind the shared redis rate limiter so
	// limits hold across every server instance.
	trackLimiter := middleware.RateLimitMiddleware(utils.Redis, middleware.RateLimitConfig{
		Scope:  "track",
		Limit:  120,
		Window: time.Minute,
	})
	app.Use("/track", trackLimiter)
	app.Use("/refer", trackLimiter)

	// ✅ Setup routes — enforced Gateway auth + consistent /s/ prefix for user routes
	handlers.SetupReferralRoutes(app, referralService, eventService)
	handlers.SetupTrackingRoutes(app, eventService)
	handlers.SetupMetricsRoutes(app, metricsService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Pitch Sync Worker running")
	log.Println("✅ Daily referral report scheduler running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
