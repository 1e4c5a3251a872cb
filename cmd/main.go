package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/lyfeworks/toolkit-backend/internal/db"
	"github.com/lyfeworks/toolkit-backend/internal/http/handlers"
	"github.com/lyfeworks/toolkit-backend/internal/platform/convertkit"
	"github.com/lyfeworks/toolkit-backend/internal/platform/envutil"
	"github.com/lyfeworks/toolkit-backend/internal/platform/gcp"
	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
	"github.com/lyfeworks/toolkit-backend/internal/platform/resend"
	"github.com/lyfeworks/toolkit-backend/internal/platform/stripepay"
	"github.com/lyfeworks/toolkit-backend/internal/repos"
	"github.com/lyfeworks/toolkit-backend/internal/server"
	"github.com/lyfeworks/toolkit-backend/internal/services"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	toolkitKey := envutil.Str("TOOLKIT_OBJECT_KEY", "end-of-lyfe-toolkit.pdf")
	guideKey := envutil.Str("GUIDE_OBJECT_KEY", "end-of-lyfe-planning-guide.pdf")
	waitlistFormID := envutil.Str("CONVERTKIT_WAITLIST_FORM_ID", "")
	quizTagID := envutil.Str("CONVERTKIT_QUIZ_TAG_ID", "")

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	purchaseSessionRepo := repos.NewPurchaseSessionRepo(thePG, log)
	downloadAttemptRepo := repos.NewDownloadAttemptRepo(thePG, log)
	quizSubmissionRepo := repos.NewQuizSubmissionRepo(thePG, log)
	waitlistEntryRepo := repos.NewWaitlistEntryRepo(thePG, log)

	// Platform clients
	log.Info("Setting up provider clients from main...")
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	stripeClient, err := stripepay.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init Stripe client", "error", err)
		os.Exit(1)
	}
	resendClient, err := resend.NewFromEnv(log)
	if err != nil {
		log.Warn("Could not init Resend client; emails disabled", "error", err)
		resendClient = nil
	}
	convertKitClient, err := convertkit.NewFromEnv(log)
	if err != nil {
		log.Warn("Could not init ConvertKit client; list sync disabled", "error", err)
		convertKitClient = nil
	}

	// Services
	log.Info("Setting up services from main...")
	var mailerService services.MailerService
	if resendClient != nil {
		mailerService = services.NewMailerService(log, resendClient)
	}
	downloadService := services.NewDownloadService(thePG, log, stripeClient, purchaseSessionRepo, downloadAttemptRepo, bucketService, toolkitKey)
	quizService := services.NewQuizService(thePG, log, quizSubmissionRepo, waitlistEntryRepo, bucketService, mailerService, convertKitClient, guideKey, quizTagID)
	waitlistService := services.NewWaitlistService(thePG, log, waitlistEntryRepo, mailerService, convertKitClient, waitlistFormID)
	checkoutService := services.NewCheckoutService(log, stripeClient)

	// Handlers
	log.Info("Setting up handlers from main...")
	downloadHandler := handlers.NewDownloadHandler(downloadService)
	quizHandler := handlers.NewQuizHandler(quizService)
	waitlistHandler := handlers.NewWaitlistHandler(waitlistService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:             log,
		DownloadHandler: downloadHandler,
		QuizHandler:     quizHandler,
		WaitlistHandler: waitlistHandler,
		CheckoutHandler: checkoutHandler,
	})

	port := envutil.Str("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
