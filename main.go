package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"careercompass/api"
	"careercompass/clients"
	"careercompass/config"
	"careercompass/database"
	"careercompass/middleware"
	"careercompass/models"
	"careercompass/repository"
	"careercompass/services"

	"gorm.io/gorm"
)

func main() {
	// Load application configuration
	config.LoadConfig()

	// Initialize the local database (advisor chat history)
	db, err := database.Init()
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to initialize database: %v", err)
	}
	runMigrations(db)

	// One REST client per backend microservice. User tokens are forwarded
	// per request by the handlers, so no service-level token source is set.
	cfg := &config.AppConfig
	authREST := clients.NewREST("AuthClient", cfg.Services.AuthBaseURL, nil)
	questionREST := clients.NewREST("QuestionClient", cfg.Services.QuestionBaseURL, nil)
	resultsREST := clients.NewREST("ResultsClient", cfg.Services.ResultsBaseURL, nil)
	contactREST := clients.NewREST("ContactClient", cfg.Services.ContactBaseURL, nil)

	// Repositories
	chatRepo := repository.NewChatRepository(db)
	log.Println("INFO: [Main] Repositories initialized.")

	// Services. Mutations ripple across caches: a new submission invalidates
	// the completion status and report history; a new report invalidates the
	// user's result listing.
	ttl := cfg.CacheTTL()
	completionService := services.NewCompletionService(resultsREST, ttl)
	profileService := services.NewProfileService(authREST, ttl)

	var insightsService services.InsightsService
	resultsService := services.NewResultsService(resultsREST, ttl, func(userID string) {
		completionService.InvalidateUser(userID)
		if insightsService != nil {
			insightsService.InvalidateUser(userID)
		}
	})
	insightsService = services.NewInsightsService(resultsREST, completionService, resultsService, services.InsightsOptions{
		WakeURL:      cfg.Worker.WakeURL,
		WakeTimeout:  cfg.WakeTimeout(),
		PollInterval: cfg.PollInterval(),
		PollDeadline: cfg.PollDeadline(),
		HistoryTTL:   ttl,
		OnReportGenerated: func(userID string) {
			resultsService.InvalidateUser(userID)
			completionService.InvalidateUser(userID)
		},
	})
	questionService := services.NewQuestionService(questionREST, ttl)
	contactService := services.NewContactService(contactREST)
	advisorService := services.NewAdvisorService(chatRepo, &cfg.Advisor)
	log.Println("INFO: [Main] Services initialized.")

	// API handler with all dependencies
	apiHandler := api.NewAPIHandler(
		resultsService,
		completionService,
		insightsService,
		questionService,
		profileService,
		contactService,
		advisorService,
	)
	log.Println("INFO: [Main] API Handler initialized.")

	r := gin.Default()
	r.SetTrustedProxies(nil)

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Cache-Control"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Response-Time"},
		AllowCredentials: false,
	}))
	log.Println("INFO: [Main] Middlewares registered.")

	registerRoutes(r, apiHandler, cfg.JWTSecret)
	log.Println("INFO: [Main] Routes registered.")

	serverPort := ":" + cfg.Server.Port
	if cfg.Server.Port == "" {
		log.Println("WARN: [Main] Server port not configured, using default :8080.")
		serverPort = ":8080"
	}
	log.Printf("INFO: [Main] Starting server on port %s", serverPort)
	if err := r.Run(serverPort); err != nil {
		log.Fatalf("FATAL: [Main] Server failed to start: %v", err)
	}
}

func runMigrations(db *gorm.DB) {
	log.Println("INFO: [Main] Running database migrations...")
	if err := db.AutoMigrate(
		&models.ChatMessage{},
	); err != nil {
		log.Fatalf("FATAL: [Main] Failed to auto-migrate database: %v", err)
	}
	log.Println("INFO: [Main] Database migration completed.")
}

func registerRoutes(r *gin.Engine, handler *api.APIHandler, jwtSecret string) {
	v1 := r.Group("/api/v1")
	{
		// Public endpoints
		v1.POST("/contact", handler.SubmitContactHandler)
		v1.GET("/tests", handler.ListTestsHandler)
		v1.GET("/tests/:testID/questions", handler.GetQuestionsHandler)

		// Authenticated user endpoints
		user := v1.Group("", middleware.Auth(jwtSecret))
		{
			user.GET("/results", handler.ListResultsHandler)
			user.POST("/results", handler.SubmitAnswersHandler)
			user.GET("/results/:resultID", handler.GetResultHandler)
			user.GET("/results/:resultID/download", handler.DownloadResultHandler)
			user.GET("/completion-status", handler.CompletionStatusHandler)

			user.POST("/insights/generate", handler.GenerateInsightsHandler)
			user.GET("/insights/history", handler.InsightsHistoryHandler)

			user.GET("/profile", handler.GetProfileHandler)
			user.PATCH("/profile", handler.UpdateProfileHandler)
			user.POST("/profile/password", handler.ChangePasswordHandler)

			user.POST("/advisor/chat", handler.AdvisorChatHandler)
			user.GET("/advisor/history", handler.AdvisorHistoryHandler)
		}

		// Admin dashboard endpoints
		admin := v1.Group("/admin", middleware.Auth(jwtSecret), middleware.RequireAdmin())
		{
			admin.GET("/users", handler.AdminListUsersHandler)
			admin.DELETE("/users/:userID", handler.AdminDeleteUserHandler)

			admin.POST("/tests", handler.AdminCreateTestHandler)
			admin.PUT("/tests/:testID", handler.AdminUpdateTestHandler)
			admin.DELETE("/tests/:testID", handler.AdminDeleteTestHandler)
			admin.POST("/questions", handler.AdminCreateQuestionHandler)
			admin.PUT("/questions/:questionID", handler.AdminUpdateQuestionHandler)
			admin.DELETE("/questions/:questionID", handler.AdminDeleteQuestionHandler)

			admin.GET("/contacts", handler.AdminListContactsHandler)
			admin.PATCH("/contacts/:contactID", handler.AdminUpdateContactHandler)
			admin.DELETE("/contacts/:contactID", handler.AdminDeleteContactHandler)
		}
	}
}
