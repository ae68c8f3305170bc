package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/eduai-api/internal/config"
	"github.com/yourusername/eduai-api/internal/handler"
	"github.com/yourusername/eduai-api/internal/middleware"
	pgRepo "github.com/yourusername/eduai-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/eduai-api/internal/repository/redis"
	"github.com/yourusername/eduai-api/internal/service"
	"github.com/yourusername/eduai-api/pkg/auth"
	"github.com/yourusername/eduai-api/pkg/database"
)

const appVersion = "1.0.0"

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	examRepo := pgRepo.NewExamRepo(db)
	answerRepo := pgRepo.NewAnswerRepo(db)
	resultRepo := pgRepo.NewResultRepo(db)
	progressRepo := pgRepo.NewProgressRepo(db)
	refreshTokenRepo := pgRepo.NewRefreshTokenRepo(db)
	aiLogRepo := pgRepo.NewAIInteractionRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT сервис
	jwtService, err := auth.NewJWTService(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessExpirationMin)*time.Minute,
		time.Duration(cfg.JWT.RefreshExpirationDays)*24*time.Hour,
		cfg.JWT.Issuer,
	)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Инициализируем AI провайдера
	aiProvider := service.NewGeminiService(
		cfg.AI.APIKey,
		cfg.AI.APIURL,
		cfg.AI.Model,
		time.Duration(cfg.AI.TimeoutSec)*time.Second,
	)
	if !aiProvider.IsAvailable() {
		log.Println("ВНИМАНИЕ: AI_API_KEY не задан, AI endpoints будут возвращать 503")
	}

	// Инициализируем почтовый сервис
	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.Enabled {
		from := cfg.Email.FromAddress
		if cfg.Email.FromName != "" {
			from = cfg.Email.FromName + " <" + cfg.Email.FromAddress + ">"
		}
		resendService, errEmail := service.NewResendEmailService(cfg.Email.ResendAPIKey, from)
		if errEmail != nil {
			log.Printf("Failed to initialize ResendEmailService: %v", errEmail)
			os.Exit(1)
		}
		emailService = resendService
		log.Println("Отправка почты через Resend включена")
	}

	// Инициализируем сервисы
	authService, err := service.NewAuthService(userRepo, refreshTokenRepo, cacheRepo, jwtService, emailService)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}
	questionService, err := service.NewQuestionService(questionRepo, answerRepo, aiLogRepo, cacheRepo, aiProvider, cfg.Limits.MaxQuestionsPerRequest)
	if err != nil {
		log.Printf("Failed to initialize QuestionService: %v", err)
		os.Exit(1)
	}
	examService, err := service.NewExamService(examRepo, questionRepo)
	if err != nil {
		log.Printf("Failed to initialize ExamService: %v", err)
		os.Exit(1)
	}
	evaluationService, err := service.NewEvaluationService(questionRepo, answerRepo, resultRepo, progressRepo, aiLogRepo, aiProvider, cfg.Limits.MaxQuestionsPerRequest)
	if err != nil {
		log.Printf("Failed to initialize EvaluationService: %v", err)
		os.Exit(1)
	}
	assistantService, err := service.NewAssistantService(aiLogRepo, aiProvider, cfg.AI.WikipediaURL)
	if err != nil {
		log.Printf("Failed to initialize AssistantService: %v", err)
		os.Exit(1)
	}
	analyticsService, err := service.NewAnalyticsService(progressRepo, resultRepo, userRepo, cacheRepo)
	if err != nil {
		log.Printf("Failed to initialize AnalyticsService: %v", err)
		os.Exit(1)
	}

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	questionHandler := handler.NewQuestionHandler(questionService)
	examHandler := handler.NewExamHandler(examService)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService)
	assistantHandler := handler.NewAssistantHandler(assistantService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	healthHandler := handler.NewHealthHandler(db, redisClient, aiProvider, appVersion)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Контекст жизненного цикла фоновых горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Фоновая очистка истекших refresh-токенов
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Println("Запуск периодической очистки истекших refresh-токенов (каждый час)")
		for {
			select {
			case <-ticker.C:
				deleted, err := refreshTokenRepo.DeleteExpired()
				if err != nil {
					log.Printf("Ошибка при очистке refresh-токенов: %v", err)
				} else if deleted > 0 {
					log.Printf("Удалено %d истекших refresh-токенов", deleted)
				}
			case <-ctx.Done():
				log.Println("Завершение работы горутины очистки refresh-токенов")
				return
			}
		}
	}()

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		// Production: не доверять прокси-заголовкам.
		// При деплое за load balancer замените nil на его адреса.
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	allowedOrigins := cfg.CORS.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthHandler.Check)

	// Настраиваем маршруты API
	api := router.Group("/api/v1")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Signup)
			authGroup.POST("/login", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Login)
			authGroup.POST("/refresh", rateLimiter.Limit(middleware.DefaultAuthRateLimitConfig()), authHandler.Refresh)
			authGroup.POST("/forgot-password", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.ForgotPassword)
			authGroup.POST("/reset-password", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.ResetPassword)

			// Маршруты, требующие аутентификации
			authedAuth := authGroup.Group("/")
			authedAuth.Use(authMiddleware.RequireAuth())
			{
				authedAuth.POST("/logout", authHandler.Logout)
				authedAuth.POST("/logout-all", authHandler.LogoutAll)
				authedAuth.GET("/sessions", authHandler.Sessions)
				authedAuth.GET("/me", authHandler.Me)
				authedAuth.PUT("/me", authHandler.UpdateMe)
				authedAuth.POST("/change-password", authHandler.ChangePassword)
				authedAuth.GET("/verify-token", authHandler.VerifyToken)
			}
		}

		// Банк вопросов
		questions := api.Group("/questions")
		questions.Use(authMiddleware.RequireAuth())
		{
			questions.POST("/generate", rateLimiter.LimitByIP(middleware.AIRateLimitConfig()), questionHandler.Generate)
			questions.POST("/bulk", questionHandler.BulkCreate)
			questions.POST("/search", questionHandler.Search)
			questions.GET("", questionHandler.List)

			questionWithID := questions.Group("/:id")
			questionWithID.Use(middleware.ExtractUintParam("id", "questionID"))
			{
				questionWithID.GET("", questionHandler.Get)
				questionWithID.PUT("", questionHandler.Update)
				questionWithID.DELETE("", questionHandler.Delete)
				questionWithID.GET("/stats", questionHandler.Stats)
				questionWithID.GET("/explanation", rateLimiter.LimitByIP(middleware.AIRateLimitConfig()), questionHandler.Explanation)
			}
		}

		// Экзамены
		exams := api.Group("/exams")
		exams.Use(authMiddleware.RequireAuth())
		{
			exams.POST("", examHandler.Create)
			exams.GET("", examHandler.List)

			examWithID := exams.Group("/:id")
			examWithID.Use(middleware.ExtractUintParam("id", "examID"))
			{
				examWithID.GET("", examHandler.Get)
				examWithID.GET("/with-questions", examHandler.GetWithQuestions)
				examWithID.DELETE("", examHandler.Delete)
			}
		}

		// Оценка ответов
		evaluate := api.Group("/evaluate")
		evaluate.Use(authMiddleware.RequireAuth(), rateLimiter.LimitByIP(middleware.AIRateLimitConfig()))
		{
			evaluate.POST("/answer", evaluationHandler.Answer)
			evaluate.POST("/exam", evaluationHandler.Exam)
			evaluate.POST("/batch", evaluationHandler.Batch)
		}

		// Учебный ассистент
		assistant := api.Group("/assistant")
		assistant.Use(authMiddleware.RequireAuth())
		{
			aiLimited := assistant.Group("")
			aiLimited.Use(rateLimiter.LimitByIP(middleware.AIRateLimitConfig()))
			{
				aiLimited.POST("/ask", assistantHandler.Ask)
				aiLimited.POST("/explain", assistantHandler.Explain)
				aiLimited.POST("/solve", assistantHandler.Solve)
				aiLimited.POST("/study-suggestions", assistantHandler.StudySuggestions)
			}

			assistant.GET("/subjects", assistantHandler.Subjects)
			assistant.GET("/history", assistantHandler.History)
			assistant.POST("/feedback", assistantHandler.Feedback)
		}

		// Аналитика
		analytics := api.Group("/analytics")
		analytics.Use(authMiddleware.RequireAuth())
		{
			analytics.GET("/progress", analyticsHandler.Progress)
			analytics.GET("/progress/overall", analyticsHandler.Overall)
			analytics.GET("/performance", analyticsHandler.Performance)
			analytics.GET("/dashboard", analyticsHandler.Dashboard)
			analytics.GET("/leaderboard", analyticsHandler.Leaderboard)
			analytics.GET("/recommendations", analyticsHandler.Recommendations)
			analytics.GET("/strengths-weaknesses", analyticsHandler.StrengthsWeaknesses)
			analytics.GET("/trends", analyticsHandler.Trends)
			analytics.GET("/results/export", analyticsHandler.ExportResults)
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// Ожидаем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Завершаем фоновые горутины
	cancel()

	// Graceful shutdown с таймаутом
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
