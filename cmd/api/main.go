package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"interview-coach/internal/config"
	"interview-coach/internal/handlers"
	"interview-coach/internal/repositories"
	"interview-coach/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Println("✅ Config loaded successfully")

	// Initialize session store
	sessionRepo := repositories.NewSessionRepository()
	log.Println("✅ Session store initialized")

	// Initialize Gemini AI
	geminiService, err := services.NewGeminiService(
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		cfg.Gemini.Timeout,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	log.Println("✅ Gemini AI initialized successfully")

	// Initialize services
	documentService := services.NewDocumentService()
	interviewService := services.NewInterviewService(sessionRepo, geminiService)
	quizService := services.NewQuizService(
		sessionRepo,
		geminiService,
		cfg.Quiz.DefaultCount,
		cfg.Quiz.MaxCount,
	)
	log.Println("✅ Services initialized successfully")

	// Start session janitor
	janitor := services.NewJanitor(sessionRepo, cfg.Session.TTL, cfg.Session.SweepInterval)
	janitor.Start()
	log.Println("✅ Session janitor started")

	// Initialize Handlers
	interviewHandler := handlers.NewInterviewHandler(
		interviewService,
		documentService,
		cfg.Upload.MaxFileSize,
	)
	quizHandler := handlers.NewQuizHandler(quizService)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "AI Interview Coach API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    int(cfg.Upload.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Interview flow
	api.Post("/interview/start", interviewHandler.HandleStart)
	api.Post("/interview/:id/answer", interviewHandler.HandleAnswer)
	api.Post("/interview/:id/end", interviewHandler.HandleEnd)
	api.Get("/interview/:id/report", interviewHandler.HandleReport)
	api.Get("/interview/:id", interviewHandler.HandleGet)
	api.Delete("/interview/:id", interviewHandler.HandleDelete)

	// Quiz flow
	api.Post("/quiz/start", quizHandler.HandleStart)
	api.Post("/quiz/:id/answer", quizHandler.HandleAnswer)
	api.Post("/quiz/:id/submit", quizHandler.HandleSubmit)
	api.Post("/quiz/:id/explanations", quizHandler.HandleExplanations)
	api.Get("/quiz/:id", quizHandler.HandleGet)
	api.Delete("/quiz/:id", quizHandler.HandleDelete)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "AI Interview Coach API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/interview/start",
				"POST /api/v1/interview/:id/answer",
				"POST /api/v1/interview/:id/end",
				"GET /api/v1/interview/:id",
				"GET /api/v1/interview/:id/report",
				"POST /api/v1/quiz/start",
				"POST /api/v1/quiz/:id/answer",
				"POST /api/v1/quiz/:id/submit",
				"POST /api/v1/quiz/:id/explanations",
				"GET /api/v1/quiz/:id",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		janitor.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
