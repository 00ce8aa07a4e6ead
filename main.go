// File: callpilot/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callpilot/config"
	"callpilot/cron"
	"callpilot/database"
	"callpilot/handlers"
	"callpilot/middleware"
	"callpilot/models"
	"callpilot/routes"
	"callpilot/services/booking"
	"callpilot/services/calendar"
	"callpilot/services/directory"
	ai "callpilot/services/intelligence"
	"callpilot/services/receptionist"
	"callpilot/services/speech"
	"callpilot/services/tasks"
	"callpilot/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Capability backends, selected by configuration.
	dir := buildDirectory(logger)
	cal := buildCalendar(logger)
	reasoner, extractor := buildIntelligence(logger)
	speaker := speech.NewLogSpeaker()

	var transcriber speech.Transcriber
	if config.AppConfig.GoogleServiceAccountFile != "" {
		transcriber = speech.NewGoogleTranscriber(config.AppConfig.GoogleServiceAccountFile)
	}

	// Proposal sessions survive restarts only when backed by Redis.
	var sessions booking.ProposalStore
	var redisClients []*redis.Client
	if config.AppConfig.RedisAddr != "" {
		utils.InitSessionCache()
		sessions = booking.NewRedisProposalStore(utils.GetSessionCacheClient())
		redisClients = append(redisClients, utils.GetSessionCacheClient())
	} else {
		logger.Warn("main: REDIS_ADDR not set, proposal sessions are in-memory only")
		sessions = booking.NewMemoryProposalStore()
	}

	// Appointment reminders ride the asynq queue when enabled.
	var reminders booking.ReminderScheduler
	if config.AppConfig.RemindersEnabled {
		if config.AppConfig.RedisAddr == "" {
			logger.Warn("main: REMINDERS_ENABLED requires REDIS_ADDR, reminders stay off")
		} else {
			client := asynq.NewClient(asynq.RedisClientOpt{
				Addr:     config.AppConfig.RedisAddr,
				Password: config.AppConfig.RedisPassword,
				DB:       config.AppConfig.RedisReminderQueueDB,
			})
			defer client.Close()
			reminders = tasks.NewAsynqScheduler(client, time.Duration(config.AppConfig.ReminderLeadMinute)*time.Minute)
			cron.InitReminderWorker(speaker)
		}
	}

	workflowService := &booking.DefaultWorkflowService{
		Directory:    dir,
		Receptionist: receptionist.NewSimCaller(),
		Calendar:     cal,
		Reasoner:     reasoner,
		Extractor:    extractor,
		Speaker:      speaker,
		Sessions:     sessions,
		Reminders:    reminders,
		Defaults: models.Defaults{
			Specialty:  config.AppConfig.DefaultSpecialty,
			TimeWindow: config.AppConfig.DefaultTimeWindow,
			RadiusKm:   config.AppConfig.DefaultRadiusKm,
			Location:   config.AppConfig.DefaultLocation,
		},
		MaxRounds: config.AppConfig.AgentMaxRounds,
	}

	workflowHandler := handlers.NewWorkflowHandler(workflowService, logger)
	speechHandler := handlers.NewSpeechHandler(transcriber, logger)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		RunWorkflowHandler:   workflowHandler.RunHandler,
		ProposeHandler:       workflowHandler.ProposeHandler,
		ConfirmHandler:       workflowHandler.ConfirmHandler,
		WorkflowGraphHandler: workflowHandler.GraphHandler,
		TranscribeHandler:    speechHandler.TranscribeHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	utils.StartHealthMonitor(redisClients, database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

// buildDirectory selects the provider directory backend. The mongo backend
// seeds itself from the fixture file on first start.
func buildDirectory(logger *zap.Logger) directory.Directory {
	switch config.AppConfig.DirectoryBackend {
	case "mongo":
		database.InitDB()
		mongoDir := directory.NewMongoDirectory()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := mongoDir.EnsureIndexes(ctx); err != nil {
			logger.Sugar().Fatalf("main: failed to create provider indexes: %v", err)
		}
		if err := mongoDir.SeedFromFixture(ctx, config.AppConfig.ProvidersPath); err != nil {
			logger.Sugar().Fatalf("main: failed to seed providers: %v", err)
		}
		return mongoDir
	case "places":
		if config.AppConfig.GoogleAPIKey == "" {
			logger.Sugar().Fatalf("main: DIRECTORY_BACKEND=places requires GOOGLE_API_KEY")
		}
		return directory.NewPlacesDirectory(config.AppConfig.GoogleAPIKey)
	default:
		return directory.NewFixtureDirectory(config.AppConfig.ProvidersPath)
	}
}

func buildCalendar(logger *zap.Logger) calendar.Service {
	if config.AppConfig.CalendarBackend == "google" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		gc, err := calendar.NewGoogleCalendar(ctx, config.AppConfig.GoogleServiceAccountFile, config.AppConfig.GoogleCalendarID)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize google calendar: %v", err)
		}
		return gc
	}
	return calendar.NewStubCalendar()
}

// buildIntelligence returns the reasoner and extractor pair. Gemini serves
// both roles; the scripted fallbacks need no API key.
func buildIntelligence(logger *zap.Logger) (ai.Reasoner, ai.Extractor) {
	if config.AppConfig.ReasonerBackend == "gemini" {
		if config.AppConfig.GeminiAPIKey == "" {
			logger.Sugar().Fatalf("main: REASONER_BACKEND=gemini requires GEMINI_API_KEY")
		}
		g := ai.NewGemini(config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
		return g, g
	}
	return ai.NewScriptedReasoner(), ai.NewScriptedExtractor()
}
