package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/postpilotapp/postpilot/configs"
	"github.com/postpilotapp/postpilot/internal/analytics"
	"github.com/postpilotapp/postpilot/internal/api/handlers"
	"github.com/postpilotapp/postpilot/internal/api/middleware"
	"github.com/postpilotapp/postpilot/internal/dispatch"
	job "github.com/postpilotapp/postpilot/internal/jobs"
	"github.com/postpilotapp/postpilot/internal/metrics"
	"github.com/postpilotapp/postpilot/internal/platform"
	"github.com/postpilotapp/postpilot/internal/queue"
	"github.com/postpilotapp/postpilot/internal/repository"
	"github.com/postpilotapp/postpilot/internal/scheduler"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := repository.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	scheduleRepo := repository.NewScheduleRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	contentRepo := repository.NewContentRepository(db)
	credentialRepo := repository.NewCredentialRepository(db, []byte(cfg.SecretKey))
	socialPostRepo := repository.NewSocialPostRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	executionStore := repository.NewExecutionStore(db, scheduleRepo, projectRepo, socialPostRepo, notificationRepo)

	mediaStore := platform.NewMediaStore(*cfg)
	adapters := platform.DefaultRegistry(&http.Client{Timeout: cfg.AdapterTimeout})

	dispatcher := dispatch.NewDispatcher(adapters, cfg.AdapterTimeout)
	executor := scheduler.NewExecutor(projectRepo, contentRepo, credentialRepo, socialPostRepo, executionStore, dispatcher, mediaStore)
	scheduleService := scheduler.NewScheduleService(scheduleRepo, projectRepo, socialPostRepo, executor)
	poller := scheduler.NewPoller(scheduleRepo, executor)

	syncer := analytics.NewSyncer(analyticsRepo, socialPostRepo, contentRepo, credentialRepo, adapters,
		cfg.AnalyticsRetryBase, cfg.AnalyticsMaxAttempts)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	schedule := handlers.NewScheduleHandler(scheduleService)
	api.Post("/schedule", schedule.Schedule)
	api.Post("/schedule/reschedule", schedule.Reschedule)
	api.Post("/schedule/execute", schedule.ExecuteNow)
	api.Get("/schedule/status", schedule.Status)

	notification := handlers.NewNotificationHandler(notificationRepo)
	api.Get("/notifications", notification.ListNotifications)
	api.Post("/notifications/read", notification.MarkRead)

	analyticsHandler := handlers.NewAnalyticsHandler(analyticsRepo, projectRepo, client)
	api.Get("/analytics", analyticsHandler.GetAnalytics)
	api.Get("/analytics/platform", analyticsHandler.GetPlatformAnalytics)
	api.Post("/analytics/sync", analyticsHandler.SyncAnalytics)

	// cron jobs
	pollCtx, stopPolling := context.WithCancel(context.Background())
	analyticsJob := job.NewAnalyticsSyncJob(projectRepo, client)

	c := cron.New()
	c.AddFunc(fmt.Sprintf("@every %s", cfg.PollInterval), func() { poller.Tick(pollCtx) })
	c.AddFunc(fmt.Sprintf("@every %s", cfg.AnalyticsSyncInterval), analyticsJob.EnqueueAll)
	c.Start()

	//queue
	queueW := queue.NewQueue(syncer)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeAnalyticsSync, queueW.HandleAnalyticsSyncTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := metrics.Serve(cfg.MetricsAddr); err != nil {
			log.Printf("Metrics listener stopped: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ListenAddr)

	gracefulShutdown(app, db, c, stopPolling)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

// gracefulShutdown stops the timers first, then cancels in-flight work.
// Items still executing stay in that state and are recovered manually.
func gracefulShutdown(app *fiber.App, db *sql.DB, c *cron.Cron, stopPolling context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	c.Stop()
	stopPolling()

	if err := app.Shutdown(); err != nil {
		log.Printf("Failed to shut down HTTP server: %v", err)
	}
}
