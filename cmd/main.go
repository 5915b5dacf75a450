// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"go_5_attend_keep/internal/config"
	"go_5_attend_keep/internal/handlers"
	"go_5_attend_keep/internal/middleware"
	"go_5_attend_keep/internal/repository"
	"go_5_attend_keep/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// 設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	if err := config.LoadConfig("configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Application starting...")

	// データベース初期化（WALモード・ベーススキーマ作成込み）
	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// 未適用のマイグレーションを起動時に流す。個別の失敗は起動を止めない。
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()
	if err := repository.RunMigrations(startupCtx, db, logger); err != nil {
		slog.Error("Error running migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// 初回起動時の管理者ユーザーと既定の練習枠
	if err := repository.SeedDefaults(startupCtx, db, &config.Cfg, logger); err != nil {
		slog.Error("Error seeding defaults", slog.Any("error", err))
		os.Exit(1)
	}

	// Dependency Injection
	userRepo := repository.NewGormUserRepository()
	playerRepo := repository.NewGormPlayerRepository()
	trainingRepo := repository.NewGormTrainingRepository()
	sessionRepo := repository.NewGormSessionRepository()
	attendanceRepo := repository.NewGormAttendanceRepository()
	confirmationRepo := repository.NewGormConfirmationRepository()

	authService := service.NewAuthService(db, userRepo, &config.Cfg)
	userService := service.NewUserService(db, userRepo)
	playerService := service.NewPlayerService(db, playerRepo, attendanceRepo, confirmationRepo)
	trainingService := service.NewTrainingService(db, trainingRepo)
	attendanceService := service.NewAttendanceService(db, sessionRepo, attendanceRepo, confirmationRepo, playerRepo, trainingRepo)
	analyticsService := service.NewAnalyticsService(db, &config.Cfg, attendanceRepo, playerRepo, trainingRepo)
	reportService := service.NewReportService(db, attendanceRepo)

	authHandler := handlers.NewAuthHandler(authService, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	playerHandler := handlers.NewPlayerHandler(playerService, attendanceService, logger)
	trainingHandler := handlers.NewTrainingHandler(trainingService, logger)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService, logger)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, logger)
	reportHandler := handlers.NewReportHandler(reportService, logger)

	// Setup Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewStructuredLogger(logger))

	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Post("/auth/login", authHandler.Login)

		// --- Protected routes (require JWT) ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuthMiddleware(&config.Cfg))

			r.Route("/auth", func(r chi.Router) {
				r.Get("/me", authHandler.GetMe)
				r.Put("/password", authHandler.ChangePassword)
			})

			// User routes (admin only)
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.AdminOnlyMiddleware)
				r.Get("/", userHandler.GetUsers)
				r.Post("/", userHandler.PostUser)
				r.Patch("/{user_id}", userHandler.PatchUser)
				r.Delete("/{user_id}", userHandler.DeleteUser)
			})

			// Player routes
			r.Route("/players", func(r chi.Router) {
				r.Post("/", playerHandler.PostPlayer)
				r.Get("/", playerHandler.GetPlayers)
				r.Get("/{player_id}", playerHandler.GetPlayer)
				r.Patch("/{player_id}", playerHandler.PatchPlayer)
				r.Post("/{player_id}/toggle-active", playerHandler.ToggleActive)
				r.Delete("/{player_id}", playerHandler.DeletePlayer)
			})

			// Training routes
			r.Route("/trainings", func(r chi.Router) {
				r.Post("/", trainingHandler.PostTraining)
				r.Get("/", trainingHandler.GetTrainings)
				r.Get("/{training_id}", trainingHandler.GetTraining)
				r.Patch("/{training_id}", trainingHandler.PatchTraining)
				r.Delete("/{training_id}", trainingHandler.DeleteTraining)
			})

			// Attendance routes
			r.Route("/attendance", func(r chi.Router) {
				// POST /sessions は日付（と任意の練習枠）からセッションを解決する。
				// 既存ならそれを返し、無ければ作る。
				r.Route("/sessions", func(r chi.Router) {
					r.Post("/", attendanceHandler.ResolveSession)
					r.Get("/", attendanceHandler.GetSessions)
					r.Get("/{session_id}", attendanceHandler.GetSessionDetail)
					r.Delete("/{session_id}", attendanceHandler.DeleteSession)
				})
				r.Post("/", attendanceHandler.PostAttendance)
				r.Post("/bulk", attendanceHandler.PostAttendanceBulk)
				r.Post("/confirmations", attendanceHandler.PostConfirmation)
				r.Get("/stats/player/{player_id}", playerHandler.GetPlayerStats)
				r.Patch("/{attendance_id}", attendanceHandler.PatchAttendance)
				r.Delete("/{attendance_id}", attendanceHandler.DeleteAttendance)
			})

			// Analytics / Report routes
			r.Route("/analytics", func(r chi.Router) {
				r.Get("/dashboard", analyticsHandler.GetDashboard)
				r.Get("/trends", analyticsHandler.GetTrends)
			})
			r.Get("/reports/attendance", reportHandler.GetAttendanceReport)
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sqlDB, err := db.DB()
		if err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not get DB object", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	slog.Info("Server exited gracefully")
}
