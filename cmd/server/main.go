package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/teamsync/scheduler-backend/internal/config"
	"github.com/teamsync/scheduler-backend/internal/database"
	"github.com/teamsync/scheduler-backend/internal/handlers"
	"github.com/teamsync/scheduler-backend/internal/middleware"
	"github.com/teamsync/scheduler-backend/internal/models"
	"github.com/teamsync/scheduler-backend/internal/services"
	"github.com/teamsync/scheduler-backend/pkg/email"
	"github.com/teamsync/scheduler-backend/pkg/jwt"
	"github.com/teamsync/scheduler-backend/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting TeamSync Scheduler Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Repositories
	managerRepo := database.NewManagerRepository(db)
	employeeRepo := database.NewEmployeeRepository(db)
	meetingRepo := database.NewMeetingRepository(db)
	locationRepo := database.NewLocationRepository(db)
	adminRepo := database.NewAdminRepository(db)
	refreshTokenRepo := database.NewRefreshTokenRepository(db)

	// Email gateway
	var mailGateway email.Gateway
	if cfg.SMTP.Mode == "production" {
		smtpPort, err := strconv.Atoi(cfg.SMTP.Port)
		if err != nil {
			logger.Fatalf("Invalid SMTP_PORT: %v", err)
		}
		mailGateway = email.NewSMTPGateway(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     smtpPort,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
		})
		logger.Info("SMTP email gateway initialized")
	} else {
		mailGateway = email.NewDevGateway(logger)
		logger.Info("Email gateway in development mode (no mail will be sent)")
	}

	// Services
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	otpService := services.NewOTPService(db)
	rateLimitService := services.NewRateLimitService(db)
	auditService := services.NewAuditService(db)
	notifier := services.NewNotificationService(mailGateway, logger, cfg.Server.AppBaseURL)
	availabilityService := services.NewAvailabilityService(meetingRepo)
	meetingService := services.NewMeetingService(meetingRepo, employeeRepo, managerRepo, notifier, logger)
	emailValidator := validator.NewEmailValidator()
	logger.Info("Services initialized")

	// Handlers
	authHandler := handlers.NewAuthHandler(
		jwtService,
		otpService,
		rateLimitService,
		auditService,
		notifier,
		emailValidator,
		managerRepo,
		employeeRepo,
		adminRepo,
		refreshTokenRepo,
		cfg,
		logger,
	)
	managerHandler := handlers.NewManagerHandler(
		managerRepo,
		employeeRepo,
		meetingRepo,
		locationRepo,
		meetingService,
		availabilityService,
		notifier,
		emailValidator,
		logger,
	)
	employeeHandler := handlers.NewEmployeeHandler(
		employeeRepo,
		managerRepo,
		meetingRepo,
		locationRepo,
		meetingService,
		availabilityService,
		logger,
	)
	adminHandler := handlers.NewAdminHandler(adminRepo, managerRepo, notifier, logger)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/manager/signup", authHandler.ManagerSignup)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.POST("/login", authHandler.Login)
		auth.POST("/verify-login", authHandler.VerifyLogin)
		auth.POST("/refresh-token", authHandler.RefreshToken)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/employee/verify", authHandler.VerifyEmployee)
	}

	manager := v1.Group("/manager")
	manager.Use(middleware.AuthMiddleware(jwtService, logger))
	manager.Use(middleware.RequireUserType(models.UserTypeManager))
	{
		manager.GET("/profile", managerHandler.GetProfile)
		manager.PUT("/profile", managerHandler.UpdateProfile)
		manager.POST("/employees", managerHandler.CreateEmployee)
		manager.GET("/employees", managerHandler.ListEmployees)
		manager.GET("/employees/locations", managerHandler.EmployeeLocations)
		manager.GET("/employees/:id", managerHandler.GetEmployee)
		manager.DELETE("/employees/:id", managerHandler.DeleteEmployee)
		manager.POST("/meetings", managerHandler.CreateMeeting)
		manager.GET("/meetings", managerHandler.ListMeetings)
		manager.PUT("/meetings/:id/status", managerHandler.UpdateMeetingStatus)
		manager.PUT("/meetings/:id/select-date", managerHandler.SelectMeetingDate)
		manager.POST("/meetings/:id/cancel", managerHandler.CancelMeeting)
		manager.GET("/availability", managerHandler.Availability)
	}

	employee := v1.Group("/employee")
	employee.Use(middleware.AuthMiddleware(jwtService, logger))
	employee.Use(middleware.RequireUserType(models.UserTypeEmployee))
	{
		employee.GET("/profile", employeeHandler.GetProfile)
		employee.PUT("/profile", employeeHandler.UpdateProfile)
		employee.GET("/manager", employeeHandler.GetManager)
		employee.GET("/manager/availability", employeeHandler.ManagerAvailability)
		employee.POST("/locations", employeeHandler.RecordLocation)
		employee.POST("/meetings", employeeHandler.RequestMeeting)
		employee.GET("/meetings", employeeHandler.ListMeetings)
		employee.POST("/meetings/:id/cancel", employeeHandler.CancelMeeting)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtService, logger))
	admin.Use(middleware.RequireUserType(models.UserTypeAdmin))
	{
		admin.GET("/managers/requests", adminHandler.ListManagerRequests)
		admin.GET("/managers", adminHandler.ListManagers)
		admin.GET("/managers/:id", adminHandler.GetManager)
		admin.PUT("/managers/:id/approval", adminHandler.SetManagerApproval)
		admin.DELETE("/managers/:id", adminHandler.DeleteManager)
		admin.GET("/dashboard/stats", adminHandler.DashboardStats)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
			fields["user_type"] = userCtx.UserType
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
