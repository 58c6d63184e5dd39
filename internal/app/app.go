// Package app assembles the storefront: database, queue, services, HTTP routes and scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"rentstore/internal/cart"
	"rentstore/internal/config"
	"rentstore/internal/contract"
	"rentstore/internal/handlers"
	"rentstore/internal/jobs"
	"rentstore/internal/logger"
	"rentstore/internal/middleware"
	"rentstore/internal/notify"
	"rentstore/internal/repositories"
	"rentstore/internal/services"
	"rentstore/pkg/rabbitmq"
)

// App owns every long-lived resource of a running server.
type App struct {
	Fiber *fiber.App
	Auth  *services.AuthService

	db        *gorm.DB
	scheduler *jobs.Scheduler
	local     *notify.LocalQueue
	mq        *rabbitmq.Client
	queueName string
	cancel    context.CancelFunc
}

// Options tweaks construction for tests.
type Options struct {
	// DisableRequestLog drops the per-request access log.
	DisableRequestLog bool
}

// New connects to the database and broker, starts the notification consumer and the
// scheduler and registers all routes. Call Shutdown to release everything.
func New(cfg *config.Config, opts Options) (*App, error) {
	db, err := repositories.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := repositories.AutoMigrate(db); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{db: db, cancel: cancel}

	// --- Initialize Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	discountRepo := repositories.NewGORMDiscountRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	rentalRepo := repositories.NewGORMRentalRepository(db)
	taskRepo := repositories.NewGORMNotificationRepository(db)

	// --- Notification delivery ---
	var messenger notify.Messenger
	if cfg.WhatsApp.GatewayURL != "" {
		messenger = notify.NewWhatsAppGateway(cfg.WhatsApp)
	}
	dispatcher := notify.NewDispatcher(notify.NewMailer(cfg), messenger)

	var queue services.TaskQueue
	if cfg.Queue.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.Queue.RabbitMQURL})
		if err != nil {
			a.Shutdown()
			return nil, err
		}
		a.mq, a.queueName, queue = mq, "rabbitmq", mq
	} else {
		a.local = notify.NewLocalQueue(cfg.Queue.Workers, cfg.Queue.Size)
		a.queueName, queue = "local", a.local
	}

	// --- Initialize Services ---
	notificationService := services.NewNotificationService(taskRepo, orderRepo, dispatcher, queue, cfg.Queue.MaxAttempts)
	discountService := services.NewDiscountService(discountRepo)
	productService := services.NewProductService(productRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, discountService, notificationService)
	rentalService := services.NewRentalService(rentalRepo, productRepo, userRepo)
	cartService := services.NewCartService(cart.NewGORMStorage(db), productRepo, discountService, orderService)
	a.Auth = services.NewAuthService(userRepo, dispatcher, cfg.JWT, cfg.Auth.ResetCodeTTL)

	if a.mq != nil {
		if err := a.mq.Start(ctx, notificationService.Process); err != nil {
			a.Shutdown()
			return nil, err
		}
	} else {
		a.local.Start(ctx, notificationService.Process)
	}

	a.scheduler, err = jobs.NewScheduler(jobs.NewRunner(notificationService, a.Auth), cfg.Scheduler)
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	a.scheduler.Start()

	// --- Initialize Fiber App ---
	a.Fiber = fiber.New(fiber.Config{
		AppName:      "rentstore",
		ErrorHandler: errorHandler,
	})
	a.Fiber.Use(recover.New())
	if !opts.DisableRequestLog {
		a.Fiber.Use(fiberlogger.New())
	}
	a.Fiber.Get("/health", a.handleHealth)

	guards := handlers.Guards{
		Auth:  middleware.AuthRequired(a.Auth),
		Admin: middleware.AdminRequired(),
	}
	apiV1 := a.Fiber.Group("/api/v1")
	handlers.NewAuthHandler(a.Auth).RegisterRoutes(apiV1, guards)
	handlers.NewCategoryHandler(categoryService).RegisterRoutes(apiV1, guards)
	handlers.NewProductHandler(productService).RegisterRoutes(apiV1, guards)
	handlers.NewDiscountHandler(discountService).RegisterRoutes(apiV1, guards)
	handlers.NewCartHandler(cartService).RegisterRoutes(apiV1, guards)
	handlers.NewOrderHandler(orderService, a.Auth, contract.NewBuilder(cfg.Company)).RegisterRoutes(apiV1, guards)
	handlers.NewRentalHandler(rentalService).RegisterRoutes(apiV1, guards)

	logger.Info("Application initialized",
		"database", cfg.Database.Driver,
		"queue", a.queueName,
		"email", cfg.EmailConfigured(),
		"whatsapp", messenger != nil,
	)
	return a, nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		logger.Error("Unhandled request error", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(code).JSON(fiber.Map{"message": "Internal server error"})
	}
	return c.Status(code).JSON(fiber.Map{"message": err.Error()})
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status, code := "healthy", fiber.StatusOK
	sqlDB, err := a.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.Warn("Health check failed", "error", err)
		status, code = "unhealthy", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
		"queue":  a.queueName,
	})
}

// Shutdown stops the HTTP server, the scheduler and the queue consumers, then closes the
// broker and database connections.
func (a *App) Shutdown() error {
	var errs []error
	if a.Fiber != nil {
		if err := a.Fiber.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
		}
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.cancel()
	if a.local != nil {
		a.local.Wait()
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	return errors.Join(errs...)
}
