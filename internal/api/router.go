package api

import (
	"billsnap/internal/api/handlers"
	"billsnap/pkg/auth"
	"billsnap/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func SetupRouter(
	authHandler *handlers.AuthHandler,
	receiptHandler *handlers.ReceiptHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	notificationHandler *handlers.NotificationHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// Health check
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	authGroup := app.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	protected.Get("/me", authHandler.Me)

	// Receipt routes
	receipts := protected.Group("/receipts")
	receipts.Post("/upload", receiptHandler.UploadReceipt)
	receipts.Get("", receiptHandler.ListReceipts)
	receipts.Get("/categories", receiptHandler.ListCategories)
	receipts.Get("/:id", receiptHandler.GetReceipt)
	receipts.Put("/:id", receiptHandler.UpdateReceipt)
	receipts.Put("/:id/category", receiptHandler.UpdateCategory)
	receipts.Delete("/:id", receiptHandler.DeleteReceipt)

	// Analytics routes
	analytics := protected.Group("/analytics")
	analytics.Get("/monthly", analyticsHandler.MonthlyAnalytics)
	analytics.Get("/category", analyticsHandler.CategoryAnalytics)

	// Notification routes
	notifications := protected.Group("/notifications")
	notifications.Post("/register-token", notificationHandler.RegisterToken)
	notifications.Delete("/unregister-token", notificationHandler.UnregisterToken)
	notifications.Get("", notificationHandler.ListNotifications)
	notifications.Put("/:id/read", notificationHandler.MarkRead)
	notifications.Post("/send-test", notificationHandler.SendTest)

	return app
}
