package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/morphlyhq/morphly/app/controllers"
	"github.com/morphlyhq/morphly/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	// Webhook ingestion (signature-verified, at-least-once delivery)
	webhooks := api.Group("/webhooks")
	webhooks.Post("/payment", controllers.HandlePaymentWebhook)
	webhooks.Post("/identity", controllers.HandleIdentityWebhook)

	// Saved transformation results
	images := api.Group("/images")
	images.Post("/", controllers.HandleSaveImage)
	images.Get("/", controllers.HandleListImages)
	images.Get("/:id", controllers.HandleGetImage)
	images.Put("/:id", controllers.HandleUpdateImage)
	images.Delete("/:id", controllers.HandleDeleteImage)

	// Accounts
	users := api.Group("/users")
	users.Get("/:clerkId", controllers.HandleGetUser)
	users.Get("/:clerkId/balance", controllers.HandleGetUserBalance)
	users.Get("/:clerkId/transactions", controllers.HandleListUserTransactions)

	// Internal operations
	internal := api.Group("/internal", middleware.InternalKeyMiddleware())
	internal.Post("/sweep", controllers.HandleRunSweep)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
