package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	controller "qmessages/controllers"
	"qmessages/middleware"
	"qmessages/utils"
)

func SetupAuthRoutes(app *fiber.App) {
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Get("/me", middleware.Protected(), controller.GetCurrentUser)
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, appLogger *logrus.Logger) {
	messageController := controller.NewMessageController(db, appLogger)
	replyController := controller.NewReplyController(db, appLogger)
	noteController := controller.NewNoteController(db, appLogger)

	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	messages := api.Group("/messages")
	messages.Post("/", middleware.MutationRateLimiter(), messageController.CreateMessage)
	messages.Get("/", messageController.ListMessages)
	messages.Get("/:token/status", messageController.AdvanceMessageStatus)
	messages.Post("/:token/status", messageController.AdvanceMessageStatus)
	messages.Get("/:token", messageController.GetMessage)
	messages.Put("/:token", messageController.UpdateMessage)
	messages.Delete("/:token", messageController.DeleteMessage)

	replies := api.Group("/replies")
	replies.Post("/", middleware.MutationRateLimiter(), replyController.CreateReply)
	replies.Get("/:id", replyController.GetReply)
	replies.Put("/:id", replyController.UpdateReply)
	replies.Delete("/:id", replyController.DeleteReply)

	notes := api.Group("/notes")
	notes.Post("/", middleware.MutationRateLimiter(), noteController.CreateNote)
	notes.Get("/", noteController.ListNotes)
	notes.Get("/:token", noteController.GetNote)
}

func SetupRoutes(app *fiber.App, db *gorm.DB, appLogger *logrus.Logger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app)
	SetupAPIRoutes(app, db, appLogger)

	app.Use(func(c *fiber.Ctx) error {
		return utils.Fail(c, fiber.StatusNotFound, "The requested resource was not found")
	})
}
