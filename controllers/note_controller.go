package controller

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"qmessages/models"
	"qmessages/utils"
)

type NoteController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewNoteController(db *gorm.DB, logger *logrus.Logger) *NoteController {
	return &NoteController{
		DB:     db,
		Logger: logger,
	}
}

// CreateNote attaches a free-standing note to a (project, app, model)
// triple and returns its token.
func (nc *NoteController) CreateNote(c *fiber.Ctx) error {
	var input struct {
		Project string `json:"project" validate:"required,max=255"`
		App     string `json:"app" validate:"required,max=255"`
		Model   string `json:"model" validate:"required,max=255"`
		Text    string `json:"text" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if fieldErrors := utils.ValidateStruct(input); fieldErrors != nil {
		return utils.FailFields(c, fieldErrors)
	}

	note := models.Note{
		Project:   input.Project,
		App:       input.App,
		ModelName: input.Model,
		Text:      input.Text,
	}
	if err := nc.DB.Create(&note).Error; err != nil {
		nc.Logger.WithError(err).Error("failed to create note")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to create note")
	}

	return utils.Success(c, fiber.StatusCreated, note.Token.String())
}

// GetNote returns a single note by token.
func (nc *NoteController) GetNote(c *fiber.Ctx) error {
	token, ok := utils.ParseToken(c.Params("token"))
	if !ok {
		return utils.Fail(c, fiber.StatusNotFound, msgNoData)
	}
	note, err := models.FindNoteByToken(nc.DB, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, msgNoData)
		}
		nc.Logger.WithError(err).Error("note lookup failed")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to load note")
	}
	return utils.Data(c, fiber.StatusOK, note)
}

// ListNotes returns notes newest first, optionally narrowed to a triple.
func (nc *NoteController) ListNotes(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 100
	}

	query := nc.DB.Model(&models.Note{})
	if project := c.Query("project"); project != "" {
		query = query.Where("project = ?", project)
	}
	if app := c.Query("app"); app != "" {
		query = query.Where("app = ?", app)
	}
	if model := c.Query("model"); model != "" {
		query = query.Where("model = ?", model)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		nc.Logger.WithError(err).Error("failed to count notes")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to list notes")
	}

	var notes []models.Note
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&notes).Error; err != nil {
		nc.Logger.WithError(err).Error("failed to list notes")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to list notes")
	}

	return utils.Data(c, fiber.StatusOK, fiber.Map{
		"data":       notes,
		"pagination": utils.NewPagination(page, pageSize, count),
	})
}
