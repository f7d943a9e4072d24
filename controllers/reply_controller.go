package controller

import (
	"errors"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"qmessages/models"
	"qmessages/utils"
)

const (
	replyNotOwner = "You are not the owner of this reply"
	replyNotFound = "Reply not found"
)

type ReplyController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewReplyController(db *gorm.DB, logger *logrus.Logger) *ReplyController {
	return &ReplyController{
		DB:     db,
		Logger: logger,
	}
}

// CreateReply attaches a reply to a message, or to a parent reply when
// parent_reply is given, and runs the status fan-out of the threading
// engine. The response carries the new reply's id.
func (rc *ReplyController) CreateReply(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Token       string `json:"token" validate:"required"`
		ParentReply *uint  `json:"parent_reply"`
		Text        string `json:"text" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if fieldErrors := utils.ValidateStruct(input); fieldErrors != nil {
		return utils.FailFields(c, fieldErrors)
	}

	token, ok := utils.ParseToken(input.Token)
	if !ok {
		return utils.Fail(c, fiber.StatusNotFound, msgNoData)
	}
	message, err := models.FindMessageByToken(rc.DB, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, msgNoData)
		}
		rc.Logger.WithError(err).Error("message lookup failed")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to create reply")
	}

	var parent *models.MessageReply
	if input.ParentReply != nil {
		parent, err = models.FindReplyByID(rc.DB, *input.ParentReply)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return utils.Fail(c, fiber.StatusNotFound, "Parent reply not found")
			}
			rc.Logger.WithError(err).Error("parent reply lookup failed")
			return utils.Fail(c, fiber.StatusInternalServerError, "Failed to create reply")
		}
	}

	reply, err := models.CreateReply(rc.DB, message, parent, user, input.Text)
	if err != nil {
		if errors.Is(err, models.ErrDataIntegrity) {
			sentry.CaptureException(err)
		}
		rc.Logger.WithError(err).Error("failed to create reply")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to create reply")
	}

	return utils.Success(c, fiber.StatusCreated, strconv.FormatUint(uint64(reply.ID), 10))
}

// GetReply returns a single reply with its current status. The default
// path is the human-facing one and records a Read transition; ?raw=1 is
// the data-fetch path and does not touch the ledger.
func (rc *ReplyController) GetReply(c *fiber.Ctx) error {
	reply, err := rc.resolveReply(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusNotFound, replyNotFound)
	}

	if !c.QueryBool("raw") {
		if err := reply.RecordStatus(rc.DB, models.StatusRead); err != nil {
			rc.Logger.WithError(err).Error("failed to record read status")
		}
	}

	view := replyView{
		ID:            reply.ID,
		MessageID:     reply.MessageID,
		ParentReplyID: reply.ParentReplyID,
		Text:          reply.Text,
		CreatedAt:     reply.CreatedAt,
		UpdatedAt:     reply.UpdatedAt,
	}
	var replier models.User
	if err := rc.DB.First(&replier, reply.ReplierID).Error; err == nil {
		view.Replier = replier.Email
	}
	if desc, err := reply.CurrentStatus(rc.DB); err == nil && desc != nil {
		view.Status = desc.Desc
	}

	return utils.Data(c, fiber.StatusOK, view)
}

// UpdateReply edits a reply's text.
func (rc *ReplyController) UpdateReply(c *fiber.Ctx) error {
	reply, err := rc.resolveReply(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusNotFound, replyNotFound)
	}

	var input struct {
		Text string `json:"text" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if fieldErrors := utils.ValidateStruct(input); fieldErrors != nil {
		return utils.FailFields(c, fieldErrors)
	}

	reply.Text = input.Text
	if err := rc.DB.Save(reply).Error; err != nil {
		rc.Logger.WithError(err).Error("failed to update reply")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to update reply")
	}

	return utils.Success(c, fiber.StatusOK, strconv.FormatUint(uint64(reply.ID), 10))
}

// DeleteReply soft-deletes a reply and its whole descendant tree.
// Replier-only.
func (rc *ReplyController) DeleteReply(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	reply, err := rc.resolveReply(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusNotFound, replyNotFound)
	}
	if !reply.CanDelete(user) {
		return utils.Fail(c, fiber.StatusForbidden, replyNotOwner)
	}

	if err := reply.SoftDelete(rc.DB); err != nil {
		rc.Logger.WithError(err).Error("failed to delete reply")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to delete reply")
	}
	return utils.Success(c, fiber.StatusOK, "Reply deleted successfully")
}

func (rc *ReplyController) resolveReply(c *fiber.Ctx) (*models.MessageReply, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, models.ErrNotFound
	}
	return models.FindReplyByID(rc.DB, uint(id))
}
