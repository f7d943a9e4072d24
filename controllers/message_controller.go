package controller

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"qmessages/models"
	"qmessages/utils"
)

const (
	msgNotOwner      = "You are not the owner of this message"
	msgNoData        = "No data found for this token"
	msgInvalidToken  = "Invalid token"
	msgInvalidBody   = "Invalid request body"
	msgNoStatus      = "This message has no status"
	msgStatusCorrupt = "Status ledger is corrupted"
)

type MessageController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewMessageController(db *gorm.DB, logger *logrus.Logger) *MessageController {
	return &MessageController{
		DB:     db,
		Logger: logger,
	}
}

// replyView is the wire form of a reply with its current status and, for
// top-level replies, its direct children.
type replyView struct {
	ID            uint        `json:"id"`
	MessageID     uint        `json:"message_id"`
	ParentReplyID *uint       `json:"parent_reply_id,omitempty"`
	Replier       string      `json:"replier"`
	Text          string      `json:"text"`
	Status        string      `json:"status,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Replies       []replyView `json:"replies,omitempty"`
}

// messageView is the wire form of a message with its current status and
// two-level reply tree.
type messageView struct {
	ID         uint        `json:"id"`
	Token      string      `json:"token"`
	Project    string      `json:"project"`
	App        string      `json:"app"`
	Model      string      `json:"model"`
	Sender     string      `json:"sender"`
	ReceiverID uint        `json:"receiver_id"`
	Subject    string      `json:"subject"`
	Text       string      `json:"text"`
	Status     string      `json:"status,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Replies    []replyView `json:"replies"`
}

// CreateMessage persists a new message and opens its status ledger with
// the initial Unread entry.
func (mc *MessageController) CreateMessage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Project    string `json:"project" validate:"omitempty,max=255"`
		App        string `json:"app" validate:"omitempty,max=255"`
		Model      string `json:"model" validate:"omitempty,max=255"`
		ReceiverID uint   `json:"receiver_id" validate:"required"`
		Subject    string `json:"subject" validate:"required,max=200"`
		Text       string `json:"text" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if fieldErrors := utils.ValidateStruct(input); fieldErrors != nil {
		return utils.FailFields(c, fieldErrors)
	}

	var receiver models.User
	if err := mc.DB.First(&receiver, input.ReceiverID).Error; err != nil {
		return utils.FailFields(c, utils.FieldErrors{
			"receiver_id": {"Select a valid choice."},
		})
	}

	message := models.Message{
		Project:    input.Project,
		App:        input.App,
		ModelName:  input.Model,
		SenderID:   user.ID,
		ReceiverID: receiver.ID,
		Subject:    input.Subject,
		Text:       input.Text,
	}
	err := mc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return message.RecordStatus(tx, models.StatusUnread)
	})
	if err != nil {
		mc.Logger.WithError(err).Error("failed to create message")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to create message")
	}

	return utils.Success(c, fiber.StatusCreated, message.Token.String())
}

// GetMessage returns a message with its status and reply tree. The default
// path is the human-facing one and records a Read transition as a side
// effect; ?raw=1 is the data-fetch path and leaves the ledger alone.
func (mc *MessageController) GetMessage(c *fiber.Ctx) error {
	message, err := mc.resolveMessage(c)
	if err != nil {
		return mc.failLookup(c, err)
	}

	if !c.QueryBool("raw") {
		if err := message.RecordStatus(mc.DB, models.StatusRead); err != nil {
			mc.Logger.WithError(err).Error("failed to record read status")
		}
	}

	view, err := mc.buildMessageView(message)
	if err != nil {
		mc.Logger.WithError(err).Error("failed to assemble message view")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to load message")
	}
	return utils.Data(c, fiber.StatusOK, view)
}

// ListMessages returns the caller's messages (as sender or receiver),
// newest first, with pagination and optional token and grid filters.
func (mc *MessageController) ListMessages(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 100
	}

	query := mc.DB.Model(&models.Message{}).
		Where("sender_id = ? OR receiver_id = ?", user.ID, user.ID)

	if tokensParam := c.Query("tokens"); tokensParam != "" {
		tokens := utils.CheckTokens(strings.Split(tokensParam, ","))
		query = query.Where("token IN ?", tokens)
	}

	if field := c.Query("filter[filters][0][field]"); field != "" {
		operator := c.Query("filter[filters][0][operator]")
		value := c.Query("filter[filters][0][value]")
		filtered, err := utils.ApplyGridFilter(query, field, operator, value)
		if err != nil {
			return utils.Fail(c, fiber.StatusBadRequest, err.Error())
		}
		query = filtered
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		mc.Logger.WithError(err).Error("failed to count messages")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to list messages")
	}

	var messages []models.Message
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error; err != nil {
		mc.Logger.WithError(err).Error("failed to list messages")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to list messages")
	}
	if len(messages) == 0 {
		return utils.Fail(c, fiber.StatusNotFound, msgNoData)
	}

	views := make([]messageView, 0, len(messages))
	for i := range messages {
		view, err := mc.buildMessageView(&messages[i])
		if err != nil {
			mc.Logger.WithError(err).Error("failed to assemble message view")
			return utils.Fail(c, fiber.StatusInternalServerError, "Failed to list messages")
		}
		views = append(views, view)
	}

	return utils.Data(c, fiber.StatusOK, fiber.Map{
		"data":       views,
		"pagination": utils.NewPagination(page, pageSize, count),
	})
}

// UpdateMessage edits a message's subject, text or classification triple.
// Sender-only.
func (mc *MessageController) UpdateMessage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	message, err := mc.resolveMessage(c)
	if err != nil {
		return mc.failLookup(c, err)
	}
	if !message.CanEdit(user) {
		return utils.Fail(c, fiber.StatusForbidden, msgNotOwner)
	}

	var input struct {
		Project string `json:"project" validate:"omitempty,max=255"`
		App     string `json:"app" validate:"omitempty,max=255"`
		Model   string `json:"model" validate:"omitempty,max=255"`
		Subject string `json:"subject" validate:"required,max=200"`
		Text    string `json:"text" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if fieldErrors := utils.ValidateStruct(input); fieldErrors != nil {
		return utils.FailFields(c, fieldErrors)
	}

	message.Project = input.Project
	message.App = input.App
	message.ModelName = input.Model
	message.Subject = input.Subject
	message.Text = input.Text
	if err := mc.DB.Save(message).Error; err != nil {
		mc.Logger.WithError(err).Error("failed to update message")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to update message")
	}

	return utils.Success(c, fiber.StatusOK, message.Token.String())
}

// DeleteMessage soft-deletes a message. Sender-only. Hard delete exists on
// the model but is reserved for the retention purge.
func (mc *MessageController) DeleteMessage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	message, err := mc.resolveMessage(c)
	if err != nil {
		return mc.failLookup(c, err)
	}
	if !message.CanEdit(user) {
		return utils.Fail(c, fiber.StatusForbidden, msgNotOwner)
	}

	if err := message.SoftDelete(mc.DB); err != nil {
		mc.Logger.WithError(err).Error("failed to delete message")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to delete message")
	}
	return utils.Success(c, fiber.StatusOK, "Message deleted successfully")
}

// AdvanceMessageStatus walks the message's status one vocabulary entry
// forward and reports the resulting status by name.
func (mc *MessageController) AdvanceMessageStatus(c *fiber.Ctx) error {
	token, ok := utils.ParseToken(c.Params("token"))
	if !ok {
		return utils.Fail(c, fiber.StatusBadRequest, msgInvalidToken)
	}
	message, err := models.FindMessageByToken(mc.DB, token)
	if err != nil {
		return mc.failLookup(c, err)
	}

	desc, err := message.AdvanceStatus(mc.DB)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return utils.Fail(c, fiber.StatusNotFound, msgNoStatus)
	case errors.Is(err, models.ErrDataIntegrity):
		sentry.CaptureException(err)
		mc.Logger.WithError(err).Error("status vocabulary corruption detected")
		return utils.Fail(c, fiber.StatusInternalServerError, msgStatusCorrupt)
	case err != nil:
		mc.Logger.WithError(err).Error("failed to advance message status")
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to advance status")
	}

	return utils.Success(c, fiber.StatusOK, "Message received a new status: "+desc.Desc)
}

func (mc *MessageController) resolveMessage(c *fiber.Ctx) (*models.Message, error) {
	token, ok := utils.ParseToken(c.Params("token"))
	if !ok {
		return nil, models.ErrNotFound
	}
	return models.FindMessageByToken(mc.DB, token)
}

// failLookup maps lookup errors onto the single-error-string shape.
func (mc *MessageController) failLookup(c *fiber.Ctx, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return utils.Fail(c, fiber.StatusNotFound, msgNoData)
	}
	if errors.Is(err, models.ErrDataIntegrity) {
		sentry.CaptureException(err)
		mc.Logger.WithError(err).Error("token uniqueness violation")
		return utils.Fail(c, fiber.StatusInternalServerError, msgStatusCorrupt)
	}
	mc.Logger.WithError(err).Error("message lookup failed")
	return utils.Fail(c, fiber.StatusInternalServerError, "Failed to load message")
}

func (mc *MessageController) buildMessageView(message *models.Message) (messageView, error) {
	view := messageView{
		ID:         message.ID,
		Token:      message.Token.String(),
		Project:    message.Project,
		App:        message.App,
		Model:      message.ModelName,
		ReceiverID: message.ReceiverID,
		Subject:    message.Subject,
		Text:       message.Text,
		CreatedAt:  message.CreatedAt,
		UpdatedAt:  message.UpdatedAt,
		Replies:    []replyView{},
	}

	var sender models.User
	if err := mc.DB.First(&sender, message.SenderID).Error; err == nil {
		view.Sender = sender.Email
	}

	if desc, err := message.CurrentStatus(mc.DB); err != nil {
		return view, err
	} else if desc != nil {
		view.Status = desc.Desc
	}

	var topLevel []models.MessageReply
	if err := mc.DB.Preload("Replier").
		Where("message_id = ? AND parent_reply_id IS NULL", message.ID).
		Order("created_at ASC").
		Find(&topLevel).Error; err != nil {
		return view, err
	}

	for i := range topLevel {
		parentView, err := mc.buildReplyView(&topLevel[i])
		if err != nil {
			return view, err
		}

		var children []models.MessageReply
		if err := mc.DB.Preload("Replier").
			Where("parent_reply_id = ?", topLevel[i].ID).
			Order("created_at ASC").
			Find(&children).Error; err != nil {
			return view, err
		}
		for j := range children {
			childView, err := mc.buildReplyView(&children[j])
			if err != nil {
				return view, err
			}
			parentView.Replies = append(parentView.Replies, childView)
		}

		view.Replies = append(view.Replies, parentView)
	}
	return view, nil
}

func (mc *MessageController) buildReplyView(reply *models.MessageReply) (replyView, error) {
	view := replyView{
		ID:            reply.ID,
		MessageID:     reply.MessageID,
		ParentReplyID: reply.ParentReplyID,
		Replier:       reply.Replier.Email,
		Text:          reply.Text,
		CreatedAt:     reply.CreatedAt,
		UpdatedAt:     reply.UpdatedAt,
	}
	if desc, err := reply.CurrentStatus(mc.DB); err != nil {
		return view, err
	} else if desc != nil {
		view.Status = desc.Desc
	}
	return view, nil
}
