package controller

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"qmessages/models"
	"qmessages/utils"
)

func TestCreateMessageContract(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	sender := env.createUser(t, "sender@example.com")
	receiver := env.createUser(t, "receiver@example.com")
	env.user = sender

	token := env.createMessage(t, receiver.ID, "quarterly numbers")
	parsed, ok := utils.ParseToken(token)
	assert.True(ok, "success payload must be the message token")

	message, err := models.FindMessageByToken(env.db, parsed)
	assert.Nil(err)
	assert.Equal(sender.ID, message.SenderID)

	desc, err := message.CurrentStatus(env.db)
	assert.Nil(err)
	assert.Equal(models.StatusUnread, desc.Desc)
}

func TestCreateMessageValidation(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	sender := env.createUser(t, "sender@example.com")
	receiver := env.createUser(t, "receiver@example.com")
	env.user = sender

	status, body := env.request(t, http.MethodPost, "/messages/", fiber.Map{
		"receiver_id": receiver.ID,
	})
	assert.Equal(http.StatusBadRequest, status)
	fieldErrors, ok := body["error"].(map[string]interface{})
	assert.True(ok, "validation failures use the field-error map shape")
	assert.Contains(fieldErrors, "subject")
	assert.Contains(fieldErrors, "text")

	status, body = env.request(t, http.MethodPost, "/messages/", fiber.Map{
		"receiver_id": receiver.ID + 99,
		"subject":     "s",
		"text":        "t",
	})
	assert.Equal(http.StatusBadRequest, status)
	fieldErrors = body["error"].(map[string]interface{})
	assert.Contains(fieldErrors, "receiver_id")
}

func TestGetMessageMarksRead(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	sender := env.createUser(t, "sender@example.com")
	receiver := env.createUser(t, "receiver@example.com")
	env.user = sender

	token := env.createMessage(t, receiver.ID, "subject")
	parsed, _ := utils.ParseToken(token)
	message, err := models.FindMessageByToken(env.db, parsed)
	assert.Nil(err)

	// The data-fetch path leaves the ledger alone.
	status, body := env.request(t, http.MethodGet, "/messages/"+token+"?raw=1", nil)
	assert.Equal(http.StatusOK, status)
	assert.Equal(models.StatusUnread, body["status"])

	desc, err := message.CurrentStatus(env.db)
	assert.Nil(err)
	assert.Equal(models.StatusUnread, desc.Desc)

	// The default path records Read as a side effect.
	status, _ = env.request(t, http.MethodGet, "/messages/"+token, nil)
	assert.Equal(http.StatusOK, status)

	desc, err = message.CurrentStatus(env.db)
	assert.Nil(err)
	assert.Equal(models.StatusRead, desc.Desc)
}

func TestGetMessageUnknownToken(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	env.user = env.createUser(t, "sender@example.com")

	status, body := env.request(t, http.MethodGet, "/messages/not-a-token", nil)
	assert.Equal(http.StatusNotFound, status)
	assert.Equal("No data found for this token", body["error"])

	status, body = env.request(t, http.MethodGet,
		"/messages/6f1f64a5-9b0a-4c67-9d3f-0f6f0b40f000", nil)
	assert.Equal(http.StatusNotFound, status)
	assert.Equal("No data found for this token", body["error"])
}

func TestDeleteMessageOwnership(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	sender := env.createUser(t, "sender@example.com")
	receiver := env.createUser(t, "receiver@example.com")
	env.user = sender

	token := env.createMessage(t, receiver.ID, "subject")

	env.user = receiver
	status, body := env.request(t, http.MethodDelete, "/messages/"+token, nil)
	assert.Equal(http.StatusForbidden, status)
	assert.Equal("You are not the owner of this message", body["error"])

	parsed, _ := utils.ParseToken(token)
	_, err := models.FindMessageByToken(env.db, parsed)
	assert.Nil(err, "a denied delete must not touch the row")

	env.user = sender
	status, body = env.request(t, http.MethodDelete, "/messages/"+token, nil)
	assert.Equal(http.StatusOK, status)
	assert.Equal("Message deleted successfully", body["success"])

	_, err = models.FindMessageByToken(env.db, parsed)
	assert.ErrorIs(err, models.ErrNotFound)
}

func TestUpdateMessageOwnership(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	sender := env.createUser(t, "sender@example.com")
	receiver := env.createUser(t, "receiver@example.com")
	env.user = sender

	token := env.createMessage(t, receiver.ID, "old subject")

	env.user = receiver
	status, body := env.request(t, http.MethodPut, "/messages/"+token, fiber.Map{
		"subject": "hijacked",
		"text":    "hijacked",
	})
	assert.Equal(http.StatusForbidden, status)
	assert.Equal("You are not the owner of this message", body["error"])

	env.user = sender
	status, _ = env.request(t, http.MethodPut, "/messages/"+token, fiber.Map{
		"subject": "new subject",
		"text":    "new text",
	})
	assert.Equal(http.StatusOK, status)

	parsed, _ := utils.ParseToken(token)
	message, err := models.FindMessageByToken(env.db, parsed)
	assert.Nil(err)
	assert.Equal("new subject", message.Subject)
}

func TestAdvanceMessageStatusEndpoint(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	sender := env.createUser(t, "sender@example.com")
	receiver := env.createUser(t, "receiver@example.com")
	env.user = sender

	token := env.createMessage(t, receiver.ID, "subject")

	status, body := env.request(t, http.MethodGet, "/messages/"+token+"/status", nil)
	assert.Equal(http.StatusOK, status)
	assert.Equal("Message received a new status: "+models.StatusReplied, body["success"])

	status, body = env.request(t, http.MethodGet, "/messages/"+token+"/status", nil)
	assert.Equal(http.StatusOK, status)
	assert.Equal("Message received a new status: "+models.StatusRead, body["success"])

	// At the terminal entry the advance is idempotent.
	status, body = env.request(t, http.MethodGet, "/messages/"+token+"/status", nil)
	assert.Equal(http.StatusOK, status)
	assert.Equal("Message received a new status: "+models.StatusRead, body["success"])

	status, body = env.request(t, http.MethodGet, "/messages/bogus/status", nil)
	assert.Equal(http.StatusBadRequest, status)
	assert.Equal("Invalid token", body["error"])
}

func TestListMessagesEnvelope(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	sender := env.createUser(t, "sender@example.com")
	receiver := env.createUser(t, "receiver@example.com")
	outsider := env.createUser(t, "outsider@example.com")
	env.user = sender

	for i := 0; i < 3; i++ {
		env.createMessage(t, receiver.ID, "subject")
	}

	status, body := env.request(t, http.MethodGet, "/messages/?page=1&pageSize=2", nil)
	assert.Equal(http.StatusOK, status)
	data := body["data"].([]interface{})
	assert.Len(data, 2)
	pagination := body["pagination"].(map[string]interface{})
	assert.EqualValues(3, pagination["count"])
	assert.EqualValues(2, pagination["total_pages"])
	assert.Equal(true, pagination["has_next"])

	// The receiver sees the same conversations.
	env.user = receiver
	status, body = env.request(t, http.MethodGet, "/messages/", nil)
	assert.Equal(http.StatusOK, status)
	assert.Len(body["data"].([]interface{}), 3)

	// A bystander sees nothing, reported as no data.
	env.user = outsider
	status, body = env.request(t, http.MethodGet, "/messages/", nil)
	assert.Equal(http.StatusNotFound, status)
	assert.Equal("No data found for this token", body["error"])
}

func TestListMessagesGridFilter(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	sender := env.createUser(t, "sender@example.com")
	receiver := env.createUser(t, "receiver@example.com")
	env.user = sender

	status, _ := env.request(t, http.MethodPost, "/messages/", fiber.Map{
		"receiver_id": receiver.ID,
		"project":     "crm",
		"subject":     "crm rollout",
		"text":        "t",
	})
	assert.Equal(http.StatusCreated, status)
	status, _ = env.request(t, http.MethodPost, "/messages/", fiber.Map{
		"receiver_id": receiver.ID,
		"project":     "wiki",
		"subject":     "wiki cleanup",
		"text":        "t",
	})
	assert.Equal(http.StatusCreated, status)

	status, body := env.request(t, http.MethodGet,
		"/messages/?filter[filters][0][field]=project&filter[filters][0][operator]=eq&filter[filters][0][value]=crm", nil)
	assert.Equal(http.StatusOK, status)
	data := body["data"].([]interface{})
	assert.Len(data, 1)
	first := data[0].(map[string]interface{})
	assert.Equal("crm rollout", first["subject"])

	status, body = env.request(t, http.MethodGet,
		"/messages/?filter[filters][0][field]=sender_id&filter[filters][0][operator]=eq&filter[filters][0][value]=1", nil)
	assert.Equal(http.StatusBadRequest, status)
	assert.NotEmpty(body["error"])
}
