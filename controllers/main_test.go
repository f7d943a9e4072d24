package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"qmessages/models"
)

// testEnv is one fiber app over a fresh in-memory database. The auth
// middleware is replaced by a switchable user so ownership paths can be
// exercised without minting tokens.
type testEnv struct {
	app  *fiber.App
	db   *gorm.DB
	user *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.Nil(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.MessageReply{},
		&models.MessageStatusDesc{},
		&models.MessageStatus{},
		&models.MessageReplyStatus{},
		&models.Note{},
	)
	assert.Nil(t, err)
	assert.Nil(t, models.SeedStatusDescs(db, []string{
		models.StatusUnread, models.StatusReplied, models.StatusRead,
	}))

	log := logrus.New()
	log.SetOutput(io.Discard)

	env := &testEnv{db: db}
	env.app = fiber.New()
	env.app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", env.user)
		c.Locals("userID", env.user.ID)
		return c.Next()
	})

	mc := NewMessageController(db, log)
	rc := NewReplyController(db, log)
	nc := NewNoteController(db, log)

	messages := env.app.Group("/messages")
	messages.Post("/", mc.CreateMessage)
	messages.Get("/", mc.ListMessages)
	messages.Get("/:token/status", mc.AdvanceMessageStatus)
	messages.Get("/:token", mc.GetMessage)
	messages.Put("/:token", mc.UpdateMessage)
	messages.Delete("/:token", mc.DeleteMessage)

	replies := env.app.Group("/replies")
	replies.Post("/", rc.CreateReply)
	replies.Get("/:id", rc.GetReply)
	replies.Put("/:id", rc.UpdateReply)
	replies.Delete("/:id", rc.DeleteReply)

	notes := env.app.Group("/notes")
	notes.Post("/", nc.CreateNote)
	notes.Get("/", nc.ListNotes)
	notes.Get("/:token", nc.GetNote)

	return env
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x", Name: email, IsActive: true}
	assert.Nil(t, e.db.Create(u).Error)
	return u
}

// request performs one round trip as e.user and decodes the JSON body.
func (e *testEnv) request(t *testing.T, method, target string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		assert.Nil(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.app.Test(req, -1)
	assert.Nil(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	assert.Nil(t, err)
	if len(raw) > 0 {
		assert.Nil(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func (e *testEnv) createMessage(t *testing.T, receiverID uint, subject string) string {
	t.Helper()
	status, body := e.request(t, http.MethodPost, "/messages/", fiber.Map{
		"receiver_id": receiverID,
		"subject":     subject,
		"text":        "body of " + subject,
	})
	assert.Equal(t, http.StatusCreated, status)
	token, _ := body["success"].(string)
	assert.NotEmpty(t, token)
	return token
}
