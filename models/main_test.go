package models

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database migrated and seeded with the
// default vocabulary. Each test gets its own named memory database so
// state never bleeds between tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&User{},
		&Message{},
		&MessageStatusDesc{},
		&MessageStatus{},
		&MessageReply{},
		&MessageReplyStatus{},
		&Note{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if err := SeedStatusDescs(db, []string{StatusUnread, StatusReplied, StatusRead}); err != nil {
		t.Fatalf("failed to seed status vocabulary: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *User {
	t.Helper()
	user := &User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

// createTestMessage persists a message and opens its ledger with the
// initial Unread entry, as the create endpoint does.
func createTestMessage(t *testing.T, db *gorm.DB, sender, receiver *User) *Message {
	t.Helper()
	message := &Message{
		Project:    "crm",
		App:        "tickets",
		ModelName:  "ticket",
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Subject:    "test subject",
		Text:       "test text",
	}
	if err := db.Create(message).Error; err != nil {
		t.Fatalf("failed to create message: %v", err)
	}
	if err := message.RecordStatus(db, StatusUnread); err != nil {
		t.Fatalf("failed to record initial status: %v", err)
	}
	return message
}

func currentStatusName(t *testing.T, db *gorm.DB, entity interface {
	CurrentStatus(*gorm.DB) (*MessageStatusDesc, error)
}) string {
	t.Helper()
	desc, err := entity.CurrentStatus(db)
	if err != nil {
		t.Fatalf("failed to read current status: %v", err)
	}
	if desc == nil {
		return ""
	}
	return desc.Desc
}
