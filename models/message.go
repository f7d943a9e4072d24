package models

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a top-level conversation item between two users, annotated
// with a free-text (project, app, model) classification triple. It is
// addressed externally by its token, never by its row id.
type Message struct {
	gorm.Model

	Token     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"token"`
	Project   string    `gorm:"size:255" json:"project"`
	App       string    `gorm:"size:255" json:"app"`
	ModelName string    `gorm:"column:model;size:255" json:"model"`

	SenderID   uint `gorm:"not null;index" json:"sender_id"`
	ReceiverID uint `gorm:"not null;index" json:"receiver_id"`

	Subject string `gorm:"size:200;not null" json:"subject"`
	Text    string `gorm:"type:text;not null" json:"text"`

	Sender   User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}

// BeforeCreate assigns the identity token. Tokens are opaque and immutable
// after this point.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.Token == uuid.Nil {
		m.Token = uuid.New()
	}
	return nil
}

// CanEdit reports whether u may update or delete the message. Only the
// sender owns a message.
func (m *Message) CanEdit(u *User) bool {
	return u != nil && u.ID == m.SenderID
}

// SoftDelete hides the message from default reads. The row stays
// addressable through the unscoped path.
func (m *Message) SoftDelete(db *gorm.DB) error {
	return db.Delete(m).Error
}

// HardDelete irreversibly removes the message, its ledger and its reply
// tree, soft-deleted descendants included.
func (m *Message) HardDelete(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var replyIDs []uint
		if err := tx.Unscoped().Model(&MessageReply{}).
			Where("message_id = ?", m.ID).
			Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		if len(replyIDs) > 0 {
			if err := tx.Unscoped().Where("message_reply_id IN ?", replyIDs).
				Delete(&MessageReplyStatus{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Delete(&MessageReply{}, replyIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("message_id = ?", m.ID).Delete(&MessageStatus{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(m).Error
	})
}

// FindMessageByToken resolves a validated token against live rows. Zero
// matches is a not-found; more than one means the uniqueness guarantee was
// violated and is surfaced as an integrity failure rather than silently
// picking a row.
func FindMessageByToken(db *gorm.DB, token uuid.UUID) (*Message, error) {
	var messages []Message
	if err := db.Where("token = ?", token).Limit(2).Find(&messages).Error; err != nil {
		return nil, err
	}
	switch len(messages) {
	case 0:
		return nil, fmt.Errorf("%w: message token %s", ErrNotFound, token)
	case 1:
		return &messages[0], nil
	default:
		return nil, fmt.Errorf("%w: token %s resolves to multiple messages", ErrDataIntegrity, token)
	}
}
