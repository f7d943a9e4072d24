package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Status names the documented flows depend on. The vocabulary itself is
// configuration (see SeedStatusDescs); these three must exist, in this
// order, for the threading engine to work. Entries appended after them do
// not disturb the advance walk.
const (
	StatusUnread  = "Unread"
	StatusReplied = "Replied"
	StatusRead    = "Read"
)

// MessageStatusDesc is one entry of the ordered status vocabulary shared by
// message and reply ledgers. Order is insertion order: the advance walk is
// positional over rows sorted by id, so whoever populates the table must do
// it in a meaningful sequence.
type MessageStatusDesc struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Desc      string    `gorm:"size:255;not null;uniqueIndex" json:"desc"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageStatus is one transition in a message's ledger. Rows are only ever
// appended; the current status is the newest row.
type MessageStatus struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	MessageDescID uint              `gorm:"not null;index" json:"message_desc_id"`
	MessageID     uint              `gorm:"not null;index" json:"message_id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	MessageDesc   MessageStatusDesc `gorm:"foreignKey:MessageDescID" json:"-"`
}

// MessageReplyStatus is the same append-only transition row, scoped to a
// reply.
type MessageReplyStatus struct {
	ID             uint              `gorm:"primarykey" json:"id"`
	MessageDescID  uint              `gorm:"not null;index" json:"message_desc_id"`
	MessageReplyID uint              `gorm:"not null;index" json:"message_reply_id"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	MessageDesc    MessageStatusDesc `gorm:"foreignKey:MessageDescID" json:"-"`
}

// SeedStatusDescs populates the vocabulary in the given order. Existing
// entries are kept, so re-running a migration appends new names without
// renumbering the walk.
func SeedStatusDescs(db *gorm.DB, flow []string) error {
	for _, name := range flow {
		desc := MessageStatusDesc{Desc: name}
		if err := db.FirstOrCreate(&desc, "\"desc\" = ?", name).Error; err != nil {
			return fmt.Errorf("failed to seed status %q: %w", name, err)
		}
	}
	return nil
}

// ListStatusDescs returns the vocabulary in walk order. Read at call time
// rather than cached, so tests and deployments can swap vocabularies.
func ListStatusDescs(db *gorm.DB) ([]MessageStatusDesc, error) {
	var descs []MessageStatusDesc
	if err := db.Order("id ASC").Find(&descs).Error; err != nil {
		return nil, err
	}
	return descs, nil
}

func findStatusDesc(db *gorm.DB, name string) (*MessageStatusDesc, error) {
	var desc MessageStatusDesc
	err := db.Where("\"desc\" = ?", name).First(&desc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: status description %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &desc, nil
}

// nextStatusDesc finds the vocabulary entry after current by exact name
// match. Returns nil at the terminal entry. A current description that has
// left the vocabulary means the status table was mutated incompatibly.
func nextStatusDesc(db *gorm.DB, current *MessageStatusDesc) (*MessageStatusDesc, error) {
	descs, err := ListStatusDescs(db)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, d := range descs {
		if d.Desc == current.Desc {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: current status %q is not in the vocabulary", ErrDataIntegrity, current.Desc)
	}
	if idx == len(descs)-1 {
		return nil, nil
	}
	return &descs[idx+1], nil
}

// CurrentStatus returns the description of the newest ledger row, or nil
// when the message has no ledger yet. Newest is created_at order with the
// row id as the unique tiebreaker, so two rows written in the same instant
// still resolve deterministically.
func (m *Message) CurrentStatus(db *gorm.DB) (*MessageStatusDesc, error) {
	var row MessageStatus
	err := db.Where("message_id = ?", m.ID).
		Order("created_at DESC, id DESC").
		Preload("MessageDesc").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row.MessageDesc, nil
}

// RecordStatus appends the named status to the message's ledger. Fails with
// ErrNotFound when the name is not in the vocabulary.
func (m *Message) RecordStatus(db *gorm.DB, name string) error {
	desc, err := findStatusDesc(db, name)
	if err != nil {
		return err
	}
	return db.Create(&MessageStatus{MessageDescID: desc.ID, MessageID: m.ID}).Error
}

// AdvanceStatus moves the message to the next vocabulary entry. At the
// terminal entry it returns the current description unchanged without
// appending, so repeated advances are idempotent at the ceiling.
func (m *Message) AdvanceStatus(db *gorm.DB) (*MessageStatusDesc, error) {
	current, err := m.CurrentStatus(db)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: message %s has no status", ErrNotFound, m.Token)
	}
	next, err := nextStatusDesc(db, current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}
	if err := db.Create(&MessageStatus{MessageDescID: next.ID, MessageID: m.ID}).Error; err != nil {
		return nil, err
	}
	return next, nil
}

// CurrentStatus returns the description of the newest ledger row for the
// reply, or nil when it has none.
func (r *MessageReply) CurrentStatus(db *gorm.DB) (*MessageStatusDesc, error) {
	var row MessageReplyStatus
	err := db.Where("message_reply_id = ?", r.ID).
		Order("created_at DESC, id DESC").
		Preload("MessageDesc").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row.MessageDesc, nil
}

// RecordStatus appends the named status to the reply's ledger.
func (r *MessageReply) RecordStatus(db *gorm.DB, name string) error {
	desc, err := findStatusDesc(db, name)
	if err != nil {
		return err
	}
	return db.Create(&MessageReplyStatus{MessageDescID: desc.ID, MessageReplyID: r.ID}).Error
}

// AdvanceStatus moves the reply to the next vocabulary entry, with the same
// ceiling semantics as the message ledger.
func (r *MessageReply) AdvanceStatus(db *gorm.DB) (*MessageStatusDesc, error) {
	current, err := r.CurrentStatus(db)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: reply %d has no status", ErrNotFound, r.ID)
	}
	next, err := nextStatusDesc(db, current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}
	if err := db.Create(&MessageReplyStatus{MessageDescID: next.ID, MessageReplyID: r.ID}).Error; err != nil {
		return nil, err
	}
	return next, nil
}
