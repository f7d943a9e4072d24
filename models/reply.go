package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// MessageReply belongs to exactly one message and optionally to a parent
// reply. The engine only ever creates two levels (top-level replies and
// their direct children), but the cascade below walks whatever depth the
// rows actually form.
type MessageReply struct {
	gorm.Model

	MessageID     uint  `gorm:"not null;index" json:"message_id"`
	ParentReplyID *uint `gorm:"index" json:"parent_reply_id,omitempty"`
	ReplierID     uint  `gorm:"not null;index" json:"replier_id"`

	Text string `gorm:"type:text;not null" json:"text"`

	Message     Message       `gorm:"foreignKey:MessageID" json:"-"`
	ParentReply *MessageReply `gorm:"foreignKey:ParentReplyID" json:"-"`
	Replier     User          `gorm:"foreignKey:ReplierID" json:"-"`
}

// CanDelete reports whether u may delete the reply. Only the replier owns a
// reply.
func (r *MessageReply) CanDelete(u *User) bool {
	return u != nil && u.ID == r.ReplierID
}

// FindReplyByID resolves a reply id against live rows.
func FindReplyByID(db *gorm.DB, id uint) (*MessageReply, error) {
	var reply MessageReply
	err := db.First(&reply, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: reply %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// descendantIDs collects every transitive child of the reply via an
// explicit worklist over parent links instead of recursion, so pathological
// trees cannot blow the stack. The visited set is a safety net against a
// parent pointer that was forced into a cycle; such rows are traversed once
// and never revisited.
func (r *MessageReply) descendantIDs(db *gorm.DB, includeDeleted bool) ([]uint, error) {
	visited := map[uint]bool{r.ID: true}
	var ids []uint
	stack := []uint{r.ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		q := db
		if includeDeleted {
			q = q.Unscoped()
		}
		var childIDs []uint
		if err := q.Model(&MessageReply{}).
			Where("parent_reply_id = ?", id).
			Pluck("id", &childIDs).Error; err != nil {
			return nil, err
		}
		for _, cid := range childIDs {
			if visited[cid] {
				continue
			}
			visited[cid] = true
			ids = append(ids, cid)
			stack = append(stack, cid)
		}
	}
	return ids, nil
}

// SoftDelete hides the reply and its whole descendant tree from default
// reads. Children go first so no visible child ever outlives its deleted
// parent; the single transaction makes the ordering atomic either way.
func (r *MessageReply) SoftDelete(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		ids, err := r.descendantIDs(tx, false)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.Delete(&MessageReply{}, ids).Error; err != nil {
				return err
			}
		}
		return tx.Delete(r).Error
	})
}

// HardDelete irreversibly removes the reply, every descendant (soft-deleted
// ones included) and all of their ledger rows.
func (r *MessageReply) HardDelete(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		ids, err := r.descendantIDs(tx, true)
		if err != nil {
			return err
		}
		ids = append(ids, r.ID)
		if err := tx.Unscoped().Where("message_reply_id IN ?", ids).
			Delete(&MessageReplyStatus{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&MessageReply{}, ids).Error
	})
}
