package models

import (
	"fmt"

	"gorm.io/gorm"
)

// CreateReply is the reply-creation algorithm. It persists the reply,
// records the branch-specific ledger entries, then toggles the owning
// message's ledger:
//
//   - reply to a reply: the parent gets Replied, the new leaf gets Unread
//   - top-level reply: the message gets Unread, the new leaf gets Unread
//
// Afterwards the message's current status is read again and flipped —
// Unread becomes Replied, anything else becomes Unread. The read happens
// after the branch writes, which is what makes a nested reply flip a
// Replied message back to Unread while a top-level reply always lands it
// on Replied. Replies are activity signals; the flip prompts the sender to
// re-check the conversation.
//
// The whole operation runs in one transaction so two concurrent replies
// cannot interleave the read and the conditional append.
func CreateReply(db *gorm.DB, msg *Message, parent *MessageReply, replier *User, text string) (*MessageReply, error) {
	reply := &MessageReply{
		MessageID: msg.ID,
		ReplierID: replier.ID,
		Text:      text,
	}
	if parent != nil {
		reply.ParentReplyID = &parent.ID
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}

		if parent != nil {
			if err := parent.RecordStatus(tx, StatusReplied); err != nil {
				return err
			}
			if err := reply.RecordStatus(tx, StatusUnread); err != nil {
				return err
			}
		} else {
			if err := msg.RecordStatus(tx, StatusUnread); err != nil {
				return err
			}
			if err := reply.RecordStatus(tx, StatusUnread); err != nil {
				return err
			}
		}

		current, err := msg.CurrentStatus(tx)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: message %s has no status", ErrDataIntegrity, msg.Token)
		}
		toggled := StatusUnread
		if current.Desc == StatusUnread {
			toggled = StatusReplied
		}
		return msg.RecordStatus(tx, toggled)
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}
