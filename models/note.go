package models

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note is a free-standing annotation attached to a (project, app, model)
// triple. Independent of the message tree and carries no status ledger.
type Note struct {
	gorm.Model

	Token     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"token"`
	Project   string    `gorm:"size:255" json:"project"`
	App       string    `gorm:"size:255" json:"app"`
	ModelName string    `gorm:"column:model;size:255" json:"model"`
	Text      string    `gorm:"type:text;not null" json:"text"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.Token == uuid.Nil {
		n.Token = uuid.New()
	}
	return nil
}

// SoftDelete hides the note from default reads.
func (n *Note) SoftDelete(db *gorm.DB) error {
	return db.Delete(n).Error
}

// HardDelete irreversibly removes the note.
func (n *Note) HardDelete(db *gorm.DB) error {
	return db.Unscoped().Delete(n).Error
}

// FindNoteByToken resolves a validated token against live rows, with the
// same zero/multiple-match semantics as message lookup.
func FindNoteByToken(db *gorm.DB, token uuid.UUID) (*Note, error) {
	var notes []Note
	if err := db.Where("token = ?", token).Limit(2).Find(&notes).Error; err != nil {
		return nil, err
	}
	switch len(notes) {
	case 0:
		return nil, fmt.Errorf("%w: note token %s", ErrNotFound, token)
	case 1:
		return &notes[0], nil
	default:
		return nil, fmt.Errorf("%w: token %s resolves to multiple notes", ErrDataIntegrity, token)
	}
}
