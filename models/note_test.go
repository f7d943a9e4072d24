package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNoteLifecycle(t *testing.T) {
	assert := assert.New(t)
	db := newTestDB(t)

	note := &Note{Project: "crm", App: "billing", ModelName: "invoice", Text: "legacy schema"}
	assert.Nil(db.Create(note).Error)
	assert.NotEqual(uuid.Nil, note.Token)

	found, err := FindNoteByToken(db, note.Token)
	assert.Nil(err)
	assert.Equal(note.ID, found.ID)
	assert.Equal("invoice", found.ModelName)

	assert.Nil(note.SoftDelete(db))
	_, err = FindNoteByToken(db, note.Token)
	assert.ErrorIs(err, ErrNotFound)

	var all int64
	db.Unscoped().Model(&Note{}).Count(&all)
	assert.EqualValues(1, all)

	assert.Nil(note.HardDelete(db))
	db.Unscoped().Model(&Note{}).Count(&all)
	assert.EqualValues(0, all)
}
