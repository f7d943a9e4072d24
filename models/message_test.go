package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFindMessageByToken(t *testing.T) {
	assert := assert.New(t)
	db := newTestDB(t)
	sender := createTestUser(t, db, "sender@example.com")
	receiver := createTestUser(t, db, "receiver@example.com")
	message := createTestMessage(t, db, sender, receiver)
	assert.NotEqual(uuid.Nil, message.Token, "creation must assign a token")

	found, err := FindMessageByToken(db, message.Token)
	assert.Nil(err)
	assert.Equal(message.ID, found.ID)

	_, err = FindMessageByToken(db, uuid.New())
	assert.ErrorIs(err, ErrNotFound)
}

func TestFindMessageByTokenSkipsSoftDeleted(t *testing.T) {
	assert := assert.New(t)
	db := newTestDB(t)
	sender := createTestUser(t, db, "sender@example.com")
	receiver := createTestUser(t, db, "receiver@example.com")
	message := createTestMessage(t, db, sender, receiver)

	assert.Nil(message.SoftDelete(db))

	_, err := FindMessageByToken(db, message.Token)
	assert.ErrorIs(err, ErrNotFound)

	var all int64
	db.Unscoped().Model(&Message{}).Where("token = ?", message.Token).Count(&all)
	assert.EqualValues(1, all)
}

func TestMessageHardDeleteTakesThreadAndLedgers(t *testing.T) {
	assert := assert.New(t)
	db := newTestDB(t)
	sender := createTestUser(t, db, "sender@example.com")
	receiver := createTestUser(t, db, "receiver@example.com")
	message := createTestMessage(t, db, sender, receiver)

	root, err := CreateReply(db, message, nil, receiver, "root")
	assert.Nil(err)
	_, err = CreateReply(db, message, root, sender, "nested")
	assert.Nil(err)

	assert.Nil(message.HardDelete(db))

	var messages, replies, msgStatuses, replyStatuses int64
	db.Unscoped().Model(&Message{}).Count(&messages)
	db.Unscoped().Model(&MessageReply{}).Count(&replies)
	db.Model(&MessageStatus{}).Count(&msgStatuses)
	db.Model(&MessageReplyStatus{}).Count(&replyStatuses)
	assert.EqualValues(0, messages)
	assert.EqualValues(0, replies)
	assert.EqualValues(0, msgStatuses)
	assert.EqualValues(0, replyStatuses)
}

func TestCanEdit(t *testing.T) {
	assert := assert.New(t)
	sender := &User{}
	sender.ID = 1
	receiver := &User{}
	receiver.ID = 2

	message := &Message{SenderID: 1, ReceiverID: 2}
	assert.True(message.CanEdit(sender))
	assert.False(message.CanEdit(receiver), "receiving a message grants no edit rights")
	assert.False(message.CanEdit(nil))
}
