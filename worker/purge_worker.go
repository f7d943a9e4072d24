package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"qmessages/models"
)

// PurgeWorker hard-deletes rows that have been soft-deleted for longer
// than the configured retention. This is the only path that exercises hard
// delete in normal operation; the API surface only ever soft-deletes.
type PurgeWorker struct {
	db        *gorm.DB
	logger    *logrus.Logger
	retention time.Duration
	interval  time.Duration
}

func NewPurgeWorker(db *gorm.DB, logger *logrus.Logger, retention, interval time.Duration) *PurgeWorker {
	return &PurgeWorker{
		db:        db,
		logger:    logger,
		retention: retention,
		interval:  interval,
	}
}

func (pw *PurgeWorker) Start(ctx context.Context) {
	if pw.retention <= 0 {
		pw.logger.Info("purge worker disabled: no retention configured")
		return
	}

	pw.logger.WithFields(logrus.Fields{
		"retention": pw.retention,
		"interval":  pw.interval,
	}).Info("starting purge worker")

	ticker := time.NewTicker(pw.interval)
	for {
		select {
		case <-ticker.C:
			pw.purge()
		case <-ctx.Done():
			pw.logger.Info("stopping purge worker")
			ticker.Stop()
			return
		}
	}
}

func (pw *PurgeWorker) purge() {
	cutoff := time.Now().Add(-pw.retention)

	if err := pw.purgeReplies(cutoff); err != nil {
		pw.logger.WithError(err).Error("failed to purge replies")
	}
	if err := pw.purgeMessages(cutoff); err != nil {
		pw.logger.WithError(err).Error("failed to purge messages")
	}
	if err := pw.db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&models.Note{}).Error; err != nil {
		pw.logger.WithError(err).Error("failed to purge notes")
	}
}

// purgeReplies removes expired soft-deleted replies and their ledgers.
// Children are soft-deleted no later than their parent by the cascade, so
// an expired parent's subtree is expired with it.
func (pw *PurgeWorker) purgeReplies(cutoff time.Time) error {
	return pw.db.Transaction(func(tx *gorm.DB) error {
		var replyIDs []uint
		if err := tx.Unscoped().Model(&models.MessageReply{}).
			Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
			Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		if len(replyIDs) == 0 {
			return nil
		}
		if err := tx.Unscoped().Where("message_reply_id IN ?", replyIDs).
			Delete(&models.MessageReplyStatus{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&models.MessageReply{}, replyIDs).Error; err != nil {
			return err
		}
		pw.logger.WithField("count", len(replyIDs)).Info("purged replies")
		return nil
	})
}

// purgeMessages removes expired soft-deleted messages together with their
// ledgers and whatever is left of their reply trees.
func (pw *PurgeWorker) purgeMessages(cutoff time.Time) error {
	return pw.db.Transaction(func(tx *gorm.DB) error {
		var messageIDs []uint
		if err := tx.Unscoped().Model(&models.Message{}).
			Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
			Pluck("id", &messageIDs).Error; err != nil {
			return err
		}
		if len(messageIDs) == 0 {
			return nil
		}

		var replyIDs []uint
		if err := tx.Unscoped().Model(&models.MessageReply{}).
			Where("message_id IN ?", messageIDs).
			Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		if len(replyIDs) > 0 {
			if err := tx.Unscoped().Where("message_reply_id IN ?", replyIDs).
				Delete(&models.MessageReplyStatus{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Delete(&models.MessageReply{}, replyIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("message_id IN ?", messageIDs).
			Delete(&models.MessageStatus{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&models.Message{}, messageIDs).Error; err != nil {
			return err
		}
		pw.logger.WithField("count", len(messageIDs)).Info("purged messages")
		return nil
	})
}
