// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the conversation log, which doubles as
// the deduplication and session ledger for inbound messages.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
)

// InsertConversationLog inserts entry unless a row with the same MessageID
// already exists. It reports whether a row was written; false means the
// message was seen before.
//
// The check and the insert are a single INSERT … ON CONFLICT DO NOTHING
// statement, so two concurrent deliveries of one message can never both
// report inserted=true.
func InsertConversationLog(ctx context.Context, db *gorm.DB, entry *domain.ConversationLog) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasActivitySince reports whether sender has any logged message received at
// or after since, ignoring the message identified by excludeMessageID.
func HasActivitySince(ctx context.Context, db *gorm.DB, sender string, since time.Time, excludeMessageID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ConversationLog{}).
		Where("sender_phone = ? AND received_at >= ? AND message_id <> ?", sender, since, excludeMessageID).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}
