package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ConversationLog holds one row per inbound message accepted by the bot.
//
// It is both the audit trail and the deduplication/session ledger: the unique
// MessageID makes a redelivered webhook a no-op, and the most recent
// ReceivedAt per sender decides whether a message starts a new session.
type ConversationLog struct {
	ID          uint           `json:"id"           gorm:"primaryKey"`
	MessageID   string         `json:"message_id"   gorm:"type:varchar(128);not null;uniqueIndex:ux_conversation_logs_message"`
	SenderPhone string         `json:"sender_phone" gorm:"type:varchar(32);not null;index:idx_conversation_logs_sender_time,priority:1"`
	Kind        string         `json:"kind"         gorm:"type:varchar(32);not null"`
	Content     string         `json:"content"      gorm:"type:text;not null;default:''"`
	Payload     datatypes.JSON `json:"payload,omitempty" swaggertype:"object"`
	ReceivedAt  time.Time      `json:"received_at"  gorm:"not null;index:idx_conversation_logs_sender_time,priority:2"`
}

// TableName returns the database table name for ConversationLog.
func (ConversationLog) TableName() string { return "conversation_logs" }
