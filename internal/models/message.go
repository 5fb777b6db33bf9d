package models

import "time"

type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeFile     MessageType = "file"
	TypeDocument MessageType = "document"
)

func (t MessageType) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeFile, TypeDocument:
		return true
	}
	return false
}

// Message is the single persisted entity. Conversations have no row of their
// own; they exist as the set of messages sharing a conversation_id and
// counterpart pairing. Immutable after insert except is_read and is_deleted.
type Message struct {
	ID             string      `bson:"_id" json:"id"`
	ConversationID string      `bson:"conversation_id" json:"conversation_id"`
	SenderID       string      `bson:"sender_id" json:"sender_id"`
	RecipientID    string      `bson:"recipient_id" json:"recipient_id"`
	SenderName     string      `bson:"sender_name" json:"sender_name"`
	SenderEmail    string      `bson:"sender_email" json:"sender_email"`
	SenderRole     string      `bson:"sender_role" json:"sender_role"`
	RecipientName  string      `bson:"recipient_name" json:"recipient_name"`
	RecipientEmail string      `bson:"recipient_email" json:"recipient_email"`
	RecipientRole  string      `bson:"recipient_role" json:"recipient_role"`
	Content        string      `bson:"content" json:"content"`
	Type           MessageType `bson:"type" json:"type"`
	IsRead         bool        `bson:"is_read" json:"is_read"`
	IsDeleted      bool        `bson:"is_deleted" json:"is_deleted"`
	CreatedAt      time.Time   `bson:"created_at" json:"created_at"`
}

// CounterpartOf returns the other party's id as seen from viewerID.
func (m *Message) CounterpartOf(viewerID string) string {
	if m.SenderID == viewerID {
		return m.RecipientID
	}
	return m.SenderID
}

// ConversationSummary is a derived view, computed per read from the message
// store, never persisted.
type ConversationSummary struct {
	CounterpartID    string      `json:"counterpart_id"`
	CounterpartName  string      `json:"counterpart_name"`
	CounterpartEmail string      `json:"counterpart_email"`
	LastMessage      string      `json:"last_message"`
	LastMessageType  MessageType `json:"last_message_type"`
	Timestamp        time.Time   `json:"timestamp"`
	UnreadCount      int         `json:"unread_count"`
	IsFromMe         bool        `json:"is_from_me"`
}
