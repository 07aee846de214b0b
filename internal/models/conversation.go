package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Conversation kinds.
const (
	KindPersonal  = "personal"
	KindGroup     = "group"
	KindCommittee = "committee"
)

// Message content kinds.
const (
	MessageKindText  = "text"
	MessageKindImage = "image"
	MessageKindVideo = "video"
)

// Conversation is the durable record of a chat: its kind, roster and
// denormalized last-message summary. The message history lives in the
// messages table and is append-only.
type Conversation struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	Kind         string  `gorm:"size:16;not null;index" json:"kind"`
	PairKey      *string `gorm:"size:64;uniqueIndex" json:"-"`
	CommitteeRef *int64  `gorm:"uniqueIndex:uniq_committee_kind,priority:2" json:"committee_id,omitempty"`
	KindScope    string  `gorm:"size:16;uniqueIndex:uniq_committee_kind,priority:1" json:"-"`
	GroupName    *string `gorm:"size:128" json:"group_name,omitempty"`
	GroupAdminID *int64  `json:"group_admin,omitempty"`

	LastMessageContent    string     `gorm:"type:text" json:"-"`
	LastMessageSenderName string     `gorm:"size:128" json:"-"`
	LastMessageAt         *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Participants []Participant `gorm:"constraint:OnDelete:CASCADE" json:"participants"`
	Messages     []Message     `gorm:"constraint:OnDelete:CASCADE" json:"messages"`
}

// BeforeCreate assigns the opaque conversation identifier and the scope column
// backing the one-conversation-per-committee-and-kind constraint.
func (c *Conversation) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CommitteeRef != nil {
		c.KindScope = c.Kind
	}
	return nil
}

// Participant is one roster entry of a conversation, ordered by join time.
type Participant struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	ConversationID string    `gorm:"size:36;not null;uniqueIndex:uniq_conversation_user,priority:1;index" json:"-"`
	UserID         int64     `gorm:"not null;uniqueIndex:uniq_conversation_user,priority:2;index" json:"user_id"`
	DisplayName    string    `gorm:"size:128;not null" json:"name"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Message is a single append-only entry of a conversation's history.
type Message struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	ConversationID string            `gorm:"size:36;not null;index" json:"-"`
	SenderID       int64             `gorm:"not null;index" json:"sender_id"`
	SenderName     string            `gorm:"size:128;not null" json:"sender_name"`
	Content        string            `gorm:"type:text;not null" json:"content"`
	Kind           string            `gorm:"size:16;default:text" json:"content_kind"`
	SentAt         time.Time         `gorm:"index" json:"sent_at"`
	Metadata       datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
}

// PersonalPairKey derives the lookup key for a personal conversation. The key
// is independent of argument order, which is what makes get-or-create
// idempotent for the unordered pair.
func PersonalPairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("personal:%d:%d", a, b)
}
