package models

import "time"

// User mirrors the platform's relational user record. The chat service only
// reads id and display name; account management lives elsewhere.
type User struct {
	ID    int64  `gorm:"primaryKey;column:user_id" json:"user_id"`
	Name  string `gorm:"size:128;not null" json:"name"`
	Email string `gorm:"size:255" json:"email"`
	Role  string `gorm:"size:32" json:"role"`
}

// Committee mirrors the platform's committee record.
type Committee struct {
	ID     int64  `gorm:"primaryKey;column:committee_id" json:"committee_id"`
	Name   string `gorm:"size:128" json:"name"`
	HeadID int64  `gorm:"column:head_id" json:"head_id"`
}

// CommitteeMember links a user to a committee. The membership table is the
// authoritative roster source for committee conversations.
type CommitteeMember struct {
	CommitteeID int64 `gorm:"primaryKey;column:committee_id" json:"committee_id"`
	UserID      int64 `gorm:"primaryKey;column:user_id" json:"user_id"`
}

// Notification is the write-only sink record for chat-originated notices,
// such as group invites.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	SenderID  int64     `gorm:"index" json:"sender_id"`
	Type      string    `gorm:"size:64" json:"type"`
	Message   string    `gorm:"type:text" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
