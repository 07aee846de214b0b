package dto

import (
	"time"

	"github.com/eventverse/chat-api/internal/models"
)

// CreateGroupRequest is the payload to create a group conversation.
type CreateGroupRequest struct {
	Name      string  `json:"name" validate:"required,min=1,max=128"`
	MemberIDs []int64 `json:"member_ids" validate:"required,min=1,dive,gt=0"`
}

// AppendMessageRequest is the payload to append a message to a conversation.
type AppendMessageRequest struct {
	Content     string `json:"content" validate:"required,min=1,max=4000"`
	ContentKind string `json:"content_kind" validate:"omitempty,oneof=text image video"`
}

// CommitteeMessageRequest is the payload to append a committee message. The
// sender id travels in the body and must match the authenticated identity.
type CommitteeMessageRequest struct {
	SenderID int64  `json:"sender_id" validate:"required,gt=0"`
	Message  string `json:"message" validate:"required,min=1,max=4000"`
}

// ParticipantResponse is one roster entry returned to clients.
type ParticipantResponse struct {
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"name"`
	JoinedAt    time.Time `json:"joined_at"`
}

// MessageResponse is the serialized representation of a stored message.
type MessageResponse struct {
	ID          uint      `json:"id"`
	SenderID    int64     `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	Content     string    `json:"content"`
	ContentKind string    `json:"content_kind"`
	SentAt      time.Time `json:"sent_at"`
}

// CommitteeMessageResponse tags a message with the committee it belongs to.
type CommitteeMessageResponse struct {
	MessageResponse
	CommitteeID int64 `json:"committee_id"`
}

// LastMessageSummary is the denormalized preview of the latest message.
type LastMessageSummary struct {
	Content    string    `json:"content"`
	SenderName string    `json:"sender_name"`
	SentAt     time.Time `json:"sent_at"`
}

// ConversationResponse is the full serialized conversation.
type ConversationResponse struct {
	ID           string                `json:"id"`
	Kind         string                `json:"kind"`
	CommitteeID  *int64                `json:"committee_id,omitempty"`
	GroupName    *string               `json:"group_name,omitempty"`
	GroupAdminID *int64                `json:"group_admin,omitempty"`
	Participants []ParticipantResponse `json:"participants"`
	Messages     []MessageResponse     `json:"messages"`
	LastMessage  *LastMessageSummary   `json:"last_message,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// ConversationSummaryResponse is the list form without message history.
type ConversationSummaryResponse struct {
	ID           string                `json:"id"`
	Kind         string                `json:"kind"`
	CommitteeID  *int64                `json:"committee_id,omitempty"`
	GroupName    *string               `json:"group_name,omitempty"`
	GroupAdminID *int64                `json:"group_admin,omitempty"`
	Participants []ParticipantResponse `json:"participants"`
	LastMessage  *LastMessageSummary   `json:"last_message,omitempty"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// UserSearchResponse is one row of the chat user picker.
type UserSearchResponse struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// NewParticipantResponse converts a roster model into a DTO.
func NewParticipantResponse(participant models.Participant) ParticipantResponse {
	return ParticipantResponse{
		UserID:      participant.UserID,
		DisplayName: participant.DisplayName,
		JoinedAt:    participant.JoinedAt,
	}
}

// NewParticipantResponseSlice converts a roster into DTOs.
func NewParticipantResponseSlice(participants []models.Participant) []ParticipantResponse {
	out := make([]ParticipantResponse, 0, len(participants))
	for _, participant := range participants {
		out = append(out, NewParticipantResponse(participant))
	}
	return out
}

// NewMessageResponse converts a message model into a DTO.
func NewMessageResponse(message models.Message) MessageResponse {
	return MessageResponse{
		ID:          message.ID,
		SenderID:    message.SenderID,
		SenderName:  message.SenderName,
		Content:     message.Content,
		ContentKind: message.Kind,
		SentAt:      message.SentAt,
	}
}

// NewMessageResponseSlice converts messages into DTOs.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewMessageResponse(message))
	}
	return out
}

// NewCommitteeMessageResponse tags a message DTO with its committee.
func NewCommitteeMessageResponse(message models.Message, committeeID int64) CommitteeMessageResponse {
	return CommitteeMessageResponse{
		MessageResponse: NewMessageResponse(message),
		CommitteeID:     committeeID,
	}
}

// NewConversationResponse converts a conversation and its preloaded
// associations into the full DTO.
func NewConversationResponse(conversation models.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:           conversation.ID,
		Kind:         conversation.Kind,
		CommitteeID:  conversation.CommitteeRef,
		GroupName:    conversation.GroupName,
		GroupAdminID: conversation.GroupAdminID,
		Participants: NewParticipantResponseSlice(conversation.Participants),
		Messages:     NewMessageResponseSlice(conversation.Messages),
		LastMessage:  newLastMessageSummary(conversation),
		CreatedAt:    conversation.CreatedAt,
		UpdatedAt:    conversation.UpdatedAt,
	}
}

// NewConversationSummaryResponse converts a conversation into its list form.
func NewConversationSummaryResponse(conversation models.Conversation) ConversationSummaryResponse {
	return ConversationSummaryResponse{
		ID:           conversation.ID,
		Kind:         conversation.Kind,
		CommitteeID:  conversation.CommitteeRef,
		GroupName:    conversation.GroupName,
		GroupAdminID: conversation.GroupAdminID,
		Participants: NewParticipantResponseSlice(conversation.Participants),
		LastMessage:  newLastMessageSummary(conversation),
		UpdatedAt:    conversation.UpdatedAt,
	}
}

// NewConversationSummaryResponseSlice converts conversations into list DTOs.
func NewConversationSummaryResponseSlice(conversations []models.Conversation) []ConversationSummaryResponse {
	out := make([]ConversationSummaryResponse, 0, len(conversations))
	for _, conversation := range conversations {
		out = append(out, NewConversationSummaryResponse(conversation))
	}
	return out
}

// NewUserSearchResponseSlice converts directory users into picker rows.
func NewUserSearchResponseSlice(users []models.User) []UserSearchResponse {
	out := make([]UserSearchResponse, 0, len(users))
	for _, user := range users {
		out = append(out, UserSearchResponse{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Role:   user.Role,
		})
	}
	return out
}

func newLastMessageSummary(conversation models.Conversation) *LastMessageSummary {
	if conversation.LastMessageAt == nil {
		return nil
	}
	return &LastMessageSummary{
		Content:    conversation.LastMessageContent,
		SenderName: conversation.LastMessageSenderName,
		SentAt:     *conversation.LastMessageAt,
	}
}
