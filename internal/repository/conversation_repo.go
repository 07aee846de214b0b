package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventverse/chat-api/internal/models"
)

// RosterDelta describes the participant changes a reconciliation computed.
type RosterDelta struct {
	Add           []models.Participant
	RemoveUserIDs []int64
}

// Empty reports whether the delta changes nothing.
func (d RosterDelta) Empty() bool {
	return len(d.Add) == 0 && len(d.RemoveUserIDs) == 0
}

// ConversationRepository persists conversations, rosters and message history.
// Composite mutations run inside a single transaction so the message insert
// and the denormalized last-message summary can never diverge.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	FindByID(ctx context.Context, id string) (models.Conversation, error)
	FindByPairKey(ctx context.Context, pairKey string) (models.Conversation, error)
	FindByCommittee(ctx context.Context, committeeID int64, kind string) (models.Conversation, error)
	ListByParticipant(ctx context.Context, userID int64) ([]models.Conversation, error)
	ListCommitteeMessages(ctx context.Context, committeeID int64) ([]models.Message, error)
	AppendMessage(ctx context.Context, conversationID string, message *models.Message) error
	ApplyRosterDelta(ctx context.Context, conversationID string, delta RosterDelta) error
	AddParticipantWithMessage(ctx context.Context, conversationID string, participant models.Participant, announcement *models.Message) error
	RemoveParticipantWithMessages(ctx context.Context, conversationID string, userID int64, announcements []models.Message, newAdminID *int64) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository constructs a conversation repository backed by GORM.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r *conversationRepository) FindByID(ctx context.Context, id string) (models.Conversation, error) {
	var conversation models.Conversation
	err := r.preloaded(ctx).First(&conversation, "id = ?", id).Error
	if err != nil {
		return models.Conversation{}, err
	}
	return conversation, nil
}

func (r *conversationRepository) FindByPairKey(ctx context.Context, pairKey string) (models.Conversation, error) {
	var conversation models.Conversation
	err := r.preloaded(ctx).First(&conversation, "pair_key = ?", pairKey).Error
	if err != nil {
		return models.Conversation{}, err
	}
	return conversation, nil
}

func (r *conversationRepository) FindByCommittee(ctx context.Context, committeeID int64, kind string) (models.Conversation, error) {
	var conversation models.Conversation
	err := r.preloaded(ctx).
		Where("committee_ref = ? AND kind = ?", committeeID, kind).
		First(&conversation).Error
	if err != nil {
		return models.Conversation{}, err
	}
	return conversation, nil
}

func (r *conversationRepository) ListByParticipant(ctx context.Context, userID int64) ([]models.Conversation, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Conversation{}, nil
	}

	var conversations []models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants", participantOrder).
		Where("id IN ?", ids).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *conversationRepository) ListCommitteeMessages(ctx context.Context, committeeID int64) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("conversations.committee_ref = ? AND conversations.kind = ?", committeeID, models.KindCommittee).
		Order("messages.sent_at ASC, messages.id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *conversationRepository) AppendMessage(ctx context.Context, conversationID string, message *models.Message) error {
	message.ConversationID = conversationID
	if message.SentAt.IsZero() {
		message.SentAt = time.Now().UTC()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Updates(map[string]interface{}{
				"last_message_content":     message.Content,
				"last_message_sender_name": message.SenderName,
				"last_message_at":          message.SentAt,
				"updated_at":               message.SentAt,
			}).Error
	})
}

func (r *conversationRepository) ApplyRosterDelta(ctx context.Context, conversationID string, delta RosterDelta) error {
	if delta.Empty() {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(delta.Add) > 0 {
			for i := range delta.Add {
				delta.Add[i].ConversationID = conversationID
				if delta.Add[i].JoinedAt.IsZero() {
					delta.Add[i].JoinedAt = time.Now().UTC()
				}
			}
			// A concurrent reconciliation may have inserted the same member.
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&delta.Add).Error; err != nil {
				return err
			}
		}
		if len(delta.RemoveUserIDs) > 0 {
			if err := tx.
				Where("conversation_id = ? AND user_id IN ?", conversationID, delta.RemoveUserIDs).
				Delete(&models.Participant{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *conversationRepository) AddParticipantWithMessage(ctx context.Context, conversationID string, participant models.Participant, announcement *models.Message) error {
	participant.ConversationID = conversationID
	if participant.JoinedAt.IsZero() {
		participant.JoinedAt = time.Now().UTC()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}
		if announcement == nil {
			return nil
		}
		return appendInTx(tx, conversationID, announcement)
	})
}

func (r *conversationRepository) RemoveParticipantWithMessages(ctx context.Context, conversationID string, userID int64, announcements []models.Message, newAdminID *int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		for i := range announcements {
			if err := appendInTx(tx, conversationID, &announcements[i]); err != nil {
				return err
			}
		}
		if newAdminID != nil {
			if err := tx.Model(&models.Conversation{}).
				Where("id = ?", conversationID).
				Update("group_admin_id", *newAdminID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *conversationRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Participants", participantOrder).
		Preload("Messages", messageOrder)
}

func appendInTx(tx *gorm.DB, conversationID string, message *models.Message) error {
	message.ConversationID = conversationID
	if message.SentAt.IsZero() {
		message.SentAt = time.Now().UTC()
	}
	if err := tx.Create(message).Error; err != nil {
		return err
	}
	return tx.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{
			"last_message_content":     message.Content,
			"last_message_sender_name": message.SenderName,
			"last_message_at":          message.SentAt,
			"updated_at":               message.SentAt,
		}).Error
}

func participantOrder(db *gorm.DB) *gorm.DB {
	return db.Order("joined_at ASC, id ASC")
}

func messageOrder(db *gorm.DB) *gorm.DB {
	return db.Order("sent_at ASC, id ASC")
}
