package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/eventverse/chat-api/internal/dto"
	"github.com/eventverse/chat-api/internal/models"
	"github.com/eventverse/chat-api/internal/observability"
	"github.com/eventverse/chat-api/internal/realtime"
	"github.com/eventverse/chat-api/internal/repository"
)

const userSearchLimit = 10

// Broadcaster publishes transient events into the realtime fabric. The hub
// satisfies it; tests substitute a recorder.
type Broadcaster interface {
	Publish(room string, event realtime.Event)
	BroadcastToUser(userID int64, event realtime.Event)
}

// ConversationService owns the durable chat semantics: conversation
// lifecycles, roster reconciliation against committee membership, and
// message history.
type ConversationService interface {
	ListForUser(ctx context.Context, userID int64) ([]dto.ConversationSummaryResponse, error)
	Get(ctx context.Context, conversationID string, requesterID int64) (dto.ConversationResponse, error)
	GetOrCreatePersonal(ctx context.Context, userA, userB int64) (dto.ConversationResponse, error)
	CreateGroup(ctx context.Context, creatorID int64, payload dto.CreateGroupRequest) (dto.ConversationResponse, error)
	GetOrCreateCommitteeConversation(ctx context.Context, committeeID, requesterID int64, kind string) (dto.ConversationResponse, error)
	AppendMessage(ctx context.Context, conversationID string, senderID int64, payload dto.AppendMessageRequest) (dto.MessageResponse, error)
	AppendCommitteeMessage(ctx context.Context, committeeID, senderID int64, message string) (dto.CommitteeMessageResponse, error)
	ListCommitteeMessages(ctx context.Context, committeeID int64) ([]dto.CommitteeMessageResponse, error)
	JoinGroup(ctx context.Context, conversationID string, userID int64) (dto.ConversationResponse, error)
	LeaveGroup(ctx context.Context, conversationID string, userID int64) error
	SearchUsers(ctx context.Context, query string, requesterID int64) ([]dto.UserSearchResponse, error)
}

type conversationService struct {
	conversations repository.ConversationRepository
	directory     repository.DirectoryRepository
	notifier      Notifier
	broadcaster   Broadcaster
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewConversationService wires the conversation store, the directory reader
// and the optional side channels. A nil notifier or broadcaster disables that
// side channel without changing the durable semantics.
func NewConversationService(
	conversations repository.ConversationRepository,
	directory repository.DirectoryRepository,
	notifier Notifier,
	broadcaster Broadcaster,
	logger zerolog.Logger,
) ConversationService {
	return &conversationService{
		conversations: conversations,
		directory:     directory,
		notifier:      notifier,
		broadcaster:   broadcaster,
		validator:     validator.New(),
		sanitizer:     bluemonday.UGCPolicy(),
		logger:        logger.With().Str("component", "conversation_service").Logger(),
		tracer:        otel.Tracer("eventverse/chat"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *conversationService) ListForUser(ctx context.Context, userID int64) ([]dto.ConversationSummaryResponse, error) {
	conversations, err := s.conversations.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewConversationSummaryResponseSlice(conversations), nil
}

func (s *conversationService) Get(ctx context.Context, conversationID string, requesterID int64) (dto.ConversationResponse, error) {
	conversation, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ConversationResponse{}, notFoundError("conversation")
		}
		return dto.ConversationResponse{}, err
	}
	if findParticipant(conversation.Participants, requesterID) == nil {
		return dto.ConversationResponse{}, forbiddenError("requester is not a participant")
	}
	return dto.NewConversationResponse(conversation), nil
}

func (s *conversationService) GetOrCreatePersonal(ctx context.Context, userA, userB int64) (dto.ConversationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.personal",
		trace.WithAttributes(attribute.Int64("chat.user_a", userA), attribute.Int64("chat.user_b", userB)))
	defer span.End()

	if userA == userB {
		return dto.ConversationResponse{}, validationError("a personal conversation needs two distinct users")
	}

	first, err := s.resolveUser(ctx, userA)
	if err != nil {
		return dto.ConversationResponse{}, err
	}
	second, err := s.resolveUser(ctx, userB)
	if err != nil {
		return dto.ConversationResponse{}, err
	}

	pairKey := models.PersonalPairKey(userA, userB)
	existing, err := s.conversations.FindByPairKey(ctx, pairKey)
	if err == nil {
		return dto.NewConversationResponse(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ConversationResponse{}, err
	}

	joinedAt := s.now()
	conversation := models.Conversation{
		Kind:    models.KindPersonal,
		PairKey: &pairKey,
		Participants: []models.Participant{
			{UserID: first.ID, DisplayName: first.Name, JoinedAt: joinedAt},
			{UserID: second.ID, DisplayName: second.Name, JoinedAt: joinedAt},
		},
	}
	if err := s.conversations.Create(ctx, &conversation); err != nil {
		// A concurrent request for the same pair may have won the unique
		// pair_key race. The loser returns the winner's conversation.
		if raced, rerr := s.conversations.FindByPairKey(ctx, pairKey); rerr == nil {
			return dto.NewConversationResponse(raced), nil
		}
		return dto.ConversationResponse{}, err
	}

	observability.ConversationsCreated().WithLabelValues(models.KindPersonal).Inc()
	s.logger.Info().
		Str("conversation_id", conversation.ID).
		Int64("user_a", userA).
		Int64("user_b", userB).
		Msg("personal conversation created")

	return s.freshResponse(ctx, conversation.ID)
}

func (s *conversationService) CreateGroup(ctx context.Context, creatorID int64, payload dto.CreateGroupRequest) (dto.ConversationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.create_group",
		trace.WithAttributes(attribute.Int64("chat.creator_id", creatorID)))
	defer span.End()

	if err := s.validator.Struct(&payload); err != nil {
		return dto.ConversationResponse{}, validationError(err.Error())
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(payload.Name))
	if name == "" {
		return dto.ConversationResponse{}, validationError("group name is required")
	}

	creator, err := s.resolveUser(ctx, creatorID)
	if err != nil {
		return dto.ConversationResponse{}, err
	}

	memberIDs := dedupeIDs(payload.MemberIDs, creatorID)
	if len(memberIDs) == 0 {
		return dto.ConversationResponse{}, validationError("a group needs at least one member besides the creator")
	}
	members, err := s.directory.FindUsers(ctx, memberIDs)
	if err != nil {
		return dto.ConversationResponse{}, upstreamError("user directory", err)
	}
	if len(members) != len(memberIDs) {
		return dto.ConversationResponse{}, validationError("one or more members do not exist")
	}

	joinedAt := s.now()
	participants := make([]models.Participant, 0, len(members)+1)
	participants = append(participants, models.Participant{UserID: creator.ID, DisplayName: creator.Name, JoinedAt: joinedAt})
	for _, member := range members {
		participants = append(participants, models.Participant{UserID: member.ID, DisplayName: member.Name, JoinedAt: joinedAt})
	}

	conversation := models.Conversation{
		Kind:         models.KindGroup,
		GroupName:    &name,
		GroupAdminID: &creator.ID,
		Participants: participants,
	}
	if err := s.conversations.Create(ctx, &conversation); err != nil {
		return dto.ConversationResponse{}, err
	}

	seed := models.Message{
		SenderID:   creator.ID,
		SenderName: creator.Name,
		Content:    fmt.Sprintf("%s created the group %q", creator.Name, name),
		Kind:       models.MessageKindText,
		SentAt:     joinedAt,
	}
	if err := s.conversations.AppendMessage(ctx, conversation.ID, &seed); err != nil {
		return dto.ConversationResponse{}, err
	}

	for _, member := range members {
		invite := fmt.Sprintf("%s added you to the group %q", creator.Name, name)
		if err := s.notify(ctx, member.ID, creator.ID, "group_chat_invite", invite); err != nil {
			s.logger.Warn().Err(err).
				Int64("recipient_id", member.ID).
				Str("conversation_id", conversation.ID).
				Msg("group invite notification failed")
		}
	}

	observability.ConversationsCreated().WithLabelValues(models.KindGroup).Inc()
	s.logger.Info().
		Str("conversation_id", conversation.ID).
		Int64("creator_id", creatorID).
		Int("members", len(participants)).
		Msg("group conversation created")

	return s.freshResponse(ctx, conversation.ID)
}

func (s *conversationService) GetOrCreateCommitteeConversation(ctx context.Context, committeeID, requesterID int64, kind string) (dto.ConversationResponse, error) {
	conversation, _, err := s.committeeConversation(ctx, committeeID, requesterID, kind)
	if err != nil {
		return dto.ConversationResponse{}, err
	}
	return dto.NewConversationResponse(conversation), nil
}

func (s *conversationService) AppendMessage(ctx context.Context, conversationID string, senderID int64, payload dto.AppendMessageRequest) (dto.MessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.append_message",
		trace.WithAttributes(
			attribute.String("chat.conversation_id", conversationID),
			attribute.Int64("chat.sender_id", senderID),
		))
	defer span.End()

	if err := s.validator.Struct(&payload); err != nil {
		return dto.MessageResponse{}, validationError(err.Error())
	}

	kind := payload.ContentKind
	if kind == "" {
		kind = models.MessageKindText
	}
	content := payload.Content
	if kind == models.MessageKindText {
		content = strings.TrimSpace(s.sanitizer.Sanitize(content))
	}
	if content == "" {
		return dto.MessageResponse{}, validationError("message content is required")
	}
	if err := validateContentKind(content, kind); err != nil {
		return dto.MessageResponse{}, err
	}

	conversation, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MessageResponse{}, notFoundError("conversation")
		}
		return dto.MessageResponse{}, err
	}
	sender := findParticipant(conversation.Participants, senderID)
	if sender == nil {
		return dto.MessageResponse{}, forbiddenError("sender is not a participant")
	}

	message := models.Message{
		SenderID:   sender.UserID,
		SenderName: sender.DisplayName,
		Content:    content,
		Kind:       kind,
		SentAt:     s.now(),
	}
	if err := s.conversations.AppendMessage(ctx, conversationID, &message); err != nil {
		return dto.MessageResponse{}, err
	}

	observability.MessagesAppended().WithLabelValues(conversation.Kind).Inc()
	return dto.NewMessageResponse(message), nil
}

func (s *conversationService) AppendCommitteeMessage(ctx context.Context, committeeID, senderID int64, message string) (dto.CommitteeMessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.append_committee_message",
		trace.WithAttributes(
			attribute.Int64("chat.committee_id", committeeID),
			attribute.Int64("chat.sender_id", senderID),
		))
	defer span.End()

	content := strings.TrimSpace(s.sanitizer.Sanitize(message))
	if content == "" {
		return dto.CommitteeMessageResponse{}, validationError("message content is required")
	}

	conversation, members, err := s.committeeConversation(ctx, committeeID, senderID, models.KindCommittee)
	if err != nil {
		return dto.CommitteeMessageResponse{}, err
	}

	senderName := ""
	for _, member := range members {
		if member.ID == senderID {
			senderName = member.Name
			break
		}
	}

	stored := models.Message{
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		Kind:       models.MessageKindText,
		SentAt:     s.now(),
	}
	if err := s.conversations.AppendMessage(ctx, conversation.ID, &stored); err != nil {
		return dto.CommitteeMessageResponse{}, err
	}

	observability.MessagesAppended().WithLabelValues(models.KindCommittee).Inc()
	return dto.NewCommitteeMessageResponse(stored, committeeID), nil
}

func (s *conversationService) ListCommitteeMessages(ctx context.Context, committeeID int64) ([]dto.CommitteeMessageResponse, error) {
	messages, err := s.conversations.ListCommitteeMessages(ctx, committeeID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CommitteeMessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, dto.NewCommitteeMessageResponse(message, committeeID))
	}
	return out, nil
}

func (s *conversationService) JoinGroup(ctx context.Context, conversationID string, userID int64) (dto.ConversationResponse, error) {
	conversation, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ConversationResponse{}, notFoundError("group conversation")
		}
		return dto.ConversationResponse{}, err
	}
	if conversation.Kind != models.KindGroup {
		return dto.ConversationResponse{}, notFoundError("group conversation")
	}
	if findParticipant(conversation.Participants, userID) != nil {
		return dto.ConversationResponse{}, conflictError("already a participant")
	}

	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return dto.ConversationResponse{}, err
	}

	now := s.now()
	participant := models.Participant{UserID: user.ID, DisplayName: user.Name, JoinedAt: now}
	announcement := models.Message{
		SenderID:   user.ID,
		SenderName: user.Name,
		Content:    fmt.Sprintf("%s joined the group", user.Name),
		Kind:       models.MessageKindText,
		SentAt:     now,
	}
	if err := s.conversations.AddParticipantWithMessage(ctx, conversationID, participant, &announcement); err != nil {
		// A concurrent join for the same user may have won the unique
		// participant race between our read and this insert.
		if raced, rerr := s.conversations.FindByID(ctx, conversationID); rerr == nil {
			if findParticipant(raced.Participants, userID) != nil {
				return dto.ConversationResponse{}, conflictError("already a participant")
			}
		}
		return dto.ConversationResponse{}, err
	}

	s.broadcast(realtime.ChatRoom(conversationID), realtime.Event{
		Name: realtime.EventUserJoinedChat,
		Payload: dto.ChatMembershipEvent{
			UserID:         user.ID,
			UserName:       user.Name,
			ConversationID: conversationID,
		},
	})

	s.logger.Info().
		Str("conversation_id", conversationID).
		Int64("user_id", userID).
		Msg("user joined group")
	return s.freshResponse(ctx, conversationID)
}

func (s *conversationService) LeaveGroup(ctx context.Context, conversationID string, userID int64) error {
	conversation, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("group conversation")
		}
		return err
	}
	if conversation.Kind != models.KindGroup {
		return notFoundError("group conversation")
	}

	leaver := findParticipant(conversation.Participants, userID)
	if leaver == nil {
		// Leaving a group you are not in is not an error.
		return nil
	}

	now := s.now()
	announcements := []models.Message{{
		SenderID:   leaver.UserID,
		SenderName: leaver.DisplayName,
		Content:    fmt.Sprintf("%s left the group", leaver.DisplayName),
		Kind:       models.MessageKindText,
		SentAt:     now,
	}}

	var newAdminID *int64
	if conversation.GroupAdminID != nil && *conversation.GroupAdminID == userID {
		// Hand the group to the earliest remaining participant. Participants
		// are preloaded in join order.
		for i := range conversation.Participants {
			successor := conversation.Participants[i]
			if successor.UserID == userID {
				continue
			}
			newAdminID = &successor.UserID
			announcements = append(announcements, models.Message{
				SenderID:   successor.UserID,
				SenderName: successor.DisplayName,
				Content:    fmt.Sprintf("%s is now the group admin", successor.DisplayName),
				Kind:       models.MessageKindText,
				SentAt:     now,
			})
			break
		}
	}

	if err := s.conversations.RemoveParticipantWithMessages(ctx, conversationID, userID, announcements, newAdminID); err != nil {
		return err
	}

	s.broadcast(realtime.ChatRoom(conversationID), realtime.Event{
		Name: realtime.EventUserLeftChat,
		Payload: dto.ChatMembershipEvent{
			UserID:         leaver.UserID,
			UserName:       leaver.DisplayName,
			ConversationID: conversationID,
		},
	})

	s.logger.Info().
		Str("conversation_id", conversationID).
		Int64("user_id", userID).
		Bool("admin_promoted", newAdminID != nil).
		Msg("user left group")
	return nil
}

func (s *conversationService) SearchUsers(ctx context.Context, query string, requesterID int64) ([]dto.UserSearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validationError("search query is required")
	}
	users, err := s.directory.SearchUsers(ctx, query, requesterID, userSearchLimit)
	if err != nil {
		return nil, upstreamError("user directory", err)
	}
	return dto.NewUserSearchResponseSlice(users), nil
}

// committeeConversation resolves the committee roster, finds or creates the
// conversation of the given kind, and reconciles the stored roster against
// the resolved membership. Reconciliation runs on every access so membership
// drift self-heals the next time anyone touches the committee chat.
func (s *conversationService) committeeConversation(ctx context.Context, committeeID, requesterID int64, kind string) (models.Conversation, []models.User, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.committee",
		trace.WithAttributes(
			attribute.Int64("chat.committee_id", committeeID),
			attribute.String("chat.kind", kind),
		))
	defer span.End()

	if kind != models.KindCommittee && kind != models.KindGroup {
		return models.Conversation{}, nil, validationError("unknown committee conversation kind")
	}

	members, err := s.directory.CommitteeMembers(ctx, committeeID)
	if err != nil {
		return models.Conversation{}, nil, upstreamError("membership resolver", err)
	}
	if len(members) == 0 {
		return models.Conversation{}, nil, notFoundError("committee membership")
	}

	var head models.User
	if kind == models.KindGroup {
		head, err = s.directory.CommitteeHead(ctx, committeeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Conversation{}, nil, notFoundError("committee")
			}
			return models.Conversation{}, nil, upstreamError("membership resolver", err)
		}
		if !containsUser(members, head.ID) {
			members = append([]models.User{head}, members...)
		}
	}

	if !containsUser(members, requesterID) {
		return models.Conversation{}, nil, forbiddenError("requester is not a committee member")
	}

	conversation, err := s.conversations.FindByCommittee(ctx, committeeID, kind)
	switch {
	case err == nil:
		if err := s.reconcileRoster(ctx, &conversation, members); err != nil {
			return models.Conversation{}, nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		conversation, err = s.createCommitteeConversation(ctx, committeeID, kind, members, head)
		if err != nil {
			return models.Conversation{}, nil, err
		}
	default:
		return models.Conversation{}, nil, err
	}

	fresh, err := s.conversations.FindByID(ctx, conversation.ID)
	if err != nil {
		return models.Conversation{}, nil, err
	}
	return fresh, members, nil
}

func (s *conversationService) createCommitteeConversation(ctx context.Context, committeeID int64, kind string, members []models.User, head models.User) (models.Conversation, error) {
	joinedAt := s.now()
	participants := make([]models.Participant, 0, len(members))
	for _, member := range members {
		participants = append(participants, models.Participant{UserID: member.ID, DisplayName: member.Name, JoinedAt: joinedAt})
	}

	conversation := models.Conversation{
		Kind:         kind,
		CommitteeRef: &committeeID,
		Participants: participants,
	}
	if kind == models.KindGroup {
		name := fmt.Sprintf("Committee Group %d", committeeID)
		conversation.GroupName = &name
		conversation.GroupAdminID = &head.ID
	}

	if err := s.conversations.Create(ctx, &conversation); err != nil {
		// Lost the create race against a concurrent access. Reconcile on the
		// winner's row instead.
		raced, rerr := s.conversations.FindByCommittee(ctx, committeeID, kind)
		if rerr != nil {
			return models.Conversation{}, err
		}
		if rerr := s.reconcileRoster(ctx, &raced, members); rerr != nil {
			return models.Conversation{}, rerr
		}
		return raced, nil
	}

	if kind == models.KindGroup {
		welcome := models.Message{
			SenderID:   head.ID,
			SenderName: head.Name,
			Content:    "Group chat created for committee members.",
			Kind:       models.MessageKindText,
			SentAt:     joinedAt,
		}
		if err := s.conversations.AppendMessage(ctx, conversation.ID, &welcome); err != nil {
			return models.Conversation{}, err
		}
	}

	observability.ConversationsCreated().WithLabelValues(kind).Inc()
	s.logger.Info().
		Str("conversation_id", conversation.ID).
		Int64("committee_id", committeeID).
		Str("kind", kind).
		Int("members", len(participants)).
		Msg("committee conversation created")
	return conversation, nil
}

func (s *conversationService) reconcileRoster(ctx context.Context, conversation *models.Conversation, members []models.User) error {
	want := make(map[int64]models.User, len(members))
	for _, member := range members {
		want[member.ID] = member
	}
	current := make(map[int64]models.Participant, len(conversation.Participants))
	for _, participant := range conversation.Participants {
		current[participant.UserID] = participant
	}

	var delta repository.RosterDelta
	joinedAt := s.now()
	for _, member := range members {
		if _, ok := current[member.ID]; !ok {
			delta.Add = append(delta.Add, models.Participant{
				UserID:      member.ID,
				DisplayName: member.Name,
				JoinedAt:    joinedAt,
			})
		}
	}
	for userID := range current {
		if _, ok := want[userID]; !ok {
			delta.RemoveUserIDs = append(delta.RemoveUserIDs, userID)
		}
	}

	if delta.Empty() {
		observability.RosterReconciliations().WithLabelValues("unchanged").Inc()
		return nil
	}

	if err := s.conversations.ApplyRosterDelta(ctx, conversation.ID, delta); err != nil {
		return err
	}

	room := realtime.ChatRoom(conversation.ID)
	for _, added := range delta.Add {
		s.broadcast(room, realtime.Event{
			Name: realtime.EventUserJoinedChat,
			Payload: dto.ChatMembershipEvent{
				UserID:         added.UserID,
				UserName:       added.DisplayName,
				ConversationID: conversation.ID,
			},
		})
	}
	for _, removedID := range delta.RemoveUserIDs {
		s.broadcast(room, realtime.Event{
			Name: realtime.EventUserLeftChat,
			Payload: dto.ChatMembershipEvent{
				UserID:         removedID,
				UserName:       current[removedID].DisplayName,
				ConversationID: conversation.ID,
			},
		})
	}

	observability.RosterReconciliations().WithLabelValues("changed").Inc()
	s.logger.Info().
		Str("conversation_id", conversation.ID).
		Int("added", len(delta.Add)).
		Int("removed", len(delta.RemoveUserIDs)).
		Msg("roster reconciled")
	return nil
}

func (s *conversationService) freshResponse(ctx context.Context, conversationID string) (dto.ConversationResponse, error) {
	conversation, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return dto.ConversationResponse{}, err
	}
	return dto.NewConversationResponse(conversation), nil
}

func (s *conversationService) resolveUser(ctx context.Context, id int64) (models.User, error) {
	user, err := s.directory.FindUser(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, notFoundError("user")
		}
		return models.User{}, upstreamError("user directory", err)
	}
	return user, nil
}

func (s *conversationService) notify(ctx context.Context, recipientID, senderID int64, kind, message string) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.Notify(ctx, recipientID, senderID, kind, message)
}

func (s *conversationService) broadcast(room string, event realtime.Event) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(room, event)
}

// validateContentKind rejects media messages whose payload does not match the
// declared kind. URLs are accepted as-is; data URIs are sniffed.
func validateContentKind(content, kind string) error {
	switch kind {
	case models.MessageKindText:
		return nil
	case models.MessageKindImage, models.MessageKindVideo:
	default:
		return validationError("unknown content kind")
	}

	if strings.HasPrefix(content, "http://") || strings.HasPrefix(content, "https://") {
		return nil
	}
	if !strings.HasPrefix(content, "data:") {
		return validationError("media content must be a URL or a data URI")
	}
	comma := strings.IndexByte(content, ',')
	if comma < 0 {
		return validationError("malformed data URI")
	}

	encoded := content[comma+1:]
	// The sniffer only needs the leading bytes.
	if len(encoded) > 4096 {
		encoded = encoded[:4096]
	}
	raw, err := base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return validationError("malformed data URI payload")
	}

	detected := mimetype.Detect(raw)
	want := kind + "/"
	if !strings.HasPrefix(detected.String(), want) {
		return validationError(fmt.Sprintf("content does not look like %s", kind))
	}
	return nil
}

func findParticipant(participants []models.Participant, userID int64) *models.Participant {
	for i := range participants {
		if participants[i].UserID == userID {
			return &participants[i]
		}
	}
	return nil
}

func containsUser(users []models.User, id int64) bool {
	for _, user := range users {
		if user.ID == id {
			return true
		}
	}
	return false
}

func dedupeIDs(ids []int64, exclude int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
