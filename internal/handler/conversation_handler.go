package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/eventverse/chat-api/internal/dto"
	"github.com/eventverse/chat-api/internal/models"
	"github.com/eventverse/chat-api/internal/service"
	"github.com/eventverse/chat-api/internal/utils"
)

// ConversationHandler exposes the durable chat endpoints.
type ConversationHandler struct {
	service   service.ConversationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewConversationHandler constructs a handler instance.
func NewConversationHandler(service service.ConversationService, validator *validator.Validate, logger zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "conversation_handler").Logger(),
	}
}

// Register binds the conversation routes.
func (h *ConversationHandler) Register(router fiber.Router) {
	router.Get("/conversations", h.listConversations)
	router.Post("/conversations/group", h.createGroup)
	router.Post("/conversations/personal/:userId", h.getOrCreatePersonal)
	router.Get("/conversations/:id", h.getConversation)
	router.Post("/conversations/:id/messages", h.appendMessage)
	router.Post("/conversations/:id/join", h.joinGroup)
	router.Post("/conversations/:id/leave", h.leaveGroup)

	router.Get("/committees/:committeeId/conversation", h.committeeConversation)
	router.Get("/committees/:committeeId/messages", h.listCommitteeMessages)
	router.Post("/committees/:committeeId/messages", h.appendCommitteeMessage)

	router.Get("/users/search", h.searchUsers)
}

func (h *ConversationHandler) listConversations(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	conversations, err := h.service.ListForUser(withRequestContext(c), userID)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SendSuccess(c, "conversations", conversations)
}

func (h *ConversationHandler) getConversation(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	conversationID := strings.TrimSpace(c.Params("id"))
	if conversationID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "conversation id required")
	}

	conversation, err := h.service.Get(withRequestContext(c), conversationID, userID)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SendSuccess(c, "conversation", conversation)
}

func (h *ConversationHandler) getOrCreatePersonal(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	otherID, err := parseIDParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	conversation, err := h.service.GetOrCreatePersonal(withRequestContext(c), userID, otherID)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SendSuccess(c, "personal conversation", conversation)
}

func (h *ConversationHandler) createGroup(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.CreateGroupRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	conversation, err := h.service.CreateGroup(withRequestContext(c), userID, payload)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "group conversation created", conversation)
}

func (h *ConversationHandler) appendMessage(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	conversationID := strings.TrimSpace(c.Params("id"))
	if conversationID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "conversation id required")
	}

	var payload dto.AppendMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	message, err := h.service.AppendMessage(withRequestContext(c), conversationID, userID, payload)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

func (h *ConversationHandler) joinGroup(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	conversationID := strings.TrimSpace(c.Params("id"))
	if conversationID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "conversation id required")
	}

	conversation, err := h.service.JoinGroup(withRequestContext(c), conversationID, userID)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SendSuccess(c, "joined group", conversation)
}

func (h *ConversationHandler) leaveGroup(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	conversationID := strings.TrimSpace(c.Params("id"))
	if conversationID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "conversation id required")
	}

	if err := h.service.LeaveGroup(withRequestContext(c), conversationID, userID); err != nil {
		return h.respondError(c, err)
	}
	return utils.SendSuccess(c, "left group", nil)
}

func (h *ConversationHandler) committeeConversation(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	committeeID, err := parseIDParam(c, "committeeId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid committee id")
	}

	kind := strings.TrimSpace(c.Query("kind", models.KindCommittee))

	conversation, err := h.service.GetOrCreateCommitteeConversation(withRequestContext(c), committeeID, userID, kind)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SendSuccess(c, "committee conversation", conversation)
}

func (h *ConversationHandler) listCommitteeMessages(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	committeeID, err := parseIDParam(c, "committeeId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid committee id")
	}

	messages, err := h.service.ListCommitteeMessages(withRequestContext(c), committeeID)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SendSuccess(c, "committee messages", messages)
}

func (h *ConversationHandler) appendCommitteeMessage(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	committeeID, err := parseIDParam(c, "committeeId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid committee id")
	}

	var payload dto.CommitteeMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if payload.SenderID != userID {
		return utils.SendError(c, fiber.StatusForbidden, "sender does not match authenticated user")
	}

	message, err := h.service.AppendCommitteeMessage(withRequestContext(c), committeeID, userID, payload.Message)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "committee message sent", message)
}

func (h *ConversationHandler) searchUsers(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	users, err := h.service.SearchUsers(withRequestContext(c), c.Query("q"), userID)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SendSuccess(c, "users", users)
}

func (h *ConversationHandler) respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUpstream):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	default:
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled service error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
