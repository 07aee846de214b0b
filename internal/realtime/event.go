package realtime

import "fmt"

// Inbound event names accepted by the session gateway.
const (
	EventAuthenticate            = "authenticate"
	EventJoinChat                = "join-chat"
	EventLeaveChat               = "leave-chat"
	EventSendMessage             = "send-message"
	EventTypingStart             = "typing-start"
	EventTypingStop              = "typing-stop"
	EventUserOnline              = "user-online"
	EventJoinCommitteeRoom       = "join-committee-room"
	EventJoinCommitteeRoomLegacy = "join-committee-chat"
	EventCommitteeMessage        = "committee-message"
)

// Outbound event names published to rooms or individual sessions.
const (
	EventNewMessage             = "new-message"
	EventUserJoinedChat         = "user-joined-chat"
	EventUserLeftChat           = "user-left-chat"
	EventUserTyping             = "user-typing"
	EventUserStatusChange       = "user-status-change"
	EventCommitteeMessageLegacy = "new-committee-message"
	EventCommitteeMessageAck    = "committee-message-ack"
)

// Event is a transient room event. It lives only for the duration of fan-out
// and is never persisted.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"data"`
}

// UserRoom is the personal inbox room of a user.
func UserRoom(userID int64) string {
	return fmt.Sprintf("user-%d", userID)
}

// ChatRoom is the fan-out room of a conversation.
func ChatRoom(conversationID string) string {
	return "chat-" + conversationID
}

// CommitteeRoom is the fan-out room of a committee.
func CommitteeRoom(committeeID int64) string {
	return fmt.Sprintf("committee-%d", committeeID)
}
