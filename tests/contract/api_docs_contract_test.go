package contract_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

type openAPISpec struct {
	Paths      map[string]map[string]json.RawMessage `json:"paths"`
	Components struct {
		Schemas map[string]json.RawMessage `json:"schemas"`
	} `json:"components"`
}

func TestChatSpecificationIncludesChatEndpoints(t *testing.T) {
	spec := loadSpec(t, "docs/api/chat.json")

	requiredPaths := []string{
		"/api/v2/chat/conversations",
		"/api/v2/chat/conversations/group",
		"/api/v2/chat/conversations/personal/{userId}",
		"/api/v2/chat/conversations/{id}",
		"/api/v2/chat/conversations/{id}/messages",
		"/api/v2/chat/conversations/{id}/join",
		"/api/v2/chat/conversations/{id}/leave",
		"/api/v2/chat/committees/{committeeId}/conversation",
		"/api/v2/chat/committees/{committeeId}/messages",
		"/api/v2/chat/users/search",
	}

	for _, path := range requiredPaths {
		if _, ok := spec.Paths[path]; !ok {
			t.Fatalf("expected chat spec to contain path %s", path)
		}
	}

	for _, schema := range []string{"Conversation", "Participant", "Message", "CommitteeMessage", "UserSearchResult"} {
		if _, ok := spec.Components.Schemas[schema]; !ok {
			t.Fatalf("expected chat spec to contain schema %s", schema)
		}
	}
}

func TestRealtimeSpecificationIncludesGatewayContract(t *testing.T) {
	spec := loadSpec(t, "docs/api/realtime.json")

	if _, ok := spec.Paths["/api/v2/realtime/ws"]; !ok {
		t.Fatalf("expected realtime spec to contain the websocket endpoint")
	}

	requiredSchemas := []string{
		"Frame",
		"NewMessageEvent",
		"ChatMembershipEvent",
		"TypingEvent",
		"StatusChangeEvent",
		"CommitteeMessageEvent",
		"CommitteeMessageAck",
	}
	for _, schema := range requiredSchemas {
		if _, ok := spec.Components.Schemas[schema]; !ok {
			t.Fatalf("expected realtime spec to contain schema %s", schema)
		}
	}
}

func loadSpec(t *testing.T, relative string) openAPISpec {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("failed to resolve caller")
	}
	base := filepath.Join(filepath.Dir(filename), "..", "..")
	fullPath := filepath.Join(base, relative)

	raw, err := os.ReadFile(fullPath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", fullPath, err)
	}
	var spec openAPISpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		t.Fatalf("failed to unmarshal %s: %v", fullPath, err)
	}
	return spec
}
