package contract_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eventverse/chat-api/internal/dto"
	"github.com/eventverse/chat-api/internal/handler"
	"github.com/eventverse/chat-api/internal/models"
	"github.com/eventverse/chat-api/internal/repository"
	"github.com/eventverse/chat-api/internal/service"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func setupContractApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Conversation{}, &models.Participant{}, &models.Message{},
		&models.User{}, &models.Committee{}, &models.CommitteeMember{}, &models.Notification{},
	))
	require.NoError(t, db.Create(&[]models.User{
		{ID: 1, Name: "Alice", Email: "alice@example.com"},
		{ID: 2, Name: "Bob", Email: "bob@example.com"},
	}).Error)

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	conversationService := service.NewConversationService(
		repository.NewConversationRepository(db),
		repository.NewDirectoryRepository(db),
		nil,
		nil,
		logger,
	)

	app := fiber.New()
	group := app.Group("/api/v2/chat", func(c *fiber.Ctx) error {
		c.Locals("user_id", int64(1))
		return c.Next()
	})
	handler.NewConversationHandler(conversationService, validate, logger).Register(group)
	return app
}

func testBody(raw []byte) *bytes.Reader {
	return bytes.NewReader(raw)
}

func validateResponse(t *testing.T, schema *jsonschema.Schema, resp *http.Response) {
	t.Helper()

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestConversationResponseMatchesContract(t *testing.T) {
	app := setupContractApp(t)
	schema := compileSchema(t, "chat_conversation.schema.json")

	req := httptest.NewRequest(http.MethodPost, "/api/v2/chat/conversations/personal/2", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	validateResponse(t, schema, resp)
}

func TestMessageResponseMatchesContract(t *testing.T) {
	app := setupContractApp(t)
	schema := compileSchema(t, "chat_message.schema.json")

	req := httptest.NewRequest(http.MethodPost, "/api/v2/chat/conversations/personal/2", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env struct {
		Data dto.ConversationResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	resp.Body.Close()

	payload, err := json.Marshal(dto.AppendMessageRequest{Content: "contract check"})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/v2/chat/conversations/"+env.Data.ID+"/messages", testBody(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	validateResponse(t, schema, resp)
}
