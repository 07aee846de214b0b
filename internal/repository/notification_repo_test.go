package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eventverse/chat-api/internal/models"
	"github.com/eventverse/chat-api/internal/repository"
)

func setupNotificationDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	return db
}

func TestNotificationListReturnsNewestFirst(t *testing.T) {
	repo := repository.NewNotificationRepository(setupNotificationDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{
			UserID:   7,
			SenderID: 1,
			Type:     "group_chat_invite",
			Message:  fmt.Sprintf("invite %d", i),
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.Notification{
		UserID:  8,
		Type:    "group_chat_invite",
		Message: "someone else's invite",
	}))

	notifications, err := repo.ListByUser(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 3)
	for _, notification := range notifications {
		require.Equal(t, int64(7), notification.UserID)
		require.False(t, notification.Read)
	}
}

func TestNotificationListHonoursLimit(t *testing.T) {
	repo := repository.NewNotificationRepository(setupNotificationDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{
			UserID:  3,
			Type:    "notification",
			Message: fmt.Sprintf("notice %d", i),
		}))
	}

	notifications, err := repo.ListByUser(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	// Out-of-range limits fall back to the default window.
	notifications, err = repo.ListByUser(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 5)
}
