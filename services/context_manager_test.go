package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krudrav/solace/backend/models"
)

func TestUpdateContextCreatesRecordLazily(t *testing.T) {
	repo := newTestRepo(t)
	user := createTestUser(t, repo, "ctx-create@example.com")
	manager := NewContextManager(repo)
	ctx := context.Background()

	record, err := manager.UpdateContext(ctx, user.ID, "session-1", models.ContextEntry{
		MessageText: "hello",
		AIResponse:  "hi there",
		Emotion:     models.EmotionNeutral,
	})
	require.NoError(t, err)
	require.NotNil(t, record)

	require.Len(t, record.History, 1)
	assert.Equal(t, "hello", record.History[0].MessageText)
	assert.False(t, record.History[0].Timestamp.IsZero(), "timestamp is filled in when missing")

	// First write seeds the default behavior aggregates
	assert.Equal(t, 1, record.Behavior.TotalSessions)
	assert.Equal(t, "casual", record.Behavior.CommunicationStyle)
	assert.NotNil(t, record.Behavior.PreferredTimeSlots)
	assert.NotNil(t, record.Behavior.CommonTopics)
}

func TestUpdateContextEvictsOldestPastWindow(t *testing.T) {
	repo := newTestRepo(t)
	user := createTestUser(t, repo, "ctx-window@example.com")
	manager := NewContextManager(repo)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := manager.UpdateContext(ctx, user.ID, "session-1", models.ContextEntry{
			MessageText: fmt.Sprintf("message %d", i),
			AIResponse:  "reply",
			Emotion:     models.EmotionNeutral,
		})
		require.NoError(t, err)
	}

	stored, err := repo.GetContext(ctx, user.ID, "session-1")
	require.NoError(t, err)
	require.NotNil(t, stored)

	require.Len(t, stored.History, models.ContextWindowSize)
	assert.Equal(t, "message 10", stored.History[0].MessageText, "oldest ten evicted")
	assert.Equal(t, "message 59", stored.History[len(stored.History)-1].MessageText)
}

func TestUpdateContextTruncatesLongEntries(t *testing.T) {
	repo := newTestRepo(t)
	user := createTestUser(t, repo, "ctx-truncate@example.com")
	manager := NewContextManager(repo)

	record, err := manager.UpdateContext(context.Background(), user.ID, "session-1", models.ContextEntry{
		MessageText: strings.Repeat("a", 1500),
		AIResponse:  strings.Repeat("b", 2500),
		Emotion:     models.EmotionNeutral,
	})
	require.NoError(t, err)

	assert.Len(t, record.History[0].MessageText, 1000)
	assert.Len(t, record.History[0].AIResponse, 2000)
}

func TestGetRecentContextLimitsWindow(t *testing.T) {
	repo := newTestRepo(t)
	user := createTestUser(t, repo, "ctx-recent@example.com")
	manager := NewContextManager(repo)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := manager.UpdateContext(ctx, user.ID, "session-1", models.ContextEntry{
			MessageText: fmt.Sprintf("message %d", i),
			AIResponse:  "reply",
			Emotion:     models.EmotionNeutral,
		})
		require.NoError(t, err)
	}

	// Default limit is the last ten entries
	window := manager.GetRecentContext(ctx, user.ID, "session-1", 0)
	require.Len(t, window.RecentMessages, 10)
	assert.Equal(t, "message 5", window.RecentMessages[0].MessageText)
	assert.Equal(t, "message 14", window.RecentMessages[9].MessageText)

	smaller := manager.GetRecentContext(ctx, user.ID, "session-1", 3)
	require.Len(t, smaller.RecentMessages, 3)
	assert.Equal(t, "message 12", smaller.RecentMessages[0].MessageText)
}

func TestGetRecentContextMissingSessionIsEmpty(t *testing.T) {
	repo := newTestRepo(t)
	user := createTestUser(t, repo, "ctx-missing@example.com")
	manager := NewContextManager(repo)

	window := manager.GetRecentContext(context.Background(), user.ID, "never-seen", 10)

	assert.Empty(t, window.RecentMessages)
	assert.NotNil(t, window.RecentMessages, "empty slice, not nil")
	assert.Zero(t, window.SessionBehavior.TotalSessions)
}

func TestUpdateContextSessionsAreIsolated(t *testing.T) {
	repo := newTestRepo(t)
	user := createTestUser(t, repo, "ctx-isolated@example.com")
	manager := NewContextManager(repo)
	ctx := context.Background()

	_, err := manager.UpdateContext(ctx, user.ID, "session-a", models.ContextEntry{MessageText: "for a", AIResponse: "r", Emotion: models.EmotionNeutral})
	require.NoError(t, err)
	_, err = manager.UpdateContext(ctx, user.ID, "session-b", models.ContextEntry{MessageText: "for b", AIResponse: "r", Emotion: models.EmotionNeutral})
	require.NoError(t, err)

	a := manager.GetRecentContext(ctx, user.ID, "session-a", 10)
	b := manager.GetRecentContext(ctx, user.ID, "session-b", 10)

	require.Len(t, a.RecentMessages, 1)
	require.Len(t, b.RecentMessages, 1)
	assert.Equal(t, "for a", a.RecentMessages[0].MessageText)
	assert.Equal(t, "for b", b.RecentMessages[0].MessageText)
}
