package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/krudrav/solace/backend/models"
)

func newTestRepo(t *testing.T) *GORMRepository {
	t.Helper()

	// Shared-cache in-memory database with a unique name per test; a single
	// connection keeps concurrent access serialized and lock-free
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo := NewGORMRepository(db)
	require.NoError(t, repo.AutoMigrate())
	return repo
}

func createTestUser(t *testing.T, repo *GORMRepository, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		Password: "hashed-password",
		FullName: "Test User",
		Role:     "user",
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func createTestMessage(t *testing.T, repo *GORMRepository, userID, sessionID, text, emotion string, intensity float64, createdAt time.Time) *models.Message {
	t.Helper()
	ctx := context.Background()

	emotionRecord := &models.Emotion{
		Emotion:    emotion,
		Intensity:  intensity,
		Confidence: 0.8,
	}
	require.NoError(t, repo.CreateEmotion(ctx, emotionRecord))

	message := &models.Message{
		UserID:      userID,
		SessionID:   sessionID,
		Text:        text,
		AIResponse:  "I see. Tell me more about that.",
		MessageType: models.MessageTypeText,
		EmotionID:   emotionRecord.ID,
		CreatedAt:   createdAt,
		IsProcessed: true,
	}
	require.NoError(t, repo.CreateMessage(ctx, message))
	return message
}

func TestEnsurePreferencesCreatesDefaults(t *testing.T) {
	repo := newTestRepo(t)
	user := createTestUser(t, repo, "prefs@example.com")

	prefs, err := repo.EnsurePreferences(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, prefs)

	assert.Equal(t, "en", prefs.Language)
	assert.Equal(t, "friendly", prefs.Tone)
	assert.Equal(t, "light", prefs.Theme)
	assert.Equal(t, "detailed", prefs.ResponseStyle)
	assert.Equal(t, "UTC", prefs.Timezone)
	assert.True(t, prefs.NotificationSettings.Email)
	assert.True(t, prefs.NotificationSettings.Push)
	assert.False(t, prefs.NotificationSettings.SMS)
	assert.Equal(t, "medium", prefs.AccessibilitySettings.FontSize)

	// Second call returns the same record instead of creating a duplicate
	again, err := repo.EnsurePreferences(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, prefs.ID, again.ID)
}

func TestResetPreferencesRestoresDefaults(t *testing.T) {
	repo := newTestRepo(t)
	user := createTestUser(t, repo, "reset@example.com")
	ctx := context.Background()

	prefs, err := repo.EnsurePreferences(ctx, user.ID)
	require.NoError(t, err)

	prefs.Tone = "formal"
	prefs.Theme = "dark"
	require.NoError(t, repo.SavePreferences(ctx, prefs))

	reset, err := repo.ResetPreferences(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, prefs.ID, reset.ID, "reset keeps the existing record")
	assert.Equal(t, "friendly", reset.Tone)
	assert.Equal(t, "light", reset.Theme)

	stored, err := repo.GetPreferences(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "friendly", stored.Tone)
}

func TestGetMessagesPagination(t *testing.T) {
	repo := newTestRepo(t)
	user := createTestUser(t, repo, "pages@example.com")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		createTestMessage(t, repo, user.ID, "session-1",
			fmt.Sprintf("message %d", i), models.EmotionNeutral, 0.5,
			base.Add(time.Duration(i)*time.Minute))
	}

	ctx := context.Background()

	page1, total, err := repo.GetMessages(ctx, user.ID, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, page1, 10)
	assert.Equal(t, "message 24", page1[0].Text, "most recent first")

	page3, total, err := repo.GetMessages(ctx, user.ID, "", 3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Len(t, page3, 5)
	assert.Equal(t, "message 0", page3[4].Text, "oldest message lands on the last page")

	// Session filter excludes everything under a different session
	_, total, err = repo.GetMessages(ctx, user.ID, "other-session", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestGetMessageByIDScopedToUser(t *testing.T) {
	repo := newTestRepo(t)
	owner := createTestUser(t, repo, "owner@example.com")
	stranger := createTestUser(t, repo, "stranger@example.com")

	message := createTestMessage(t, repo, owner.ID, "session-1", "hello", models.EmotionHappy, 0.7, time.Now())

	ctx := context.Background()

	found, err := repo.GetMessageByID(ctx, message.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.Emotion, "emotion relation should be preloaded")
	assert.Equal(t, models.EmotionHappy, found.Emotion.Emotion)

	// Another user's lookup misses entirely
	missed, err := repo.GetMessageByID(ctx, message.ID, stranger.ID)
	require.NoError(t, err)
	assert.Nil(t, missed)
}

func TestUpdateMessageFeedbackPreservesAIConfidence(t *testing.T) {
	repo := newTestRepo(t)
	user := createTestUser(t, repo, "feedback@example.com")
	ctx := context.Background()

	message := createTestMessage(t, repo, user.ID, "session-1", "hello", models.EmotionNeutral, 0.5, time.Now())
	message.Feedback.AIConfidence = 0.92
	require.NoError(t, repo.UpdateMessageFeedback(ctx, message, models.Feedback{AIConfidence: 0.92}))

	rating := 4
	thumbsUp := true
	now := time.Now()
	err := repo.UpdateMessageFeedback(ctx, message, models.Feedback{
		Rating:      &rating,
		ThumbsUp:    &thumbsUp,
		Comment:     "helpful",
		SubmittedAt: &now,
	})
	require.NoError(t, err)

	stored, err := repo.GetMessageByID(ctx, message.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Feedback.Rating)
	assert.Equal(t, 4, *stored.Feedback.Rating)
	require.NotNil(t, stored.Feedback.ThumbsUp)
	assert.True(t, *stored.Feedback.ThumbsUp)
	assert.Equal(t, "helpful", stored.Feedback.Comment)
	assert.InDelta(t, 0.92, stored.Feedback.AIConfidence, 1e-9, "resubmission never clobbers the recorded confidence")
}

func TestGetEmotionAnalytics(t *testing.T) {
	repo := newTestRepo(t)
	user := createTestUser(t, repo, "analytics@example.com")

	now := time.Now()
	createTestMessage(t, repo, user.ID, "s1", "great day", models.EmotionHappy, 0.5, now.Add(-3*time.Hour))
	createTestMessage(t, repo, user.ID, "s1", "so happy", models.EmotionHappy, 0.7, now.Add(-2*time.Hour))
	createTestMessage(t, repo, user.ID, "s1", "awesome", models.EmotionHappy, 0.9, now.Add(-time.Hour))
	createTestMessage(t, repo, user.ID, "s1", "feeling low", models.EmotionSad, 0.6, now.Add(-time.Hour))

	// Outside the window, must not be counted
	createTestMessage(t, repo, user.ID, "s0", "old anger", models.EmotionAngry, 0.9, now.AddDate(0, 0, -40))

	rows, err := repo.GetEmotionAnalytics(context.Background(), user.ID, 30)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, models.EmotionHappy, rows[0].Emotion, "largest bucket first")
	assert.Equal(t, int64(3), rows[0].Count)
	assert.InDelta(t, 0.7, rows[0].AvgIntensity, 1e-9)

	assert.Equal(t, models.EmotionSad, rows[1].Emotion)
	assert.Equal(t, int64(1), rows[1].Count)
}

func TestContextRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	user := createTestUser(t, repo, "context@example.com")
	ctx := context.Background()

	missing, err := repo.GetContext(ctx, user.ID, "session-1")
	require.NoError(t, err)
	assert.Nil(t, missing, "miss is nil, not an error")

	record := &models.Context{
		UserID:    user.ID,
		SessionID: "session-1",
		History: []models.ContextEntry{
			{MessageText: "hello", AIResponse: "hi", Emotion: models.EmotionNeutral, Timestamp: time.Now()},
		},
		Behavior: models.DefaultSessionBehavior(),
	}
	require.NoError(t, repo.SaveContext(ctx, record))

	stored, err := repo.GetContext(ctx, user.ID, "session-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.History, 1)
	assert.Equal(t, "hello", stored.History[0].MessageText)
	assert.Equal(t, 1, stored.Behavior.TotalSessions)
	assert.Equal(t, "casual", stored.Behavior.CommunicationStyle)
}
