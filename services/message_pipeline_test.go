package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krudrav/solace/backend/models"
)

func newTestPipeline(t *testing.T) (*MessagePipeline, *models.User) {
	t.Helper()
	repo := newTestRepo(t)
	user := createTestUser(t, repo, fmt.Sprintf("pipeline-%d@example.com", time.Now().UnixNano()))
	pipeline := NewMessagePipeline(repo, NewContextManager(repo), nil, 30*time.Second)
	return pipeline, user
}

func TestPipelineProcessEndToEnd(t *testing.T) {
	pipeline, user := newTestPipeline(t)
	ctx := context.Background()

	message, err := pipeline.Process(ctx, CreateMessageInput{
		UserID:    user.ID,
		SessionID: "session-1",
		Text:      "I am so happy and excited!!!",
	})
	require.NoError(t, err)
	require.NotNil(t, message)

	assert.NotEmpty(t, message.ID)
	assert.Equal(t, user.ID, message.UserID)
	assert.Equal(t, "session-1", message.SessionID)
	assert.Equal(t, models.MessageTypeText, message.MessageType, "type defaults to text")
	assert.True(t, message.IsProcessed)

	require.NotNil(t, message.Emotion)
	assert.Equal(t, models.EmotionHappy, message.Emotion.Emotion)
	assert.GreaterOrEqual(t, message.Emotion.Confidence, 0.8)

	assert.NotEmpty(t, message.AIResponse)
	assert.Equal(t, utf8.RuneCountInString(message.Text), message.QuickMetadata.MessageLength)
	assert.GreaterOrEqual(t, message.Feedback.AIConfidence, 0.0)
	assert.LessOrEqual(t, message.Feedback.AIConfidence, 1.0)

	// The exchange must land in the session context
	window := pipeline.contextManager.GetRecentContext(ctx, user.ID, "session-1", 10)
	require.Len(t, window.RecentMessages, 1)
	assert.Equal(t, message.Text, window.RecentMessages[0].MessageText)
	assert.Equal(t, message.AIResponse, window.RecentMessages[0].AIResponse)

	// And the message must be readable back with its emotion attached
	stored, err := pipeline.repo.GetMessageByID(ctx, message.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.Emotion)
	assert.Equal(t, models.EmotionHappy, stored.Emotion.Emotion)
}

func TestPipelineValidation(t *testing.T) {
	pipeline, user := newTestPipeline(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateMessageInput
	}{
		{
			name:  "empty text",
			input: CreateMessageInput{UserID: user.ID, SessionID: "s", Text: ""},
		},
		{
			name:  "whitespace-only text",
			input: CreateMessageInput{UserID: user.ID, SessionID: "s", Text: "   "},
		},
		{
			name:  "missing session",
			input: CreateMessageInput{UserID: user.ID, SessionID: "", Text: "hello"},
		},
		{
			name:  "text too long",
			input: CreateMessageInput{UserID: user.ID, SessionID: "s", Text: strings.Repeat("a", 4001)},
		},
		{
			name:  "session id too long",
			input: CreateMessageInput{UserID: user.ID, SessionID: strings.Repeat("s", 101), Text: "hello"},
		},
		{
			name:  "unknown message type",
			input: CreateMessageInput{UserID: user.ID, SessionID: "s", Text: "hello", MessageType: "carrier-pigeon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pipeline.Process(ctx, tt.input)
			require.Error(t, err)

			var appErr *AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, KindValidation, appErr.Kind)
		})
	}
}

func TestPipelineSanitizesBeforeAnything(t *testing.T) {
	pipeline, user := newTestPipeline(t)
	ctx := context.Background()

	message, err := pipeline.Process(ctx, CreateMessageInput{
		UserID:    user.ID,
		SessionID: "session-1",
		Text:      `I am happy <script>alert("xss")</script>today`,
	})
	require.NoError(t, err)

	assert.NotContains(t, message.Text, "<script")
	assert.NotContains(t, message.Text, "alert")
	assert.Equal(t, "I am happy today", message.Text)

	// The stored context sees the sanitized text too
	window := pipeline.contextManager.GetRecentContext(ctx, user.ID, "session-1", 10)
	require.Len(t, window.RecentMessages, 1)
	assert.NotContains(t, window.RecentMessages[0].MessageText, "<script")
}

func TestPipelineRejectsTextEmptyAfterSanitization(t *testing.T) {
	pipeline, user := newTestPipeline(t)

	_, err := pipeline.Process(context.Background(), CreateMessageInput{
		UserID:    user.ID,
		SessionID: "session-1",
		Text:      `<script>alert(1)</script>`,
	})
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, KindValidation, appErr.Kind)
}

func TestPipelineConcurrentSameSession(t *testing.T) {
	pipeline, user := newTestPipeline(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = pipeline.Process(ctx, CreateMessageInput{
				UserID:    user.ID,
				SessionID: "shared-session",
				Text:      fmt.Sprintf("concurrent message %d", i),
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Both message records must be persisted even when the context window
	// resolves last-write-wins
	messages, err := pipeline.repo.GetSessionMessages(ctx, user.ID, "shared-session")
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestPipelineTimeout(t *testing.T) {
	pipeline, user := newTestPipeline(t)

	// A context that is already expired fails the deadline check before
	// anything is persisted
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := pipeline.Process(ctx, CreateMessageInput{
		UserID:    user.ID,
		SessionID: "session-1",
		Text:      "hello there",
	})
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, KindTimeout, appErr.Kind)

	messages, listErr := pipeline.repo.GetSessionMessages(context.Background(), user.ID, "session-1")
	require.NoError(t, listErr)
	assert.Empty(t, messages, "nothing persists after a timeout")
}

func TestPipelineDeviceClassification(t *testing.T) {
	tests := []struct {
		hint     string
		expected string
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Mobile/15E148", "mobile"},
		{"Mozilla/5.0 (iPad; CPU OS 17_0)", "tablet"},
		{"Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0", "desktop"},
		{"", "desktop"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, deviceTypeFromHint(tt.hint), "hint %q", tt.hint)
	}
}

func TestPipelineRecordsDeviceMetadata(t *testing.T) {
	pipeline, user := newTestPipeline(t)

	longAgent := "Mozilla/5.0 (iPhone) Mobile " + strings.Repeat("x", 200)
	message, err := pipeline.Process(context.Background(), CreateMessageInput{
		UserID:     user.ID,
		SessionID:  "session-1",
		Text:       "hello from my phone",
		DeviceHint: longAgent,
	})
	require.NoError(t, err)

	assert.Equal(t, "mobile", message.QuickMetadata.DeviceType)
	assert.Len(t, message.QuickMetadata.Browser, 100, "browser string is capped")
	assert.GreaterOrEqual(t, message.QuickMetadata.ResponseTime, int64(0))
}
