package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmojis(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "no emojis",
			input:    "plain text only",
			expected: nil,
		},
		{
			name:     "emoticon block",
			input:    "great day 😊 really 😄",
			expected: []string{"😊", "😄"},
		},
		{
			name:     "transport block",
			input:    "launching 🚀 now",
			expected: []string{"🚀"},
		},
		{
			name:     "order preserved",
			input:    "🎉 then 😢 then 🚀",
			expected: []string{"🎉", "😢", "🚀"},
		},
		{
			name:     "regional indicators",
			input:    "flag 🇺 🇸",
			expected: []string{"🇺", "🇸"},
		},
		{
			name:     "plain symbols outside the blocks ignored",
			input:    "3 < 5 & happy :-)",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractEmojis(tt.input))
		})
	}
}

func TestExtractEmojisCountsRepeats(t *testing.T) {
	input := strings.Repeat("😊", 15)
	emojis := ExtractEmojis(input)
	assert.Len(t, emojis, 15, "extraction itself is uncapped; the list cap is applied at persistence")
}

func TestBeforeCreateCountsRunes(t *testing.T) {
	message := Message{Text: "hi 😊🚀"}
	require.NoError(t, message.BeforeCreate(nil))

	assert.Equal(t, 5, message.QuickMetadata.MessageLength, "length is runes, not bytes")
	assert.Equal(t, 2, message.QuickMetadata.EmojiCount)
	assert.NotEmpty(t, message.ID)
}

func TestDefaultSessionBehavior(t *testing.T) {
	behavior := DefaultSessionBehavior()

	assert.Equal(t, 1, behavior.TotalSessions)
	assert.Zero(t, behavior.AverageSessionDuration)
	assert.NotNil(t, behavior.PreferredTimeSlots)
	assert.NotNil(t, behavior.CommonTopics)
	assert.Equal(t, "casual", behavior.CommunicationStyle)
}

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences("user-1")

	assert.Equal(t, "user-1", prefs.UserID)
	assert.Equal(t, "en", prefs.Language)
	assert.Equal(t, "friendly", prefs.Tone)
	assert.Equal(t, "light", prefs.Theme)
	assert.Equal(t, "detailed", prefs.ResponseStyle)
	assert.Equal(t, "UTC", prefs.Timezone)
	assert.True(t, prefs.NotificationSettings.Email)
	assert.True(t, prefs.NotificationSettings.Push)
	assert.False(t, prefs.NotificationSettings.SMS)
	assert.False(t, prefs.AccessibilitySettings.HighContrast)
	assert.Equal(t, "medium", prefs.AccessibilitySettings.FontSize)
	assert.False(t, prefs.LastUpdated.IsZero())
}
