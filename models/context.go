package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContextWindowSize caps the rolling per-session history. Oldest entries are
// evicted first when the cap is exceeded.
const ContextWindowSize = 50

// ContextEntry is one exchange in the rolling window.
type ContextEntry struct {
	MessageText string    `json:"message_text"` // capped at 1000 chars
	AIResponse  string    `json:"ai_response"`  // capped at 2000 chars
	Emotion     string    `json:"emotion"`
	Timestamp   time.Time `json:"timestamp"`
}

// SessionBehavior holds the coarse cross-session aggregates used to
// personalize generation.
type SessionBehavior struct {
	TotalSessions          int      `json:"total_sessions"`
	AverageSessionDuration float64  `json:"average_session_duration"`
	PreferredTimeSlots     []string `json:"preferred_time_slots"`
	CommonTopics           []string `json:"common_topics"`
	CommunicationStyle     string   `json:"communication_style"`
}

// DefaultSessionBehavior returns the aggregates a freshly created context
// starts with.
func DefaultSessionBehavior() SessionBehavior {
	return SessionBehavior{
		TotalSessions:          1,
		AverageSessionDuration: 0,
		PreferredTimeSlots:     []string{},
		CommonTopics:           []string{},
		CommunicationStyle:     "casual",
	}
}

// Context is the per-(user, session) rolling window of recent exchanges.
// Created lazily on the first message of a session, appended on every one
// after that.
type Context struct {
	ID        string `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_contexts_user_session,priority:1"`
	SessionID string `json:"session_id" gorm:"type:varchar(100);not null;uniqueIndex:idx_contexts_user_session,priority:2"`

	History  datatypes.JSONSlice[ContextEntry] `json:"context_history"`
	Behavior SessionBehavior                   `json:"session_behavior" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the Context model
func (Context) TableName() string {
	return "contexts"
}

// BeforeCreate hook to set the ID if not provided
func (c *Context) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
