package models

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message types accepted on the create-message surface.
const (
	MessageTypeText  = "text"
	MessageTypeVoice = "voice"
	MessageTypeEmoji = "emoji"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
	MessageTypeCode  = "code"
)

// MessageTypes lists every valid message type tag.
var MessageTypes = []string{
	MessageTypeText, MessageTypeVoice, MessageTypeEmoji,
	MessageTypeImage, MessageTypeFile, MessageTypeCode,
}

// QuickMetadata holds cheap, frequently-read per-message fields embedded
// directly on the message instead of normalized into a separate record.
type QuickMetadata struct {
	DeviceType    string                      `json:"device_type" gorm:"type:varchar(50);default:'desktop';check:quick_device_type IN ('mobile', 'desktop', 'tablet')"`
	Browser       string                      `json:"browser,omitempty" gorm:"size:100"`
	ResponseTime  int64                       `json:"response_time"` // milliseconds, measured from pipeline start
	MessageLength int                         `json:"message_length"`
	EmojiCount    int                         `json:"emoji_count" gorm:"default:0"`
	EmojiList     datatypes.JSONSlice[string] `json:"emoji_list"`
}

// Feedback is the 1:1 per-message feedback sub-record. Submissions overwrite,
// they never append.
type Feedback struct {
	Rating       *int       `json:"rating,omitempty"`
	ThumbsUp     *bool      `json:"thumbs_up,omitempty"`
	Comment      string     `json:"comment,omitempty" gorm:"size:500"`
	AIConfidence float64    `json:"ai_confidence" gorm:"default:0.8"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
}

// Message represents a single exchange in a support conversation: the user's
// sanitized text plus the generated reply and its emotion annotation.
type Message struct {
	ID          string `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      string `json:"user_id" gorm:"type:uuid;not null;index;index:idx_messages_user_created,priority:1"`
	SessionID   string `json:"session_id" gorm:"type:varchar(100);not null;index"`
	Text        string `json:"text" gorm:"type:text;not null"`
	AIResponse  string `json:"ai_response" gorm:"type:text"`
	MessageType string `json:"message_type" gorm:"type:varchar(50);not null;default:'text';check:message_type IN ('text', 'voice', 'emoji', 'image', 'file', 'code')"`

	EmotionID string `json:"emotion_id" gorm:"type:uuid;index"`

	QuickMetadata QuickMetadata `json:"quick_metadata" gorm:"embedded;embeddedPrefix:quick_"`
	Feedback      Feedback      `json:"feedback" gorm:"embedded;embeddedPrefix:feedback_"`

	IsProcessed    bool `json:"is_processed" gorm:"default:false"`
	IsArchived     bool `json:"is_archived" gorm:"default:false"`
	HasAttachments bool `json:"has_attachments" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at" gorm:"not null;index;index:idx_messages_user_created,priority:2,sort:desc"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Emotion *Emotion `json:"emotion,omitempty" gorm:"foreignKey:EmotionID;references:ID"`
}

// TableName returns the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate assigns the ID and recomputes the derived text fields so that
// message length and emoji data always reflect the final sanitized text.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.QuickMetadata.MessageLength = utf8.RuneCountInString(m.Text)
	emojis := ExtractEmojis(m.Text)
	m.QuickMetadata.EmojiCount = len(emojis)
	if len(emojis) > 10 {
		emojis = emojis[:10]
	}
	m.QuickMetadata.EmojiList = datatypes.NewJSONSlice(emojis)
	return nil
}

// ExtractEmojis returns every emoji rune in text, in order. The recognized set
// is the four main emoji blocks: emoticons, misc symbols and pictographs,
// transport and map symbols, and regional indicators.
func ExtractEmojis(text string) []string {
	var emojis []string
	for _, r := range text {
		switch {
		case r >= 0x1F600 && r <= 0x1F64F, // emoticons
			r >= 0x1F300 && r <= 0x1F5FF, // misc symbols and pictographs
			r >= 0x1F680 && r <= 0x1F6FF, // transport and map
			r >= 0x1F1E0 && r <= 0x1F1FF: // regional indicators
			emojis = append(emojis, string(r))
		}
	}
	return emojis
}
