package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationSettings holds the per-channel notification flags.
type NotificationSettings struct {
	Email bool `json:"email" gorm:"default:true"`
	Push  bool `json:"push" gorm:"default:true"`
	SMS   bool `json:"sms" gorm:"default:false"`
}

// AccessibilitySettings holds the accessibility flags.
type AccessibilitySettings struct {
	HighContrast bool   `json:"high_contrast" gorm:"default:false"`
	FontSize     string `json:"font_size" gorm:"type:varchar(20);default:'medium'"`
	ScreenReader bool   `json:"screen_reader" gorm:"default:false"`
}

// UserPreferences is the single per-user configuration record read by the
// pipeline on every message and mutated through its own endpoints.
type UserPreferences struct {
	ID     string `json:"id" gorm:"type:uuid;primaryKey"`
	UserID string `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`

	Language      string `json:"language" gorm:"type:varchar(10);default:'en'"`
	Tone          string `json:"tone" gorm:"type:varchar(50);default:'friendly'"`
	Theme         string `json:"theme" gorm:"type:varchar(20);default:'light'"`
	ResponseStyle string `json:"response_style" gorm:"type:varchar(50);default:'detailed'"`
	Timezone      string `json:"timezone" gorm:"type:varchar(50);default:'UTC'"`

	NotificationSettings  NotificationSettings  `json:"notification_settings" gorm:"embedded;embeddedPrefix:notify_"`
	AccessibilitySettings AccessibilitySettings `json:"accessibility_settings" gorm:"embedded;embeddedPrefix:access_"`

	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the UserPreferences model
func (UserPreferences) TableName() string {
	return "user_preferences"
}

// BeforeCreate hook to set the ID if not provided
func (p *UserPreferences) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// DefaultPreferences returns the preference record a brand-new user is
// served before ever saving one.
func DefaultPreferences(userID string) *UserPreferences {
	return &UserPreferences{
		UserID:        userID,
		Language:      "en",
		Tone:          "friendly",
		Theme:         "light",
		ResponseStyle: "detailed",
		Timezone:      "UTC",
		NotificationSettings: NotificationSettings{
			Email: true,
			Push:  true,
			SMS:   false,
		},
		AccessibilitySettings: AccessibilitySettings{
			HighContrast: false,
			FontSize:     "medium",
			ScreenReader: false,
		},
		LastUpdated: time.Now(),
	}
}
