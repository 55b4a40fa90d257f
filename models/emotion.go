package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Canonical emotion categories. Declaration order matters: the analyzer
// resolves score ties to the first-listed category.
const (
	EmotionHappy    = "happy"
	EmotionSad      = "sad"
	EmotionAngry    = "angry"
	EmotionExcited  = "excited"
	EmotionConfused = "confused"
	EmotionNeutral  = "neutral"
)

// EmotionCategories lists every valid emotion category in scoring order.
var EmotionCategories = []string{
	EmotionHappy, EmotionSad, EmotionAngry,
	EmotionExcited, EmotionConfused, EmotionNeutral,
}

// Pattern flags the emotion record can carry. The keyword analyzer never
// emits these; they exist for future longitudinal detectors.
const (
	PatternRepeatedNegative = "repeated-negative"
	PatternStressIndicator  = "stress-indicator"
	PatternMoodSwing        = "mood-swing"
	PatternAnxietyPattern   = "anxiety-pattern"
)

// Emotion captures one analyzer run. Each record is owned by exactly one
// message and is never shared or updated after creation.
type Emotion struct {
	ID           string                      `json:"id" gorm:"type:uuid;primaryKey"`
	Emotion      string                      `json:"emotion" gorm:"type:varchar(50);not null;default:'neutral';check:emotion IN ('happy', 'sad', 'angry', 'excited', 'confused', 'neutral')"`
	Intensity    float64                     `json:"intensity" gorm:"not null;default:0.5;check:intensity >= 0 AND intensity <= 1"`
	PatternFlags datatypes.JSONSlice[string] `json:"pattern_flags"`
	Sarcasm      bool                        `json:"sarcasm_detected" gorm:"default:false"`
	Confidence   float64                     `json:"confidence" gorm:"not null;default:0.8;check:confidence >= 0 AND confidence <= 1"`
	CreatedAt    time.Time                   `json:"created_at" gorm:"not null"`
}

// TableName returns the table name for the Emotion model
func (Emotion) TableName() string {
	return "emotions"
}

// BeforeCreate hook to set the ID if not provided
func (e *Emotion) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
