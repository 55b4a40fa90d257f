package services

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/krudrav/solace/backend/models"
)

// responseTemplates keys a template set by primary emotion. Unrecognized
// emotions fall back to the neutral set.
var responseTemplates = map[string][]string{
	models.EmotionHappy: {
		"That's wonderful! I'm so glad to hear that!",
		"How exciting! Tell me more about what's making you happy.",
		"That sounds amazing! I love your positive energy.",
	},
	models.EmotionSad: {
		"I understand that must be difficult. I'm here to listen.",
		"That sounds tough. Would you like to talk about it?",
		"I'm sorry you're going through this. How can I help?",
	},
	models.EmotionAngry: {
		"I can hear your frustration. Let's work through this.",
		"I understand your concern. What would help right now?",
		"That does sound frustrating. Tell me more about what happened.",
	},
	models.EmotionExcited: {
		"That's amazing! I can feel your excitement!",
		"How thrilling! What's got you so energized?",
		"Wow, that sounds incredible! Share more details!",
	},
	models.EmotionConfused: {
		"Let me help clarify that for you.",
		"I understand the confusion. Let's break this down.",
		"That can be puzzling. What specific part is unclear?",
	},
	models.EmotionNeutral: {
		"I see. Tell me more about that.",
		"I understand. How can I help you with this?",
		"That's interesting. What would you like to explore further?",
	},
}

const fallbackResponse = "I'm sorry, I'm having trouble with that. Can you try rephrasing?"

// GeneratedResponse is the responder's output plus its reporting metadata.
type GeneratedResponse struct {
	Response   string    `json:"response"`
	Confidence float64   `json:"confidence"`
	TokensUsed int       `json:"tokens_used"`
	Emotion    string    `json:"emotion"`
	Timestamp  time.Time `json:"timestamp"`
}

// GenerateOptions carries the gathered inputs for one generation.
type GenerateOptions struct {
	Emotion     EmotionResult
	Preferences *models.UserPreferences
	Context     ConversationContext
}

// GenerateResponse composes a reply from the emotion-keyed template set plus
// conditional acknowledgment clauses. Confidence passes through the
// analyzer's value. It never fails: bad input yields a fixed apologetic
// fallback with confidence 0.3.
func GenerateResponse(text string, opts GenerateOptions) GeneratedResponse {
	if text == "" {
		return GeneratedResponse{
			Response:   fallbackResponse,
			Confidence: 0.3,
			TokensUsed: len(strings.Fields(fallbackResponse)),
			Emotion:    models.EmotionNeutral,
			Timestamp:  time.Now(),
		}
	}

	templateSet, ok := responseTemplates[opts.Emotion.Emotion]
	if !ok {
		templateSet = responseTemplates[models.EmotionNeutral]
	}
	response := templateSet[rand.IntN(len(templateSet))]

	if strings.Contains(text, "?") {
		response += " I'd be happy to help answer your question."
	}
	if opts.Emotion.Intensity > 0.7 {
		response += " I can sense this is really important to you."
	}

	confidence := opts.Emotion.Confidence
	if confidence == 0 {
		confidence = 0.5
	}

	emotion := opts.Emotion.Emotion
	if emotion == "" {
		emotion = models.EmotionNeutral
	}

	return GeneratedResponse{
		Response:   strings.TrimSpace(response),
		Confidence: confidence,
		TokensUsed: len(strings.Fields(response)),
		Emotion:    emotion,
		Timestamp:  time.Now(),
	}
}
