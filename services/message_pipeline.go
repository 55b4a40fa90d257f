package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/krudrav/solace/backend/models"
	"github.com/krudrav/solace/backend/repository"
	ws "github.com/krudrav/solace/backend/websocket"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	maxMessageTextLength = 4000
	maxSessionIDLength   = 100
)

// CreateMessageInput is one pipeline invocation. UserID comes from the
// authentication middleware and is trusted as already verified.
type CreateMessageInput struct {
	UserID      string
	SessionID   string
	Text        string
	MessageType string
	DeviceHint  string // client user-agent, used only for device classification
}

// MessagePipeline runs the full message sequence: sanitize, analyze, gather
// context and preferences, generate, persist, respond.
//
// The deadline is cooperative: it is checked between stages, and a storage
// write that completes after the deadline fires is not retracted. The caller
// may therefore receive a timeout response for a message whose writes
// landed.
type MessagePipeline struct {
	repo           *repository.GORMRepository
	contextManager *ContextManager
	hub            *ws.Hub
	timeout        time.Duration
}

func NewMessagePipeline(repo *repository.GORMRepository, contextManager *ContextManager, hub *ws.Hub, timeout time.Duration) *MessagePipeline {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MessagePipeline{
		repo:           repo,
		contextManager: contextManager,
		hub:            hub,
		timeout:        timeout,
	}
}

// Process runs one message through the pipeline and returns the persisted,
// emotion-populated message record.
func (p *MessagePipeline) Process(ctx context.Context, in CreateMessageInput) (*models.Message, error) {
	start := time.Now()

	// 1. Validate. Terminal, no side effects.
	if err := validateMessageInput(&in); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// 2. Sanitize.
	sanitizedText := SanitizeText(in.Text)
	if sanitizedText == "" {
		return nil, validationError("Message text is empty after sanitization")
	}

	// 3. Gather preferences and recent context concurrently. Both must
	// complete before generation; a preferences failure is a pipeline
	// failure, a context read failure degrades to empty inside the manager.
	var (
		preferences  *models.UserPreferences
		conversation ConversationContext
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		prefs, err := p.repo.GetPreferences(groupCtx, in.UserID)
		if err != nil {
			return err
		}
		if prefs == nil {
			prefs = models.DefaultPreferences(in.UserID)
		}
		preferences = prefs
		return nil
	})
	group.Go(func() error {
		conversation = p.contextManager.GetRecentContext(groupCtx, in.UserID, in.SessionID, 10)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, classifyError(err, "Failed to gather message context")
	}

	// 4. Analyze emotion of the sanitized text.
	emotionData := AnalyzeEmotion(sanitizedText)

	// 5. Generate the reply.
	aiData := GenerateResponse(sanitizedText, GenerateOptions{
		Emotion:     emotionData,
		Preferences: preferences,
		Context:     conversation,
	})

	if err := ctx.Err(); err != nil {
		return nil, classifyError(err, "Pipeline deadline check failed")
	}

	// 6a. Persist the emotion record.
	emotion := &models.Emotion{
		Emotion:      emotionData.Emotion,
		Intensity:    emotionData.Intensity,
		PatternFlags: datatypes.NewJSONSlice(emotionData.Patterns),
		Sarcasm:      emotionData.Sarcasm,
		Confidence:   aiData.Confidence,
	}
	if err := p.repo.CreateEmotion(ctx, emotion); err != nil {
		return nil, classifyError(err, "Failed to save emotion record")
	}

	// 6b. Update the session context. Failure here is fatal to the request.
	_, err := p.contextManager.UpdateContext(ctx, in.UserID, in.SessionID, models.ContextEntry{
		MessageText: sanitizedText,
		AIResponse:  aiData.Response,
		Emotion:     emotionData.Emotion,
	})
	if err != nil {
		return nil, classifyError(err, "Failed to update session context")
	}

	// 6c. Persist the message record. Length and emoji fields are
	// recomputed from the sanitized text by the model hook.
	message := &models.Message{
		UserID:      in.UserID,
		SessionID:   in.SessionID,
		Text:        sanitizedText,
		AIResponse:  aiData.Response,
		MessageType: in.MessageType,
		EmotionID:   emotion.ID,
		QuickMetadata: models.QuickMetadata{
			DeviceType:   deviceTypeFromHint(in.DeviceHint),
			Browser:      truncateRunes(in.DeviceHint, 100),
			ResponseTime: time.Since(start).Milliseconds(),
		},
		Feedback: models.Feedback{
			AIConfidence: aiData.Confidence,
		},
		IsProcessed: true,
	}
	if err := p.repo.CreateMessage(ctx, message); err != nil {
		return nil, classifyError(err, "Failed to save message")
	}
	message.Emotion = emotion

	slog.Info("Message pipeline completed",
		"message_id", message.ID,
		"user_id", in.UserID,
		"session_id", in.SessionID,
		"emotion", emotionData.Emotion,
		"response_time_ms", message.QuickMetadata.ResponseTime,
		"text", truncateForLog(sanitizedText))

	// 7. Push the assembled payload to the author's open sockets.
	if p.hub != nil {
		p.hub.PushToUser(in.UserID, ws.Event{Type: "message_reply", Payload: message})
	}

	return message, nil
}

func validateMessageInput(in *CreateMessageInput) *AppError {
	if strings.TrimSpace(in.Text) == "" || in.SessionID == "" {
		return validationError("Missing required fields")
	}
	if len(in.Text) > maxMessageTextLength {
		return validationError("Message text must be between 1 and 4000 characters")
	}
	if len(in.SessionID) > maxSessionIDLength {
		return validationError("Session ID must be at most 100 characters")
	}
	if in.MessageType == "" {
		in.MessageType = models.MessageTypeText
	}
	valid := false
	for _, t := range models.MessageTypes {
		if in.MessageType == t {
			valid = true
			break
		}
	}
	if !valid {
		return validationError("Invalid message type")
	}
	return nil
}

// deviceTypeFromHint classifies the client-supplied device hint. Unknown or
// absent hints default to desktop.
func deviceTypeFromHint(hint string) string {
	switch {
	case strings.Contains(hint, "iPad") || strings.Contains(hint, "Tablet"):
		return "tablet"
	case strings.Contains(hint, "Mobile"):
		return "mobile"
	default:
		return "desktop"
	}
}
