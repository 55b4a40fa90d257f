package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/krudrav/solace/backend/models"
	"gorm.io/gorm"
)

// Emotion operations. Emotion records are created fresh per message and never
// updated afterwards.
func (r *GORMRepository) CreateEmotion(ctx context.Context, emotion *models.Emotion) error {
	if err := r.db.WithContext(ctx).Create(emotion).Error; err != nil {
		slog.Error("Failed to create emotion record", "error", err)
		return err
	}
	slog.Info("Emotion record created", "emotion_id", emotion.ID, "emotion", emotion.Emotion)
	return nil
}

// Message operations
func (r *GORMRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		slog.Error("Failed to create message", "error", err, "user_id", message.UserID, "session_id", message.SessionID)
		return err
	}
	slog.Info("Message created", "message_id", message.ID, "user_id", message.UserID, "session_id", message.SessionID)
	return nil
}

// GetMessages returns one page of the user's messages, most recent first,
// along with the total count for pagination.
func (r *GORMRepository) GetMessages(ctx context.Context, userID, sessionID string, page, limit int) ([]models.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Message{}).Where("user_id = ?", userID)
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		slog.Error("Failed to count messages", "error", err, "user_id", userID)
		return nil, 0, err
	}

	var messages []models.Message
	err := query.
		Preload("Emotion").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		slog.Error("Failed to get messages", "error", err, "user_id", userID)
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *GORMRepository) GetRecentMessages(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Emotion").
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		slog.Error("Failed to get recent messages", "error", err, "user_id", userID)
		return nil, err
	}
	return messages, nil
}

// GetMessageByID returns the message only if it belongs to the user.
func (r *GORMRepository) GetMessageByID(ctx context.Context, messageID, userID string) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", messageID, userID).
		Preload("Emotion").
		First(&message).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get message by ID", "error", err, "message_id", messageID, "user_id", userID)
		return nil, err
	}
	return &message, nil
}

// GetSessionMessages returns the session's messages in chronological order,
// scoped to the owning user.
func (r *GORMRepository) GetSessionMessages(ctx context.Context, userID, sessionID string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Preload("Emotion").
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		slog.Error("Failed to get session messages", "error", err, "user_id", userID, "session_id", sessionID)
		return nil, err
	}
	return messages, nil
}

// UpdateMessageFeedback overwrites the message's embedded feedback sub-record.
// The AI confidence recorded at creation time is preserved.
func (r *GORMRepository) UpdateMessageFeedback(ctx context.Context, message *models.Message, feedback models.Feedback) error {
	feedback.AIConfidence = message.Feedback.AIConfidence
	message.Feedback = feedback
	// Column map so zero values (cleared comment, nil rating) overwrite too.
	updates := map[string]interface{}{
		"feedback_rating":        feedback.Rating,
		"feedback_thumbs_up":     feedback.ThumbsUp,
		"feedback_comment":       feedback.Comment,
		"feedback_ai_confidence": feedback.AIConfidence,
		"feedback_submitted_at":  feedback.SubmittedAt,
	}
	if err := r.db.WithContext(ctx).Model(message).Updates(updates).Error; err != nil {
		slog.Error("Failed to update message feedback", "error", err, "message_id", message.ID)
		return err
	}
	slog.Info("Message feedback updated", "message_id", message.ID)
	return nil
}

// EmotionAnalyticsRow is one bucket of the per-user emotion distribution.
type EmotionAnalyticsRow struct {
	Emotion      string  `json:"emotion"`
	Count        int64   `json:"count"`
	AvgIntensity float64 `json:"avg_intensity"`
}

// GetEmotionAnalytics aggregates the user's emotion distribution over the
// last N days: per-category message count and average intensity.
func (r *GORMRepository) GetEmotionAnalytics(ctx context.Context, userID string, days int) ([]EmotionAnalyticsRow, error) {
	since := time.Now().AddDate(0, 0, -days)

	var rows []EmotionAnalyticsRow
	err := r.db.WithContext(ctx).
		Table("messages").
		Select("emotions.emotion AS emotion, COUNT(*) AS count, AVG(emotions.intensity) AS avg_intensity").
		Joins("JOIN emotions ON emotions.id = messages.emotion_id").
		Where("messages.user_id = ? AND messages.created_at >= ? AND messages.deleted_at IS NULL", userID, since).
		Group("emotions.emotion").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		slog.Error("Failed to aggregate emotion analytics", "error", err, "user_id", userID, "days", days)
		return nil, err
	}
	return rows, nil
}
