package repository

import (
	"context"
	"log/slog"

	"github.com/krudrav/solace/backend/models"
	"gorm.io/gorm"
)

// GetContext returns the (user, session) context record, or nil when the
// session has no context yet.
func (r *GORMRepository) GetContext(ctx context.Context, userID, sessionID string) (*models.Context, error) {
	var record models.Context
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get context", "error", err, "user_id", userID, "session_id", sessionID)
		return nil, err
	}
	return &record, nil
}

// SaveContext persists the context record, creating or updating as needed.
// There is no optimistic-concurrency check: concurrent appends for the same
// (user, session) resolve last-write-wins.
func (r *GORMRepository) SaveContext(ctx context.Context, record *models.Context) error {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		slog.Error("Failed to save context", "error", err, "user_id", record.UserID, "session_id", record.SessionID)
		return err
	}
	slog.Info("Context saved", "context_id", record.ID, "user_id", record.UserID, "session_id", record.SessionID, "history_len", len(record.History))
	return nil
}
