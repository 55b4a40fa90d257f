package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/krudrav/solace/backend/models"
	"gorm.io/gorm"
)

// GetPreferences returns the user's preference record, or nil when none has
// been saved yet.
func (r *GORMRepository) GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get preferences", "error", err, "user_id", userID)
		return nil, err
	}
	return &prefs, nil
}

// CreatePreferences inserts a preference record. The unique index on user_id
// makes a second insert for the same user fail with a duplicate-key error.
func (r *GORMRepository) CreatePreferences(ctx context.Context, prefs *models.UserPreferences) error {
	if err := r.db.WithContext(ctx).Create(prefs).Error; err != nil {
		slog.Error("Failed to create preferences", "error", err, "user_id", prefs.UserID)
		return err
	}
	slog.Info("Preferences created", "user_id", prefs.UserID)
	return nil
}

// EnsurePreferences returns the user's preference record, creating it with
// defaults when absent.
func (r *GORMRepository) EnsurePreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	prefs, err := r.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs != nil {
		return prefs, nil
	}

	prefs = models.DefaultPreferences(userID)
	if err := r.CreatePreferences(ctx, prefs); err != nil {
		if err == gorm.ErrDuplicatedKey {
			// Lost a create race with a concurrent request; the record exists now.
			return r.GetPreferences(ctx, userID)
		}
		return nil, err
	}
	return prefs, nil
}

// SavePreferences persists the full preference record.
func (r *GORMRepository) SavePreferences(ctx context.Context, prefs *models.UserPreferences) error {
	prefs.LastUpdated = time.Now()
	if err := r.db.WithContext(ctx).Save(prefs).Error; err != nil {
		slog.Error("Failed to save preferences", "error", err, "user_id", prefs.UserID)
		return err
	}
	slog.Info("Preferences saved", "user_id", prefs.UserID)
	return nil
}

// ResetPreferences replaces the user's record with defaults, creating it if
// absent.
func (r *GORMRepository) ResetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	existing, err := r.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	defaults := models.DefaultPreferences(userID)
	if existing != nil {
		defaults.ID = existing.ID
		defaults.CreatedAt = existing.CreatedAt
	}
	if err := r.SavePreferences(ctx, defaults); err != nil {
		return nil, err
	}
	return defaults, nil
}

// PreferenceChoice is one user's stylistic picks, used for the global
// distribution analytics.
type PreferenceChoice struct {
	Language      string `json:"language"`
	Tone          string `json:"tone"`
	Theme         string `json:"theme"`
	ResponseStyle string `json:"response_style"`
}

// GetAllPreferenceChoices returns every saved user's stylistic picks.
func (r *GORMRepository) GetAllPreferenceChoices(ctx context.Context) ([]PreferenceChoice, error) {
	var choices []PreferenceChoice
	err := r.db.WithContext(ctx).
		Model(&models.UserPreferences{}).
		Select("language, tone, theme, response_style").
		Scan(&choices).Error
	if err != nil {
		slog.Error("Failed to get preference choices", "error", err)
		return nil, err
	}
	return choices, nil
}
