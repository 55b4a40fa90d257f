package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/krudrav/solace/backend/models"
	"github.com/krudrav/solace/backend/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	contextEntryTextLimit  = 1000
	contextEntryReplyLimit = 2000
)

// ConversationContext is the read-side view handed to the generator.
type ConversationContext struct {
	RecentMessages  []models.ContextEntry  `json:"recent_messages"`
	SessionBehavior models.SessionBehavior `json:"session_behavior"`
}

// ContextManager maintains the per-(user, session) rolling history. Reads
// degrade to an empty context; writes propagate their errors, because losing
// context silently would corrupt future personalization.
type ContextManager struct {
	repo *repository.GORMRepository
}

func NewContextManager(repo *repository.GORMRepository) *ContextManager {
	return &ContextManager{repo: repo}
}

// GetRecentContext returns the last limit entries of the session's history.
// A missing record or a failed read both yield an empty context.
func (m *ContextManager) GetRecentContext(ctx context.Context, userID, sessionID string, limit int) ConversationContext {
	if limit <= 0 {
		limit = 10
	}

	record, err := m.repo.GetContext(ctx, userID, sessionID)
	if err != nil || record == nil {
		if err != nil {
			slog.Warn("Context read failed, treating as no context", "error", err, "user_id", userID, "session_id", sessionID)
		}
		return ConversationContext{
			RecentMessages:  []models.ContextEntry{},
			SessionBehavior: models.SessionBehavior{},
		}
	}

	history := []models.ContextEntry(record.History)
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return ConversationContext{
		RecentMessages:  history,
		SessionBehavior: record.Behavior,
	}
}

// UpdateContext appends one exchange to the (user, session) history,
// creating the record on first use and evicting the oldest entries past the
// window cap. The read-append-save sequence has no concurrency check:
// concurrent appends to the same session resolve last-write-wins and may
// drop an entry.
func (m *ContextManager) UpdateContext(ctx context.Context, userID, sessionID string, entry models.ContextEntry) (*models.Context, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.MessageText = truncateRunes(entry.MessageText, contextEntryTextLimit)
	entry.AIResponse = truncateRunes(entry.AIResponse, contextEntryReplyLimit)

	record, err := m.repo.GetContext(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	created := record == nil
	if created {
		record = &models.Context{
			UserID:    userID,
			SessionID: sessionID,
			History:   datatypes.NewJSONSlice([]models.ContextEntry{entry}),
			Behavior:  models.DefaultSessionBehavior(),
		}
	} else {
		record.History = appendCapped(record.History, entry)
	}

	if err := m.repo.SaveContext(ctx, record); err != nil {
		// Lost a first-message create race for this session: another
		// request inserted the record between our read and save. Re-read
		// and append on top of the winner instead.
		if created && errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, rerr := m.repo.GetContext(ctx, userID, sessionID)
			if rerr != nil {
				return nil, rerr
			}
			if existing != nil {
				existing.History = appendCapped(existing.History, entry)
				if serr := m.repo.SaveContext(ctx, existing); serr != nil {
					return nil, serr
				}
				return existing, nil
			}
		}
		return nil, err
	}
	return record, nil
}

func appendCapped(history []models.ContextEntry, entry models.ContextEntry) datatypes.JSONSlice[models.ContextEntry] {
	appended := append(append([]models.ContextEntry{}, history...), entry)
	if len(appended) > models.ContextWindowSize {
		appended = appended[len(appended)-models.ContextWindowSize:]
	}
	return datatypes.NewJSONSlice(appended)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}
