package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/krudrav/solace/backend/models"
	"github.com/krudrav/solace/backend/repository"
	"github.com/samber/lo"
)

type PreferenceEndpoints struct {
	repo *repository.GORMRepository
}

func NewPreferenceEndpoints(repo *repository.GORMRepository) *PreferenceEndpoints {
	return &PreferenceEndpoints{repo: repo}
}

// Writable preference fields. Anything else in the request body is dropped
// by the sanitizing projection.
var preferenceFields = []string{"language", "tone", "theme", "responseStyle", "timezone"}

func (e *PreferenceEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/preferences", func(r chi.Router) {
		r.Get("/", e.GetPreferencesHandler)
		r.Post("/", e.CreatePreferencesHandler)
		r.Put("/", e.UpdatePreferencesHandler)
		r.Post("/reset", e.ResetPreferencesHandler)
		r.Get("/analytics", e.GetPreferenceAnalyticsHandler)
	})
}

// GetPreferencesHandler returns the user's preferences, creating a default
// record on first read instead of returning 404.
func (e *PreferenceEndpoints) GetPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "User not found in context", nil)
		return
	}

	prefs, err := e.repo.EnsurePreferences(r.Context(), user.ID)
	if err != nil {
		sendError(w, r, err, "Failed to retrieve preferences")
		return
	}

	sendResponse(w, http.StatusOK, true, "Preferences retrieved successfully", prefs)
}

// CreatePreferencesHandler creates the user's preference record. Fails with
// a conflict when one already exists.
func (e *PreferenceEndpoints) CreatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "User not found in context", nil)
		return
	}

	existing, err := e.repo.GetPreferences(r.Context(), user.ID)
	if err != nil {
		sendError(w, r, err, "Failed to create preferences")
		return
	}
	if existing != nil {
		sendResponse(w, http.StatusConflict, false, "Preferences already exist for this user", nil)
		return
	}

	prefs := models.DefaultPreferences(user.ID)
	applyPreferenceBody(r, prefs)

	if err := e.repo.CreatePreferences(r.Context(), prefs); err != nil {
		sendError(w, r, err, "Failed to create preferences")
		return
	}

	sendResponse(w, http.StatusCreated, true, "Preferences created successfully", prefs)
}

// UpdatePreferencesHandler upserts: a missing record is created with
// defaults and the update applied on top.
func (e *PreferenceEndpoints) UpdatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "User not found in context", nil)
		return
	}

	prefs, err := e.repo.EnsurePreferences(r.Context(), user.ID)
	if err != nil {
		sendError(w, r, err, "Failed to update preferences")
		return
	}

	applyPreferenceBody(r, prefs)

	if err := e.repo.SavePreferences(r.Context(), prefs); err != nil {
		sendError(w, r, err, "Failed to update preferences")
		return
	}

	sendResponse(w, http.StatusOK, true, "Preferences updated successfully", prefs)
}

func (e *PreferenceEndpoints) ResetPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "User not found in context", nil)
		return
	}

	prefs, err := e.repo.ResetPreferences(r.Context(), user.ID)
	if err != nil {
		sendError(w, r, err, "Failed to reset preferences")
		return
	}

	sendResponse(w, http.StatusOK, true, "Preferences reset to defaults", prefs)
}

// ChoiceStat describes how popular one option is across all users.
type ChoiceStat struct {
	Count        int    `json:"count"`
	Percentage   string `json:"percentage"`
	IsUserChoice bool   `json:"isUserChoice"`
}

// GetPreferenceAnalyticsHandler compares the user's stylistic picks against
// the global distribution.
func (e *PreferenceEndpoints) GetPreferenceAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "User not found in context", nil)
		return
	}

	prefs, err := e.repo.GetPreferences(r.Context(), user.ID)
	if err != nil {
		sendError(w, r, err, "Failed to retrieve preference analytics")
		return
	}
	if prefs == nil {
		sendResponse(w, http.StatusNotFound, false, "No preferences found", nil)
		return
	}

	choices, err := e.repo.GetAllPreferenceChoices(r.Context())
	if err != nil {
		sendError(w, r, err, "Failed to retrieve preference analytics")
		return
	}

	data := map[string]any{
		"userPreferences": prefs,
		"globalStats": map[string]any{
			"totalUsers": len(choices),
			"languageDistribution": distribution(lo.Map(choices, func(c repository.PreferenceChoice, _ int) string {
				return c.Language
			}), prefs.Language),
			"toneDistribution": distribution(lo.Map(choices, func(c repository.PreferenceChoice, _ int) string {
				return c.Tone
			}), prefs.Tone),
			"themeDistribution": distribution(lo.Map(choices, func(c repository.PreferenceChoice, _ int) string {
				return c.Theme
			}), prefs.Theme),
			"responseStyleDistribution": distribution(lo.Map(choices, func(c repository.PreferenceChoice, _ int) string {
				return c.ResponseStyle
			}), prefs.ResponseStyle),
		},
	}

	slog.Info("Preference analytics retrieved", "user_id", user.ID, "total_users", len(choices))
	sendResponse(w, http.StatusOK, true, "Preference analytics retrieved successfully", data)
}

func distribution(values []string, userChoice string) map[string]ChoiceStat {
	counts := lo.CountValues(values)
	total := len(values)

	stats := make(map[string]ChoiceStat, len(counts))
	for value, count := range counts {
		stats[value] = ChoiceStat{
			Count:        count,
			Percentage:   fmt.Sprintf("%.1f", float64(count)/float64(total)*100),
			IsUserChoice: value == userChoice,
		}
	}
	return stats
}

// applyPreferenceBody projects the request body onto the writable fields,
// sanitizing every string on the way in. A malformed body applies nothing.
func applyPreferenceBody(r *http.Request, prefs *models.UserPreferences) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return
	}

	sanitized := SanitizeMap(body, preferenceFields)
	if v, ok := sanitized["language"].(string); ok && v != "" {
		prefs.Language = v
	}
	if v, ok := sanitized["tone"].(string); ok && v != "" {
		prefs.Tone = v
	}
	if v, ok := sanitized["theme"].(string); ok && v != "" {
		prefs.Theme = v
	}
	if v, ok := sanitized["responseStyle"].(string); ok && v != "" {
		prefs.ResponseStyle = v
	}
	if v, ok := sanitized["timezone"].(string); ok && v != "" {
		prefs.Timezone = v
	}
}
