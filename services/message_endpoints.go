package services

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/krudrav/solace/backend/models"
	"github.com/krudrav/solace/backend/repository"
)

type MessageEndpoints struct {
	repo          *repository.GORMRepository
	pipeline      *MessagePipeline
	ratePerMinute int
}

func NewMessageEndpoints(repo *repository.GORMRepository, pipeline *MessagePipeline, ratePerMinute int) *MessageEndpoints {
	if ratePerMinute <= 0 {
		ratePerMinute = 30
	}
	return &MessageEndpoints{
		repo:          repo,
		pipeline:      pipeline,
		ratePerMinute: ratePerMinute,
	}
}

type CreateMessageRequest struct {
	Text        string `json:"text"`
	SessionID   string `json:"sessionId"`
	MessageType string `json:"messageType,omitempty"`
}

type AddFeedbackRequest struct {
	Rating   *int    `json:"rating,omitempty"`
	ThumbsUp *bool   `json:"thumbsUp,omitempty"`
	Comment  *string `json:"comment,omitempty"`
}

// Pagination is the page metadata returned alongside message lists.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

type MessagePage struct {
	Messages   []models.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

func (e *MessageEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/messages", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// Message creation is rate limited per authenticated user.
			r.Use(httprate.Limit(
				e.ratePerMinute,
				time.Minute,
				httprate.WithKeyFuncs(rateLimitKeyByUser),
			))
			r.Post("/", e.CreateMessageHandler)
		})
		r.Get("/", e.GetMessagesHandler)
		r.Get("/recent", e.GetRecentMessagesHandler)
		r.Get("/analytics/emotions", e.GetEmotionAnalyticsHandler)
		r.Get("/session/{sessionId}", e.GetSessionMessagesHandler)
		r.Get("/{id}", e.GetMessageHandler)
		r.Post("/{id}/feedback", e.AddFeedbackHandler)
	})
}

// currentUser pulls the authenticated user placed in the request context by
// the auth middleware.
func currentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value("user").(*models.User)
	return user, ok
}

func rateLimitKeyByUser(r *http.Request) (string, error) {
	if user, ok := currentUser(r); ok {
		return user.ID, nil
	}
	return httprate.KeyByRealIP(r)
}

func (e *MessageEndpoints) CreateMessageHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "User not found in context", nil)
		return
	}

	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendResponse(w, http.StatusBadRequest, false, "Invalid request body", nil)
		return
	}

	message, err := e.pipeline.Process(r.Context(), CreateMessageInput{
		UserID:      user.ID,
		SessionID:   req.SessionID,
		Text:        req.Text,
		MessageType: req.MessageType,
		DeviceHint:  r.Header.Get("User-Agent"),
	})
	if err != nil {
		sendError(w, r, err, "Failed to create message")
		return
	}

	sendResponse(w, http.StatusCreated, true, "Message created successfully", message)
}

func (e *MessageEndpoints) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "User not found in context", nil)
		return
	}

	page := parseIntParam(r, "page", 1, 1, math.MaxInt)
	limit := parseIntParam(r, "limit", 20, 1, 100)
	sessionID := r.URL.Query().Get("sessionId")

	messages, total, err := e.repo.GetMessages(r.Context(), user.ID, sessionID, page, limit)
	if err != nil {
		sendError(w, r, err, "Failed to retrieve messages")
		return
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	data := MessagePage{
		Messages: messages,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: limit,
			HasNextPage:  page < totalPages,
			HasPrevPage:  page > 1,
		},
	}

	sendResponse(w, http.StatusOK, true, "Retrieved "+strconv.Itoa(len(messages))+" messages", data)
}

func (e *MessageEndpoints) GetRecentMessagesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "User not found in context", nil)
		return
	}

	limit := parseIntParam(r, "limit", 20, 1, 50)

	messages, err := e.repo.GetRecentMessages(r.Context(), user.ID, limit)
	if err != nil {
		sendError(w, r, err, "Failed to retrieve recent messages")
		return
	}

	sendResponse(w, http.StatusOK, true, "Retrieved "+strconv.Itoa(len(messages))+" recent messages", messages)
}

func (e *MessageEndpoints) GetMessageHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "User not found in context", nil)
		return
	}

	messageID := chi.URLParam(r, "id")
	message, err := e.repo.GetMessageByID(r.Context(), messageID, user.ID)
	if err != nil {
		sendError(w, r, err, "Failed to retrieve message")
		return
	}
	if message == nil {
		sendResponse(w, http.StatusNotFound, false, "Message not found", nil)
		return
	}

	sendResponse(w, http.StatusOK, true, "Message retrieved successfully", message)
}

func (e *MessageEndpoints) GetSessionMessagesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "User not found in context", nil)
		return
	}

	sessionID := chi.URLParam(r, "sessionId")
	messages, err := e.repo.GetSessionMessages(r.Context(), user.ID, sessionID)
	if err != nil {
		sendError(w, r, err, "Failed to retrieve session messages")
		return
	}
	// An unknown session is a miss, not an empty page.
	if len(messages) == 0 {
		sendResponse(w, http.StatusNotFound, false, "No messages found for this session", nil)
		return
	}

	sendResponse(w, http.StatusOK, true, "Retrieved "+strconv.Itoa(len(messages))+" session messages", messages)
}

func (e *MessageEndpoints) AddFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "User not found in context", nil)
		return
	}

	var req AddFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendResponse(w, http.StatusBadRequest, false, "Invalid request body", nil)
		return
	}

	// Validation happens before any storage access.
	if err := validateFeedback(req); err != nil {
		sendError(w, r, err, "Invalid feedback")
		return
	}

	messageID := chi.URLParam(r, "id")
	message, err := e.repo.GetMessageByID(r.Context(), messageID, user.ID)
	if err != nil {
		sendError(w, r, err, "Failed to retrieve message")
		return
	}
	if message == nil {
		sendResponse(w, http.StatusNotFound, false, "Message not found", nil)
		return
	}

	now := time.Now()
	feedback := models.Feedback{
		Rating:      req.Rating,
		ThumbsUp:    req.ThumbsUp,
		SubmittedAt: &now,
	}
	if req.Comment != nil {
		feedback.Comment = SanitizeText(*req.Comment)
	}

	if err := e.repo.UpdateMessageFeedback(r.Context(), message, feedback); err != nil {
		sendError(w, r, err, "Failed to add feedback")
		return
	}

	sendResponse(w, http.StatusOK, true, "Feedback added successfully", message.Feedback)
}

func (e *MessageEndpoints) GetEmotionAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "User not found in context", nil)
		return
	}

	days := parseIntParam(r, "days", 30, 1, 365)

	rows, err := e.repo.GetEmotionAnalytics(r.Context(), user.ID, days)
	if err != nil {
		sendError(w, r, err, "Failed to retrieve emotion analytics")
		return
	}

	slog.Info("Emotion analytics retrieved", "user_id", user.ID, "days", days, "buckets", len(rows))
	sendResponse(w, http.StatusOK, true, "Emotion analytics retrieved successfully", map[string]any{
		"days":     days,
		"emotions": rows,
	})
}

func validateFeedback(req AddFeedbackRequest) *AppError {
	if req.Rating == nil && req.ThumbsUp == nil && req.Comment == nil {
		return validationError("Feedback requires a rating, thumbs up, or comment")
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return validationError("Rating must be an integer between 1 and 5")
	}
	if req.Comment != nil && len(*req.Comment) > 500 {
		return validationError("Comment too long (max 500 characters)")
	}
	return nil
}

func parseIntParam(r *http.Request, name string, def, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
