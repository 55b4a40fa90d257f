package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/krudrav/solace/backend/models"
	"github.com/krudrav/solace/backend/repository"
	"golang.org/x/crypto/bcrypt"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

// NewDatabaseSeeder creates a new database seeder
func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// sampleExchange is one seeded conversation turn for the demo session.
type sampleExchange struct {
	text       string
	aiResponse string
	emotion    string
	intensity  float64
	confidence float64
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	// Hash default password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Create test users (no admin users for security)
	users := []models.User{
		{
			Email:     "test@example.com",
			Password:  string(hashedPassword),
			FullName:  "Test User",
			AvatarURL: "",
			Role:      "user",
		},
		{
			Email:     "demo@example.com",
			Password:  string(hashedPassword),
			FullName:  "Demo User",
			AvatarURL: "",
			Role:      "user",
		},
	}

	// Seed users and their default preferences (idempotent)
	for _, user := range users {
		if err := s.seedUser(ctx, user); err != nil {
			slog.Error("Failed to seed user", "email", user.Email, "error", err)
		}
	}

	// Seed a short demo conversation for the test user so the emotion
	// analytics endpoints return data on a fresh install
	testUser, err := s.repo.GetUserByEmail(ctx, "test@example.com")
	if err != nil {
		return fmt.Errorf("failed to get test user: %w", err)
	}
	if testUser == nil {
		return fmt.Errorf("test user not found")
	}

	if err := s.seedDemoConversation(ctx, testUser.ID); err != nil {
		slog.Error("Failed to seed demo conversation", "error", err)
	}

	slog.Info("Database seeding completed successfully")
	return nil
}

// seedUser seeds a single user plus default preferences (idempotent)
func (s *DatabaseSeeder) seedUser(ctx context.Context, user models.User) error {
	// Check if user already exists
	existingUser, err := s.repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("error checking user %s: %w", user.Email, err)
	}

	if existingUser != nil {
		slog.Info("User already exists, skipping", "email", user.Email)
		return nil
	}

	// User doesn't exist, create it
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}

	if _, err := s.repo.EnsurePreferences(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to create preferences for %s: %w", user.Email, err)
	}

	slog.Info("Created user", "email", user.Email)
	return nil
}

// seedDemoConversation seeds a small pre-analyzed session (idempotent)
func (s *DatabaseSeeder) seedDemoConversation(ctx context.Context, userID string) error {
	const sessionID = "seed-demo-session"

	// If the demo session already has messages, seeding is complete
	existing, err := s.repo.GetSessionMessages(ctx, userID, sessionID)
	if err != nil {
		return fmt.Errorf("error checking demo session: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("Demo conversation already exists, skipping")
		return nil
	}

	exchanges := []sampleExchange{
		{
			text:       "Hi, I just wanted to say the new update is great, I am really happy with it",
			aiResponse: "That's wonderful to hear! What's making you feel this way?",
			emotion:    models.EmotionHappy,
			intensity:  0.7,
			confidence: 0.8,
		},
		{
			text:       "Actually I am a bit confused about how the export feature works",
			aiResponse: "It sounds like things might be unclear. Can you tell me more about what's confusing?",
			emotion:    models.EmotionConfused,
			intensity:  0.5,
			confidence: 0.8,
		},
		{
			text:       "Got it working now, thanks for the help",
			aiResponse: "Thank you for sharing that with me. How does that make you feel?",
			emotion:    models.EmotionNeutral,
			intensity:  0.5,
			confidence: 0.6,
		},
	}

	for i, ex := range exchanges {
		emotion := &models.Emotion{
			Emotion:    ex.emotion,
			Intensity:  ex.intensity,
			Confidence: ex.confidence,
		}
		if err := s.repo.CreateEmotion(ctx, emotion); err != nil {
			return fmt.Errorf("failed to seed emotion: %w", err)
		}

		message := &models.Message{
			UserID:      userID,
			SessionID:   sessionID,
			Text:        ex.text,
			AIResponse:  ex.aiResponse,
			MessageType: models.MessageTypeText,
			EmotionID:   emotion.ID,
			QuickMetadata: models.QuickMetadata{
				DeviceType:   "desktop",
				ResponseTime: int64(40 + i*5),
			},
			IsProcessed: true,
		}
		if err := s.repo.CreateMessage(ctx, message); err != nil {
			return fmt.Errorf("failed to seed message: %w", err)
		}
	}

	slog.Info("Created demo conversation", "user_id", userID, "messages", len(exchanges))
	return nil
}
