package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - User, RefreshToken from user.go
// - Message, QuickMetadata, Feedback from message.go
// - Emotion from emotion.go
// - Context, ContextEntry, SessionBehavior from context.go
// - UserPreferences from preferences.go

// Database schema overview:
// 1. users - Managed by cookie-based authentication
// 2. messages - One row per exchange: user text, generated reply, embedded
//    quick metadata and feedback, reference to an emotion record
// 3. emotions - One analyzer result per message, created fresh each time
// 4. contexts - One rolling history window per (user, session) pair
// 5. user_preferences - One configuration record per user
