package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/krudrav/solace/backend/models"
)

type AuthEndpoints struct {
	authService *AuthService
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func NewAuthEndpoints(authService *AuthService) *AuthEndpoints {
	return &AuthEndpoints{
		authService: authService,
	}
}

func (e *AuthEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", e.LoginHandler)
		r.Post("/signup", e.SignupHandler)
		r.Post("/refresh", e.RefreshHandler)
		r.Post("/logout", e.LogoutHandler)
		r.Get("/me", e.MeHandler)
	})
}

// publicUser projects the fields safe to return to the client.
func publicUser(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":        user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
		"role":      user.Role,
	}
}

func (e *AuthEndpoints) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendResponse(w, http.StatusBadRequest, false, "Invalid request body", nil)
		return
	}

	authResponse, err := e.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Error("Login failed", "error", err, "email", req.Email)
		sendResponse(w, http.StatusUnauthorized, false, "Invalid credentials", nil)
		return
	}

	// Set cookies
	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken)

	sendResponse(w, http.StatusOK, true, "Login successful", map[string]interface{}{
		"user": publicUser(authResponse.User),
	})

	slog.Info("User logged in", "user_id", authResponse.User.ID, "email", authResponse.User.Email)
}

func (e *AuthEndpoints) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendResponse(w, http.StatusBadRequest, false, "Invalid request body", nil)
		return
	}

	if req.Email == "" || req.Password == "" {
		sendResponse(w, http.StatusBadRequest, false, "Email and password are required", nil)
		return
	}

	authResponse, err := e.authService.Signup(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		slog.Error("Signup failed", "error", err, "email", req.Email)
		sendResponse(w, http.StatusBadRequest, false, err.Error(), nil)
		return
	}

	// Set cookies
	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken)

	sendResponse(w, http.StatusCreated, true, "Signup successful", map[string]interface{}{
		"user": publicUser(authResponse.User),
	})

	slog.Info("User signed up", "user_id", authResponse.User.ID, "email", authResponse.User.Email)
}

func (e *AuthEndpoints) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	refreshToken := e.authService.GetTokenFromCookie(r, "refresh_token")
	if refreshToken == "" {
		sendResponse(w, http.StatusUnauthorized, false, "No refresh token provided", nil)
		return
	}

	authResponse, err := e.authService.RefreshToken(r.Context(), refreshToken)
	if err != nil {
		slog.Error("Token refresh failed", "error", err)
		sendResponse(w, http.StatusUnauthorized, false, "Invalid refresh token", nil)
		return
	}

	// Set new access token cookie, keep the existing refresh token
	e.authService.SetAuthCookies(w, authResponse.AccessToken, refreshToken)

	sendResponse(w, http.StatusOK, true, "Token refreshed successfully", nil)

	slog.Info("Token refreshed", "user_id", authResponse.User.ID)
}

func (e *AuthEndpoints) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	// Get user from context (set by middleware)
	user := r.Context().Value("user")
	if user == nil {
		sendResponse(w, http.StatusUnauthorized, false, "Not authenticated", nil)
		return
	}

	// Type assert to get user ID
	var userID string
	if authUser, ok := user.(*models.User); ok {
		userID = authUser.ID
	} else {
		sendResponse(w, http.StatusInternalServerError, false, "Invalid user context", nil)
		return
	}

	// Logout user (invalidate all tokens)
	if err := e.authService.Logout(r.Context(), userID); err != nil {
		slog.Error("Logout failed", "error", err, "user_id", userID)
		sendResponse(w, http.StatusInternalServerError, false, "Logout failed", nil)
		return
	}

	// Clear all cookies
	e.authService.ClearAuthCookies(w)

	sendResponse(w, http.StatusOK, true, "Logout successful", nil)

	slog.Info("User logged out", "user_id", userID)
}

func (e *AuthEndpoints) MeHandler(w http.ResponseWriter, r *http.Request) {
	// Get user from context (set by middleware)
	user := r.Context().Value("user")
	if user == nil {
		sendResponse(w, http.StatusUnauthorized, false, "Not authenticated", nil)
		return
	}

	// Type assert to get user
	authUser, ok := user.(*models.User)
	if !ok {
		sendResponse(w, http.StatusInternalServerError, false, "Invalid user context", nil)
		return
	}

	sendResponse(w, http.StatusOK, true, "Authenticated", map[string]interface{}{
		"user": publicUser(authUser),
	})
}
