package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goodtune/gameshelf/internal/server/api"
	"github.com/goodtune/gameshelf/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"today":  s.collection.Today(),
	})
}

// handleLogin handles user login requests.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		api.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, token, expiresAt, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			api.WriteError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		s.logger.Error().Err(err).Msg("Login error")
		api.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	writeToken(w, r, http.StatusOK, user, token, expiresAt)
	s.logger.Info().Str("username", user.Username).Msg("User logged in")
}

// handleRegister creates an account and signs it in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.config.AllowRegistration {
		api.WriteError(w, http.StatusForbidden, "Registration is disabled")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		api.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := CreateUser(r.Context(), s.users, req.Username, req.Password)
	switch {
	case errors.Is(err, ErrWeakPassword):
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrUserExists):
		api.WriteError(w, http.StatusConflict, "Username is taken")
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("Registration error")
		api.WriteError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	token, expiresAt, err := s.auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		s.logger.Error().Err(err).Msg("Token generation failed")
		api.WriteError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	writeToken(w, r, http.StatusCreated, user, token, expiresAt)
	s.logger.Info().Str("username", user.Username).Msg("User registered")
}

func writeToken(w http.ResponseWriter, r *http.Request, status int, user *storage.User, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
	})

	api.WriteJSON(w, status, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User: UserInfo{
			ID:       user.ID,
			Username: user.Username,
		},
	})
}

// handleLogout clears the token cookie. Bearer tokens stay valid until they
// expire.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})

	api.WriteJSON(w, http.StatusOK, SuccessResponse{Message: "Logged out successfully"})

	username, _ := GetUsernameFromContext(r.Context())
	s.logger.Info().Str("username", username).Msg("User logged out")
}

// handleMe returns the current user information.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	username, _ := GetUsernameFromContext(r.Context())

	api.WriteJSON(w, http.StatusOK, UserInfo{
		ID:       userID,
		Username: username,
	})
}

// handleChangePassword handles password change requests.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	username, ok := GetUsernameFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		api.WriteError(w, http.StatusBadRequest, "Old and new passwords are required")
		return
	}

	if err := s.auth.ChangePassword(r.Context(), username, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			api.WriteError(w, http.StatusUnauthorized, "Invalid current password")
		case errors.Is(err, ErrWeakPassword):
			api.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error().Err(err).Str("username", username).Msg("Password change error")
			api.WriteError(w, http.StatusInternalServerError, "Failed to change password")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, SuccessResponse{Message: "Password changed successfully"})

	s.logger.Info().Str("username", username).Msg("User changed password")
}
