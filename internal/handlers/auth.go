package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vidvault/internal/database"
	"vidvault/internal/logging"
)

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "vidvault_session"

type loginRequest struct {
	Password string `json:"password"`
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResponse is returned by the authentication endpoints.
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

// CheckSetupRequired reports whether an initial password must be set.
func (h *Handlers) CheckSetupRequired(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]bool{"needsSetup": !h.db.HasUsers()})
}

// Setup creates the initial password. Refused once a user exists.
func (h *Handlers) Setup(w http.ResponseWriter, r *http.Request) {
	if h.db.HasUsers() {
		writeJSONError(w, "setup already completed", http.StatusForbidden)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := validatePassword(req.Password); msg != "" {
		writeJSONError(w, msg, http.StatusBadRequest)
		return
	}

	if err := h.db.CreateUser(req.Password); err != nil {
		logging.Error("Failed to create user: %v", err)
		writeJSONError(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	logging.Info("Initial password configured")
	writeJSON(w, AuthResponse{Success: true, Message: "password configured"})
}

// Login authenticates with the password and sets a session cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.db.ValidatePassword(req.Password)
	if err != nil {
		logging.Warn("Failed login attempt")
		writeJSONError(w, "invalid password", http.StatusUnauthorized)
		return
	}

	session, err := h.db.CreateSession(user.ID)
	if err != nil {
		logging.Error("Failed to create session: %v", err)
		writeJSONError(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, AuthResponse{
		Success:   true,
		ExpiresIn: int(database.SessionDuration.Seconds()),
	})
}

// Logout ends the current session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			logging.Error("failed to delete session during logout: %v", err)
		}
	}
	clearSessionCookie(w)
	writeJSON(w, AuthResponse{Success: true, Message: "logged out"})
}

// CheckAuth verifies the current session.
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := h.db.ValidateSession(cookie.Value); err != nil {
		clearSessionCookie(w)
		writeJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, AuthResponse{
		Success:   true,
		ExpiresIn: int(database.SessionDuration.Seconds()),
	})
}

// ChangePassword replaces the password after verifying the current one.
// All existing sessions are invalidated by the database layer.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.db.ValidatePassword(req.CurrentPassword); err != nil {
		logging.Warn("Failed password change attempt")
		writeJSONError(w, "current password is incorrect", http.StatusUnauthorized)
		return
	}
	if msg := validatePassword(req.NewPassword); msg != "" {
		writeJSONError(w, msg, http.StatusBadRequest)
		return
	}

	if err := h.db.UpdatePassword(req.NewPassword); err != nil {
		logging.Error("Failed to update password: %v", err)
		writeJSONError(w, "failed to update password", http.StatusInternalServerError)
		return
	}

	logging.Info("Password changed")
	writeJSON(w, AuthResponse{Success: true, Message: "password updated"})
}

// AuthMiddleware protects routes that require a valid session. Auth
// and health endpoints stay reachable so a logged-out client can log
// in and probes keep working.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			rejectUnauthenticated(w, r)
			return
		}
		if _, err := h.db.ValidateSession(cookie.Value); err != nil {
			clearSessionCookie(w)
			rejectUnauthenticated(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isPublicPath(path string) bool {
	switch path {
	case "/health", "/healthz", "/livez", "/login.html", "/favicon.ico":
		return true
	}
	return strings.HasPrefix(path, "/api/auth/") ||
		strings.HasPrefix(path, "/css/") ||
		strings.HasPrefix(path, "/js/")
}

func rejectUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSONError(w, "unauthorized", http.StatusUnauthorized)
	} else {
		http.Redirect(w, r, "/login.html", http.StatusFound)
	}
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// validatePassword returns an error message for unacceptable
// passwords, empty string otherwise. The upper bound is bcrypt's
// 72-byte input limit.
func validatePassword(password string) string {
	if len(password) < 6 {
		return "password must be at least 6 characters"
	}
	if len(password) > 72 {
		return "password must not exceed 72 characters"
	}
	return ""
}
