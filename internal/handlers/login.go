package handlers

import (
	"mime"
	"net/http"
	"strings"

	applog "bakecost/internal/log"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        uint   `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Login reports the session state and processes sign-in submissions sent
// either as JSON or as a classic form post.
func Login(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "handling login request", "method", r.Method)

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ActiveSession(r) {
			applog.Debug(r.Context(), "active session detected, redirecting to app")
			redirectToApp(w, r)
			return
		}
		message := ""
		if sessionManager != nil {
			message = sessionManager.PopString(r.Context(), sessionLoginMessageKey)
		}
		writeJSON(w, http.StatusOK, sessionResponse{Message: message})
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			applog.Debug(r.Context(), "authentication dependencies unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
			http.Error(w, "authentication not available", http.StatusServiceUnavailable)
			return
		}

		var payload loginRequest
		if err := readCredentials(r, &payload, func() {
			payload.Email = r.PostFormValue("email")
			payload.Password = r.PostFormValue("password")
		}); err != nil {
			applog.Debug(r.Context(), "failed to parse login submission", "error", err)
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		payload.Email = strings.TrimSpace(payload.Email)

		if err := validate.Struct(payload); err != nil {
			applog.Debug(r.Context(), "login submission rejected", "error", err)
			writeJSONError(w, http.StatusBadRequest, "Email and password are required.")
			return
		}

		if !authenticate(w, r, payload.Email, payload.Password) {
			applog.Debug(r.Context(), "authentication failed", "email", strings.ToLower(payload.Email))
			message := sessionManager.PopString(r.Context(), sessionLoginMessageKey)
			if message == "" {
				message = "We were unable to sign you in. Please try again."
			}
			writeJSONError(w, http.StatusUnauthorized, message)
			return
		}

		applog.Debug(r.Context(), "authentication succeeded", "email", strings.ToLower(payload.Email))
		respondSignedIn(w, r, http.StatusOK)
	default:
		applog.Debug(r.Context(), "method not allowed for login", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// readCredentials decodes a JSON body, or parses the form and lets
// fromForm copy the posted fields.
func readCredentials(r *http.Request, dst any, fromForm func()) error {
	if isJSONBody(r) {
		return decodeJSON(r, dst)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	fromForm()
	return nil
}

func isJSONBody(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// respondSignedIn answers JSON clients with the session and redirects form
// posts into the app.
func respondSignedIn(w http.ResponseWriter, r *http.Request, status int) {
	if !isJSONBody(r) {
		redirectToApp(w, r)
		return
	}
	userID, _ := currentUserID(r)
	writeJSON(w, status, sessionResponse{
		Authenticated: true,
		UserID:        userID,
		Email:         sessionManager.GetString(r.Context(), sessionUserEmailKey),
		Name:          sessionManager.GetString(r.Context(), sessionUserNameKey),
	})
}
