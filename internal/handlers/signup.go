package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	applog "bakecost/internal/log"
)

type signupRequest struct {
	Name            string `json:"name" validate:"max=120"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// Signup processes new registrations sent as JSON or as a form post and
// signs the new account in.
func Signup(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "handling signup request", "method", r.Method)

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ActiveSession(r) {
			applog.Debug(r.Context(), "active session detected during signup, redirecting to app")
			redirectToApp(w, r)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{})
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			applog.Debug(r.Context(), "registration dependencies unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
			http.Error(w, "registration not available", http.StatusServiceUnavailable)
			return
		}

		var payload signupRequest
		if err := readCredentials(r, &payload, func() {
			payload.Name = r.PostFormValue("name")
			payload.Email = r.PostFormValue("email")
			payload.Password = r.PostFormValue("password")
			payload.ConfirmPassword = r.PostFormValue("confirm_password")
		}); err != nil {
			applog.Debug(r.Context(), "failed to parse signup submission", "error", err)
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		payload.Name = strings.TrimSpace(payload.Name)
		payload.Email = strings.TrimSpace(payload.Email)

		if err := validate.Struct(payload); err != nil {
			applog.Debug(r.Context(), "signup submission rejected", "error", err)
			writeJSONError(w, http.StatusBadRequest, signupMessage(err))
			return
		}

		if _, err := findUserByEmail(r, payload.Email); err == nil {
			applog.Debug(r.Context(), "signup attempted with existing email", "email", strings.ToLower(payload.Email))
			writeJSONError(w, http.StatusConflict, "An account with that email already exists.")
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Error(r.Context(), "failed to check existing user", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "We couldn't create your account right now. Please try again.")
			return
		}

		user, err := createUser(r, payload.Email, payload.Name, payload.Password)
		if err != nil {
			applog.Error(r.Context(), "failed to create user", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "We couldn't create your account right now. Please try again.")
			return
		}

		applog.Debug(r.Context(), "user created via signup", "userID", user.ID, "email", user.Email)

		if err := establishSession(r, user); err != nil {
			applog.Error(r.Context(), "failed to establish session after signup", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "We couldn't sign you in after creating your account. Please try again.")
			return
		}

		applog.Debug(r.Context(), "signup completed successfully", "userID", user.ID)
		respondSignedIn(w, r, http.StatusCreated)
	default:
		applog.Debug(r.Context(), "method not allowed for signup", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func signupMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "email":
			return "Please provide a valid email address."
		case "password":
			return "Password must be at least 8 characters long."
		case "confirm_password":
			return "Passwords do not match."
		}
	}
	return validationMessage(err)
}
