package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"bakecost/internal/history"
	applog "bakecost/internal/log"
	"bakecost/internal/store"
	"bakecost/models"
)

var (
	errStoreUnavailable = errors.New("cost store not configured")
	errUnauthenticated  = errors.New("no authenticated user")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseUnit(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("recipekind", func(fl validator.FieldLevel) bool {
		return models.RecipeKind(strings.ToLower(strings.TrimSpace(fl.Field().String()))).Valid()
	})
	return v
}

// validationMessage flattens validator errors into one client-facing line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "unit":
			parts = append(parts, fmt.Sprintf("%s must be one of g, kg, ml, L, un", field))
		case "recipekind":
			parts = append(parts, fmt.Sprintf("%s must be one of filling, cake, dessert", field))
		case "gt", "gte":
			parts = append(parts, fmt.Sprintf("%s must be %s %s", field, comparisonWord(fe.Tag()), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(parts, "; ")
}

func comparisonWord(tag string) string {
	if tag == "gte" {
		return "at least"
	}
	return "greater than"
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps cost store failures onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, history.ErrOwnership):
		writeJSONError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, errUnauthenticated):
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, errStoreUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		applog.Error(r.Context(), message, "error", err)
		writeJSONError(w, http.StatusInternalServerError, message)
	}
}

// costService returns the cost store of the signed-in account.
func costService(r *http.Request) (*store.Service, error) {
	if costs == nil {
		return nil, errStoreUnavailable
	}
	userID, ok := currentUserID(r)
	if !ok {
		return nil, errUnauthenticated
	}
	return costs.For(r.Context(), userID)
}

// resourcePath splits the remainder of a resource URL into an id and an
// optional sub-resource name.
func resourcePath(path, prefix string) (id uint, sub string, hasID bool, err error) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return 0, "", false, nil
	}
	parts := strings.SplitN(rest, "/", 2)
	value, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || value == 0 {
		return 0, "", false, fmt.Errorf("invalid identifier %q", parts[0])
	}
	if len(parts) == 2 {
		sub = parts[1]
	}
	return uint(value), sub, true, nil
}

func wantsJSON(r *http.Request) bool {
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mediaType == "application/json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") || strings.HasPrefix(r.URL.Path, "/app/api/")
}
