package handlers

import (
	"net/http"
	"time"

	"bakecost/internal/costing"
	applog "bakecost/internal/log"
	"bakecost/internal/store"
	"bakecost/models"
)

const ingredientsPath = "/app/api/ingredients"

type ingredientRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	TotalPrice   float64 `json:"total_price" validate:"gt=0"`
	TotalMeasure float64 `json:"total_measure" validate:"gt=0"`
	BaseUnit     string  `json:"base_unit" validate:"required,unit"`
}

type ingredientResponse struct {
	ID                uint        `json:"id"`
	Name              string      `json:"name"`
	TotalPrice        float64     `json:"total_price"`
	TotalMeasure      float64     `json:"total_measure"`
	BaseUnit          models.Unit `json:"base_unit"`
	PricePerUnit      float64     `json:"price_per_unit"`
	PricePerUnitLabel string      `json:"price_per_unit_label"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

type ingredientHistoryResponse struct {
	ID           uint        `json:"id"`
	Name         string      `json:"name"`
	TotalPrice   float64     `json:"total_price"`
	TotalMeasure float64     `json:"total_measure"`
	BaseUnit     models.Unit `json:"base_unit"`
	PricePerUnit float64     `json:"price_per_unit"`
	RecordedAt   time.Time   `json:"recorded_at"`
}

// IngredientResource handles CRUD and history reads for the signed-in
// account's ingredients.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	svc, err := costService(r)
	if err != nil {
		writeStoreError(w, r, err, "unable to load ingredients")
		return
	}

	ingredientID, sub, hasID, err := resourcePath(r.URL.Path, ingredientsPath)
	if err != nil {
		applog.Debug(r.Context(), "invalid ingredient path", "path", r.URL.Path, "error", err)
		http.NotFound(w, r)
		return
	}

	if !hasID {
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, svc)
		case http.MethodPost:
			createIngredient(w, r, svc)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch sub {
	case "":
	case "history":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		listIngredientHistory(w, r, svc, ingredientID)
		return
	default:
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showIngredient(w, r, svc, ingredientID)
	case http.MethodPut:
		updateIngredient(w, r, svc, ingredientID)
	case http.MethodDelete:
		deleteIngredient(w, r, svc, ingredientID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listIngredients(w http.ResponseWriter, svc *store.Service) {
	ingredients := svc.Ingredients()
	responses := make([]ingredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		responses = append(responses, projectIngredient(ingredient))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showIngredient(w http.ResponseWriter, r *http.Request, svc *store.Service, ingredientID uint) {
	ingredient, ok := svc.Ingredient(ingredientID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, projectIngredient(ingredient))
}

func createIngredient(w http.ResponseWriter, r *http.Request, svc *store.Service) {
	ctx := r.Context()
	input, ok := readIngredientRequest(w, r)
	if !ok {
		return
	}

	ingredient, err := svc.AddIngredient(ctx, input)
	if err != nil {
		writeStoreError(w, r, err, "unable to create ingredient")
		return
	}
	writeJSON(w, http.StatusCreated, projectIngredient(ingredient))
}

func updateIngredient(w http.ResponseWriter, r *http.Request, svc *store.Service, ingredientID uint) {
	ctx := r.Context()
	if _, ok := svc.Ingredient(ingredientID); !ok {
		http.NotFound(w, r)
		return
	}

	input, ok := readIngredientRequest(w, r)
	if !ok {
		return
	}

	ingredient, err := svc.UpdateIngredient(ctx, ingredientID, input)
	if err != nil {
		writeStoreError(w, r, err, "unable to update ingredient")
		return
	}
	writeJSON(w, http.StatusOK, projectIngredient(ingredient))
}

func deleteIngredient(w http.ResponseWriter, r *http.Request, svc *store.Service, ingredientID uint) {
	if err := svc.DeleteIngredient(r.Context(), ingredientID); err != nil {
		writeStoreError(w, r, err, "unable to delete ingredient")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func listIngredientHistory(w http.ResponseWriter, r *http.Request, svc *store.Service, ingredientID uint) {
	entries, err := svc.IngredientHistory(r.Context(), ingredientID)
	if err != nil {
		writeStoreError(w, r, err, "unable to load ingredient history")
		return
	}
	responses := make([]ingredientHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, ingredientHistoryResponse{
			ID:           entry.ID,
			Name:         entry.Name,
			TotalPrice:   entry.TotalPrice,
			TotalMeasure: entry.TotalMeasure,
			BaseUnit:     entry.BaseUnit,
			PricePerUnit: entry.PricePerUnit,
			RecordedAt:   entry.RecordedAt,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

func readIngredientRequest(w http.ResponseWriter, r *http.Request) (store.IngredientInput, bool) {
	ctx := r.Context()
	var payload ingredientRequest
	if err := decodeJSON(r, &payload); err != nil {
		applog.Debug(ctx, "invalid ingredient payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return store.IngredientInput{}, false
	}
	if err := validate.Struct(payload); err != nil {
		applog.Debug(ctx, "ingredient validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, validationMessage(err))
		return store.IngredientInput{}, false
	}

	unit, _ := models.ParseUnit(payload.BaseUnit)
	return store.IngredientInput{
		Name:         payload.Name,
		TotalPrice:   payload.TotalPrice,
		TotalMeasure: payload.TotalMeasure,
		BaseUnit:     unit,
	}, true
}

func projectIngredient(ingredient models.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:                ingredient.ID,
		Name:              ingredient.Name,
		TotalPrice:        ingredient.TotalPrice,
		TotalMeasure:      ingredient.TotalMeasure,
		BaseUnit:          ingredient.BaseUnit,
		PricePerUnit:      ingredient.PricePerUnit,
		PricePerUnitLabel: costing.FormatBRLPlaces(ingredient.PricePerUnit, 4) + "/" + string(ingredient.BaseUnit),
		CreatedAt:         ingredient.CreatedAt,
		UpdatedAt:         ingredient.UpdatedAt,
	}
}
