package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"bakecost/internal/costing"
	applog "bakecost/internal/log"
	"bakecost/internal/store"
	"bakecost/models"
)

const recipesPath = "/app/api/recipes"

type recipeIngredientLineRequest struct {
	IngredientID uint    `json:"ingredient_id" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
	Unit         string  `json:"unit" validate:"required,unit"`
}

type recipeFillingLineRequest struct {
	FillingRecipeID uint    `json:"filling_recipe_id" validate:"required"`
	Quantity        float64 `json:"quantity" validate:"gt=0"`
	Unit            string  `json:"unit" validate:"required,unit"`
}

type recipeRequest struct {
	Name                string                        `json:"name" validate:"required,max=160"`
	Kind                string                        `json:"kind" validate:"required,recipekind"`
	IngredientLines     []recipeIngredientLineRequest `json:"ingredient_lines" validate:"dive"`
	FillingLines        []recipeFillingLineRequest    `json:"filling_lines" validate:"dive"`
	Description         string                        `json:"description" validate:"max=4000"`
	Servings            *int                          `json:"servings" validate:"omitempty,gt=0"`
	ImageURL            string                        `json:"image_url" validate:"omitempty,url"`
	ProfitMarginPercent *float64                      `json:"profit_margin_percent" validate:"omitempty,gt=0"`
	YieldGrams          *float64                      `json:"yield_grams" validate:"omitempty,gt=0"`
	DefaultUnit         string                        `json:"default_unit" validate:"omitempty,unit"`
}

type recipeLineResponse struct {
	ID       uint        `json:"id"`
	RefID    uint        `json:"ref_id"`
	Name     string      `json:"name,omitempty"`
	Quantity float64     `json:"quantity"`
	Unit     models.Unit `json:"unit"`
}

type recipeResponse struct {
	ID                  uint                 `json:"id"`
	Name                string               `json:"name"`
	Kind                models.RecipeKind    `json:"kind"`
	Description         string               `json:"description"`
	IngredientLines     []recipeLineResponse `json:"ingredient_lines"`
	FillingLines        []recipeLineResponse `json:"filling_lines"`
	CustoTotal          float64              `json:"custo_total"`
	CustoTotalLabel     string               `json:"custo_total_label"`
	ProfitMarginPercent float64              `json:"profit_margin_percent"`
	SuggestedPrice      float64              `json:"suggested_price"`
	SuggestedPriceLabel string               `json:"suggested_price_label"`
	Servings            *int                 `json:"servings,omitempty"`
	CostPerServing      *float64             `json:"cost_per_serving,omitempty"`
	YieldGrams          *float64             `json:"yield_grams,omitempty"`
	DefaultUnit         models.Unit          `json:"default_unit,omitempty"`
	ImageURL            string               `json:"image_url,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

type recipeHistoryResponse struct {
	ID                  uint      `json:"id"`
	Name                string    `json:"name"`
	CustoTotal          float64   `json:"custo_total"`
	SuggestedPrice      float64   `json:"suggested_price"`
	ProfitMarginPercent float64   `json:"profit_margin_percent"`
	RecordedAt          time.Time `json:"recorded_at"`
}

type breakdownResponse struct {
	RecipeID   uint              `json:"recipe_id"`
	Breakdown  costing.Breakdown `json:"breakdown"`
	Stored     float64           `json:"stored_custo_total"`
	Stale      bool              `json:"stale"`
	Warnings   bool              `json:"warnings"`
	TotalLabel string            `json:"total_label"`
}

// RecipeResource handles CRUD, history and cost breakdown reads for the
// signed-in account's recipes.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	svc, err := costService(r)
	if err != nil {
		writeStoreError(w, r, err, "unable to load recipes")
		return
	}

	recipeID, sub, hasID, err := resourcePath(r.URL.Path, recipesPath)
	if err != nil {
		applog.Debug(r.Context(), "invalid recipe path", "path", r.URL.Path, "error", err)
		http.NotFound(w, r)
		return
	}

	if !hasID {
		switch r.Method {
		case http.MethodGet:
			listRecipes(w, r, svc)
		case http.MethodPost:
			createRecipe(w, r, svc)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch sub {
	case "":
	case "history", "breakdown":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if sub == "history" {
			listRecipeHistory(w, r, svc, recipeID)
		} else {
			showRecipeBreakdown(w, r, svc, recipeID)
		}
		return
	default:
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showRecipe(w, r, svc, recipeID)
	case http.MethodPut:
		updateRecipe(w, r, svc, recipeID)
	case http.MethodDelete:
		deleteRecipe(w, r, svc, recipeID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listRecipes(w http.ResponseWriter, r *http.Request, svc *store.Service) {
	var kind models.RecipeKind
	if kindParam := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("kind"))); kindParam != "" {
		kind = models.RecipeKind(kindParam)
		if !kind.Valid() {
			writeJSONError(w, http.StatusBadRequest, "kind must be one of filling, cake, dessert")
			return
		}
	}

	catalog := svc.Catalog()
	recipes := svc.Recipes()
	responses := make([]recipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		if kind != "" && recipe.Kind != kind {
			continue
		}
		responses = append(responses, projectRecipe(recipe, catalog))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showRecipe(w http.ResponseWriter, r *http.Request, svc *store.Service, recipeID uint) {
	recipe, ok := svc.Recipe(recipeID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, projectRecipe(recipe, svc.Catalog()))
}

func createRecipe(w http.ResponseWriter, r *http.Request, svc *store.Service) {
	input, ok := readRecipeRequest(w, r, svc, 0)
	if !ok {
		return
	}

	recipe, err := svc.AddRecipe(r.Context(), input)
	if err != nil {
		writeStoreError(w, r, err, "unable to create recipe")
		return
	}
	writeJSON(w, http.StatusCreated, projectRecipe(recipe, svc.Catalog()))
}

func updateRecipe(w http.ResponseWriter, r *http.Request, svc *store.Service, recipeID uint) {
	if _, ok := svc.Recipe(recipeID); !ok {
		http.NotFound(w, r)
		return
	}

	input, ok := readRecipeRequest(w, r, svc, recipeID)
	if !ok {
		return
	}

	recipe, err := svc.UpdateRecipe(r.Context(), recipeID, input)
	if err != nil {
		writeStoreError(w, r, err, "unable to update recipe")
		return
	}
	writeJSON(w, http.StatusOK, projectRecipe(recipe, svc.Catalog()))
}

func deleteRecipe(w http.ResponseWriter, r *http.Request, svc *store.Service, recipeID uint) {
	if err := svc.DeleteRecipe(r.Context(), recipeID); err != nil {
		writeStoreError(w, r, err, "unable to delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func listRecipeHistory(w http.ResponseWriter, r *http.Request, svc *store.Service, recipeID uint) {
	entries, err := svc.RecipeHistory(r.Context(), recipeID)
	if err != nil {
		writeStoreError(w, r, err, "unable to load recipe history")
		return
	}
	responses := make([]recipeHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, recipeHistoryResponse{
			ID:                  entry.ID,
			Name:                entry.Name,
			CustoTotal:          entry.CustoTotal,
			SuggestedPrice:      entry.SuggestedPrice,
			ProfitMarginPercent: entry.ProfitMarginPercent,
			RecordedAt:          entry.RecordedAt,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

func showRecipeBreakdown(w http.ResponseWriter, r *http.Request, svc *store.Service, recipeID uint) {
	recipe, ok := svc.Recipe(recipeID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	breakdown, err := svc.Breakdown(recipeID)
	if err != nil {
		writeStoreError(w, r, err, "unable to resolve recipe cost")
		return
	}
	writeJSON(w, http.StatusOK, breakdownResponse{
		RecipeID:   recipe.ID,
		Breakdown:  breakdown,
		Stored:     recipe.CustoTotal,
		Stale:      costing.RoundCurrency(breakdown.Total) != costing.RoundCurrency(recipe.CustoTotal),
		Warnings:   breakdown.Warnings(),
		TotalLabel: costing.FormatBRL(breakdown.Total),
	})
}

// readRecipeRequest decodes and validates a recipe payload. Referenced
// ingredients and fillings must belong to the account; filling lines are
// accepted on cakes only and a recipe may not embed itself.
func readRecipeRequest(w http.ResponseWriter, r *http.Request, svc *store.Service, selfID uint) (store.RecipeInput, bool) {
	ctx := r.Context()
	var payload recipeRequest
	if err := decodeJSON(r, &payload); err != nil {
		applog.Debug(ctx, "invalid recipe payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return store.RecipeInput{}, false
	}
	if err := validate.Struct(payload); err != nil {
		applog.Debug(ctx, "recipe validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, validationMessage(err))
		return store.RecipeInput{}, false
	}
	if err := checkRecipeReferences(payload, svc, selfID); err != nil {
		applog.Debug(ctx, "recipe references rejected", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return store.RecipeInput{}, false
	}

	input := store.RecipeInput{
		Name:                payload.Name,
		Kind:                models.RecipeKind(strings.ToLower(strings.TrimSpace(payload.Kind))),
		Description:         strings.TrimSpace(payload.Description),
		Servings:            payload.Servings,
		ImageURL:            strings.TrimSpace(payload.ImageURL),
		ProfitMarginPercent: payload.ProfitMarginPercent,
		YieldGrams:          payload.YieldGrams,
	}
	if payload.DefaultUnit != "" {
		input.DefaultUnit, _ = models.ParseUnit(payload.DefaultUnit)
	}
	for _, line := range payload.IngredientLines {
		unit, _ := models.ParseUnit(line.Unit)
		input.IngredientLines = append(input.IngredientLines, models.RecipeIngredient{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			Unit:         unit,
		})
	}
	for _, line := range payload.FillingLines {
		unit, _ := models.ParseUnit(line.Unit)
		input.FillingLines = append(input.FillingLines, models.RecipeFilling{
			FillingRecipeID: line.FillingRecipeID,
			Quantity:        line.Quantity,
			Unit:            unit,
		})
	}
	return input, true
}

func checkRecipeReferences(payload recipeRequest, svc *store.Service, selfID uint) error {
	kind := models.RecipeKind(strings.ToLower(strings.TrimSpace(payload.Kind)))
	if len(payload.FillingLines) > 0 && kind != models.KindCake {
		return fmt.Errorf("filling_lines are only allowed on cakes")
	}
	for _, line := range payload.IngredientLines {
		if _, ok := svc.Ingredient(line.IngredientID); !ok {
			return fmt.Errorf("ingredient %d does not exist", line.IngredientID)
		}
	}
	for _, line := range payload.FillingLines {
		if line.FillingRecipeID == selfID {
			return fmt.Errorf("a recipe cannot use itself as a filling")
		}
		filling, ok := svc.Recipe(line.FillingRecipeID)
		if !ok {
			return fmt.Errorf("filling %d does not exist", line.FillingRecipeID)
		}
		if filling.Kind != models.KindFilling {
			return fmt.Errorf("recipe %d is not a filling", line.FillingRecipeID)
		}
	}
	return nil
}

func projectRecipe(recipe models.Recipe, catalog costing.Catalog) recipeResponse {
	suggested := costing.RecipeSuggestedPrice(recipe)
	response := recipeResponse{
		ID:                  recipe.ID,
		Name:                recipe.Name,
		Kind:                recipe.Kind,
		Description:         recipe.Description,
		IngredientLines:     make([]recipeLineResponse, 0, len(recipe.IngredientLines)),
		FillingLines:        make([]recipeLineResponse, 0, len(recipe.FillingLines)),
		CustoTotal:          recipe.CustoTotal,
		CustoTotalLabel:     costing.FormatBRL(recipe.CustoTotal),
		ProfitMarginPercent: recipe.MarginPercent(),
		SuggestedPrice:      suggested,
		SuggestedPriceLabel: costing.FormatBRL(suggested),
		Servings:            recipe.Servings,
		YieldGrams:          recipe.YieldGrams,
		DefaultUnit:         recipe.DefaultUnit,
		ImageURL:            recipe.ImageURL,
		CreatedAt:           recipe.CreatedAt,
		UpdatedAt:           recipe.UpdatedAt,
	}
	if recipe.Servings != nil && *recipe.Servings > 0 {
		perServing := costing.CostPerServing(recipe.CustoTotal, *recipe.Servings)
		response.CostPerServing = &perServing
	}
	for _, line := range recipe.IngredientLines {
		projected := recipeLineResponse{ID: line.ID, RefID: line.IngredientID, Quantity: line.Quantity, Unit: line.Unit}
		if ingredient := catalog.Ingredient(line.IngredientID); ingredient != nil {
			projected.Name = ingredient.Name
		}
		response.IngredientLines = append(response.IngredientLines, projected)
	}
	for _, line := range recipe.FillingLines {
		projected := recipeLineResponse{ID: line.ID, RefID: line.FillingRecipeID, Quantity: line.Quantity, Unit: line.Unit}
		if filling := catalog.Recipe(line.FillingRecipeID); filling != nil {
			projected.Name = filling.Name
		}
		response.FillingLines = append(response.FillingLines, projected)
	}
	return response
}
