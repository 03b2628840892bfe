package handlers

import "net/http"

type dashboardResponse struct {
	IngredientCount int              `json:"ingredient_count"`
	RecipeCount     int              `json:"recipe_count"`
	FillingCount    int              `json:"filling_count"`
	CakeCount       int              `json:"cake_count"`
	DessertCount    int              `json:"dessert_count"`
	RecentRecipes   []recipeResponse `json:"recent_recipes"`
}

// Dashboard summarises the signed-in account's catalogue.
func Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	svc, err := costService(r)
	if err != nil {
		writeStoreError(w, r, err, "unable to load dashboard")
		return
	}

	summary := svc.Summary()
	catalog := svc.Catalog()
	response := dashboardResponse{
		IngredientCount: summary.IngredientCount,
		RecipeCount:     summary.RecipeCount,
		FillingCount:    summary.FillingCount,
		CakeCount:       summary.CakeCount,
		DessertCount:    summary.DessertCount,
		RecentRecipes:   make([]recipeResponse, 0, len(summary.RecentRecipes)),
	}
	for _, recipe := range summary.RecentRecipes {
		response.RecentRecipes = append(response.RecentRecipes, projectRecipe(recipe, catalog))
	}

	writeJSON(w, http.StatusOK, response)
}

