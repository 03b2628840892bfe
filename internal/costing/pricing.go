package costing

import "bakecost/models"

// SuggestedPrice applies a margin percentage to a cost. A non-positive
// margin falls back to models.DefaultProfitMarginPercent.
func SuggestedPrice(cost, marginPercent float64) float64 {
	if marginPercent <= 0 {
		marginPercent = models.DefaultProfitMarginPercent
	}
	return cost * marginPercent / 100
}

// RecipeSuggestedPrice is SuggestedPrice with the recipe's own cost and margin.
func RecipeSuggestedPrice(recipe models.Recipe) float64 {
	return SuggestedPrice(recipe.CustoTotal, recipe.MarginPercent())
}

// CostPerServing splits a cost across servings. Without servings the whole
// cost is returned.
func CostPerServing(cost float64, servings int) float64 {
	if servings <= 0 {
		return cost
	}
	return cost / float64(servings)
}
