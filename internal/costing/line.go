package costing

import "bakecost/models"

// IngredientLineCost prices quantity/unit of an ingredient. A nil ingredient
// (the line points at something that no longer exists) costs nothing.
func IngredientLineCost(ingredient *models.Ingredient, quantity float64, unit models.Unit) float64 {
	cost, _ := ingredientLineCost(ingredient, quantity, unit)
	return cost
}

func ingredientLineCost(ingredient *models.Ingredient, quantity float64, unit models.Unit) (float64, Conversion) {
	if ingredient == nil {
		return 0, Conversion{}
	}
	converted := Convert(quantity, unit, ingredient.BaseUnit)
	return converted.Value * models.PricePerUnit(ingredient.TotalPrice, ingredient.TotalMeasure), converted
}
