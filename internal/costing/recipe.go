package costing

import "bakecost/models"

// Catalog indexes an owner's ingredients and recipes by id.
type Catalog struct {
	ingredients map[uint]*models.Ingredient
	recipes     map[uint]*models.Recipe
}

// NewCatalog builds a Catalog over the given slices. The slices are not
// copied; callers must not mutate them while the catalog is in use.
func NewCatalog(ingredients []models.Ingredient, recipes []models.Recipe) Catalog {
	c := Catalog{
		ingredients: make(map[uint]*models.Ingredient, len(ingredients)),
		recipes:     make(map[uint]*models.Recipe, len(recipes)),
	}
	for i := range ingredients {
		c.ingredients[ingredients[i].ID] = &ingredients[i]
	}
	for i := range recipes {
		c.recipes[recipes[i].ID] = &recipes[i]
	}
	return c
}

// Ingredient returns the ingredient with the given id, or nil.
func (c Catalog) Ingredient(id uint) *models.Ingredient {
	return c.ingredients[id]
}

// Recipe returns the recipe with the given id, or nil.
func (c Catalog) Recipe(id uint) *models.Recipe {
	return c.recipes[id]
}

// LineKind tells ingredient lines from filling lines in a Breakdown.
type LineKind string

const (
	LineIngredient LineKind = "ingredient"
	LineFilling    LineKind = "filling"
)

// LineCost is the priced result of one recipe line.
type LineCost struct {
	Kind        LineKind    `json:"kind"`
	RefID       uint        `json:"ref_id"`
	Name        string      `json:"name,omitempty"`
	Quantity    float64     `json:"quantity"`
	Unit        models.Unit `json:"unit"`
	Cost        float64     `json:"cost"`
	Missing     bool        `json:"missing,omitempty"`
	Passthrough bool        `json:"unit_passthrough,omitempty"`
	// WholeBatch marks a filling line charged at the filling's full cost
	// because the filling declares no yield.
	WholeBatch bool `json:"whole_batch,omitempty"`
}

// Breakdown is the line-by-line cost of a recipe.
type Breakdown struct {
	IngredientCost float64    `json:"ingredient_cost"`
	FillingCost    float64    `json:"filling_cost"`
	Total          float64    `json:"total"`
	Lines          []LineCost `json:"lines"`
}

// Warnings reports whether any line was missing, unit-mismatched or charged
// as a whole batch.
func (b Breakdown) Warnings() bool {
	for _, line := range b.Lines {
		if line.Missing || line.Passthrough || line.WholeBatch {
			return true
		}
	}
	return false
}

// RecipeCost returns the total cost of recipe against catalog.
func RecipeCost(recipe models.Recipe, catalog Catalog) float64 {
	return Resolve(recipe, catalog).Total
}

// Resolve prices every line of recipe. Ingredient lines are priced from the
// catalog's ingredients. Filling lines are only priced for cakes and use the
// filling's stored CustoTotal; fillings nested inside fillings are ignored.
func Resolve(recipe models.Recipe, catalog Catalog) Breakdown {
	b := Breakdown{Lines: make([]LineCost, 0, len(recipe.IngredientLines)+len(recipe.FillingLines))}

	for _, line := range recipe.IngredientLines {
		ingredient := catalog.Ingredient(line.IngredientID)
		cost, conv := ingredientLineCost(ingredient, line.Quantity, line.Unit)
		lc := LineCost{
			Kind:        LineIngredient,
			RefID:       line.IngredientID,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
			Cost:        cost,
			Missing:     ingredient == nil,
			Passthrough: conv.Passthrough,
		}
		if ingredient != nil {
			lc.Name = ingredient.Name
		}
		b.IngredientCost += cost
		b.Lines = append(b.Lines, lc)
	}

	if recipe.Kind == models.KindCake {
		for _, line := range recipe.FillingLines {
			lc := fillingLineCost(catalog.Recipe(line.FillingRecipeID), line)
			b.FillingCost += lc.Cost
			b.Lines = append(b.Lines, lc)
		}
	}

	b.Total = b.IngredientCost + b.FillingCost
	return b
}

// FillingLineCost prices one filling line against the referenced filling.
func FillingLineCost(filling *models.Recipe, line models.RecipeFilling) float64 {
	return fillingLineCost(filling, line).Cost
}

func fillingLineCost(filling *models.Recipe, line models.RecipeFilling) LineCost {
	lc := LineCost{
		Kind:     LineFilling,
		RefID:    line.FillingRecipeID,
		Quantity: line.Quantity,
		Unit:     line.Unit,
	}
	if filling == nil {
		lc.Missing = true
		return lc
	}
	lc.Name = filling.Name

	if line.Unit == models.Count {
		lc.Cost = filling.CustoTotal * line.Quantity
		return lc
	}

	grams := Convert(line.Quantity, line.Unit, models.Gram)
	lc.Passthrough = grams.Passthrough
	if yield := filling.Yield(); yield > 0 {
		lc.Cost = grams.Value / yield * filling.CustoTotal
		return lc
	}

	// No declared yield: the whole batch is charged whatever the quantity.
	lc.WholeBatch = true
	lc.Cost = filling.CustoTotal
	return lc
}
