package propagate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"bakecost/internal/costing"
	applog "bakecost/internal/log"
	"bakecost/internal/metrics"
	"bakecost/models"
)

// CostWriter persists a recomputed recipe total. Writers match both the
// recipe and its owner.
type CostWriter interface {
	UpdateRecipeCost(ctx context.Context, ownerID, recipeID uint, custoTotal float64) error
}

// Update is one recipe total written by a propagation.
type Update struct {
	OwnerID    uint
	RecipeID   uint
	Previous   float64
	CustoTotal float64
}

// Result summarises a propagation.
type Result struct {
	Updated []Update
	// StaleCakes are cakes embedding an updated filling. They are not
	// recomputed; their totals stay stale until the cake itself is saved.
	StaleCakes []uint
}

// Propagator recomputes recipes that use a changed ingredient directly.
type Propagator struct {
	writer CostWriter
}

// New returns a Propagator persisting through writer.
func New(writer CostWriter) *Propagator {
	return &Propagator{writer: writer}
}

// Affected returns the recipes whose own ingredient lines reference ingredientID.
func Affected(ingredientID uint, recipes []models.Recipe) []models.Recipe {
	var affected []models.Recipe
	for _, recipe := range recipes {
		if recipe.UsesIngredient(ingredientID) {
			affected = append(affected, recipe)
		}
	}
	return affected
}

// IngredientChanged recomputes every recipe referencing ingredientID against
// the full ingredient set and persists the new totals concurrently. It waits
// for every write before returning; the first write error is returned.
// Propagation stops after one hop.
func (p *Propagator) IngredientChanged(ctx context.Context, ingredientID uint, recipes []models.Recipe, ingredients []models.Ingredient) (Result, error) {
	affected := Affected(ingredientID, recipes)
	if len(affected) == 0 {
		applog.Debug(ctx, "no recipes reference ingredient", "ingredientID", ingredientID)
		return Result{}, nil
	}

	catalog := costing.NewCatalog(ingredients, recipes)
	updates := make([]Update, len(affected))
	for i, recipe := range affected {
		updates[i] = Update{
			OwnerID:    recipe.OwnerID,
			RecipeID:   recipe.ID,
			Previous:   recipe.CustoTotal,
			CustoTotal: costing.RecipeCost(recipe, catalog),
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, update := range updates {
		update := update
		g.Go(func() error {
			if err := p.writer.UpdateRecipeCost(gctx, update.OwnerID, update.RecipeID, update.CustoTotal); err != nil {
				return fmt.Errorf("recipe %d: %w", update.RecipeID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("persist recipe costs: %w", err)
	}

	result := Result{
		Updated:    updates,
		StaleCakes: staleCakes(affected, recipes),
	}

	metrics.RecipesRecomputed(len(result.Updated))
	if len(result.StaleCakes) > 0 {
		metrics.StaleCakes(len(result.StaleCakes))
		applog.Info(ctx, "cakes embedding recomputed fillings keep their previous total",
			"ingredientID", ingredientID,
			"staleCakes", result.StaleCakes,
		)
	}
	applog.Debug(ctx, "ingredient change propagated", "ingredientID", ingredientID, "recipes", len(result.Updated))
	return result, nil
}

func staleCakes(affected, recipes []models.Recipe) []uint {
	var stale []uint
	for _, recipe := range recipes {
		if recipe.Kind != models.KindCake {
			continue
		}
		for _, updated := range affected {
			if updated.Kind == models.KindFilling && recipe.UsesFilling(updated.ID) {
				stale = append(stale, recipe.ID)
				break
			}
		}
	}
	return stale
}
