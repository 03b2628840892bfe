package store

import (
	"context"
	"errors"

	"bakecost/internal/history"
	"bakecost/internal/propagate"
	"bakecost/models"
)

// ErrNotFound is returned when an entity does not exist for the acting owner.
var ErrNotFound = errors.New("store: not found")

// Repository is the backing document store: collection reads, document
// writes and history appends. Every read is scoped to one owner.
type Repository interface {
	history.Repository
	propagate.CostWriter

	ListIngredients(ctx context.Context, ownerID uint) ([]models.Ingredient, error)
	CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error
	UpdateIngredient(ctx context.Context, ingredient *models.Ingredient) error
	DeleteIngredient(ctx context.Context, ingredientID, ownerID uint) error

	ListRecipes(ctx context.Context, ownerID uint) ([]models.Recipe, error)
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	UpdateRecipe(ctx context.Context, recipe *models.Recipe) error
	DeleteRecipe(ctx context.Context, recipeID, ownerID uint) error
}
