package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bakecost/models"
)

// GormRepository implements Repository on a gorm database.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository wraps db.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) ListIngredients(ctx context.Context, ownerID uint) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id asc").
		Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *GormRepository) CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	return r.db.WithContext(ctx).Create(ingredient).Error
}

func (r *GormRepository) UpdateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	ingredient.Reprice()
	updates := map[string]any{
		"name":           ingredient.Name,
		"total_price":    ingredient.TotalPrice,
		"total_measure":  ingredient.TotalMeasure,
		"base_unit":      ingredient.BaseUnit,
		"price_per_unit": ingredient.PricePerUnit,
	}
	result := r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("id = ? AND owner_id = ?", ingredient.ID, ingredient.OwnerID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("ingredient %d: %w", ingredient.ID, ErrNotFound)
	}
	return nil
}

func (r *GormRepository) DeleteIngredient(ctx context.Context, ingredientID, ownerID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", ingredientID, ownerID).
		Delete(&models.Ingredient{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("ingredient %d: %w", ingredientID, ErrNotFound)
	}
	return nil
}

func (r *GormRepository) ListRecipes(ctx context.Context, ownerID uint) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := r.db.WithContext(ctx).
		Preload("IngredientLines", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("FillingLines", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("owner_id = ?", ownerID).
		Order("id asc").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *GormRepository) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

// UpdateRecipe rewrites the recipe's fields and replaces its lines. The
// legacy notes column is cleared on every write.
func (r *GormRepository) UpdateRecipe(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"name":                  recipe.Name,
			"kind":                  recipe.Kind,
			"description":           recipe.Description,
			"observacoes":           "",
			"custo_total":           recipe.CustoTotal,
			"servings":              recipe.Servings,
			"image_url":             recipe.ImageURL,
			"profit_margin_percent": recipe.ProfitMarginPercent,
			"yield_grams":           recipe.YieldGrams,
			"default_unit":          recipe.DefaultUnit,
		}
		result := tx.Model(&models.Recipe{}).
			Where("id = ? AND owner_id = ?", recipe.ID, recipe.OwnerID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("recipe %d: %w", recipe.ID, ErrNotFound)
		}

		if err := tx.Unscoped().Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("clear ingredient lines: %w", err)
		}
		if err := tx.Unscoped().Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeFilling{}).Error; err != nil {
			return fmt.Errorf("clear filling lines: %w", err)
		}

		for i := range recipe.IngredientLines {
			recipe.IngredientLines[i].ID = 0
			recipe.IngredientLines[i].RecipeID = recipe.ID
		}
		for i := range recipe.FillingLines {
			recipe.FillingLines[i].ID = 0
			recipe.FillingLines[i].RecipeID = recipe.ID
		}
		if len(recipe.IngredientLines) > 0 {
			if err := tx.Create(&recipe.IngredientLines).Error; err != nil {
				return fmt.Errorf("write ingredient lines: %w", err)
			}
		}
		if len(recipe.FillingLines) > 0 {
			if err := tx.Create(&recipe.FillingLines).Error; err != nil {
				return fmt.Errorf("write filling lines: %w", err)
			}
		}
		return nil
	})
}

func (r *GormRepository) UpdateRecipeCost(ctx context.Context, ownerID, recipeID uint, custoTotal float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("id = ? AND owner_id = ?", recipeID, ownerID).
		Update("custo_total", custoTotal)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("recipe %d: %w", recipeID, ErrNotFound)
	}
	return nil
}

func (r *GormRepository) DeleteRecipe(ctx context.Context, recipeID, ownerID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", recipeID, ownerID).
		Delete(&models.Recipe{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("recipe %d: %w", recipeID, ErrNotFound)
	}
	return nil
}

// IngredientOwner reads the owner straight from the table, including
// deleted ingredients so their history stays readable.
func (r *GormRepository) IngredientOwner(ctx context.Context, ingredientID uint) (uint, error) {
	var ingredient models.Ingredient
	err := r.db.WithContext(ctx).Unscoped().Select("id", "owner_id").First(&ingredient, ingredientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("ingredient %d: %w", ingredientID, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return ingredient.OwnerID, nil
}

func (r *GormRepository) RecipeOwner(ctx context.Context, recipeID uint) (uint, error) {
	var recipe models.Recipe
	err := r.db.WithContext(ctx).Unscoped().Select("id", "owner_id").First(&recipe, recipeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("recipe %d: %w", recipeID, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return recipe.OwnerID, nil
}

func (r *GormRepository) AppendIngredientHistory(ctx context.Context, entry *models.IngredientHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormRepository) AppendRecipeHistory(ctx context.Context, entry *models.RecipeHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListIngredientHistory returns rows in storage order; callers sort.
func (r *GormRepository) ListIngredientHistory(ctx context.Context, ingredientID, ownerID uint) ([]models.IngredientHistory, error) {
	var entries []models.IngredientHistory
	if err := r.db.WithContext(ctx).
		Where("ingredient_id = ? AND owner_id = ?", ingredientID, ownerID).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListRecipeHistory returns rows in storage order; callers sort.
func (r *GormRepository) ListRecipeHistory(ctx context.Context, recipeID, ownerID uint) ([]models.RecipeHistory, error) {
	var entries []models.RecipeHistory
	if err := r.db.WithContext(ctx).
		Where("recipe_id = ? AND owner_id = ?", recipeID, ownerID).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
