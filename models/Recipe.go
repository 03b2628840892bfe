package models

import (
	"gorm.io/gorm"
)

// DefaultProfitMarginPercent turns cost into a suggested price of 2.5x.
const DefaultProfitMarginPercent = 250.0

type Recipe struct {
	gorm.Model
	Name                string             `gorm:"not null" json:"name"`
	Kind                RecipeKind         `gorm:"type:varchar(16);not null;default:cake" json:"kind"`
	IngredientLines     []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredient_lines"`
	FillingLines        []RecipeFilling    `gorm:"foreignKey:RecipeID" json:"filling_lines"`
	Description         string             `gorm:"type:text" json:"description"`
	LegacyNotes         string             `gorm:"column:observacoes;type:text" json:"-"`
	CustoTotal          float64            `gorm:"not null;default:0" json:"custo_total"`
	Servings            *int               `json:"servings,omitempty"`
	ImageURL            string             `json:"image_url,omitempty"`
	ProfitMarginPercent *float64           `json:"profit_margin_percent,omitempty"`
	YieldGrams          *float64           `json:"yield_grams,omitempty"`
	DefaultUnit         Unit               `gorm:"type:varchar(8)" json:"default_unit,omitempty"`
	OwnerID             uint               `gorm:"not null;index" json:"owner_id"`
}

// RecipeIngredient is one ingredient usage inside a recipe.
type RecipeIngredient struct {
	gorm.Model
	RecipeID     uint    `gorm:"not null;index" json:"recipe_id"`
	IngredientID uint    `gorm:"not null;index" json:"ingredient_id"`
	Quantity     float64 `gorm:"not null" json:"quantity"`
	Unit         Unit    `gorm:"type:varchar(8);not null" json:"unit"`
}

// RecipeFilling embeds a filling recipe inside a cake.
type RecipeFilling struct {
	gorm.Model
	RecipeID        uint    `gorm:"not null;index" json:"recipe_id"`
	FillingRecipeID uint    `gorm:"not null;index" json:"filling_recipe_id"`
	Quantity        float64 `gorm:"not null" json:"quantity"`
	Unit            Unit    `gorm:"type:varchar(8);not null" json:"unit"`
}

// AfterFind carries descriptions written under the old free-text column over
// to Description. The old column is cleared the next time the recipe is saved.
func (r *Recipe) AfterFind(*gorm.DB) error {
	if r.Description == "" && r.LegacyNotes != "" {
		r.Description = r.LegacyNotes
	}
	return nil
}

// MarginPercent returns the configured margin or the default one.
func (r Recipe) MarginPercent() float64 {
	if r.ProfitMarginPercent == nil || *r.ProfitMarginPercent <= 0 {
		return DefaultProfitMarginPercent
	}
	return *r.ProfitMarginPercent
}

// Yield returns the declared filling yield in grams, or 0 when unset.
func (r Recipe) Yield() float64 {
	if r.YieldGrams == nil {
		return 0
	}
	return *r.YieldGrams
}

// UsesIngredient reports whether one of the recipe's own lines points at ingredientID.
func (r Recipe) UsesIngredient(ingredientID uint) bool {
	for _, line := range r.IngredientLines {
		if line.IngredientID == ingredientID {
			return true
		}
	}
	return false
}

// UsesFilling reports whether the recipe embeds the given filling recipe.
func (r Recipe) UsesFilling(recipeID uint) bool {
	for _, line := range r.FillingLines {
		if line.FillingRecipeID == recipeID {
			return true
		}
	}
	return false
}
