package models

import "time"

// IngredientHistory is an immutable pricing snapshot of an ingredient.
type IngredientHistory struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	IngredientID uint      `gorm:"not null;index" json:"ingredient_id"`
	Name         string    `gorm:"not null" json:"name"`
	TotalPrice   float64   `gorm:"not null" json:"total_price"`
	TotalMeasure float64   `gorm:"not null" json:"total_measure"`
	BaseUnit     Unit      `gorm:"type:varchar(8);not null" json:"base_unit"`
	PricePerUnit float64   `gorm:"not null" json:"price_per_unit"`
	RecordedAt   time.Time `gorm:"not null" json:"recorded_at"`
	OwnerID      uint      `gorm:"not null;index" json:"owner_id"`
}

// RecipeHistory is an immutable cost and price snapshot of a recipe.
type RecipeHistory struct {
	ID                  uint      `gorm:"primarykey" json:"id"`
	RecipeID            uint      `gorm:"not null;index" json:"recipe_id"`
	Name                string    `gorm:"not null" json:"name"`
	CustoTotal          float64   `gorm:"not null" json:"custo_total"`
	SuggestedPrice      float64   `gorm:"not null" json:"suggested_price"`
	ProfitMarginPercent float64   `gorm:"not null" json:"profit_margin_percent"`
	RecordedAt          time.Time `gorm:"not null" json:"recorded_at"`
	OwnerID             uint      `gorm:"not null;index" json:"owner_id"`
}
