package models

import (
	"gorm.io/gorm"
)

// Ingredient is a priced raw material bought in a given total measure.
type Ingredient struct {
	gorm.Model
	Name         string  `gorm:"not null" json:"name"`
	TotalPrice   float64 `gorm:"not null" json:"total_price"`
	TotalMeasure float64 `gorm:"not null" json:"total_measure"`
	BaseUnit     Unit    `gorm:"type:varchar(8);not null" json:"base_unit"`
	PricePerUnit float64 `gorm:"not null;default:0" json:"price_per_unit"`
	OwnerID      uint    `gorm:"not null;index" json:"owner_id"`
}

// PricePerUnit divides a purchase price by the purchased measure.
func PricePerUnit(totalPrice, totalMeasure float64) float64 {
	if totalMeasure <= 0 {
		return 0
	}
	return totalPrice / totalMeasure
}

// Reprice recomputes PricePerUnit from its inputs.
func (i *Ingredient) Reprice() {
	i.PricePerUnit = PricePerUnit(i.TotalPrice, i.TotalMeasure)
}

// BeforeSave keeps the stored unit price in step with price and measure.
func (i *Ingredient) BeforeSave(*gorm.DB) error {
	i.Reprice()
	return nil
}

// AfterFind discards whatever unit price was stored and derives it again.
func (i *Ingredient) AfterFind(*gorm.DB) error {
	i.Reprice()
	return nil
}
