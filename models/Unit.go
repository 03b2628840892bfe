package models

import "strings"

// Unit is a measurement unit accepted for ingredients and recipe lines.
type Unit string

const (
	Gram       Unit = "g"
	Kilogram   Unit = "kg"
	Milliliter Unit = "ml"
	Liter      Unit = "L"
	Count      Unit = "un"
)

// Dimension groups units that can be converted into each other.
type Dimension int

const (
	DimensionUnknown Dimension = iota
	DimensionMass
	DimensionVolume
	DimensionCount
)

// Dimension reports the physical dimension of the unit.
func (u Unit) Dimension() Dimension {
	switch u {
	case Gram, Kilogram:
		return DimensionMass
	case Milliliter, Liter:
		return DimensionVolume
	case Count:
		return DimensionCount
	default:
		return DimensionUnknown
	}
}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	return u.Dimension() != DimensionUnknown
}

// ParseUnit maps user input onto a supported unit. Liters are accepted in
// either case; everything else is matched lower-case.
func ParseUnit(value string) (Unit, bool) {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "g":
		return Gram, true
	case "kg":
		return Kilogram, true
	case "ml":
		return Milliliter, true
	case "l":
		return Liter, true
	case "un":
		return Count, true
	default:
		return Unit(trimmed), false
	}
}

// RecipeKind classifies recipes. Fillings are meant to be embedded in cakes.
type RecipeKind string

const (
	KindFilling RecipeKind = "filling"
	KindCake    RecipeKind = "cake"
	KindDessert RecipeKind = "dessert"
)

// Valid reports whether k is a known recipe kind.
func (k RecipeKind) Valid() bool {
	switch k {
	case KindFilling, KindCake, KindDessert:
		return true
	default:
		return false
	}
}
