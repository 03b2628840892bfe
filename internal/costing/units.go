package costing

import "bakecost/models"

// Conversion is the outcome of converting a quantity between units.
// Passthrough is set when the units belong to different dimensions (or one
// of them is unknown) and Value is the input quantity, unchanged.
type Conversion struct {
	Value       float64
	Passthrough bool
}

// Convert converts q from one unit to another within the same dimension.
// Cross-dimension pairs are not an error: the quantity comes back as-is with
// Passthrough set, so a mis-selected unit can under- or over-cost a line.
func Convert(q float64, from, to models.Unit) Conversion {
	if from == to {
		return Conversion{Value: q}
	}

	switch {
	case from == models.Kilogram && to == models.Gram:
		return Conversion{Value: q * 1000}
	case from == models.Gram && to == models.Kilogram:
		return Conversion{Value: q / 1000}
	case from == models.Liter && to == models.Milliliter:
		return Conversion{Value: q * 1000}
	case from == models.Milliliter && to == models.Liter:
		return Conversion{Value: q / 1000}
	}

	return Conversion{Value: q, Passthrough: true}
}

// ConvertQuantity is Convert without the passthrough flag.
func ConvertQuantity(q float64, from, to models.Unit) float64 {
	return Convert(q, from, to).Value
}
