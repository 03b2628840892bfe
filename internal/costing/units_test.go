package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bakecost/models"
)

var allUnits = []models.Unit{models.Gram, models.Kilogram, models.Milliliter, models.Liter, models.Count}

func TestConvertIdentity(t *testing.T) {
	t.Parallel()

	for _, u := range allUnits {
		for _, q := range []float64{0, 1, 2.5, 1234.5678} {
			got := Convert(q, u, u)
			assert.Equal(t, q, got.Value, "unit %s", u)
			assert.False(t, got.Passthrough, "unit %s", u)
		}
	}
}

func TestConvertWithinDimension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		q        float64
		from, to models.Unit
		want     float64
	}{
		{"kg to g", 2, models.Kilogram, models.Gram, 2000},
		{"g to kg", 500, models.Gram, models.Kilogram, 0.5},
		{"L to ml", 1.5, models.Liter, models.Milliliter, 1500},
		{"ml to L", 250, models.Milliliter, models.Liter, 0.25},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Convert(tt.q, tt.from, tt.to)
			assert.InDelta(t, tt.want, got.Value, 1e-12)
			assert.False(t, got.Passthrough)
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	t.Parallel()

	pairs := [][2]models.Unit{
		{models.Gram, models.Kilogram},
		{models.Milliliter, models.Liter},
	}
	for _, pair := range pairs {
		for _, q := range []float64{0.001, 1, 333.33, 98765.4321} {
			there := ConvertQuantity(q, pair[0], pair[1])
			back := ConvertQuantity(there, pair[1], pair[0])
			assert.InDelta(t, q, back, 1e-9, "%v %s<->%s", q, pair[0], pair[1])

			there = ConvertQuantity(q, pair[1], pair[0])
			back = ConvertQuantity(there, pair[0], pair[1])
			assert.InDelta(t, q, back, 1e-9, "%v %s<->%s", q, pair[1], pair[0])
		}
	}
}

func TestConvertCrossDimensionPassesThrough(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to models.Unit
	}{
		{models.Gram, models.Milliliter},
		{models.Kilogram, models.Liter},
		{models.Count, models.Gram},
		{models.Liter, models.Count},
		{models.Unit("cup"), models.Gram},
	}

	for _, tt := range tests {
		got := Convert(42, tt.from, tt.to)
		assert.Equal(t, 42.0, got.Value, "%s -> %s", tt.from, tt.to)
		assert.True(t, got.Passthrough, "%s -> %s", tt.from, tt.to)
	}
	assert.Equal(t, 42.0, ConvertQuantity(42, models.Gram, models.Milliliter))
}
