package propagate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bakecost/models"
)

type recordingWriter struct {
	mu     sync.Mutex
	writes map[uint]float64
	owners map[uint]uint
	failOn uint
}

func (w *recordingWriter) UpdateRecipeCost(_ context.Context, ownerID, id uint, total float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id == w.failOn {
		return errors.New("write refused")
	}
	if w.writes == nil {
		w.writes = map[uint]float64{}
		w.owners = map[uint]uint{}
	}
	w.writes[id] = total
	w.owners[id] = ownerID
	return nil
}

const fixtureOwner uint = 5

func fixture() ([]models.Ingredient, []models.Recipe) {
	ingredients := []models.Ingredient{
		{Model: gorm.Model{ID: 1}, Name: "Condensed milk", TotalPrice: 12, TotalMeasure: 1000, BaseUnit: models.Gram},
		{Model: gorm.Model{ID: 2}, Name: "Flour", TotalPrice: 5, TotalMeasure: 1, BaseUnit: models.Kilogram},
	}
	yield := 1000.0
	recipes := []models.Recipe{
		{
			Model:           gorm.Model{ID: 10},
			OwnerID:         fixtureOwner,
			Name:            "Brigadeiro",
			Kind:            models.KindFilling,
			CustoTotal:      10,
			YieldGrams:      &yield,
			IngredientLines: []models.RecipeIngredient{{IngredientID: 1, Quantity: 1000, Unit: models.Gram}},
		},
		{
			Model:           gorm.Model{ID: 11},
			OwnerID:         fixtureOwner,
			Name:            "Chocolate Cake",
			Kind:            models.KindCake,
			CustoTotal:      7.5,
			IngredientLines: []models.RecipeIngredient{{IngredientID: 2, Quantity: 500, Unit: models.Gram}},
			FillingLines:    []models.RecipeFilling{{FillingRecipeID: 10, Quantity: 500, Unit: models.Gram}},
		},
		{
			Model:           gorm.Model{ID: 12},
			OwnerID:         fixtureOwner,
			Name:            "Pudding",
			Kind:            models.KindDessert,
			CustoTotal:      6,
			IngredientLines: []models.RecipeIngredient{{IngredientID: 1, Quantity: 0.5, Unit: models.Kilogram}},
		},
	}
	return ingredients, recipes
}

func TestAffected(t *testing.T) {
	_, recipes := fixture()

	ids := func(rs []models.Recipe) []uint {
		out := make([]uint, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}
	assert.Equal(t, []uint{10, 12}, ids(Affected(1, recipes)))
	assert.Equal(t, []uint{11}, ids(Affected(2, recipes)))
	assert.Empty(t, Affected(3, recipes))
}

func TestIngredientChangedRecomputesDirectUsersOnly(t *testing.T) {
	ingredients, recipes := fixture()
	ingredients[0].TotalPrice = 20

	writer := &recordingWriter{}
	result, err := New(writer).IngredientChanged(context.Background(), 1, recipes, ingredients)
	require.NoError(t, err)

	require.Len(t, writer.writes, 2)
	assert.InDelta(t, 20.0, writer.writes[10], 1e-12)
	assert.InDelta(t, 10.0, writer.writes[12], 1e-12)
	_, cakeWritten := writer.writes[11]
	assert.False(t, cakeWritten, "cakes using the ingredient through a filling are not recomputed")

	require.Len(t, result.Updated, 2)
	assert.InDelta(t, 10.0, result.Updated[0].Previous, 1e-12)
	assert.Equal(t, []uint{11}, result.StaleCakes)
	assert.Equal(t, map[uint]uint{10: fixtureOwner, 12: fixtureOwner}, writer.owners)
}

func TestIngredientChangedWithoutReferencesWritesNothing(t *testing.T) {
	ingredients, recipes := fixture()
	writer := &recordingWriter{}

	result, err := New(writer).IngredientChanged(context.Background(), 99, recipes, ingredients)
	require.NoError(t, err)
	assert.Empty(t, writer.writes)
	assert.Empty(t, result.Updated)
	assert.Empty(t, result.StaleCakes)
}

func TestIngredientChangedReturnsWriteError(t *testing.T) {
	ingredients, recipes := fixture()
	writer := &recordingWriter{failOn: 12}

	_, err := New(writer).IngredientChanged(context.Background(), 1, recipes, ingredients)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipe 12")
}
