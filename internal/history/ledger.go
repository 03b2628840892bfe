package history

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"bakecost/internal/costing"
	applog "bakecost/internal/log"
	"bakecost/internal/metrics"
	"bakecost/models"
)

// ChangeEpsilon is the smallest price or measure change that produces a new
// ingredient snapshot.
const ChangeEpsilon = 1e-4

// ErrOwnership is returned when the acting account does not own the entity
// whose history is being read or written.
var ErrOwnership = errors.New("history: entity belongs to another account")

// Repository is the persistence the ledger needs. Owner lookups must hit the
// backing store, not a cached mirror.
type Repository interface {
	IngredientOwner(ctx context.Context, ingredientID uint) (uint, error)
	RecipeOwner(ctx context.Context, recipeID uint) (uint, error)
	AppendIngredientHistory(ctx context.Context, entry *models.IngredientHistory) error
	AppendRecipeHistory(ctx context.Context, entry *models.RecipeHistory) error
	ListIngredientHistory(ctx context.Context, ingredientID, ownerID uint) ([]models.IngredientHistory, error)
	ListRecipeHistory(ctx context.Context, recipeID, ownerID uint) ([]models.RecipeHistory, error)
}

// Ledger appends and reads pricing snapshots.
type Ledger struct {
	repo Repository
	now  func() time.Time
}

// NewLedger builds a Ledger on top of repo.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// PricingChanged reports whether price or measure moved by more than ChangeEpsilon.
func PricingChanged(previous, current models.Ingredient) bool {
	return math.Abs(current.TotalPrice-previous.TotalPrice) > ChangeEpsilon ||
		math.Abs(current.TotalMeasure-previous.TotalMeasure) > ChangeEpsilon
}

// RecordIngredient appends a snapshot of current when there is no previous
// version or its price or measure changed. It reports whether a row was written.
func (l *Ledger) RecordIngredient(ctx context.Context, actingOwner uint, previous *models.Ingredient, current models.Ingredient) (bool, error) {
	if previous != nil && !PricingChanged(*previous, current) {
		applog.Debug(ctx, "ingredient pricing unchanged, skipping history", "ingredientID", current.ID)
		metrics.HistorySkipped()
		return false, nil
	}

	if err := l.verifyIngredientOwner(ctx, actingOwner, current.ID); err != nil {
		return false, err
	}

	entry := &models.IngredientHistory{
		IngredientID: current.ID,
		Name:         current.Name,
		TotalPrice:   current.TotalPrice,
		TotalMeasure: current.TotalMeasure,
		BaseUnit:     current.BaseUnit,
		PricePerUnit: models.PricePerUnit(current.TotalPrice, current.TotalMeasure),
		RecordedAt:   l.now(),
		OwnerID:      actingOwner,
	}
	if err := l.repo.AppendIngredientHistory(ctx, entry); err != nil {
		return false, fmt.Errorf("append ingredient history: %w", err)
	}

	metrics.HistoryAppended("ingredient")
	applog.Debug(ctx, "ingredient history appended", "ingredientID", current.ID, "entryID", entry.ID)
	return true, nil
}

// RecordRecipe appends a snapshot of recipe. Every call writes a row, whether
// or not the cost moved.
func (l *Ledger) RecordRecipe(ctx context.Context, actingOwner uint, recipe models.Recipe) error {
	if err := l.verifyRecipeOwner(ctx, actingOwner, recipe.ID); err != nil {
		return err
	}

	margin := recipe.MarginPercent()
	entry := &models.RecipeHistory{
		RecipeID:            recipe.ID,
		Name:                recipe.Name,
		CustoTotal:          recipe.CustoTotal,
		SuggestedPrice:      costing.SuggestedPrice(recipe.CustoTotal, margin),
		ProfitMarginPercent: margin,
		RecordedAt:          l.now(),
		OwnerID:             actingOwner,
	}
	if err := l.repo.AppendRecipeHistory(ctx, entry); err != nil {
		return fmt.Errorf("append recipe history: %w", err)
	}

	metrics.HistoryAppended("recipe")
	applog.Debug(ctx, "recipe history appended", "recipeID", recipe.ID, "entryID", entry.ID)
	return nil
}

// IngredientEntries returns the ingredient's snapshots, newest first.
func (l *Ledger) IngredientEntries(ctx context.Context, actingOwner, ingredientID uint) ([]models.IngredientHistory, error) {
	if err := l.verifyIngredientOwner(ctx, actingOwner, ingredientID); err != nil {
		return nil, err
	}
	entries, err := l.repo.ListIngredientHistory(ctx, ingredientID, actingOwner)
	if err != nil {
		return nil, fmt.Errorf("list ingredient history: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return newer(entries[i].RecordedAt, entries[i].ID, entries[j].RecordedAt, entries[j].ID)
	})
	return entries, nil
}

// RecipeEntries returns the recipe's snapshots, newest first.
func (l *Ledger) RecipeEntries(ctx context.Context, actingOwner, recipeID uint) ([]models.RecipeHistory, error) {
	if err := l.verifyRecipeOwner(ctx, actingOwner, recipeID); err != nil {
		return nil, err
	}
	entries, err := l.repo.ListRecipeHistory(ctx, recipeID, actingOwner)
	if err != nil {
		return nil, fmt.Errorf("list recipe history: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return newer(entries[i].RecordedAt, entries[i].ID, entries[j].RecordedAt, entries[j].ID)
	})
	return entries, nil
}

func newer(at time.Time, id uint, otherAt time.Time, otherID uint) bool {
	if !at.Equal(otherAt) {
		return at.After(otherAt)
	}
	return id > otherID
}

func (l *Ledger) verifyIngredientOwner(ctx context.Context, actingOwner, ingredientID uint) error {
	owner, err := l.repo.IngredientOwner(ctx, ingredientID)
	if err != nil {
		return fmt.Errorf("verify ingredient owner: %w", err)
	}
	if owner != actingOwner {
		metrics.OwnershipViolation("ingredient")
		applog.Info(ctx, "ingredient history access refused", "ingredientID", ingredientID, "actingOwner", actingOwner)
		return fmt.Errorf("ingredient %d: %w", ingredientID, ErrOwnership)
	}
	return nil
}

func (l *Ledger) verifyRecipeOwner(ctx context.Context, actingOwner, recipeID uint) error {
	owner, err := l.repo.RecipeOwner(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("verify recipe owner: %w", err)
	}
	if owner != actingOwner {
		metrics.OwnershipViolation("recipe")
		applog.Info(ctx, "recipe history access refused", "recipeID", recipeID, "actingOwner", actingOwner)
		return fmt.Errorf("recipe %d: %w", recipeID, ErrOwnership)
	}
	return nil
}
