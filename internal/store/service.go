package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bakecost/internal/costing"
	"bakecost/internal/history"
	applog "bakecost/internal/log"
	"bakecost/internal/metrics"
	"bakecost/internal/propagate"
	"bakecost/models"
)

// RecentRecipesLimit bounds Summary.RecentRecipes.
const RecentRecipesLimit = 5

// IngredientInput carries the editable fields of an ingredient.
type IngredientInput struct {
	Name         string
	TotalPrice   float64
	TotalMeasure float64
	BaseUnit     models.Unit
}

// RecipeInput carries the editable fields of a recipe. Lines replace the
// stored lines wholesale.
type RecipeInput struct {
	Name                string
	Kind                models.RecipeKind
	IngredientLines     []models.RecipeIngredient
	FillingLines        []models.RecipeFilling
	Description         string
	Servings            *int
	ImageURL            string
	ProfitMarginPercent *float64
	YieldGrams          *float64
	DefaultUnit         models.Unit
}

// Summary is the dashboard view of one account.
type Summary struct {
	IngredientCount int
	RecipeCount     int
	FillingCount    int
	CakeCount       int
	DessertCount    int
	RecentRecipes   []models.Recipe
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultMargin sets the margin stored on new recipes that do not carry one.
func WithDefaultMargin(percent float64) Option {
	return func(s *Service) {
		if percent > 0 {
			s.defaultMargin = percent
		}
	}
}

// Service owns the in-memory mirror of one account's ingredients and
// recipes and runs every mutation through a fixed pipeline: primary write,
// reload, propagation, recipe reload, history.
type Service struct {
	repo          Repository
	ledger        *history.Ledger
	propagator    *propagate.Propagator
	ownerID       uint
	defaultMargin float64

	pipeline sync.Mutex

	mu          sync.RWMutex
	ingredients []models.Ingredient
	recipes     []models.Recipe
}

// NewService returns an empty Service for ownerID. Call Load before reading.
func NewService(repo Repository, ownerID uint, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		ledger:        history.NewLedger(repo),
		propagator:    propagate.New(repo),
		ownerID:       ownerID,
		defaultMargin: models.DefaultProfitMarginPercent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OwnerID returns the account the Service acts for.
func (s *Service) OwnerID() uint {
	return s.ownerID
}

// Load refreshes both collections from the repository.
func (s *Service) Load(ctx context.Context) error {
	s.pipeline.Lock()
	defer s.pipeline.Unlock()
	return s.refresh(ctx)
}

// release drops the mirror. The next Load rebuilds it.
func (s *Service) release() {
	s.pipeline.Lock()
	defer s.pipeline.Unlock()
	s.mu.Lock()
	s.ingredients = nil
	s.recipes = nil
	s.mu.Unlock()
}

// Ingredients returns a copy of the mirrored ingredients.
func (s *Service) Ingredients() []models.Ingredient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Ingredient, len(s.ingredients))
	copy(out, s.ingredients)
	return out
}

// Recipes returns a copy of the mirrored recipes.
func (s *Service) Recipes() []models.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Recipe, len(s.recipes))
	for i, recipe := range s.recipes {
		out[i] = cloneRecipe(recipe)
	}
	return out
}

// Ingredient returns the mirrored ingredient with id.
func (s *Service) Ingredient(id uint) (models.Ingredient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ingredient := range s.ingredients {
		if ingredient.ID == id {
			return ingredient, true
		}
	}
	return models.Ingredient{}, false
}

// Recipe returns the mirrored recipe with id.
func (s *Service) Recipe(id uint) (models.Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, recipe := range s.recipes {
		if recipe.ID == id {
			return cloneRecipe(recipe), true
		}
	}
	return models.Recipe{}, false
}

// Catalog snapshots the mirror for cost resolution.
func (s *Service) Catalog() costing.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return costing.NewCatalog(s.ingredients, s.recipes)
}

// Breakdown resolves the line costs of a mirrored recipe.
func (s *Service) Breakdown(id uint) (costing.Breakdown, error) {
	recipe, ok := s.Recipe(id)
	if !ok {
		return costing.Breakdown{}, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	return costing.Resolve(recipe, s.Catalog()), nil
}

// AddIngredient creates an ingredient and records its first snapshot.
func (s *Service) AddIngredient(ctx context.Context, input IngredientInput) (result models.Ingredient, err error) {
	run, ctx := s.begin(ctx, "add_ingredient")
	defer func() { run.finish(err) }()
	if err := s.refresh(ctx); err != nil {
		return models.Ingredient{}, err
	}

	ingredient := models.Ingredient{OwnerID: s.ownerID}
	applyIngredientInput(&ingredient, input)
	if err := s.repo.CreateIngredient(ctx, &ingredient); err != nil {
		return models.Ingredient{}, fmt.Errorf("create ingredient: %w", err)
	}
	if err := s.reloadIngredients(ctx); err != nil {
		return ingredient, err
	}
	if current, ok := s.Ingredient(ingredient.ID); ok {
		ingredient = current
	}
	if _, err := s.ledger.RecordIngredient(ctx, s.ownerID, nil, ingredient); err != nil {
		return ingredient, fmt.Errorf("record ingredient history: %w", err)
	}
	return ingredient, nil
}

// UpdateIngredient rewrites an ingredient, recomputes the recipes using it
// directly and records a snapshot when its pricing moved.
func (s *Service) UpdateIngredient(ctx context.Context, id uint, input IngredientInput) (result models.Ingredient, err error) {
	run, ctx := s.begin(ctx, "update_ingredient")
	defer func() { run.finish(err) }()
	if err := s.refresh(ctx); err != nil {
		return models.Ingredient{}, err
	}

	previous, ok := s.Ingredient(id)
	if !ok {
		return models.Ingredient{}, fmt.Errorf("ingredient %d: %w", id, ErrNotFound)
	}
	ingredient := previous
	applyIngredientInput(&ingredient, input)
	if err := s.repo.UpdateIngredient(ctx, &ingredient); err != nil {
		return models.Ingredient{}, fmt.Errorf("update ingredient: %w", err)
	}
	if err := s.reloadIngredients(ctx); err != nil {
		return ingredient, err
	}
	if current, ok := s.Ingredient(id); ok {
		ingredient = current
	}
	if err := s.propagate(ctx, id); err != nil {
		return ingredient, err
	}
	if _, err := s.ledger.RecordIngredient(ctx, s.ownerID, &previous, ingredient); err != nil {
		return ingredient, fmt.Errorf("record ingredient history: %w", err)
	}
	return ingredient, nil
}

// DeleteIngredient removes an ingredient. Recipes still referencing it are
// recomputed with the line contributing zero.
func (s *Service) DeleteIngredient(ctx context.Context, id uint) (err error) {
	run, ctx := s.begin(ctx, "delete_ingredient")
	defer func() { run.finish(err) }()
	if err := s.refresh(ctx); err != nil {
		return err
	}

	if err := s.repo.DeleteIngredient(ctx, id, s.ownerID); err != nil {
		return fmt.Errorf("delete ingredient: %w", err)
	}
	if err := s.reloadIngredients(ctx); err != nil {
		return err
	}
	return s.propagate(ctx, id)
}

// AddRecipe prices a new recipe against the mirror, stores it and records
// its first snapshot.
func (s *Service) AddRecipe(ctx context.Context, input RecipeInput) (result models.Recipe, err error) {
	run, ctx := s.begin(ctx, "add_recipe")
	defer func() { run.finish(err) }()
	if err := s.refresh(ctx); err != nil {
		return models.Recipe{}, err
	}

	recipe := models.Recipe{OwnerID: s.ownerID}
	applyRecipeInput(&recipe, input)
	if recipe.ProfitMarginPercent == nil {
		margin := s.defaultMargin
		recipe.ProfitMarginPercent = &margin
	}
	recipe.CustoTotal = costing.RecipeCost(recipe, s.Catalog())

	if err := s.repo.CreateRecipe(ctx, &recipe); err != nil {
		return models.Recipe{}, fmt.Errorf("create recipe: %w", err)
	}
	if err := s.reloadRecipes(ctx); err != nil {
		return recipe, err
	}
	if current, ok := s.Recipe(recipe.ID); ok {
		recipe = current
	}
	if err := s.ledger.RecordRecipe(ctx, s.ownerID, recipe); err != nil {
		return recipe, fmt.Errorf("record recipe history: %w", err)
	}
	return recipe, nil
}

// UpdateRecipe reprices and rewrites a recipe. A snapshot is appended on
// every update.
func (s *Service) UpdateRecipe(ctx context.Context, id uint, input RecipeInput) (result models.Recipe, err error) {
	run, ctx := s.begin(ctx, "update_recipe")
	defer func() { run.finish(err) }()
	if err := s.refresh(ctx); err != nil {
		return models.Recipe{}, err
	}

	recipe, ok := s.Recipe(id)
	if !ok {
		return models.Recipe{}, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	applyRecipeInput(&recipe, input)
	recipe.LegacyNotes = ""
	recipe.CustoTotal = costing.RecipeCost(recipe, s.Catalog())

	if err := s.repo.UpdateRecipe(ctx, &recipe); err != nil {
		return models.Recipe{}, fmt.Errorf("update recipe: %w", err)
	}
	if err := s.reloadRecipes(ctx); err != nil {
		return recipe, err
	}
	if current, ok := s.Recipe(id); ok {
		recipe = current
	}
	if err := s.ledger.RecordRecipe(ctx, s.ownerID, recipe); err != nil {
		return recipe, fmt.Errorf("record recipe history: %w", err)
	}
	return recipe, nil
}

// DeleteRecipe removes a recipe. Cakes embedding it as a filling keep their
// stored totals until they are saved again.
func (s *Service) DeleteRecipe(ctx context.Context, id uint) (err error) {
	run, ctx := s.begin(ctx, "delete_recipe")
	defer func() { run.finish(err) }()

	if err := s.repo.DeleteRecipe(ctx, id, s.ownerID); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return s.refresh(ctx)
}

// IngredientHistory returns the ingredient's snapshots, newest first.
func (s *Service) IngredientHistory(ctx context.Context, id uint) ([]models.IngredientHistory, error) {
	return s.ledger.IngredientEntries(ctx, s.ownerID, id)
}

// RecipeHistory returns the recipe's snapshots, newest first.
func (s *Service) RecipeHistory(ctx context.Context, id uint) ([]models.RecipeHistory, error) {
	return s.ledger.RecipeEntries(ctx, s.ownerID, id)
}

// Summary counts the mirror and lists the most recently updated recipes.
func (s *Service) Summary() Summary {
	recipes := s.Recipes()
	summary := Summary{
		IngredientCount: len(s.Ingredients()),
		RecipeCount:     len(recipes),
	}
	for _, recipe := range recipes {
		switch recipe.Kind {
		case models.KindFilling:
			summary.FillingCount++
		case models.KindCake:
			summary.CakeCount++
		case models.KindDessert:
			summary.DessertCount++
		}
	}
	sort.SliceStable(recipes, func(i, j int) bool {
		if recipes[i].UpdatedAt.Equal(recipes[j].UpdatedAt) {
			return recipes[i].ID > recipes[j].ID
		}
		return recipes[i].UpdatedAt.After(recipes[j].UpdatedAt)
	})
	if len(recipes) > RecentRecipesLimit {
		recipes = recipes[:RecentRecipesLimit]
	}
	summary.RecentRecipes = recipes
	return summary
}

// propagate reloads recipes first so recipes written by another Service on
// the same repository are recomputed too.
func (s *Service) propagate(ctx context.Context, ingredientID uint) error {
	if err := s.reloadRecipes(ctx); err != nil {
		return err
	}

	s.mu.RLock()
	recipes := s.recipes
	ingredients := s.ingredients
	s.mu.RUnlock()

	result, err := s.propagator.IngredientChanged(ctx, ingredientID, recipes, ingredients)
	if err != nil {
		return fmt.Errorf("propagate ingredient %d: %w", ingredientID, err)
	}
	if len(result.StaleCakes) > 0 {
		applog.Info(ctx, "cakes left with stale totals",
			"ingredient_id", ingredientID,
			"cakes", result.StaleCakes,
		)
	}
	return s.reloadRecipes(ctx)
}

// refresh reloads both collections. Every pipeline starts from it, so writes
// made outside this Service are seen before anything is computed.
func (s *Service) refresh(ctx context.Context) error {
	if err := s.reloadIngredients(ctx); err != nil {
		return err
	}
	return s.reloadRecipes(ctx)
}

func (s *Service) reloadIngredients(ctx context.Context) error {
	ingredients, err := s.repo.ListIngredients(ctx, s.ownerID)
	if err != nil {
		return fmt.Errorf("reload ingredients: %w", err)
	}
	s.mu.Lock()
	s.ingredients = ingredients
	s.mu.Unlock()
	return nil
}

func (s *Service) reloadRecipes(ctx context.Context) error {
	recipes, err := s.repo.ListRecipes(ctx, s.ownerID)
	if err != nil {
		return fmt.Errorf("reload recipes: %w", err)
	}
	s.mu.Lock()
	s.recipes = recipes
	s.mu.Unlock()
	return nil
}

type pipelineRun struct {
	ctx       context.Context
	service   *Service
	operation string
	started   time.Time
}

// begin takes the pipeline lock; finish releases it. The returned context
// tags every log line of the run with its correlation id.
func (s *Service) begin(ctx context.Context, operation string) (*pipelineRun, context.Context) {
	s.pipeline.Lock()
	ctx = applog.WithFields(ctx, "pipeline", uuid.NewString(), "operation", operation, "owner_id", s.ownerID)
	run := &pipelineRun{
		ctx:       ctx,
		service:   s,
		operation: operation,
		started:   time.Now(),
	}
	applog.Debug(ctx, "pipeline started")
	return run, ctx
}

func (r *pipelineRun) finish(err error) {
	defer r.service.pipeline.Unlock()
	metrics.ObservePipeline(r.operation, r.started, err)
	if err != nil {
		applog.Error(r.ctx, "pipeline failed", "error", err)
		return
	}
	applog.Debug(r.ctx, "pipeline finished", "duration", time.Since(r.started))
}

func applyIngredientInput(ingredient *models.Ingredient, input IngredientInput) {
	ingredient.Name = strings.TrimSpace(input.Name)
	ingredient.TotalPrice = input.TotalPrice
	ingredient.TotalMeasure = input.TotalMeasure
	ingredient.BaseUnit = input.BaseUnit
	ingredient.Reprice()
}

func applyRecipeInput(recipe *models.Recipe, input RecipeInput) {
	recipe.Name = strings.TrimSpace(input.Name)
	recipe.Kind = input.Kind
	recipe.Description = input.Description
	recipe.Servings = input.Servings
	recipe.ImageURL = input.ImageURL
	if input.ProfitMarginPercent != nil {
		recipe.ProfitMarginPercent = input.ProfitMarginPercent
	}
	recipe.YieldGrams = input.YieldGrams
	recipe.DefaultUnit = input.DefaultUnit

	recipe.IngredientLines = make([]models.RecipeIngredient, 0, len(input.IngredientLines))
	for _, line := range input.IngredientLines {
		recipe.IngredientLines = append(recipe.IngredientLines, models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
		})
	}
	recipe.FillingLines = make([]models.RecipeFilling, 0, len(input.FillingLines))
	for _, line := range input.FillingLines {
		recipe.FillingLines = append(recipe.FillingLines, models.RecipeFilling{
			RecipeID:        recipe.ID,
			FillingRecipeID: line.FillingRecipeID,
			Quantity:        line.Quantity,
			Unit:            line.Unit,
		})
	}
}

func cloneRecipe(recipe models.Recipe) models.Recipe {
	out := recipe
	out.IngredientLines = append([]models.RecipeIngredient(nil), recipe.IngredientLines...)
	out.FillingLines = append([]models.RecipeFilling(nil), recipe.FillingLines...)
	return out
}
