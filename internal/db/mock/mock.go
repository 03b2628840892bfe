package mock

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bakecost/internal/db"
	applog "bakecost/internal/log"
	"bakecost/internal/store"
	"bakecost/models"
)

// DemoEmail and DemoPassword sign in to the seeded account.
const (
	DemoEmail    = "avery@bakecost.app"
	DemoPassword = "atelier"
)

// New returns an in-memory sqlite database seeded with a small confectionery.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := gorm.Open(sqlite.Open("file:bakecost-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	// Shared-cache sqlite rejects concurrent writers.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         "Avery Bakes",
		Email:        DemoEmail,
		PasswordHash: string(password),
	}
	if err := database.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	svc := store.NewService(store.NewGormRepository(database), user.ID)
	if err := svc.Load(ctx); err != nil {
		return err
	}

	ingredients := map[string]store.IngredientInput{
		"flour":  {Name: "Wheat Flour", TotalPrice: 5, TotalMeasure: 1000, BaseUnit: models.Gram},
		"sugar":  {Name: "Refined Sugar", TotalPrice: 10, TotalMeasure: 2, BaseUnit: models.Kilogram},
		"cocoa":  {Name: "Cocoa Powder 50%", TotalPrice: 32, TotalMeasure: 500, BaseUnit: models.Gram},
		"milk":   {Name: "Condensed Milk", TotalPrice: 7.5, TotalMeasure: 395, BaseUnit: models.Gram},
		"cream":  {Name: "Heavy Cream", TotalPrice: 9.9, TotalMeasure: 1, BaseUnit: models.Liter},
		"eggs":   {Name: "Eggs", TotalPrice: 18, TotalMeasure: 30, BaseUnit: models.Count},
		"butter": {Name: "Unsalted Butter", TotalPrice: 14, TotalMeasure: 200, BaseUnit: models.Gram},
	}
	ids := make(map[string]uint, len(ingredients))
	for _, key := range []string{"flour", "sugar", "cocoa", "milk", "cream", "eggs", "butter"} {
		created, err := svc.AddIngredient(ctx, ingredients[key])
		if err != nil {
			return fmt.Errorf("seed ingredient %s: %w", key, err)
		}
		ids[key] = created.ID
	}

	yield := 900.0
	brigadeiro, err := svc.AddRecipe(ctx, store.RecipeInput{
		Name:        "Brigadeiro Filling",
		Kind:        models.KindFilling,
		Description: "Stirred until it leaves the bottom of the pan.",
		YieldGrams:  &yield,
		IngredientLines: []models.RecipeIngredient{
			{IngredientID: ids["milk"], Quantity: 790, Unit: models.Gram},
			{IngredientID: ids["cocoa"], Quantity: 60, Unit: models.Gram},
			{IngredientID: ids["butter"], Quantity: 30, Unit: models.Gram},
			{IngredientID: ids["cream"], Quantity: 200, Unit: models.Milliliter},
		},
	})
	if err != nil {
		return fmt.Errorf("seed filling: %w", err)
	}

	servings := 16
	if _, err := svc.AddRecipe(ctx, store.RecipeInput{
		Name:     "Chocolate Layer Cake",
		Kind:     models.KindCake,
		Servings: &servings,
		IngredientLines: []models.RecipeIngredient{
			{IngredientID: ids["flour"], Quantity: 300, Unit: models.Gram},
			{IngredientID: ids["sugar"], Quantity: 250, Unit: models.Gram},
			{IngredientID: ids["cocoa"], Quantity: 80, Unit: models.Gram},
			{IngredientID: ids["eggs"], Quantity: 4, Unit: models.Count},
		},
		FillingLines: []models.RecipeFilling{
			{FillingRecipeID: brigadeiro.ID, Quantity: 450, Unit: models.Gram},
		},
	}); err != nil {
		return fmt.Errorf("seed cake: %w", err)
	}

	margin := 200.0
	if _, err := svc.AddRecipe(ctx, store.RecipeInput{
		Name:                "Vanilla Pudding",
		Kind:                models.KindDessert,
		ProfitMarginPercent: &margin,
		IngredientLines: []models.RecipeIngredient{
			{IngredientID: ids["milk"], Quantity: 395, Unit: models.Gram},
			{IngredientID: ids["eggs"], Quantity: 3, Unit: models.Count},
			{IngredientID: ids["sugar"], Quantity: 0.15, Unit: models.Kilogram},
		},
	}); err != nil {
		return fmt.Errorf("seed dessert: %w", err)
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
