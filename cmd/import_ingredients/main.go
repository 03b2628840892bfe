package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bakecost/internal/config"
	"bakecost/internal/db"
	applog "bakecost/internal/log"
	"bakecost/internal/store"
	"bakecost/models"
)

var (
	currencyPattern = regexp.MustCompile(`(?i)r\$|\s+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
)

// Accepted header spellings per column.
var (
	nameHeaders    = []string{"name", "nome", "ingredient"}
	priceHeaders   = []string{"total price", "price", "preco", "preço", "valor"}
	measureHeaders = []string{"total measure", "measure", "quantity", "quantidade"}
	unitHeaders    = []string{"unit", "base unit", "unidade"}
)

type importSummary struct {
	Created   int
	Updated   int
	Unchanged int
}

func main() {
	csvPath := "ingredients.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(context.Background(), csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	records, err := readCSV(csvPath)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	ownerID, err := resolveImportOwner(ctx, database)
	if err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	}

	svc := store.NewService(store.NewGormRepository(database), ownerID,
		store.WithDefaultMargin(cfg.Costing.DefaultMarginPercent))
	if err := svc.Load(ctx); err != nil {
		return fmt.Errorf("load cost store: %w", err)
	}

	summary, err := importRecords(ctx, svc, records)
	if err != nil {
		return err
	}
	applog.Info(ctx, "ingredient import finished", "owner_id", svc.OwnerID(),
		"created", summary.Created, "updated", summary.Updated, "unchanged", summary.Unchanged)

	fmt.Fprintf(os.Stdout, "Imported %s: %d created, %d updated, %d unchanged\n",
		filepath.Base(csvPath), summary.Created, summary.Updated, summary.Unchanged)
	return nil
}

// importRecords upserts each row by case-insensitive name. Updates go through
// the cost store so dependent recipes are repriced and history is kept.
func importRecords(ctx context.Context, svc *store.Service, records []map[string]string) (importSummary, error) {
	var summary importSummary

	for idx, record := range records {
		input, err := buildIngredient(record)
		if err != nil {
			return summary, fmt.Errorf("record %d: %w", idx+1, err)
		}

		existing, found := findByName(svc.Ingredients(), input.Name)
		switch {
		case !found:
			if _, err := svc.AddIngredient(ctx, input); err != nil {
				return summary, fmt.Errorf("record %d (%s): %w", idx+1, input.Name, err)
			}
			summary.Created++
		case sameIngredient(existing, input):
			summary.Unchanged++
		default:
			if _, err := svc.UpdateIngredient(ctx, existing.ID, input); err != nil {
				return summary, fmt.Errorf("record %d (%s): %w", idx+1, input.Name, err)
			}
			summary.Updated++
		}
	}

	return summary, nil
}

func resolveImportOwner(ctx context.Context, database *gorm.DB) (uint, error) {
	if database == nil {
		return 0, fmt.Errorf("database handle is nil")
	}

	email := strings.TrimSpace(os.Getenv("BAKECOST_IMPORT_OWNER_EMAIL"))
	if email != "" {
		var user models.User
		if err := database.WithContext(ctx).Where("lower(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
			return 0, fmt.Errorf("find owner by email %q: %w", strings.ToLower(email), err)
		}
		return user.ID, nil
	}

	var user models.User
	if err := database.WithContext(ctx).Order("id asc").First(&user).Error; err != nil {
		return 0, fmt.Errorf("find default owner: %w", err)
	}
	return user.ID, nil
}

func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := make([]string, len(rows[0]))
	for idx, key := range rows[0] {
		header[idx] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(key, "\ufeff")))
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[key] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func buildIngredient(row map[string]string) (store.IngredientInput, error) {
	name := normalizeText(column(row, nameHeaders))
	if name == "" {
		return store.IngredientInput{}, errors.New("name is required")
	}

	price, err := parseAmount(column(row, priceHeaders))
	if err != nil {
		return store.IngredientInput{}, fmt.Errorf("price for %q: %w", name, err)
	}
	if price <= 0 {
		return store.IngredientInput{}, fmt.Errorf("price for %q must be positive", name)
	}
	measure, err := parseAmount(column(row, measureHeaders))
	if err != nil {
		return store.IngredientInput{}, fmt.Errorf("measure for %q: %w", name, err)
	}
	if measure <= 0 {
		return store.IngredientInput{}, fmt.Errorf("measure for %q must be positive", name)
	}

	unit, ok := models.ParseUnit(column(row, unitHeaders))
	if !ok {
		return store.IngredientInput{}, fmt.Errorf("unit for %q must be one of g, kg, ml, L, un", name)
	}

	return store.IngredientInput{
		Name:         name,
		TotalPrice:   price,
		TotalMeasure: measure,
		BaseUnit:     unit,
	}, nil
}

func column(row map[string]string, names []string) string {
	for _, name := range names {
		if value, ok := row[name]; ok && value != "" {
			return value
		}
	}
	return ""
}

// parseAmount reads "12.5", "12,50", "R$ 1.234,56" and "1,234.56".
func parseAmount(raw string) (float64, error) {
	value := currencyPattern.ReplaceAllString(strings.TrimSpace(raw), "")
	if value == "" {
		return 0, errors.New("value is required")
	}

	lastComma := strings.LastIndex(value, ",")
	lastDot := strings.LastIndex(value, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		value = strings.ReplaceAll(value, ".", "")
		value = strings.Replace(value, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		value = strings.ReplaceAll(value, ",", "")
	case lastComma >= 0:
		value = strings.Replace(value, ",", ".", 1)
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("%q must not be negative", raw)
	}
	return amount.InexactFloat64(), nil
}

func normalizeText(value string) string {
	value = cleanWhitespace.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

func findByName(ingredients []models.Ingredient, name string) (models.Ingredient, bool) {
	for _, ingredient := range ingredients {
		if strings.EqualFold(ingredient.Name, name) {
			return ingredient, true
		}
	}
	return models.Ingredient{}, false
}

func sameIngredient(existing models.Ingredient, input store.IngredientInput) bool {
	return existing.Name == input.Name &&
		existing.BaseUnit == input.BaseUnit &&
		math.Abs(existing.TotalPrice-input.TotalPrice) <= 1e-9 &&
		math.Abs(existing.TotalMeasure-input.TotalMeasure) <= 1e-9
}
