package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/models"
	"ledgersync/internal/pagination"
	"ledgersync/internal/rules"
)

const categoryPageSize = 200

// categoryService handles categories and transaction classification.
type categoryService struct {
	db     *gorm.DB
	engine *rules.Engine
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, engine *rules.Engine) CategoryServicer {
	return &categoryService{db: db, engine: engine}
}

// CreateCategory creates a new category with its filters
func (s *categoryService) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	filters := make([]models.CategoryFilter, 0, len(input.Filters))
	for i, f := range input.Filters {
		if err := validateFilter(f); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("filter %d: %s", i, err))
		}
		filters = append(filters, models.CategoryFilter{
			PropertyName:  f.PropertyName,
			Operation:     f.Operation,
			PropertyValue: f.PropertyValue,
		})
	}

	// Check if a category with the same name already exists
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{
		Name:        name,
		Description: input.Description,
		Propagate:   input.Propagate,
		Filters:     filters,
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// validateFilter rejects filters that could never evaluate true.
func validateFilter(f FilterInput) error {
	if len(rules.Operations(f.PropertyName)) == 0 {
		return fmt.Errorf("unknown property %q", f.PropertyName)
	}
	if !rules.Supports(f.PropertyName, f.Operation) {
		return fmt.Errorf("operation %s is not supported for %s", f.Operation, f.PropertyName)
	}
	switch {
	case f.Operation == models.FilterOperationRegexp:
		if !rules.ValidPattern(f.PropertyValue) {
			return fmt.Errorf("invalid pattern %q", f.PropertyValue)
		}
	case f.PropertyName == models.FilterPropertyAmount:
		if _, err := decimal.NewFromString(strings.TrimSpace(f.PropertyValue)); err != nil {
			return fmt.Errorf("amount %q is not a number", f.PropertyValue)
		}
	case f.PropertyName == models.FilterPropertyCredit:
		if _, err := strconv.ParseBool(strings.TrimSpace(f.PropertyValue)); err != nil {
			return fmt.Errorf("credit %q is not a boolean", f.PropertyValue)
		}
	}
	return nil
}

// GetCategoryByID retrieves a category with its filters
func (s *categoryService) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Preload("Filters").First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// PreviewClassification evaluates every category against a transaction
// without attaching anything.
func (s *categoryService) PreviewClassification(ctx context.Context, transactionID string) (*Classification, error) {
	transaction, err := loadTransaction(s.db.WithContext(ctx), transactionID)
	if err != nil {
		return nil, err
	}
	matched, err := s.match(ctx, transaction)
	if err != nil {
		return nil, err
	}
	preview := &models.Transaction{}
	for _, c := range matched {
		preview.Categories = append(preview.Categories, models.TransactionCategory{Category: c})
	}
	return &Classification{
		TransactionID: transaction.ID,
		Categories:    nonNil(matched),
		Propagate:     preview.Propagate(),
	}, nil
}

// ApplyClassification attaches the matching categories to a transaction
// that has none yet. A transaction already classified keeps its categories.
func (s *categoryService) ApplyClassification(ctx context.Context, transactionID string) (*Classification, error) {
	transaction, err := loadTransaction(s.db.WithContext(ctx), transactionID)
	if err != nil {
		return nil, err
	}

	if len(transaction.Categories) == 0 {
		matched, err := s.match(ctx, transaction)
		if err != nil {
			return nil, err
		}
		if len(matched) > 0 {
			err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				for i, c := range matched {
					link := models.TransactionCategory{TransactionID: transaction.ID, CategoryID: c.ID, Position: i}
					if err := tx.Clauses(clause.OnConflict{
						Columns:   []clause.Column{{Name: "transaction_id"}, {Name: "category_id"}},
						DoNothing: true,
					}).Omit(clause.Associations).Create(&link).Error; err != nil {
						return apperrors.Wrap(apperrors.ErrInternalServer, err)
					}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			if transaction, err = loadTransaction(s.db.WithContext(ctx), transactionID); err != nil {
				return nil, err
			}
		}
	}

	categories := make([]models.Category, 0, len(transaction.Categories))
	for _, tc := range transaction.Categories {
		categories = append(categories, tc.Category)
	}
	return &Classification{
		TransactionID: transaction.ID,
		Categories:    categories,
		Propagate:     transaction.Propagate(),
	}, nil
}

// match walks all categories in pages and returns those matching tx.
func (s *categoryService) match(ctx context.Context, transaction *models.Transaction) ([]models.Category, error) {
	var matched []models.Category
	err := pagination.Each(
		s.db.WithContext(ctx).Model(&models.Category{}).Preload("Filters"),
		categoryPageSize,
		func(c models.Category) string { return c.ID },
		func(page []models.Category) error {
			matched = append(matched, s.engine.Classify(page, transaction)...)
			return nil
		},
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return matched, nil
}

func nonNil(categories []models.Category) []models.Category {
	if categories == nil {
		return []models.Category{}
	}
	return categories
}
