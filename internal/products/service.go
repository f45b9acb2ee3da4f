package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gymstore/backend/pkg/db/models"
	"github.com/gymstore/backend/pkg/enums"
	pkgerrors "github.com/gymstore/backend/pkg/errors"
	"github.com/gymstore/backend/pkg/pagination"
)

// Service exposes catalog operations for public and admin surfaces.
type Service struct {
	repo *Repository
}

// NewService builds a product service.
func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &Service{repo: repo}, nil
}

// List returns a page of products. Public callers only see active listings;
// admins see everything.
func (s *Service) List(ctx context.Context, params pagination.Params, category string, includeInactive bool) (*ProductList, error) {
	filters := ListFilters{ActiveOnly: !includeInactive}
	if strings.TrimSpace(category) != "" {
		parsed, err := enums.ParseProductCategory(category)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		filters.Category = &parsed
	}

	rows, next, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	items := make([]ProductView, 0, len(rows))
	for _, row := range rows {
		items = append(items, toProductView(row))
	}
	return &ProductList{Items: items, NextCursor: next}, nil
}

// Get returns one product. Public callers cannot see inactive listings.
func (s *Service) Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductView, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	view := toProductView(*product)
	return &view, nil
}

// Create inserts a new admin-authored listing.
func (s *Service) Create(ctx context.Context, input CreateProductInput) (*ProductView, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Price:       input.Price,
		Stock:       input.Stock,
		IsActive:    input.IsActive,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	view := toProductView(*created)
	return &view, nil
}

// UpdateField applies one whitelisted field change. The closed set keeps
// admin edits from touching columns like created_at or id.
func (s *Service) UpdateField(ctx context.Context, input UpdateFieldInput) (*ProductView, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !input.Field.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "field is not updatable").
			WithDetails(map[string]any{"field": string(input.Field)})
	}

	value, err := coerceFieldValue(input.Field, input.Value)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	updates := map[string]any{string(input.Field): value}
	if err := s.repo.UpdateFields(ctx, input.ProductID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	return s.Get(ctx, input.ProductID, true)
}

// Delete removes a product and its image rows.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// AttachImage records a stored upload against the product.
func (s *Service) AttachImage(ctx context.Context, productID uuid.UUID, fileName, contentType string, sizeBytes int64) (*ImageView, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	image, err := s.repo.AttachImage(ctx, &models.ProductImage{
		ProductID:   productID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach image")
	}
	return &ImageView{ID: image.ID, URL: "/uploads/" + image.FileName, ContentType: image.ContentType}, nil
}

func coerceFieldValue(field enums.ProductField, value any) (any, error) {
	switch field {
	case enums.ProductFieldName, enums.ProductFieldDescription:
		str, ok := value.(string)
		if !ok || (field == enums.ProductFieldName && strings.TrimSpace(str) == "") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must be a non-empty string")
		}
		return strings.TrimSpace(str), nil

	case enums.ProductFieldCategory:
		str, ok := value.(string)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must be a category string")
		}
		category, err := enums.ParseProductCategory(str)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		return category, nil

	case enums.ProductFieldPrice:
		price, err := decimalFromAny(value)
		if err != nil {
			return nil, err
		}
		if price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		return price, nil

	case enums.ProductFieldStock:
		stock, err := intFromAny(value)
		if err != nil {
			return nil, err
		}
		if stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		return stock, nil

	case enums.ProductFieldIsActive:
		active, ok := value.(bool)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must be a boolean")
		}
		return active, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "field is not updatable")
}

func decimalFromAny(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		return parsed, nil
	case float64:
		// json.Unmarshal delivers numbers as float64
		return decimal.NewFromFloat(v), nil
	}
	return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "value must be a number or numeric string")
}

func intFromAny(value any) (int, error) {
	switch v := value.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "value must be a whole number")
		}
		return int(v), nil
	case int:
		return v, nil
	}
	return 0, pkgerrors.New(pkgerrors.CodeValidation, "value must be a whole number")
}
