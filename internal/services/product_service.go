package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	repo "github.com/JulianaCelis/hatsusound-backend/internal/repository"
)

var (
	ErrProductUnavailable = errors.New("product is not available")
	// ErrInvalidInput wraps field validation failures from the catalog and
	// account services.
	ErrInvalidInput = errors.New("invalid input")
)

type ProductService struct {
	r repo.Products
}

func NewProductService(r repo.Products) *ProductService { return &ProductService{r: r} }

func (s *ProductService) Create(ctx context.Context, p models.Product) (models.Product, error) {
	if err := p.Validate(); err != nil {
		return models.Product{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.r.Create(ctx, p)
}

func (s *ProductService) Get(ctx context.Context, id string) (models.Product, error) {
	return s.r.GetByID(ctx, id)
}

func (s *ProductService) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	if f.Limit <= 0 || f.Limit > maxListLimit {
		f.Limit = defaultListLimit
	}
	f.Offset = max(f.Offset, 0)
	return s.r.List(ctx, f)
}

func (s *ProductService) Update(ctx context.Context, p models.Product) (models.Product, error) {
	if err := p.Validate(); err != nil {
		return models.Product{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.r.Update(ctx, p)
}

// Delete is a soft delete; the row stays for transaction history.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	return s.r.Deactivate(ctx, id)
}

// AmountInMinorUnits converts a price to the integer amount the checkout
// expects, rounding half away from zero to two decimals.
func AmountInMinorUnits(price decimal.Decimal) int64 {
	return price.Round(2).Shift(2).IntPart()
}

// CheckoutFor builds the product part of a checkout request for an active,
// in-stock product.
func (s *ProductService) CheckoutFor(ctx context.Context, id string) (CheckoutRequest, error) {
	p, err := s.r.GetByID(ctx, id)
	if err != nil {
		return CheckoutRequest{}, err
	}
	if !p.IsActive || p.Stock <= 0 {
		return CheckoutRequest{}, ErrProductUnavailable
	}
	req := CheckoutRequest{
		Amount:          AmountInMinorUnits(p.Price),
		Currency:        string(p.Currency),
		ProductID:       p.ID,
		ProductName:     p.Name,
		ProductCategory: string(p.Category),
	}
	if p.Artist != nil {
		req.ProductArtist = *p.Artist
	}
	if p.Genre != nil {
		req.ProductGenre = *p.Genre
	}
	if p.Format != nil {
		req.ProductFormat = *p.Format
	}
	return req, nil
}
