package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ProductCategory string

const (
	CategoryMusica ProductCategory = "MUSICA"
	CategoryVinilo ProductCategory = "VINILO"
	CategoryCD     ProductCategory = "CD"
	CategoryCasete ProductCategory = "CASETE"
	CategoryMerch  ProductCategory = "MERCH"
	CategoryEquipo ProductCategory = "EQUIPO"
)

func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryMusica, CategoryVinilo, CategoryCD, CategoryCasete, CategoryMerch, CategoryEquipo:
		return true
	}
	return false
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    ProductCategory `json:"category"`
	Artist      *string         `json:"artist,omitempty"`
	Genre       *string         `json:"genre,omitempty"`
	Format      *string         `json:"format,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    Currency        `json:"currency"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.New("name is required")
	}
	if !p.Category.Valid() {
		return errors.New("invalid category")
	}
	if !p.Price.IsPositive() {
		return errors.New("price must be > 0")
	}
	if p.Currency == "" {
		p.Currency = CurrencyCOP
	}
	if !p.Currency.Supported() {
		return errors.New("unsupported currency")
	}
	if p.Stock < 0 {
		return errors.New("stock must be >= 0")
	}
	return nil
}

type ProductFilter struct {
	Category ProductCategory
	Query    string
	Limit    int
	Offset   int
}
