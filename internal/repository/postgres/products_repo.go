package postgres

import (
	"context"
	"errors"

	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	"github.com/JulianaCelis/hatsusound-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type productsRepo struct{ pool *pgxpool.Pool }

func NewProducts(pool *pgxpool.Pool) repository.Products {
	return &productsRepo{pool: pool}
}

const productColumns = `id, name, description, category, artist, genre, format, price, currency, stock, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Artist, &p.Genre, &p.Format,
		&p.Price, &p.Currency, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Product{}, repository.ErrNotFound
	}
	return p, err
}

func (r *productsRepo) Create(ctx context.Context, p models.Product) (models.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return scanProduct(r.pool.QueryRow(ctx,
		`INSERT INTO products(id, name, description, category, artist, genre, format, price, currency, stock, is_active)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,true)
		 RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Category, p.Artist, p.Genre, p.Format, p.Price, p.Currency, p.Stock,
	))
}

func (r *productsRepo) GetByID(ctx context.Context, id string) (models.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

// List is a plain filtered query over active products.
func (r *productsRepo) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+`
		   FROM products
		  WHERE is_active
		    AND ($1 = '' OR category = $1)
		    AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR artist ILIKE '%' || $2 || '%')
		  ORDER BY created_at DESC
		  LIMIT $3 OFFSET $4`,
		string(f.Category), f.Query, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *productsRepo) Update(ctx context.Context, p models.Product) (models.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx,
		`UPDATE products
		    SET name=$2, description=$3, category=$4, artist=$5, genre=$6, format=$7,
		        price=$8, currency=$9, stock=$10, updated_at=now()
		  WHERE id=$1
		  RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Category, p.Artist, p.Genre, p.Format, p.Price, p.Currency, p.Stock,
	))
}

func (r *productsRepo) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET is_active=false, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
