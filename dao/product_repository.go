package dao

import (
	"context"
	"database/sql"
	"errors"

	"tawarin-backend/model"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Insert(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (id, name, list_price, floor_price, description, seller_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.ListPrice, p.FloorPrice, p.Description, p.SellerID, p.CreatedAt)
	return err
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `
		SELECT id, name, list_price, floor_price, description, seller_id, created_at
		FROM products
		WHERE id = ?
	`
	var p model.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.ListPrice, &p.FloorPrice, &p.Description, &p.SellerID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) GetAll(ctx context.Context) ([]model.Product, error) {
	query := `
		SELECT id, name, list_price, floor_price, description, seller_id, created_at
		FROM products
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.ListPrice, &p.FloorPrice, &p.Description, &p.SellerID, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
