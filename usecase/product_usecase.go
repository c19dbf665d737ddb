package usecase

import (
	"context"
	"strings"
	"time"

	"tawarin-backend/apperr"
	"tawarin-backend/model"
)

// ValidateEconomics checks the price pair every negotiation depends on.
func ValidateEconomics(listPrice, floorPrice int) error {
	if listPrice <= 0 {
		return apperr.Validation("list price must be positive")
	}
	if floorPrice < 0 {
		return apperr.Validation("floor price must not be negative")
	}
	if floorPrice > listPrice {
		return apperr.Validation("floor price must not exceed list price")
	}
	return nil
}

type ProductUsecase struct {
	repo ProductStore
}

func NewProductUsecase(repo ProductStore) *ProductUsecase {
	return &ProductUsecase{repo: repo}
}

func (u *ProductUsecase) Create(ctx context.Context, name string, listPrice, floorPrice int, description, sellerID string) (*model.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("product name is required")
	}
	if sellerID == "" {
		return nil, apperr.Validation("seller id is required")
	}
	if err := ValidateEconomics(listPrice, floorPrice); err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:          newULID(),
		Name:        name,
		ListPrice:   listPrice,
		FloorPrice:  floorPrice,
		Description: description,
		SellerID:    sellerID,
		CreatedAt:   time.Now(),
	}
	if err := u.repo.Insert(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (u *ProductUsecase) GetAll(ctx context.Context) ([]model.Product, error) {
	return u.repo.GetAll(ctx)
}

func (u *ProductUsecase) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, apperr.Validation("product id is required")
	}
	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product %s not found", id)
	}
	return p, nil
}
