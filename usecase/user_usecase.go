package usecase

import (
	"context"
	"strings"

	"tawarin-backend/apperr"
	"tawarin-backend/model"
)

type UserUsecase struct {
	repo UserStore
}

func NewUserUsecase(repo UserStore) *UserUsecase {
	return &UserUsecase{repo: repo}
}

// Register finds an existing user by email or creates a new one. This is the
// whole identity surface; real authentication lives elsewhere.
func (u *UserUsecase) Register(ctx context.Context, name, email string) (*model.User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return nil, apperr.Validation("name and email are required")
	}

	existing, err := u.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	user := &model.User{
		ID:    newULID(),
		Name:  name,
		Email: email,
	}
	if err := u.repo.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
