package auth

import (
	"context"
	"errors"

	"storefront/internal/repository"
)

var ErrUnauthorized = errors.New("unauthorized")

// token_versionを上げて、発行済みのaccess tokenを全部無効にする
type LogoutUsecase struct {
	userRepo repository.UserRepository
}

func NewLogoutUsecase(userRepo repository.UserRepository) *LogoutUsecase {
	return &LogoutUsecase{userRepo: userRepo}
}

func (u *LogoutUsecase) Execute(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	err := u.userRepo.IncrementTokenVersion(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUnauthorized
	}
	return err
}
