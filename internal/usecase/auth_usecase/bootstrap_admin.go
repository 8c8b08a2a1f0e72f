package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// 初期管理者の入力（環境変数から）
type BootstrapAdminInput struct {
	Email    string
	Password string
}

var (
	// 入力が不正
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrWeakPassword       = errors.New("weak password")
)

// 起動時に管理者がいなければ作る
type BootstrapAdminUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	clock    Clock
}

// DI
func NewBootstrapAdminUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	clock Clock,
) *BootstrapAdminUsecase {
	return &BootstrapAdminUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		clock:    clock,
	}
}

// 作成したらtrue。同じemailがすでにあれば何もしない
func (u *BootstrapAdminUsecase) Execute(ctx context.Context, in BootstrapAdminInput) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	// emailの形式チェック
	if !isValidEmailFormat(email) {
		return false, ErrInvalidEmailFormat
	}

	// password の長さチェック（最小12文字）
	if len(in.Password) < 12 {
		return false, ErrPasswordTooShort
	}

	// よくある弱いパスワードの拒否
	if isWeakPassword(in.Password) {
		return false, ErrWeakPassword
	}

	existing, err := u.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return false, nil
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return false, err
	}

	// パスワードをハッシュ化
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return false, err
	}

	now := u.clock.Now()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed, // ハッシュを保存（平文は保存しない）
		Role:         model.RoleAdmin,
		TokenVersion: 0,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

// メールチェック
func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

// パスワードのよくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password123":  {},
		"123456789012": {},
		"1234567890":   {},
		"12345678":     {},
		"qwerty":       {},
		"qwertyuiop":   {},
		"letmein":      {},
		"admin":        {},
		"admin123":     {},
	}

	_, ok := weak[normalized]
	return ok
}
