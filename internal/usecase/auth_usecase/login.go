package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/metrics"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string
	Password string
}

// token 形（JwtAccessToken相当）
type JwtAccessToken struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

// handlerがJSONにして返す
type LoginOutput struct {
	User  model.User     `json:"user"`
	Token JwtAccessToken `json:"token"`
}

var (
	// メールまたはパスワードが違う
	ErrInvalidCredentials = errors.New("invalid credentials")

	// 停止済みユーザー
	ErrUserInactive = errors.New("user is inactive")

	// 失敗回数の上限を超えた
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// 失敗回数の記録先（Redis / Noop）
type LoginLimiter interface {
	Blocked(ctx context.Context, identity string) (bool, error)
	RecordFailure(ctx context.Context, identity string) error
	Reset(ctx context.Context, identity string) error
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	limiter  LoginLimiter
	clock    Clock
	log      *zap.Logger
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	limiter LoginLimiter,
	clock Clock,
	log *zap.Logger,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		limiter:  limiter,
		clock:    clock,
		log:      log,
	}
}

// 管理者ログイン。ADMIN以外は認証情報エラーと同じ扱い
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput
	email := strings.ToLower(strings.TrimSpace(in.Email))

	//失敗回数チェック（Redisが落ちていてもログインは止めない）
	blocked, err := u.limiter.Blocked(ctx, email)
	if err != nil {
		u.log.Warn("login limiter unavailable", zap.Error(err))
	}
	if blocked {
		metrics.LoginThrottledTotal.Inc()
		return out, ErrTooManyAttempts
	}

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			u.recordFailure(ctx, email)
			return out, ErrInvalidCredentials
		}
		return out, err
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		u.recordFailure(ctx, email)
		return out, ErrInvalidCredentials
	}

	if user.Role != model.RoleAdmin {
		u.recordFailure(ctx, email)
		return out, ErrInvalidCredentials
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return out, ErrUserInactive
	}

	//AccessToken発行
	now := u.clock.Now()
	accessToken, accessExp, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return out, err
	}

	if err := u.limiter.Reset(ctx, email); err != nil {
		u.log.Warn("login limiter reset failed", zap.Error(err))
	}

	//最終ログイン時刻更新
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		return out, err
	}

	out.User = *user
	out.Token = JwtAccessToken{
		AccessToken:  accessToken,
		ExpiresIn:    int(accessExp.Sub(now).Seconds()),
		TokenVersion: user.TokenVersion,
	}
	return out, nil
}

func (u *LoginUsecase) recordFailure(ctx context.Context, email string) {
	if err := u.limiter.RecordFailure(ctx, email); err != nil {
		u.log.Warn("login limiter record failed", zap.Error(err))
	}
}
