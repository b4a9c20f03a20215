package ports

import (
	"context"

	"session-web-server/internal/model"
	"session-web-server/internal/security"
)

// SessionService : оркестрация жизненного цикла сессии
type SessionService interface {
	SignIn(ctx context.Context, username, password string) (*model.TokensPair, error)
	SignUp(ctx context.Context, dto *model.NewUser) (*model.TokensPair, error)
	RefreshAccessToken(ctx context.Context, userUUID, refreshToken string) (*model.TokensPair, error)
	SignOut(ctx context.Context, userUUID, accessToken, refreshToken string) error
	FullSignOut(ctx context.Context, userUUID, accessToken string) error
	ResetPassword(ctx context.Context, userUUID, oldPassword, newPassword, confirmPassword string) error
	IsAccessTokenExpired(ctx context.Context, userUUID, accessToken string) (bool, error)
}

type JWTServiceInterface interface {
	GenerateTokens(user *model.User) (*model.TokensPair, error)
	ValidateAccessToken(tokenString string) (*security.Claims, error)
	ValidateRefreshToken(tokenString string) (*security.Claims, error)
}

// RefreshTokenRepositoryInterface : одна строка на действующий refresh-токен.
// DeleteOne — это и проверка авторизации: отсутствие строки означает,
// что токен уже был использован или подделан.
type RefreshTokenRepositoryInterface interface {
	Save(ctx context.Context, userUUID, token string) error
	Find(ctx context.Context, userUUID, token string) (*model.RefreshToken, error)
	DeleteOne(ctx context.Context, userUUID, token string) error
	DeleteAll(ctx context.Context, userUUID string) error
}

// RevocationListInterface : access-токены, отозванные до истечения exp
type RevocationListInterface interface {
	Record(ctx context.Context, userUUID, accessToken string) error
	Contains(ctx context.Context, userUUID, accessToken string) (bool, error)
}
