package security

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"session-web-server/config"
	"session-web-server/internal/model"
	"session-web-server/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	UserContextKey  contextKey = "user"
	TokenContextKey contextKey = "access_token"
)

// Claims : полезная нагрузка обоих классов токенов.
// Хэш пароля в токен не кладём, только id, username и роли.
type Claims struct {
	UserUUID string   `json:"user_uuid"`
	Username string   `json:"username"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type JWTService struct {
	*config.JWTConfig
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{cfg}
}

// DeriveSecret выводит ключ подписи из режима окружения и секрета.
// Формат ".<env>.<secret>" — у access и refresh токенов ключи независимы.
func DeriveSecret(env, secret string) []byte {
	return []byte(fmt.Sprintf(".%s.%s", env, secret))
}

func (service *JWTService) AccessSecretKey() []byte {
	return DeriveSecret(service.Env, service.AccessSecret)
}

func (service *JWTService) RefreshSecretKey() []byte {
	return DeriveSecret(service.Env, service.RefreshSecret)
}

// GenerateTokens подписывает пару access/refresh токенов для пользователя.
// Подпись чистая, без побочных эффектов: сохранение refresh-токена — забота сервиса сессий.
// Оба токена подписываются параллельно, каждый своим ключом и временем жизни.
func (service *JWTService) GenerateTokens(user *model.User) (*model.TokensPair, error) {
	accessTTL, err := time.ParseDuration(service.AccessTokenTTL)
	if err != nil {
		return nil, util.LogError("ошибка парсинга access_token_ttl", err)
	}

	refreshTTL, err := time.ParseDuration(service.RefreshTokenTTL)
	if err != nil {
		return nil, util.LogError("ошибка парсинга refresh_token_ttl", err)
	}

	var (
		wg                        sync.WaitGroup
		accessToken, refreshToken string
		accessErr, refreshErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		accessToken, accessErr = service.sign(user, accessTTL, service.AccessSecretKey())
	}()
	go func() {
		defer wg.Done()
		refreshToken, refreshErr = service.sign(user, refreshTTL, service.RefreshSecretKey())
	}()
	wg.Wait()

	if accessErr != nil {
		return nil, util.LogError("ошибка подписи access токена", accessErr)
	}
	if refreshErr != nil {
		return nil, util.LogError("ошибка подписи refresh токена", refreshErr)
	}

	return &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (service *JWTService) sign(user *model.User, ttl time.Duration, secretKey []byte) (string, error) {
	claims := Claims{
		UserUUID: user.UUID,
		Username: user.Username,
		Roles:    user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti гарантирует уникальность токенов, подписанных в одну секунду
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "session-web-server",
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return jwtToken.SignedString(secretKey)
}

func (service *JWTService) ValidateJWT(jwtTokenStr string, secretKey []byte) (*Claims, error) {
	var claims = &Claims{}

	jwtToken, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return secretKey, nil
	})

	if err != nil || jwtToken.Valid == false {
		return nil, util.LogError("невалидный токен", err)
	}

	return claims, nil
}

// ValidateAccessToken проверяет подпись и exp access токена
func (service *JWTService) ValidateAccessToken(jwtTokenStr string) (*Claims, error) {
	return service.ValidateJWT(jwtTokenStr, service.AccessSecretKey())
}

// ValidateRefreshToken проверяет подпись и exp refresh токена
func (service *JWTService) ValidateRefreshToken(jwtTokenStr string) (*Claims, error) {
	return service.ValidateJWT(jwtTokenStr, service.RefreshSecretKey())
}

// RevocationChecker : проверка, отозван ли access токен владельца
type RevocationChecker interface {
	Contains(ctx context.Context, userUUID, accessToken string) (bool, error)
}

func JWTMiddleware(jwtService *JWTService, revocationList RevocationChecker) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(jwtService, revocationList, next))
	}
}

func handleAuthentication(jwtService *JWTService, revocationList RevocationChecker, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		authorizationHeader := request.Header.Get("Authorization")
		if !strings.HasPrefix(authorizationHeader, "Bearer ") {
			http.Error(writer, "unauthorized", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(authorizationHeader, "Bearer ")

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			http.Error(writer, "unauthorized", http.StatusUnauthorized)
			return
		}

		// токен с валидной подписью мог быть отозван через logout
		revoked, err := revocationList.Contains(request.Context(), claims.UserUUID, token)
		if err != nil {
			http.Error(writer, "internal error", http.StatusInternalServerError)
			return
		}
		if revoked {
			http.Error(writer, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(request.Context(), UserContextKey, claims)
		ctx = context.WithValue(ctx, TokenContextKey, token)
		next.ServeHTTP(writer, request.WithContext(ctx))
	}
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("пользователь не авторизован")
	}
	return claims, nil
}

func GetAccessTokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(TokenContextKey).(string)
	if !ok || token == "" {
		return "", fmt.Errorf("access токен не найден в context")
	}
	return token, nil
}
