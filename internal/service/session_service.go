package service

import (
	"context"
	"errors"
	"fmt"

	"session-web-server/internal/model"
	"session-web-server/internal/ports"
	"session-web-server/internal/repository"
	"session-web-server/internal/util"
)

type SessionService struct {
	refreshTokenRepository ports.RefreshTokenRepositoryInterface
	revocationList         ports.RevocationListInterface
	jwtService             ports.JWTServiceInterface
	users                  ports.UserDirectory
}

func NewSessionService(
	refreshTokenRepository ports.RefreshTokenRepositoryInterface,
	revocationList ports.RevocationListInterface,
	jwtService ports.JWTServiceInterface,
	users ports.UserDirectory,
) *SessionService {
	return &SessionService{
		refreshTokenRepository: refreshTokenRepository,
		revocationList:         revocationList,
		jwtService:             jwtService,
		users:                  users,
	}
}

// SignIn проверяет учётные данные, подписывает пару токенов
// и сохраняет новый refresh-токен.
// Отказ в доступе — только для отсутствующего пользователя или неверного
// пароля; недоступность хранилища остаётся фатальной ошибкой запроса.
func (s *SessionService) SignIn(ctx context.Context, username, password string) (*model.TokensPair, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: пользователь не найден", ErrAuthenticationFailed)
		}
		return nil, util.LogError("не удалось найти пользователя", err)
	}

	if !s.users.IsPasswordValid(password, user) {
		return nil, ErrAuthenticationFailed
	}

	return s.issueAndPersist(ctx, user)
}

// SignUp регистрирует пользователя через внешний сервис пользователей
// и сразу открывает первую сессию
func (s *SessionService) SignUp(ctx context.Context, dto *model.NewUser) (*model.TokensPair, error) {
	if err := s.users.ValidateUsername(ctx, dto.Username); err != nil {
		// занятый или некорректный username сервис пользователей помечает
		// как ошибку валидации, ошибка его хранилища не маскируется
		if errors.Is(err, ErrValidationFailed) {
			return nil, err
		}
		return nil, util.LogError("не удалось проверить username", err)
	}

	user, err := s.users.Create(ctx, dto)
	if err != nil {
		return nil, util.LogError("ошибка создания пользователя", err)
	}

	return s.issueAndPersist(ctx, user)
}

// RefreshAccessToken ротирует refresh-токен: удаляет предъявленную строку
// и выдаёт новую пару.
//
// Удаление идёт первым и служит проверкой авторизации: отсутствие строки
// означает повтор уже использованного или поддельного токена. Удаление
// атомарно на уровне хранилища, поэтому из N конкурентных refresh с одним
// и тем же токеном ровно один получит новую пару, остальные —
// ErrAuthenticationFailed.
func (s *SessionService) RefreshAccessToken(ctx context.Context, userUUID, refreshToken string) (*model.TokensPair, error) {
	if err := s.refreshTokenRepository.DeleteOne(ctx, userUUID, refreshToken); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, fmt.Errorf("%w: refresh токен не найден", ErrAuthenticationFailed)
		}
		return nil, util.LogError("не удалось удалить refresh токен", err)
	}

	user, err := s.users.GetOne(ctx, userUUID)
	if err != nil {
		return nil, util.LogError("не удалось загрузить пользователя", err)
	}

	return s.issueAndPersist(ctx, user)
}

// SignOut завершает одну сессию: удаляет предъявленный refresh-токен
// и отзывает предъявленный access-токен
func (s *SessionService) SignOut(ctx context.Context, userUUID, accessToken, refreshToken string) error {
	if err := s.refreshTokenRepository.DeleteOne(ctx, userUUID, refreshToken); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return fmt.Errorf("%w: refresh токен не найден", ErrAuthenticationFailed)
		}
		return util.LogError("не удалось удалить refresh токен", err)
	}

	if err := s.revocationList.Record(ctx, userUUID, accessToken); err != nil {
		return util.LogError("не удалось отозвать access токен", err)
	}

	return nil
}

// FullSignOut завершает все сессии пользователя на всех устройствах
func (s *SessionService) FullSignOut(ctx context.Context, userUUID, accessToken string) error {
	if err := s.refreshTokenRepository.DeleteAll(ctx, userUUID); err != nil {
		return util.LogError("не удалось удалить refresh токены", err)
	}

	if err := s.revocationList.Record(ctx, userUUID, accessToken); err != nil {
		return util.LogError("не удалось отозвать access токен", err)
	}

	return nil
}

// ResetPassword меняет пароль и завершает все сессии пользователя,
// принуждая к повторной аутентификации на каждом устройстве
func (s *SessionService) ResetPassword(ctx context.Context, userUUID, oldPassword, newPassword, confirmPassword string) error {
	user, err := s.users.GetOne(ctx, userUUID)
	if err != nil {
		return util.LogError("не удалось загрузить пользователя", err)
	}

	if !s.users.IsPasswordValid(oldPassword, user) {
		return fmt.Errorf("%w: старый пароль не совпадает", ErrValidationFailed)
	}

	if newPassword != confirmPassword {
		return fmt.Errorf("%w: новый пароль и подтверждение не совпадают", ErrValidationFailed)
	}

	if err := s.users.UpdatePassword(ctx, userUUID, newPassword); err != nil {
		return util.LogError("не удалось обновить пароль", err)
	}

	if err := s.refreshTokenRepository.DeleteAll(ctx, userUUID); err != nil {
		return util.LogError("не удалось удалить refresh токены", err)
	}

	return nil
}

// IsAccessTokenExpired проверяет, был ли access-токен отозван для владельца.
// Чистый запрос к списку отзыва, используется слоем авторизации на каждом
// защищённом запросе.
func (s *SessionService) IsAccessTokenExpired(ctx context.Context, userUUID, accessToken string) (bool, error) {
	return s.revocationList.Contains(ctx, userUUID, accessToken)
}

func (s *SessionService) issueAndPersist(ctx context.Context, user *model.User) (*model.TokensPair, error) {
	tokens, err := s.jwtService.GenerateTokens(user)
	if err != nil {
		return nil, util.LogError("ошибка генерации токенов", err)
	}

	if err := s.refreshTokenRepository.Save(ctx, user.UUID, tokens.RefreshToken); err != nil {
		return nil, util.LogError("ошибка сохранения refresh токена", err)
	}

	return tokens, nil
}
