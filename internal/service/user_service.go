package service

import (
	"context"
	"fmt"
	"unicode"

	"session-web-server/internal/model"
	"session-web-server/internal/ports"
	"session-web-server/internal/security"

	"github.com/google/uuid"
)

// UserService : реализация интерфейса ports.UserDirectory поверх БД.
// Сервис сессий работает только через этот узкий интерфейс, остальное
// управление пользователями живёт отдельно.
type UserService struct {
	userRepository ports.UserRepository
}

func NewUserService(userRepository ports.UserRepository) *UserService {
	return &UserService{
		userRepository: userRepository,
	}
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.userRepository.FindByUsername(ctx, username)
}

func (s *UserService) GetOne(ctx context.Context, userUUID string) (*model.User, error) {
	return s.userRepository.FindByUUID(ctx, userUUID)
}

func (s *UserService) IsPasswordValid(password string, user *model.User) bool {
	if user == nil {
		return false
	}
	return security.CheckPassword(password, user.PasswordHash)
}

func (s *UserService) UpdatePassword(ctx context.Context, userUUID, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: [UserService] %v", ErrValidationFailed, err)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	return s.userRepository.UpdatePassword(ctx, userUUID, hash)
}

// ValidateUsername проверяет формат username и его доступность
func (s *UserService) ValidateUsername(ctx context.Context, username string) error {
	if len(username) < 4 {
		return fmt.Errorf("%w: username должен быть не меньше 4 символов", ErrValidationFailed)
	}
	for _, c := range username {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			return fmt.Errorf("%w: username должен содержать только буквы и цифры", ErrValidationFailed)
		}
	}

	// ошибка хранилища не является ошибкой валидации
	exists, err := s.userRepository.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("[UserService] ошибка проверки username: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: username уже занят", ErrValidationFailed)
	}

	return nil
}

func (s *UserService) Create(ctx context.Context, dto *model.NewUser) (*model.User, error) {
	hash, err := security.HashPassword(dto.Password)
	if err != nil {
		return nil, fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	roles := dto.Roles
	if len(roles) == 0 {
		roles = []string{"user"}
	}

	user := &model.User{
		UUID:         uuid.New().String(),
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: hash,
		Roles:        roles,
	}

	created, err := s.userRepository.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("[UserService] ошибка создания пользователя: %w", err)
	}

	return created, nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("пароль должен содержать минимум 6 символов")
	}

	var letterCount, digitCount int
	for _, c := range password {
		switch {
		case unicode.IsLetter(c):
			letterCount++
		case unicode.IsDigit(c):
			digitCount++
		}
	}

	if letterCount == 0 || digitCount == 0 {
		return fmt.Errorf("пароль должен содержать буквы и цифры")
	}

	return nil
}
