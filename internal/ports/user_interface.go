package ports

import (
	"context"

	"session-web-server/internal/model"
)

// UserDirectory : внешний сервис управления пользователями.
// Сервис сессий только читает пользователей и меняет пароль,
// всё остальное (CRUD, роли, биллинг) — не его забота.
// Отсутствие пользователя — repository.ErrUserNotFound, некорректный
// или занятый username — service.ErrValidationFailed; прочие ошибки
// означают сбой самого хранилища.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	GetOne(ctx context.Context, userUUID string) (*model.User, error)
	IsPasswordValid(password string, user *model.User) bool
	UpdatePassword(ctx context.Context, userUUID, newPassword string) error
	ValidateUsername(ctx context.Context, username string) error
	Create(ctx context.Context, dto *model.NewUser) (*model.User, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	FindByUUID(ctx context.Context, uuid string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePassword(ctx context.Context, uuid, newPasswordHash string) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
