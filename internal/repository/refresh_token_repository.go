package repository

import (
	"context"
	"database/sql"
	"errors"

	"session-web-server/config"
	"session-web-server/internal/model"
	"session-web-server/internal/util"

	"github.com/google/uuid"
)

// ErrTokenNotFound : строка с refresh-токеном отсутствует.
// Для операции refresh это означает повтор уже использованного
// или поддельного токена.
var ErrTokenNotFound = errors.New("refresh токен не найден")

type RefreshTokenRepository struct {
	*config.Database
}

func NewRefreshTokenRepository(database *config.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{database}
}

// Save сохраняет новый refresh-токен пользователя.
// У пользователя может быть несколько строк одновременно — по одной на устройство.
func (r *RefreshTokenRepository) Save(ctx context.Context, userUUID, token string) error {
	query := `INSERT INTO refresh_tokens (uuid, user_uuid, token) VALUES ($1, $2, $3)`

	_, err := r.DB.ExecContext(ctx, query, uuid.New().String(), userUUID, token)
	if err != nil {
		return util.LogError("ошибка вставки refresh токена в БД", err)
	}

	return nil
}

// Find ищет refresh-токен по владельцу и значению токена
func (r *RefreshTokenRepository) Find(ctx context.Context, userUUID, token string) (*model.RefreshToken, error) {
	query := `SELECT uuid, user_uuid, token, created_at FROM refresh_tokens WHERE user_uuid = $1 AND token = $2`

	refreshToken := &model.RefreshToken{}

	err := r.DB.QueryRowContext(ctx, query, userUUID, token).Scan(
		&refreshToken.UUID,
		&refreshToken.UserUUID,
		&refreshToken.Token,
		&refreshToken.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, util.LogError("ошибка при выполнении запроса", err)
	}

	return refreshToken, nil
}

// DeleteOne удаляет ровно одну строку refresh-токена.
// Удаление атомарно: при N конкурентных refresh с одним и тем же токеном
// ровно один DELETE увидит строку, остальные получат ErrTokenNotFound.
func (r *RefreshTokenRepository) DeleteOne(ctx context.Context, userUUID, token string) error {
	query := `DELETE FROM refresh_tokens WHERE user_uuid = $1 AND token = $2`

	result, err := r.DB.ExecContext(ctx, query, userUUID, token)
	if err != nil {
		return util.LogError("не удалось удалить refresh токен", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("не удалось проверить, удалён ли токен", err)
	}
	if rowsAffected == 0 {
		return ErrTokenNotFound
	}

	return nil
}

// DeleteAll удаляет все refresh-токены пользователя, завершая все его сессии
func (r *RefreshTokenRepository) DeleteAll(ctx context.Context, userUUID string) error {
	query := `DELETE FROM refresh_tokens WHERE user_uuid = $1`

	_, err := r.DB.ExecContext(ctx, query, userUUID)
	if err != nil {
		return util.LogError("не удалось удалить refresh токены пользователя", err)
	}

	return nil
}
