package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"session-web-server/config"
	"session-web-server/internal/model"
	"session-web-server/internal/util"

	"github.com/google/uuid"
)

// RevocationRepository хранит отозванные access-токены в Redis.
// TTL записи равен времени жизни access-токена: после него токен
// и так невалиден по exp, запись больше не нужна. Так список
// не растёт бесконечно без отдельного фонового чистильщика.
type RevocationRepository struct {
	client *config.RedisClient
	ttl    time.Duration
}

func NewRevocationRepository(rdb *config.RedisClient, accessTokenTTL time.Duration) *RevocationRepository {
	return &RevocationRepository{rdb, accessTokenTTL}
}

// Record записывает отозванный access-токен владельца
func (r *RevocationRepository) Record(ctx context.Context, userUUID, accessToken string) error {
	entry := model.RevokedAccessToken{
		UUID:      uuid.New().String(),
		UserUUID:  userUUID,
		Token:     accessToken,
		RevokedAt: time.Now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return util.LogError("ошибка сериализации отозванного токена", err)
	}

	cmd := r.client.Client.Set(ctx, r.key(userUUID, accessToken), string(data), r.ttl)
	if err := cmd.Err(); err != nil {
		return util.LogError("ошибка записи отозванного токена в Redis", err)
	}
	if cmd.Val() != "OK" {
		return fmt.Errorf("неожиданный ответ Redis: %s", cmd.Val())
	}

	return nil
}

// Contains проверяет, был ли access-токен отозван для данного владельца.
// Тот же токен под другим владельцем отозванным не считается.
func (r *RevocationRepository) Contains(ctx context.Context, userUUID, accessToken string) (bool, error) {
	count, err := r.client.Client.Exists(ctx, r.key(userUUID, accessToken)).Result()
	if err != nil {
		return false, util.LogError("ошибка проверки отозванного токена в Redis", err)
	}
	return count > 0, nil
}

func (r *RevocationRepository) key(userUUID, accessToken string) string {
	return fmt.Sprintf("revoked:%s:%s", userUUID, accessToken)
}
