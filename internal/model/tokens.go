package model

import "time"

// RefreshToken : одна строка на каждый действующий refresh-токен.
// У пользователя может быть несколько строк одновременно (несколько устройств).
// Успешный refresh удаляет строку и вставляет ровно одну новую.
type RefreshToken struct {
	UUID      string    `db:"uuid"`
	UserUUID  string    `db:"user_uuid"`
	Token     string    `db:"token"`
	CreatedAt time.Time `db:"created_at"`
}

// RevokedAccessToken : access-токен, отозванный до истечения его exp
// (logout / full logout). Сериализуется в значение Redis-ключа,
// TTL записи равен времени жизни access-токена.
type RevokedAccessToken struct {
	UUID      string    `json:"uuid"`
	UserUUID  string    `json:"user_uuid"`
	Token     string    `json:"token"`
	RevokedAt time.Time `json:"revoked_at"`
}

// TokensPair содержит пару access и refresh токенов.
// Никогда не сохраняется, отдается вызывающему при signin/signup/refresh.
type TokensPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
