package model

import (
	"time"

	"github.com/lib/pq"
)

type User struct {
	UUID         string         `db:"uuid" json:"uuid"`
	Username     string         `db:"username" json:"username"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Roles        pq.StringArray `db:"roles" json:"roles"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// NewUser : данные для регистрации нового пользователя.
// Передаются сервису пользователей как есть, хэширование пароля — его забота.
type NewUser struct {
	Username string
	Email    string
	Password string
	Roles    []string
}
