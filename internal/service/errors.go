package service

import "errors"

var (
	// ErrAuthenticationFailed : неверные учётные данные, повтор уже
	// использованного refresh-токена или отозванный access-токен.
	// На сервере не ретраится, отдается клиенту как отказ.
	ErrAuthenticationFailed = errors.New("неверный логин или пароль")

	// ErrValidationFailed : некорректный или занятый username,
	// слабый пароль либо несовпадение паролей
	// при смене. Отдается вызывающему как есть.
	ErrValidationFailed = errors.New("ошибка валидации")
)
