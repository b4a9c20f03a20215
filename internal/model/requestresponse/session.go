package requestresponse

// SignInRequest : тело запроса на аутентификацию
type SignInRequest struct {
	Username string `json:"username" example:"user1"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

// SignUpRequest : тело запроса на регистрацию
type SignUpRequest struct {
	Username string   `json:"username" example:"user1"`
	Email    string   `json:"email" example:"user1@example.com"`
	Password string   `json:"password" example:"P@ssw0rd123"`
	Roles    []string `json:"roles,omitempty" example:"user"`
}

// TokensResponse : ответ с новой парой токенов (signin/signup/refresh)
type TokensResponse struct {
	AccessToken  string `json:"accessToken" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refreshToken" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
}

// SignOutRequest : завершение одной сессии, refresh-токен этой сессии
type SignOutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ResetPasswordRequest : смена пароля с подтверждением
type ResetPasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// MessageResponse : ответ без данных
type MessageResponse struct {
	Message string `json:"message" example:"Successfully logged out!"`
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	UserUUID string   `json:"user_uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
	Username string   `json:"username" example:"user1"`
	Roles    []string `json:"roles"`
}

// ErrorDetail : детальная информация об ошибке
type ErrorDetail struct {
	Code int    `json:"code" example:"401"`
	Text string `json:"text" example:"for example: invalid login or password"`
}

// ErrorResponse : стандартная структура ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
