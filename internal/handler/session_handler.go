package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"session-web-server/internal/model"
	"session-web-server/internal/model/requestresponse"
	"session-web-server/internal/ports"
	"session-web-server/internal/security"
	"session-web-server/internal/service"
	"session-web-server/internal/util"
)

type SessionHandler struct {
	ports.SessionService
	ports.JWTServiceInterface
}

func NewSessionHandler(
	sessionService ports.SessionService,
	jwtService ports.JWTServiceInterface,
) *SessionHandler {
	return &SessionHandler{
		sessionService,
		jwtService,
	}
}

// SignIn обрабатывает POST /api/auth/signin.
// Возвращает пару токенов по логину и паролю, 401 при неверных данных.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	if req.Username == "" || req.Password == "" {
		sendErrorResponse(w, http.StatusBadRequest, "username и password обязательны")
		return
	}

	tokens, err := h.SessionService.SignIn(ctx, req.Username, req.Password)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, service.ErrAuthenticationFailed):
			sendErrorResponse(w, http.StatusUnauthorized, "неверный логин или пароль")
		default:
			util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		}
		return
	}

	writeTokens(w, tokens)
}

// SignUp обрабатывает POST /api/auth/signup.
// Регистрирует пользователя и сразу возвращает пару токенов.
func (h *SessionHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	if req.Username == "" || req.Password == "" {
		sendErrorResponse(w, http.StatusBadRequest, "username и password обязательны")
		return
	}

	tokens, err := h.SessionService.SignUp(ctx, &model.NewUser{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, service.ErrValidationFailed):
			sendErrorResponse(w, http.StatusBadRequest, err.Error())
		default:
			sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(requestresponse.TokensResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Refresh обрабатывает POST /api/auth/refresh.
// Refresh-токен приходит в заголовке Authorization: Bearer, тело не нужно.
// Владелец выводится из клеймов самого refresh-токена. Любой отказ — 403.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	refreshToken, ok := bearerToken(r)
	if !ok {
		sendErrorResponse(w, http.StatusForbidden, "пустой или неверный заголовок Authorization")
		return
	}

	claims, err := h.JWTServiceInterface.ValidateRefreshToken(refreshToken)
	if err != nil {
		sendErrorResponse(w, http.StatusForbidden, "невалидный refresh токен")
		return
	}

	tokens, err := h.SessionService.RefreshAccessToken(ctx, claims.UserUUID, refreshToken)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, service.ErrAuthenticationFailed):
			sendErrorResponse(w, http.StatusForbidden, "не удалось обновить токены")
		default:
			sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		}
		return
	}

	writeTokens(w, tokens)
}

// SignOut обрабатывает POST /api/auth/signout.
// Завершает одну сессию: refresh-токен из тела, access-токен из контекста.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	claims, accessToken, ok := authenticatedCaller(w, ctx)
	if !ok {
		return
	}

	var req requestresponse.SignOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		sendErrorResponse(w, http.StatusBadRequest, "refreshToken обязателен")
		return
	}

	if err := h.SessionService.SignOut(ctx, claims.UserUUID, accessToken, req.RefreshToken); err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, service.ErrAuthenticationFailed):
			sendErrorResponse(w, http.StatusUnauthorized, "невалидный refresh токен")
		default:
			sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(requestresponse.MessageResponse{Message: "Successfully logged out!"})
}

// FullSignOut обрабатывает POST /api/auth/full-signout.
// Завершает все сессии пользователя на всех устройствах.
func (h *SessionHandler) FullSignOut(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	claims, accessToken, ok := authenticatedCaller(w, ctx)
	if !ok {
		return
	}

	if err := h.SessionService.FullSignOut(ctx, claims.UserUUID, accessToken); err != nil {
		log.Println(err)
		sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(requestresponse.MessageResponse{Message: "Successfully logged out!"})
}

// ResetPassword обрабатывает POST /api/auth/reset-password.
// После успешной смены пароля все сессии пользователя завершаются.
func (h *SessionHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	claims, _, ok := authenticatedCaller(w, ctx)
	if !ok {
		return
	}

	var req requestresponse.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	err := h.SessionService.ResetPassword(ctx, claims.UserUUID, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, service.ErrValidationFailed):
			sendErrorResponse(w, http.StatusBadRequest, err.Error())
		default:
			sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(requestresponse.MessageResponse{Message: "Password updated successfully!"})
}

// Me возвращает клеймы текущего пользователя
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, _, ok := authenticatedCaller(w, r.Context())
	if !ok {
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(requestresponse.CurrentUserResponse{
		UserUUID: claims.UserUUID,
		Username: claims.Username,
		Roles:    claims.Roles,
	})
}

func authenticatedCaller(w http.ResponseWriter, ctx context.Context) (*security.Claims, string, bool) {
	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		sendErrorResponse(w, http.StatusUnauthorized, "не авторизован")
		return nil, "", false
	}

	accessToken, err := security.GetAccessTokenFromContext(ctx)
	if err != nil {
		sendErrorResponse(w, http.StatusUnauthorized, "не авторизован")
		return nil, "", false
	}

	return claims, accessToken, true
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}

func writeTokens(w http.ResponseWriter, tokens *model.TokensPair) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(requestresponse.TokensResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// sendErrorResponse отправляет ответ об ошибке JSON с указанным кодом статуса и сообщением
func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(requestresponse.ErrorResponse{
		Error: requestresponse.ErrorDetail{
			Code: statusCode,
			Text: message,
		},
	})
}
