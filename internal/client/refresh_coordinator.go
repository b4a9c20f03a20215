package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired : refresh не удался, сессия завершена локально.
// Вызывающий получает именно отказ, а не "успех" с ошибкой внутри,
// чтобы отличить "разлогинен" от "запрос прошёл".
var ErrSessionExpired = errors.New("сессия завершена, требуется повторный вход")

const defaultRefreshTimeout = 10 * time.Second

// RefreshCoordinator оборачивает каждый исходящий запрос:
// подставляет access-токен, а при 401 выполняет ровно один refresh
// на все одновременно упавшие запросы и повторяет каждый из них один раз.
//
// Общий in-flight refresh держит singleflight.Group: первый упавший запрос
// запускает обращение к refresh-эндпоинту, остальные ждут тот же результат.
// Булевый флаг здесь не годится — между проверкой и установкой флага успели
// бы проскочить несколько вызовов, и refresh ушёл бы дублями.
type RefreshCoordinator struct {
	base           http.RoundTripper
	tokens         *TokenStore
	refreshURL     string
	refreshTimeout time.Duration
	group          singleflight.Group
	onSessionEnd   func()
}

// NewRefreshCoordinator создает координатор поверх base (nil — http.DefaultTransport).
// onSessionEnd вызывается один раз при локальном завершении сессии (может быть nil).
func NewRefreshCoordinator(base http.RoundTripper, tokens *TokenStore, refreshURL string, onSessionEnd func()) *RefreshCoordinator {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RefreshCoordinator{
		base:           base,
		tokens:         tokens,
		refreshURL:     refreshURL,
		refreshTimeout: defaultRefreshTimeout,
		onSessionEnd:   onSessionEnd,
	}
}

// SetRefreshTimeout задает предел ожидания refresh. Зависший refresh
// не должен блокировать вызывающих навсегда: по таймауту отказ.
func (c *RefreshCoordinator) SetRefreshTimeout(timeout time.Duration) {
	c.refreshTimeout = timeout
}

func (c *RefreshCoordinator) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := c.send(req, c.tokens.AccessToken())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// тело с GetBody можно переиграть, без него повтор невозможен
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	newAccessToken, err := c.awaitRefresh(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	// ровно один повтор с новым токеном, без цикла
	return c.send(req, newAccessToken)
}

func (c *RefreshCoordinator) send(req *http.Request, accessToken string) (*http.Response, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}
	if accessToken != "" {
		out.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.base.RoundTrip(out)
}

// awaitRefresh присоединяется к общему in-flight refresh либо запускает его.
// Отмена контекста одного из ждущих не отменяет общий refresh:
// от него могут зависеть остальные.
func (c *RefreshCoordinator) awaitRefresh(req *http.Request) (string, error) {
	ch := c.group.DoChan("refresh", func() (interface{}, error) {
		return c.refresh()
	})

	select {
	case result := <-ch:
		if result.Err != nil {
			return "", result.Err
		}
		return result.Val.(string), nil
	case <-time.After(c.refreshTimeout):
		return "", fmt.Errorf("таймаут ожидания refresh")
	case <-req.Context().Done():
		return "", req.Context().Err()
	}
}

// refresh выполняет одно обращение к refresh-эндпоинту.
// Единственная попытка: сетевые ошибки не ретраятся, отказ завершает
// сессию локально.
func (c *RefreshCoordinator) refresh() (string, error) {
	refreshToken := c.tokens.RefreshToken()
	if refreshToken == "" {
		c.endSession()
		return "", fmt.Errorf("нет refresh токена")
	}

	req, err := http.NewRequest(http.MethodPost, c.refreshURL, nil)
	if err != nil {
		c.endSession()
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	httpClient := &http.Client{
		Transport: c.base,
		Timeout:   c.refreshTimeout,
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		c.endSession()
		return "", fmt.Errorf("ошибка запроса refresh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.endSession()
		return "", fmt.Errorf("refresh отклонён: статус %d", resp.StatusCode)
	}

	var tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		c.endSession()
		return "", fmt.Errorf("ошибка разбора ответа refresh: %w", err)
	}

	c.tokens.Set(tokens.AccessToken, tokens.RefreshToken)
	return tokens.AccessToken, nil
}

func (c *RefreshCoordinator) endSession() {
	// сессия уже завершена локально, повторно хук не дергаем
	if !c.tokens.Clear() {
		return
	}
	if c.onSessionEnd != nil {
		c.onSessionEnd()
	}
}
