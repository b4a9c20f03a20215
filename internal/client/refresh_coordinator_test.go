package client_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"session-web-server/internal/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBackend : защищённый эндпоинт плюс refresh-эндпоинт.
// Пока access токен не обновлён, защищённые вызовы получают 401.
type testBackend struct {
	mu           sync.Mutex
	validAccess  string
	validRefresh string
	refreshCalls atomic.Int64
	refreshFails bool
	refreshDelay time.Duration
}

func (b *testBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if b.refreshDelay > 0 {
			time.Sleep(b.refreshDelay)
		}
		if b.refreshFails {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		b.mu.Lock()
		presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if presented != b.validRefresh {
			b.mu.Unlock()
			w.WriteHeader(http.StatusForbidden)
			return
		}
		b.validAccess = "access-new"
		b.validRefresh = "refresh-new"
		access, refresh := b.validAccess, b.validRefresh
		b.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  access,
			"refreshToken": refresh,
		})
	})

	mux.HandleFunc("GET /api/data", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		valid := b.validAccess
		b.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+valid {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("ok"))
	})

	return mux
}

func TestRefreshCoordinator_SingleCall(t *testing.T) {
	backend := &testBackend{}
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	backend.validAccess = "access-valid"
	backend.validRefresh = "refresh-old"

	tokens := client.NewTokenStore("access-stale", "refresh-old")
	coordinator := client.NewRefreshCoordinator(nil, tokens, server.URL+"/auth/refresh", nil)
	httpClient := &http.Client{Transport: coordinator}

	resp, err := httpClient.Get(server.URL + "/api/data")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), backend.refreshCalls.Load())
	assert.Equal(t, "access-new", tokens.AccessToken())
	assert.Equal(t, "refresh-new", tokens.RefreshToken())
}

// 5 одновременных запросов с протухшим access токеном:
// ровно один вызов refresh-эндпоинта, все 5 запросов завершаются успешно
func TestRefreshCoordinator_SingleFlight(t *testing.T) {
	backend := &testBackend{refreshDelay: 200 * time.Millisecond}
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	backend.validAccess = "access-valid"
	backend.validRefresh = "refresh-old"

	tokens := client.NewTokenStore("access-stale", "refresh-old")
	coordinator := client.NewRefreshCoordinator(nil, tokens, server.URL+"/auth/refresh", nil)
	httpClient := &http.Client{Transport: coordinator}

	const n = 5
	var (
		wg        sync.WaitGroup
		successes atomic.Int64
	)

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			resp, err := httpClient.Get(server.URL + "/api/data")
			if err != nil {
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(n), successes.Load())
	assert.Equal(t, int64(1), backend.refreshCalls.Load())
}

// Неудавшийся refresh: все ждущие получают отказ, сессия завершается локально
func TestRefreshCoordinator_FailedRefresh(t *testing.T) {
	backend := &testBackend{refreshFails: true, refreshDelay: 200 * time.Millisecond}
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	backend.validAccess = "access-valid"

	tokens := client.NewTokenStore("access-stale", "refresh-old")
	var sessionEnds atomic.Int64
	coordinator := client.NewRefreshCoordinator(nil, tokens, server.URL+"/auth/refresh", func() {
		sessionEnds.Add(1)
	})
	httpClient := &http.Client{Transport: coordinator}

	const n = 5
	var (
		wg       sync.WaitGroup
		rejected atomic.Int64
	)

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := httpClient.Get(server.URL + "/api/data")
			// отказ должен прийти именно ошибкой, а не "успешным" ответом
			if errors.Is(err, client.ErrSessionExpired) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(n), rejected.Load())
	// один общий refresh — одно завершение сессии
	assert.Equal(t, int64(1), backend.refreshCalls.Load())
	assert.Equal(t, int64(1), sessionEnds.Load())
	assert.Empty(t, tokens.AccessToken())
	assert.Empty(t, tokens.RefreshToken())
}

// Зависший refresh не блокирует вызывающего навсегда: таймаут, отказ
func TestRefreshCoordinator_Timeout(t *testing.T) {
	backend := &testBackend{refreshDelay: 2 * time.Second}
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	backend.validAccess = "access-valid"
	backend.validRefresh = "refresh-old"

	tokens := client.NewTokenStore("access-stale", "refresh-old")
	coordinator := client.NewRefreshCoordinator(nil, tokens, server.URL+"/auth/refresh", nil)
	coordinator.SetRefreshTimeout(100 * time.Millisecond)
	httpClient := &http.Client{Transport: coordinator}

	start := time.Now()
	_, err := httpClient.Get(server.URL + "/api/data")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Contains(t, err.Error(), client.ErrSessionExpired.Error())
	assert.Less(t, elapsed, time.Second)
}

// Успешные запросы проходят без обращения к refresh-эндпоинту
func TestRefreshCoordinator_NoRefreshOnSuccess(t *testing.T) {
	backend := &testBackend{}
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	backend.validAccess = "access-valid"

	tokens := client.NewTokenStore("access-valid", "refresh-old")
	coordinator := client.NewRefreshCoordinator(nil, tokens, server.URL+"/auth/refresh", nil)
	httpClient := &http.Client{Transport: coordinator}

	resp, err := httpClient.Get(server.URL + "/api/data")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), backend.refreshCalls.Load())
}
