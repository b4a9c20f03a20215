package client

import "sync"

// TokenStore хранит текущую пару токенов на стороне клиента.
// Доступ под мьютексом: пару одновременно читают все исходящие
// запросы и перезаписывает завершившийся refresh.
type TokenStore struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

func NewTokenStore(accessToken, refreshToken string) *TokenStore {
	return &TokenStore{
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

func (s *TokenStore) Set(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
}

func (s *TokenStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *TokenStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Clear сбрасывает пару, локально завершая сессию.
// Возвращает false, если пары уже не было.
func (s *TokenStore) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken == "" && s.refreshToken == "" {
		return false
	}
	s.accessToken = ""
	s.refreshToken = ""
	return true
}
