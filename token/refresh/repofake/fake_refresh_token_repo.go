package refreshrepofake

import (
	"maps"
	"sync"
	"time"

	"github.com/jrsteele09/nebula-bridge/internal/errors"
	"github.com/jrsteele09/nebula-bridge/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	tokens  map[string]*refresh.StoredRefreshToken
	userIDs map[string]string // user ID to token ID
	lock    sync.RWMutex
}

func NewFakeRefreshTokenRepo() refresh.Repo {
	return &FakeRefreshTokenRepo{
		tokens:  make(map[string]*refresh.StoredRefreshToken),
		userIDs: make(map[string]string),
	}
}

func (tr *FakeRefreshTokenRepo) Upsert(refreshToken *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.tokens[refreshToken.Token] = refreshToken
	tr.userIDs[refreshToken.UserID] = refreshToken.Token
	return nil
}

func (tr *FakeRefreshTokenRepo) Delete(token string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.tokens[token]
	if !ok {
		return errors.ErrNotFound
	}
	if tr.userIDs[rt.UserID] == token {
		delete(tr.userIDs, rt.UserID)
	}
	delete(tr.tokens, token)
	return nil
}

// Get returns a copy so callers never race with AddIssuedToken.
func (tr *FakeRefreshTokenRepo) Get(token string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	rt, ok := tr.tokens[token]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return clone(rt), nil
}

func (tr *FakeRefreshTokenRepo) GetByUserID(userID string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	token, ok := tr.userIDs[userID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return clone(tr.tokens[token]), nil
}

func (tr *FakeRefreshTokenRepo) AddIssuedToken(token, jti string, exp time.Time) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	rt, ok := tr.tokens[token]
	if !ok {
		return errors.ErrNotFound
	}
	if rt.IssuedTokens == nil {
		rt.IssuedTokens = make(map[string]time.Time)
	}
	rt.IssuedTokens[jti] = exp
	return nil
}

func clone(rt *refresh.StoredRefreshToken) *refresh.StoredRefreshToken {
	c := *rt
	c.IssuedTokens = maps.Clone(rt.IssuedTokens)
	return &c
}
