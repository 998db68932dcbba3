package memory

import (
	"time"

	"ai-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionStateRepository keeps per-user UI state (current chat, generation
// flag) in process memory. State is keyed by user id and expires after an
// hour of inactivity, which matches the access token lifetime.
type SessionStateRepository struct {
	cache *cache.Cache
}

func NewSessionStateRepository() *SessionStateRepository {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionStateRepository{
		cache: c,
	}
}

func (r *SessionStateRepository) Save(session *store.Session) {
	r.cache.Set(session.UserID, session, cache.DefaultExpiration)
}

func (r *SessionStateRepository) Get(userID string) (*store.Session, bool) {
	if x, found := r.cache.Get(userID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionStateRepository) Delete(userID string) {
	r.cache.Delete(userID)
}
