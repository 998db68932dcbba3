package memory

import (
	"context"
	"sync"
	"time"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]*entity.User
	verifyToken map[uuid.UUID]*entity.EmailVerificationToken
	resetToken  map[uuid.UUID]*entity.PasswordResetToken
	refresh     map[uuid.UUID]*entity.UserRefreshToken
	providers   map[uuid.UUID]*entity.UserProvider
}

func NewUserRepository() contract.UserRepository {
	return &UserRepository{
		users:       make(map[uuid.UUID]*entity.User),
		verifyToken: make(map[uuid.UUID]*entity.EmailVerificationToken),
		resetToken:  make(map[uuid.UUID]*entity.PasswordResetToken),
		refresh:     make(map[uuid.UUID]*entity.UserRefreshToken),
		providers:   make(map[uuid.UUID]*entity.UserProvider),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.Id == uuid.Nil {
		user.Id = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	cp := *user
	r.users[user.Id] = &cp
	return nil
}

func (r *UserRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if matchesUserSpecs(u, specs) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) ActivateUser(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		u.Status = entity.UserStatusActive
		u.EmailVerified = true
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		u.PasswordHash = &passwordHash
	}
	return nil
}

func (r *UserRepository) CreateEmailVerificationToken(ctx context.Context, token *entity.EmailVerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token.Id == uuid.Nil {
		token.Id = uuid.New()
	}
	cp := *token
	r.verifyToken[token.Id] = &cp
	return nil
}

func (r *UserRepository) FindEmailVerificationToken(ctx context.Context, specs ...specification.Specification) (*entity.EmailVerificationToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.verifyToken {
		if matchesVerificationTokenSpecs(t, specs) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) DeleteEmailVerificationToken(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.verifyToken, id)
	return nil
}

func (r *UserRepository) CreatePasswordResetToken(ctx context.Context, token *entity.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token.Id == uuid.Nil {
		token.Id = uuid.New()
	}
	cp := *token
	r.resetToken[token.Id] = &cp
	return nil
}

func (r *UserRepository) FindPasswordResetToken(ctx context.Context, specs ...specification.Specification) (*entity.PasswordResetToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.resetToken {
		if matchesResetTokenSpecs(t, specs) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) MarkTokenUsed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.resetToken[id]; ok {
		t.Used = true
	}
	return nil
}

func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token.Id == uuid.Nil {
		token.Id = uuid.New()
	}
	cp := *token
	r.refresh[token.Id] = &cp
	return nil
}

func (r *UserRepository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.refresh {
		if t.TokenHash == tokenHash {
			t.Revoked = true
		}
	}
	return nil
}

func (r *UserRepository) SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.providers {
		if p.UserId == provider.UserId && p.ProviderName == provider.ProviderName {
			p.ProviderUserId = provider.ProviderUserId
			p.AvatarURL = provider.AvatarURL
			provider.Id = p.Id
			return nil
		}
	}
	if provider.Id == uuid.Nil {
		provider.Id = uuid.New()
	}
	cp := *provider
	r.providers[provider.Id] = &cp
	return nil
}

func matchesUserSpecs(u *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if u.Id != sp.ID {
				return false
			}
		case specification.ByEmail:
			if u.Email != sp.Email {
				return false
			}
		}
	}
	return true
}

func matchesVerificationTokenSpecs(t *entity.EmailVerificationToken, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByToken:
			if t.Token != sp.Token {
				return false
			}
		case specification.UserOwnedBy:
			if t.UserId != sp.UserID {
				return false
			}
		}
	}
	return true
}

func matchesResetTokenSpecs(t *entity.PasswordResetToken, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByToken:
			if t.Token != sp.Token {
				return false
			}
		case specification.UserOwnedBy:
			if t.UserId != sp.UserID {
				return false
			}
		}
	}
	return true
}
