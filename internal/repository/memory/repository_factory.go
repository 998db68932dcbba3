package memory

import (
	"context"

	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/internal/repository/unitofwork"
)

// RepositoryFactory wires the in-memory repositories behind the same
// unitofwork interfaces the gorm factory implements. Transactions are
// no-ops; the maps are the single shared store.
type RepositoryFactory struct {
	users    contract.UserRepository
	sessions contract.ChatSessionRepository
	messages contract.ChatMessageRepository
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{
		users:    NewUserRepository(),
		sessions: NewChatSessionRepository(),
		messages: NewChatMessageRepository(),
	}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memoryUnitOfWork{factory: f}
}

type memoryUnitOfWork struct {
	factory *RepositoryFactory
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *memoryUnitOfWork) Commit() error                   { return nil }
func (u *memoryUnitOfWork) Rollback() error                 { return nil }

func (u *memoryUnitOfWork) UserRepository() contract.UserRepository {
	return u.factory.users
}

func (u *memoryUnitOfWork) ChatSessionRepository() contract.ChatSessionRepository {
	return u.factory.sessions
}

func (u *memoryUnitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return u.factory.messages
}
