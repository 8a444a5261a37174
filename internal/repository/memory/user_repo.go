package memory

import (
	"context"
	"sync"

	"github.com/nikitashlyahktin/VotingSystem/internal/domain/user"
)

type UserRepo struct {
	mu      sync.Mutex
	users   map[string]*user.User
	byEmail map[string]string
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		users:   make(map[string]*user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return user.ErrEmailTaken
	}
	copyUser := *u
	r.users[u.ID] = &copyUser
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	copyUser := *r.users[id]
	return &copyUser, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	copyUser := *u
	return &copyUser, nil
}
