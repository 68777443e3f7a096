package memory

import (
	"context"
	"sort"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/user"
)

type UserRepository struct{ s *Store }

func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

// conflict は他ユーザーとのメールアドレス・ユーザー名の重複を返す。store.mu を保持して呼ぶ
func (r *UserRepository) conflict(u *user.User) error {
	for id, other := range r.s.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return user.ErrEmailAlreadyExists
		}
		if other.Username == u.Username {
			return user.ErrUsernameAlreadyExists
		}
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.conflict(u); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = newID()
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		u := u
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.ID]; !ok {
		return user.ErrUserNotFound
	}
	if err := r.conflict(u); err != nil {
		return err
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(func(u *user.User) bool { return u.Email == email }), nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(func(u *user.User) bool { return u.Username == username }), nil
}

func (r *UserRepository) exists(match func(*user.User) bool) bool {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		u := u
		if match(&u) {
			return true
		}
	}
	return false
}

var _ user.Repository = (*UserRepository)(nil)
