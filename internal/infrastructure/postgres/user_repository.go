package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/user"
)

const userColumns = `id, email, username, password_hash, first_name, last_name, age, is_admin, created_at, updated_at`

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Age          int       `db:"age"`
	IsAdmin      bool      `db:"is_admin"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *userRow) toEntity() *user.User {
	return &user.User{
		ID: r.ID, Email: r.Email, Username: r.Username, PasswordHash: r.PasswordHash,
		FirstName: r.FirstName, LastName: r.LastName, Age: r.Age, IsAdmin: r.IsAdmin,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type UserRepository struct{ db *sqlx.DB }

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// uniqueViolation は一意制約違反を対応するドメインエラーに変換する
func uniqueViolation(err error) error {
	pqErr, ok := pqError(err)
	if !ok || string(pqErr.Code) != codeUniqueViolation {
		return nil
	}
	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		return user.ErrEmailAlreadyExists
	case strings.Contains(pqErr.Constraint, "username"):
		return user.ErrUsernameAlreadyExists
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (email, username, password_hash, first_name, last_name, age, is_admin, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Age, u.IsAdmin, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID); err != nil {
		if domainErr := uniqueViolation(err); domainErr != nil {
			return domainErr
		}
		return fmt.Errorf("ユーザー作成に失敗: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) get(ctx context.Context, query string, arg string) (*user.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("ユーザー一覧取得に失敗: %w", err)
	}
	users := make([]*user.User, len(rows))
	for i := range rows {
		users[i] = rows[i].toEntity()
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `UPDATE users SET email = $1, username = $2, password_hash = $3, first_name = $4, last_name = $5, age = $6, is_admin = $7, updated_at = $8 WHERE id = $9`
	result, err := r.db.ExecContext(ctx, query,
		u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Age, u.IsAdmin, u.UpdatedAt, u.ID,
	)
	if err != nil {
		if domainErr := uniqueViolation(err); domainErr != nil {
			return domainErr
		}
		if isInvalidID(err) {
			return user.ErrUserNotFound
		}
		return fmt.Errorf("ユーザー更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *UserRepository) exists(ctx context.Context, query, arg string) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, arg); err != nil {
		return false, fmt.Errorf("ユーザー存在確認に失敗: %w", err)
	}
	return ok, nil
}

var _ user.Repository = (*UserRepository)(nil)
