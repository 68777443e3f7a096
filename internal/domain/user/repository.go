package user

import "context"

// Repository はユーザーリポジトリのインターフェース
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, user *User) error

	// ExistsByEmail はメールアドレスが使用済みかを返す
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByUsername はユーザー名が使用済みかを返す
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
