package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/user"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/auth"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/clock"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/logger"
)

type UserService struct {
	userRepo   user.Repository
	tokens     *auth.TokenIssuer
	bcryptCost int
	clock      clock.Clock
}

func NewUserService(ur user.Repository, tokens *auth.TokenIssuer, bcryptCost int, clk clock.Clock) *UserService {
	if clk == nil {
		clk = clock.NewReal(nil)
	}
	return &UserService{userRepo: ur, tokens: tokens, bcryptCost: bcryptCost, clock: clk}
}

type SignUpInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	Age       int
}

type UpdateUserInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Age       int
	IsAdmin   bool
	Password  string // 空なら変更しない
}

type LoginResult struct {
	User  *user.User
	Token auth.AccessToken
}

// SignUp は一般ユーザーを登録する
func (s *UserService) SignUp(ctx context.Context, input SignUpInput) (*user.User, error) {
	p := user.Profile{
		Email:     strings.TrimSpace(input.Email),
		Username:  strings.TrimSpace(input.Username),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Age:       input.Age,
	}
	return s.create(ctx, p, input.Password)
}

// EnsureAdmin は管理者ユーザーが無ければ作成する
func (s *UserService) EnsureAdmin(ctx context.Context, email, username, password string) (*user.User, error) {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("管理者ユーザー取得に失敗: %w", err)
	}
	p := user.Profile{
		Email:     email,
		Username:  username,
		FirstName: "Admin",
		LastName:  "User",
		Age:       1,
		IsAdmin:   true,
	}
	return s.create(ctx, p, password)
}

func (s *UserService) create(ctx context.Context, p user.Profile, password string) (*user.User, error) {
	if err := s.checkProfile(ctx, p, nil); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, user.ErrPasswordRequired
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	u := user.NewUser(p, hash, s.clock.Now())
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	logger.Info("ユーザーを登録", zap.String("user_id", u.ID), zap.String("username", u.Username), zap.Bool("admin", u.IsAdmin))
	return u, nil
}

// checkProfile はメールアドレスとユーザー名の形式・一意性を順に確認する
// current が nil でなければ、変更された項目だけ一意性を確認する
func (s *UserService) checkProfile(ctx context.Context, p user.Profile, current *user.User) error {
	if p.Email == "" {
		return user.ErrEmailRequired
	}
	if !user.ValidEmail(p.Email) {
		return user.ErrInvalidEmail
	}
	if current == nil || current.Email != p.Email {
		exists, err := s.userRepo.ExistsByEmail(ctx, p.Email)
		if err != nil {
			return fmt.Errorf("メールアドレスの確認に失敗: %w", err)
		}
		if exists {
			return user.ErrEmailAlreadyExists
		}
	}
	if p.Username == "" {
		return user.ErrUsernameRequired
	}
	if current == nil || current.Username != p.Username {
		exists, err := s.userRepo.ExistsByUsername(ctx, p.Username)
		if err != nil {
			return fmt.Errorf("ユーザー名の確認に失敗: %w", err)
		}
		if exists {
			return user.ErrUsernameAlreadyExists
		}
	}
	return nil
}

// Login はパスワードを確認してアクセストークンを発行する
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, user.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
	}
	if !auth.VerifyPassword(u.PasswordHash, password) {
		logger.Warn("ログイン失敗", zap.String("username", u.Username))
		return nil, user.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID, u.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("トークン発行に失敗: %w", err)
	}
	return &LoginResult{User: u, Token: token}, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*user.User, error) {
	return s.userRepo.List(ctx)
}

// UpdateUser は管理者によるユーザー更新
func (s *UserService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := user.Profile{
		Email:     strings.TrimSpace(input.Email),
		Username:  strings.TrimSpace(input.Username),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Age:       input.Age,
		IsAdmin:   input.IsAdmin,
	}
	if err := s.checkProfile(ctx, p, u); err != nil {
		return nil, err
	}
	u.Apply(p, s.clock.Now())
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
		}
		u.PasswordHash = hash
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	logger.Info("ユーザーを更新", zap.String("user_id", u.ID))
	return u, nil
}
