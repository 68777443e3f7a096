package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/api"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/application"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/user"
)

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

// SignUpRequest の必須チェックはドメイン側で行い、エラーメッセージを揃える
type SignUpRequest struct {
	Email     string `json:"email" example:"taro@example.com"`
	Username  string `json:"username" example:"taro"`
	Password  string `json:"password" example:"s3cret"`
	FirstName string `json:"first_name" example:"Taro"`
	LastName  string `json:"last_name" example:"Yamada"`
	Age       int    `json:"age" example:"30"`
}

type UpdateUserRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       int    `json:"age"`
	IsAdmin   bool   `json:"is_admin"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required" example:"taro"`
	Password string `json:"password" validate:"required" example:"s3cret"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       int    `json:"age"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt string `json:"created_at"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   string       `json:"expires_at"`
	User        UserResponse `json:"user"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// SignUp godoc
// @Summary ユーザー登録
// @Tags users
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "ユーザー情報"
// @Success 201 {object} UserResponse
// @Failure 400 {object} map[string]string
// @Router /users/signup [post]
func (h *UserHandler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}

	u, err := h.userService.SignUp(c.Request().Context(), application.SignUpInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
	})
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// Login godoc
// @Summary ログイン
// @Description アクセストークンを発行します
// @Tags users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "認証情報"
// @Success 200 {object} LoginResponse
// @Failure 403 {object} map[string]string
// @Router /users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.userService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: res.Token.Token,
		ExpiresAt:   res.Token.ExpiresAt.Format(time.RFC3339),
		User:        toUserResponse(res.User),
	})
}

// List godoc
// @Summary ユーザー一覧（管理者のみ）
// @Tags users
// @Produce json
// @Success 200 {array} UserResponse
// @Router /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return api.NewHTTPError(err)
	}
	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary ユーザーを更新（管理者のみ）
// @Description password を省略した場合は変更しません
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "ユーザーID"
// @Param request body UpdateUserRequest true "ユーザー情報"
// @Success 200 {object} UserResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}

	u, err := h.userService.UpdateUser(c.Request().Context(), c.Param("id"), application.UpdateUserInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
		IsAdmin:   req.IsAdmin,
		Password:  req.Password,
	})
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}
