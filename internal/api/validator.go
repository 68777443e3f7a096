package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/card"
)

// CustomValidator はEcho用のバリデーター
// エラーメッセージには json タグのフィールド名を使う
type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// 大文字小文字は区別しない。正規化はサービス側で行う
	_ = v.RegisterValidation("card_type", func(fl validator.FieldLevel) bool {
		return card.Type(strings.ToLower(strings.TrimSpace(fl.Field().String()))).IsValid()
	})
	return &CustomValidator{validator: v}
}

// Validate はリクエストを検証し、最初の違反を 400 で返す
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, fieldMessage(fieldErrs[0])).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s は必須です", fe.Field())
	case "card_type":
		return fmt.Sprintf("%s は aged か family を指定してください", fe.Field())
	default:
		return fmt.Sprintf("%s が不正です", fe.Field())
	}
}
