package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cardRequest struct {
	CardType string `json:"card_type" validate:"required,card_type"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password,omitempty" validate:"required"`
}

func TestCustomValidator_Validate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		input   interface{}
		wantMsg string
	}{
		{name: "カード種別OK", input: &cardRequest{CardType: "family"}},
		{name: "大文字でもOK", input: &cardRequest{CardType: " Aged "}},
		{name: "カード種別なし", input: &cardRequest{}, wantMsg: "card_type は必須です"},
		{name: "未対応の種別", input: &cardRequest{CardType: "student"}, wantMsg: "card_type は aged か family を指定してください"},
		{name: "jsonタグのオプションは除く", input: &loginRequest{Username: "taro"}, wantMsg: "password は必須です"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var he *echo.HTTPError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, http.StatusBadRequest, he.Code)
			assert.Equal(t, tt.wantMsg, he.Message)
		})
	}
}
