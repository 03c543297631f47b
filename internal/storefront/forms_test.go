package storefront_test

import (
	"testing"

	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginForm_PasswordLengthCountsCharacters(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"ascii long enough", "abcdefgh", false},
		{"ascii too short", "abcdefg", true},
		{"four multibyte characters", "ключ", true},
		{"four emoji", "🔑🔑🔑🔑", true},
		{"eight multibyte characters", "пароль12", false},
		{"eight cjk characters", "密码密码密码密码", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storefront.LoginForm{Email: "asha@example.com", Password: tt.password}.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, storefront.ErrInvalidForm)
			assert.Contains(t, storefront.FieldErrors(err), "password")
		})
	}
}

func TestRegisterForm_ReportsEveryField(t *testing.T) {
	err := storefront.RegisterForm{
		Fullname:        "A1",
		Email:           "not-an-email",
		Phone:           "12345",
		Password:        "密码",
		ConfirmPassword: "other",
	}.Validate()
	require.ErrorIs(t, err, storefront.ErrInvalidForm)

	fields := storefront.FieldErrors(err)
	assert.Len(t, fields, 5)
	assert.Equal(t, "Passwords do not match", fields["confirmPassword"])
}
