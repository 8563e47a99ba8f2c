package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/checkin/core"
)

func newValidate() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestValidatePassword(t *testing.T) {
	validate := newValidate()

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "correct horse", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "similar to username", pwd: "teacher01", wantTag: pwdAttrSimTag},
		{name: "valid", pwd: "blue-Lantern-42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{
				Name:            "Teacher",
				Username:        "teacher01",
				Password:        tt.pwd,
				PasswordConfirm: tt.pwd,
			}
			err := validate.Struct(nu)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)
			require.Len(t, vErrs, 1)
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
			assert.Equal(t, "password", vErrs[0].Field())
		})
	}
}

func TestResetUserPasswordValidate(t *testing.T) {
	validate := newValidate()

	rp := ResetUserPassword{Username: "  Teacher01 ", Password: "blue-Lantern-42", PasswordConfirm: "other-Lantern-42"}
	err := rp.Validate(validate)
	require.Error(t, err)
	assert.Equal(t, "teacher01", rp.Username)

	rp.PasswordConfirm = rp.Password
	assert.NoError(t, rp.Validate(validate))
}

func TestUserPassword(t *testing.T) {
	var usr User
	require.NoError(t, usr.SetPassword("blue-Lantern-42"))
	assert.NoError(t, usr.CheckPassword("blue-Lantern-42"))
	assert.Error(t, usr.CheckPassword("blue-lantern-42"))
}
