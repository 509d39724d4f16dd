package handler

import (
	"regexp"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
	minPasswordLength = 8
	maxPasswordLength = 128
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var registerOnce sync.Once

// RegisterValidators добавляет теги username и password в валидатор gin.
// Повторные вызовы ничего не делают.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err = v.RegisterValidation("username", validateUsername); err != nil {
			return
		}
		err = v.RegisterValidation("password", validatePassword)
	})
	return err
}

func validateUsername(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < minUsernameLength || len(s) > maxUsernameLength {
		return false
	}
	return usernameRegex.MatchString(s)
}

// validatePassword - длина и хотя бы одна буква и одна цифра.
func validatePassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < minPasswordLength || len(s) > maxPasswordLength {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if hasLetter && hasDigit {
			return true
		}
	}
	return false
}
