package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"keyregistry/internal/activationkey"
)

// RegisterValidators adds the request validation tags used by the
// handlers to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("keyname", validKeyName)
}

// validKeyName rejects the characters activation key names may not carry.
func validKeyName(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), `,"`)
}

// keyNameError turns a failed keyname tag into the registry's validation
// error for key. Other binding failures yield nil.
func keyNameError(err error, key string) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return nil
	}
	for _, fe := range fields {
		if fe.Tag() == "keyname" {
			return activationkey.InvalidCharsError(key)
		}
	}
	return nil
}
