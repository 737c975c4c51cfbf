package models

import (
	"regexp"

	"github.com/go-playground/validator"
)

type Role string

const (
	ADMIN  Role = "ADMIN"
	MEMBER Role = "MEMBER"
	OWNER  Role = "OWNER"
)

func (l *Role) Scan(value interface{}) error {
	*l = Role(value.(string))
	return nil
}

func (l Role) Value() (string, error) {
	return string(l), nil
}

func ValidateRole(fl validator.FieldLevel) bool {
	return ValidateRoleRaw(fl.Field().String())
}

func ValidateRoleRaw(value string) bool {
	matched, _ := regexp.MatchString("^ADMIN|MEMBER|OWNER$", value)
	return matched
}
