// Package validate wraps go-playground/validator with the domain's custom
// rules and turns validation failures into field->message maps suitable
// for JSON error responses.
package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New(validator.WithRequiredStructEnabled())

var nicknameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func init() {
	// nickname: letters, digits and underscore only (length is a separate tag)
	_ = v.RegisterValidation("nickname", func(fl validator.FieldLevel) bool {
		return nicknameRe.MatchString(fl.Field().String())
	})
	// safeurl: absolute http/https URL; script/data/vbscript schemes rejected
	_ = v.RegisterValidation("safeurl", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		if err != nil || u.Host == "" {
			return false
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return true
		}
		return false
	})
}

// Map validates a struct by its `validate` tags and returns field->message
// errors, or nil when the struct is valid.
func Map(s any) map[string]string {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_error": err.Error()}
	}
	m := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		m[toLowerFirst(fe.Field())] = messageFor(fe)
	}
	return m
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "is too short (min " + fe.Param() + ")"
	case "max":
		return "is too long (max " + fe.Param() + ")"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "nickname":
		return "may only contain letters, digits and underscore"
	case "safeurl":
		return "must be an http(s) URL"
	}
	return "is invalid"
}

func toLowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
