package handler

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
)

const (
	notBlankTag   = "notblank"
	memberRoleTag = "member_role"
)

// Validator adapts go-playground/validator to echo.Validator.  Field
// names in messages are the JSON tag names.
type Validator struct {
	v     *validator.Validate
	trans ut.Translator
}

func NewValidator() *Validator {
	v := validator.New()

	eng := en.New()
	trans, _ := ut.New(eng, eng).GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation(memberRoleTag, func(fl validator.FieldLevel) bool {
		return model.ValidMemberRole(fl.Field().String())
	})

	// custom tags already have a translator; a noop registration is enough
	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, memberRoleTag} {
		_ = v.RegisterTranslation(tag, trans, noop, translateCustom)
	}
	return &Validator{v: v, trans: trans}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case memberRoleTag:
		return fe.Field() + " must be facilitator or learner"
	}
	return fe.Error()
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// fields renders validation errors as field -> message.
func (cv *Validator) fields(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = fe.Translate(cv.trans)
	}
	return out
}
