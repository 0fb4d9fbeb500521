// Package validation wraps go-playground/validator with English messages and
// the project's custom tags.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"todo/internal/interfaces"
)

const strongPasswordTag = "strongpassword"

type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	if err := validate.RegisterValidation(strongPasswordTag, strongPassword); err != nil {
		return nil, err
	}
	err := validate.RegisterTranslation(strongPasswordTag, trans,
		func(t ut.Translator) error {
			return t.Add(strongPasswordTag, "{0} must contain upper and lower case letters plus a digit or symbol", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(strongPasswordTag, fe.Field())
			return msg
		},
	)
	if err != nil {
		return nil, err
	}

	return &Validator{validate: validate, trans: trans}, nil
}

// Struct validates s and returns a BadRequest AppError with one readable
// message per failing field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return interfaces.BadRequest("Invalid request body").Wrap(err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Translate(v.trans))
	}
	return interfaces.BadRequest(strings.Join(msgs, "; ")).Wrap(err)
}

func strongPassword(fl validator.FieldLevel) bool {
	var upper, lower, other bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r), unicode.IsPunct(r), unicode.IsSymbol(r):
			other = true
		}
	}
	return upper && lower && other
}
