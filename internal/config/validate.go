package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldError is a problem with one configuration key.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned by Load when the document is malformed.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	var b strings.Builder
	if err.Err != nil {
		b.WriteString(err.Err.Error())
	}
	for i, f := range err.Fields {
		if b.Len() > 0 {
			if i == 0 {
				b.WriteString(": ")
			} else {
				b.WriteString("; ")
			}
		}
		fmt.Fprintf(&b, "%s: %s", f.Field, f.Error)
	}
	return b.String()
}

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag = "notblank"
	platformTag = "platform"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report yaml key names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(platformTag, platformValidation)

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, platformTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case platformTag:
		return fe.Field() + " must be Gradescope or Canvas"
	}
	return fe.Error()
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

func platformValidation(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gradescope", "canvas":
		return true
	}
	return false
}

// structErrors validates v and maps failures to FieldErrors under prefix.
func structErrors(prefix string, v interface{}) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: prefix, Error: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: prefix + "." + fe.Field(), Error: fe.Translate(translator)})
	}
	return out
}
