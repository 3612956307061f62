package validation

import (
	"errors"
	"reflect"
	"strings"

	"eduscan-api/models"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	notBlankTag = "notblank"
	subjectsTag = "subjects"
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// report json names, not Go field names
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(notBlankTag, notBlank)
	_ = Validate.RegisterValidation(subjectsTag, knownSubjects)
	registerCustomTranslation(notBlankTag, "{0} cannot be blank")
	registerCustomTranslation(subjectsTag, "{0} contains an unknown subject")
}

func registerCustomTranslation(tag, text string) {
	_ = Validate.RegisterTranslation(tag, Translator,
		func(trans ut.Translator) error {
			return trans.Add(tag, text, true)
		},
		func(trans ut.Translator, fe validator.FieldError) string {
			msg, _ := trans.T(tag, fe.Field())
			return msg
		},
	)
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

func knownSubjects(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < field.Len(); i++ {
		s, ok := field.Index(i).Interface().(string)
		if !ok || !contains(models.Subjects, s) {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error carries per-field messages for a rejected struct.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error
	}
	return strings.Join(parts, "; ")
}

// Struct validates v and returns an *Error listing translated messages.
func Struct(v interface{}) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Error: fe.Translate(Translator)})
	}
	return out
}
