package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "{0}只能包含字母、数字和下划线"
	alphaNumUnderRegex = regexp.MustCompile(`^\w+$`)

	classroomIDTag   = "classroom_id"
	classroomIDText  = "{0}必须是3到4位数字"
	classroomIDRegex = regexp.MustCompile(`^\d{3,4}$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "{0}为必填字段"
)

// NewTranslator returns the universal translator used for validation messages.
func NewTranslator() ut.Translator {
	_zh := zh.New()
	uni := ut.New(_zh, _zh)
	translator, _ := uni.GetTranslator("zh")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = zh_translations.RegisterDefaultTranslations(validate, translator)

	// Use form (or JSON) tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(classroomIDTag, classroomIDValidation)
	RegisterCustomTranslation(validate, translator, classroomIDTag, classroomIDText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateErrors turns validator.ValidationErrors into FieldErrors.
func TranslateErrors(errs validator.ValidationErrors, translator ut.Translator) []FieldError {
	flds := make([]FieldError, 0, len(errs))
	for _, vErr := range errs {
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(translator)})
	}
	return flds
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// classroomIDValidation only allows 3 or 4 digit ids, the format printed on the seat QR codes.
func classroomIDValidation(fl validator.FieldLevel) bool {
	return classroomIDRegex.MatchString(fl.Field().String())
}

// IsClassroomID reports whether id has the classroom id format.
func IsClassroomID(id string) bool {
	return classroomIDRegex.MatchString(id)
}
