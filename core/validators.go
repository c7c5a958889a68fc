package core

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// TimeSlotLayout is the 24-hour "HH:MM" layout of lesson time slots.
const TimeSlotLayout = "15:04"

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank"

	timeSlotTag  = "timeslot"
	timeSlotText = "{0} must be a 24-hour time in the HH:MM format"

	requiredTag  = "required"
	requiredText = "{0} is required"

	requiredTags = map[string]bool{"required": true, "required_with": true, "required_without": true}
)

// Instantiate the validator for use.
func init() {
	Validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = Validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(notBlankTag, notBlankText)

	_ = Validate.RegisterValidation(timeSlotTag, timeSlotValidation)
	RegisterCustomTranslation(timeSlotTag, timeSlotText)

	RegisterCustomTranslation(requiredTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ValidateStruct validates `s` and converts validation failures into a *ValidationError.
// The error unwraps to ErrMissingField when a required field is absent, ErrInvalidInput otherwise.
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	kind := ErrInvalidInput
	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		if requiredTags[vErr.Tag()] {
			kind = ErrMissingField
		}
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(Translator)})
	}
	return NewValidationError(kind, flds...)
}

// ParseTimeSlot parses a "HH:MM" time slot and returns its canonical form, eg. "9:05" -> "09:05".
func ParseTimeSlot(slot string) (string, bool) {
	t, err := time.Parse(TimeSlotLayout, CleanString(slot))
	if err != nil {
		return "", false
	}
	return t.Format(TimeSlotLayout), true
}

// Custom Global Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// timeSlotValidation only allows "HH:MM" 24-hour times.
func timeSlotValidation(fl validator.FieldLevel) bool {
	_, ok := ParseTimeSlot(fl.Field().String())
	return ok
}
