package assignment

import (
	"github.com/go-playground/validator/v10"

	"github.com/eduplatform/backend/core"
)

var (
	difficultyTag  = "difficulty"
	difficultyText = "{0} must be one of Easy, Medium or Hard"
)

func init() {
	_ = core.Validate.RegisterValidation(difficultyTag, difficultyValidation)
	core.RegisterCustomTranslation(difficultyTag, difficultyText)
}

func difficultyValidation(fl validator.FieldLevel) bool {
	return Difficulty(fl.Field().String()).IsValid()
}
