package course

import (
	"github.com/go-playground/validator/v10"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
)

var (
	courseLevelTag  = "courselevel"
	courseLevelText = "invalid course level"
)

func init() {
	_ = core.Validate.RegisterValidation(courseLevelTag, courseLevelValidation)
	core.RegisterCustomTranslation(courseLevelTag, courseLevelText)
}

// courseLevelValidation checks that the provided level is one of AllLevels.
func courseLevelValidation(fl validator.FieldLevel) bool {
	lvl := fl.Field().String()
	for _, l := range AllLevels {
		if lvl == l {
			return true
		}
	}
	return false
}
