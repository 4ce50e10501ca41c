package member

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/parishdesk/parishdesk/core"
)

var (
	pastDateTag  = "pastdate"
	pastDateText = "date cannot be in the future"

	oneOfTag  = "oneof"
	oneOfText = "select a valid choice"

	nowFunc = time.Now // mockable
)

// InitValidators registers the member form validations & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(pastDateTag, pastDateValidation)
	core.RegisterCustomTranslation(validate, translator, pastDateTag, pastDateText)
	core.RegisterCustomTranslation(validate, translator, oneOfTag, oneOfText, true)
}

// pastDateValidation accepts YYYY-MM-DD dates up to today. Malformed dates are left to `isodate`.
func pastDateValidation(fl validator.FieldLevel) bool {
	date, err := time.Parse(core.ISODateLayout, fl.Field().String())
	if err != nil {
		return true
	}
	return !date.After(nowFunc())
}
