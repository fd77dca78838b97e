package session

import (
	"github.com/go-playground/validator/v10"

	"github.com/tutorlink/backend/core"
	"github.com/tutorlink/backend/core/directory"
)

var (
	subjectTag  = "subject"
	subjectText = "unknown subject"
)

func init() {
	_ = core.Validate.RegisterValidation(subjectTag, subjectValidation)
	core.RegisterCustomTranslation(subjectTag, subjectText)
}

func subjectValidation(fl validator.FieldLevel) bool {
	return directory.IsSubject(fl.Field().String())
}
