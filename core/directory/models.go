package directory

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tutorlink/backend/core"
)

// Canonical subject and grade-level choices offered by the frontend.
var (
	Subjects = []string{
		"Mathematics", "Science", "English", "History", "Programming",
		"Physics", "Chemistry", "Biology", "Economics", "Foreign Languages",
	}
	GradeLevels = []string{
		"Elementary", "Middle School", "High School", "College", "Adult Education",
	}
)

// TutorProfile is the public, searchable face of a tutor: the account name
// joined with the portfolio the tutor maintains.
type TutorProfile struct {
	ID         string   `json:"id"` // tutor's user ID
	Name       string   `json:"name"`
	Subjects   []string `json:"subjects"`
	GradeLevel string   `json:"grade_level"`
	Location   string   `json:"location"`
	HourlyRate float64  `json:"hourly_rate"`
	Rating     float64  `json:"rating"`
	ImageURL   string   `json:"image_url,omitempty"`
}

// TutorPortfolio is the tutor's editable teaching offer. One portfolio per
// tutor; upserts replace it wholesale.
type TutorPortfolio struct {
	ID                string    `json:"id"`
	TutorID           string    `json:"tutor_id"`
	Subjects          []string  `json:"subjects"`
	Experience        string    `json:"experience"`
	HourlyRate        float64   `json:"hourly_rate"`
	GradeLevel        string    `json:"grade_level"`
	Location          string    `json:"location"`
	Rating            float64   `json:"rating"`
	ImageURL          string    `json:"image_url,omitempty"`
	AvailabilityStart string    `json:"availability_start"`
	AvailabilityEnd   string    `json:"availability_end"`
	CreatedAt         time.Time `json:"created_at"` // UTC
	UpdatedAt         time.Time `json:"updated_at"` // UTC
}

// SearchCriteria narrows a tutor search. Absent fields impose no constraint.
type SearchCriteria struct {
	Subject    string   `json:"subject" query:"subject"`
	GradeLevel string   `json:"grade_level" query:"grade_level"`
	Location   string   `json:"location" query:"location"`
	MaxPrice   *float64 `json:"max_price" query:"max_price"`
}

func (sc *SearchCriteria) IsEmpty() bool {
	return sc.Subject == "" && sc.GradeLevel == "" && sc.Location == "" && sc.MaxPrice == nil
}

func (sc *SearchCriteria) Clean() {
	sc.Subject = core.CleanString(sc.Subject)
	sc.GradeLevel = core.CleanString(sc.GradeLevel)
	sc.Location = core.CleanString(sc.Location)
}

// PortfolioInput defines what a tutor may provide to create or replace their
// portfolio.
type PortfolioInput struct {
	Subjects          []string `json:"subjects" validate:"required,min=1,subjects"`
	Experience        string   `json:"experience"`
	HourlyRate        float64  `json:"hourly_rate" validate:"required"`
	GradeLevel        string   `json:"grade_level" validate:"omitempty,gradelevel"`
	Location          string   `json:"location"`
	ImageURL          string   `json:"image_url" validate:"omitempty,url"`
	AvailabilityStart string   `json:"availability_start" validate:"required,timeofday"`
	AvailabilityEnd   string   `json:"availability_end" validate:"required,timeofday"`
}

func (pi *PortfolioInput) Validate() error {
	pi.Experience = core.CleanString(pi.Experience)
	pi.Location = core.CleanString(pi.Location)
	return core.Validate.Struct(pi)
}

var (
	subjectsTag  = "subjects"
	subjectsText = "unknown subject"

	gradeLevelTag  = "gradelevel"
	gradeLevelText = "unknown grade level"
)

func init() {
	_ = core.Validate.RegisterValidation(subjectsTag, subjectsValidation)
	core.RegisterCustomTranslation(subjectsTag, subjectsText)

	_ = core.Validate.RegisterValidation(gradeLevelTag, gradeLevelValidation)
	core.RegisterCustomTranslation(gradeLevelTag, gradeLevelText)
}

// subjectsValidation checks that every provided subject is a canonical one.
func subjectsValidation(fl validator.FieldLevel) bool {
	subjects, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, s := range subjects {
		if !contains(Subjects, s) {
			return false
		}
	}
	return true
}

func gradeLevelValidation(fl validator.FieldLevel) bool {
	return contains(GradeLevels, fl.Field().String())
}

// IsSubject reports whether s is one of the canonical Subjects.
func IsSubject(s string) bool { return contains(Subjects, s) }

// IsGradeLevel reports whether s is one of the canonical GradeLevels.
func IsGradeLevel(s string) bool { return contains(GradeLevels, s) }

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
