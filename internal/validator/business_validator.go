package validator

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func registerCustomRules(v *validator.Validate) {
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
}

// BusinessValidator handles validations that go beyond struct tags
type BusinessValidator struct {
	validate *validator.Validate
}

func newBusinessValidator(v *validator.Validate) *BusinessValidator {
	return &BusinessValidator{validate: v}
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateOrganizationCreate validates organization creation business rules
func (bv *BusinessValidator) ValidateOrganizationCreate(req *OrganizationCreateRequest) ValidationErrors {
	errors := bv.Validate(req)

	if req.FoundedYear != nil && *req.FoundedYear > time.Now().Year() {
		errors = append(errors, ValidationError{
			Field:   "founded_year",
			Message: "cannot be in the future",
			Value:   *req.FoundedYear,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateCourseCreate validates course creation business rules
func (bv *BusinessValidator) ValidateCourseCreate(req *CourseCreateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateLessonCreate validates lesson creation business rules
func (bv *BusinessValidator) ValidateLessonCreate(req *LessonCreateRequest) ValidationErrors {
	errors := bv.Validate(req)

	// A video lesson without a video URL is unplayable
	if req.ContentType == "video" && (req.VideoURL == nil || *req.VideoURL == "") {
		errors = append(errors, ValidationError{
			Field:   "video_url",
			Message: "is required for video lessons",
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateProgressUpdate validates a lesson progress update
func (bv *BusinessValidator) ValidateProgressUpdate(req *ProgressUpdateRequest) ValidationErrors {
	return bv.Validate(req)
}
