package services

import (
	"errors"
	"fmt"
)

// ===== NOT FOUND ERRORS =====

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrCourseNotFound       = errors.New("course not found")
	ErrInstructorNotFound   = errors.New("instructor not found")
	ErrLessonNotFound       = errors.New("lesson not found")
	ErrEnrollmentNotFound   = errors.New("enrollment not found")
	ErrProgressNotFound     = errors.New("lesson progress not found")
)

// ===== CONFLICT ERRORS =====

var (
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrOrganizationSlugTaken = errors.New("organization slug already taken")
	ErrCourseSlugTaken       = errors.New("course slug already taken")
	ErrProgressConflict      = errors.New("lesson progress was recorded concurrently")
	ErrAlreadyMember         = errors.New("user is already a member of this organization")
	ErrAlreadyInstructor     = errors.New("user is already an instructor on this course")
	ErrAlreadyEnrolled       = errors.New("user is already enrolled in this course")
)

// ===== AUTH / PERMISSION ERRORS =====

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("authentication required")
	ErrNotEnrolled        = errors.New("user is not enrolled in this course")
)

// ===== VALIDATION ERRORS =====

var (
	ErrInstructorNotOnCourse = errors.New("lesson instructor must be assigned to the course")
)

// PermissionError describes a denied action on a resource
type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %d cannot %s %s %d: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// BusinessRuleError describes a violated domain rule
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}
