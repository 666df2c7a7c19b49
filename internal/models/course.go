package models

import "time"

type InstructorRole string

const (
	InstructorRolePrimary InstructorRole = "primary"
	InstructorRoleCo      InstructorRole = "co_instructor"
	InstructorRoleTA      InstructorRole = "ta"
)

type Course struct {
	ID               uint    `json:"id" gorm:"primaryKey"`
	OrganizationID   uint    `json:"organization_id" gorm:"not null;index"`
	Title            string  `json:"title" gorm:"not null;size:255"`
	Slug             string  `json:"slug" gorm:"uniqueIndex;not null;size:255"`
	Description      *string `json:"description"`
	ShortDescription *string `json:"short_description" gorm:"size:500"`
	Price            float64 `json:"price" gorm:"default:0"`
	ThumbnailURL     *string `json:"thumbnail_url" gorm:"size:500"`
	DurationWeeks    *int    `json:"duration_weeks"`
	Language         string  `json:"language" gorm:"size:50;default:'English'"`
	IsPublished      bool    `json:"is_published" gorm:"default:false"`

	CreatedByUserID uint          `json:"created_by_user_id" gorm:"not null;index"`
	Organization    *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	CreatedBy       *User         `json:"created_by,omitempty" gorm:"foreignKey:CreatedByUserID"`

	Instructors []CourseInstructor `json:"instructors,omitempty" gorm:"foreignKey:CourseID"`
	Lessons     []Lesson           `json:"lessons,omitempty" gorm:"foreignKey:CourseID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

type CourseInstructor struct {
	CourseID   uint           `json:"course_id" gorm:"primaryKey;autoIncrement:false"`
	UserID     uint           `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	Role       InstructorRole `json:"role" gorm:"not null;size:20;default:co_instructor"`
	AssignedAt time.Time      `json:"assigned_at" gorm:"autoCreateTime"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (CourseInstructor) TableName() string {
	return "course_instructors"
}
