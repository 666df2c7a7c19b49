package models

import "gorm.io/gorm"

// AutoMigrate creates or updates all tables. Order matters for foreign keys.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&UserProfile{},
		&Organization{},
		&OrganizationMember{},
		&Course{},
		&CourseInstructor{},
		&Lesson{},
		&Enrollment{},
		&LessonProgress{},
	)
}
