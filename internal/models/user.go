package models

import (
	"time"

	"gorm.io/datatypes"
)

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	FirstName    string   `json:"first_name" gorm:"not null;size:100"`
	LastName     string   `json:"last_name" gorm:"not null;size:100"`
	Role         UserRole `json:"role" gorm:"not null;size:20;default:student"`

	Profile *UserProfile `json:"profile,omitempty" gorm:"foreignKey:UserID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserProfile is created lazily on first profile update, not at registration.
type UserProfile struct {
	UserID            uint           `json:"user_id" gorm:"primaryKey"`
	ProfilePictureURL *string        `json:"profile_picture_url" gorm:"size:500"`
	Timezone          string         `json:"timezone" gorm:"size:100;default:'Africa/Johannesburg'"`
	Country           string         `json:"country" gorm:"size:2;default:'ZA'"`
	Bio               *string        `json:"bio"`
	CustomData        datatypes.JSON `json:"custom_data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
