package models

import "time"

type OrgMemberRole string

const (
	OrgRoleOwner      OrgMemberRole = "owner"
	OrgRoleAdmin      OrgMemberRole = "admin"
	OrgRoleInstructor OrgMemberRole = "instructor"
	OrgRoleStudent    OrgMemberRole = "student"
)

type Organization struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	Slug         string  `json:"slug" gorm:"uniqueIndex;not null;size:255"`
	Name         string  `json:"name" gorm:"not null;size:255"`
	Description  *string `json:"description"`
	LogoURL      *string `json:"logo_url" gorm:"size:500"`
	Website      *string `json:"website" gorm:"size:500"`
	ContactEmail *string `json:"contact_email" gorm:"size:255"`
	Address      *string `json:"address"`
	FoundedYear  *int    `json:"founded_year"`
	IsPublic     bool    `json:"is_public" gorm:"default:true"`

	CreatedByUserID uint  `json:"created_by_user_id" gorm:"not null;index"`
	CreatedBy       *User `json:"created_by,omitempty" gorm:"foreignKey:CreatedByUserID"`

	Members []OrganizationMember `json:"members,omitempty" gorm:"foreignKey:OrganizationID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

type OrganizationMember struct {
	OrganizationID uint          `json:"organization_id" gorm:"primaryKey;autoIncrement:false"`
	UserID         uint          `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	Role           OrgMemberRole `json:"role" gorm:"not null;size:20;default:student"`
	JoinedAt       time.Time     `json:"joined_at" gorm:"autoCreateTime"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (OrganizationMember) TableName() string {
	return "organization_members"
}
