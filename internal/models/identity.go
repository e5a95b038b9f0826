package models

import "time"

type Role string

const (
	RoleTeacher Role = "Teacher"
	RoleAdmin   Role = "Admin"
)

func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleAdmin
}

type Language string

const (
	LanguageEnglish  Language = "English"
	LanguageAmharic  Language = "Amharic"
	LanguageOromoo   Language = "Oromoo"
	LanguageTigrinya Language = "Tigrinya"
)

// DefaultLanguage is assigned to users registered without a preference.
const DefaultLanguage = LanguageAmharic

func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageAmharic, LanguageOromoo, LanguageTigrinya:
		return true
	}
	return false
}

type School struct {
	ID      uint   `gorm:"primaryKey" json:"school_id"`
	Name    string `gorm:"not null" json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type User struct {
	ID                 uint      `gorm:"primaryKey" json:"user_id"`
	SchoolID           uint      `gorm:"not null;index" json:"school_id"`
	School             *School   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	FirstName          string    `gorm:"not null" json:"first_name"`
	LastName           string    `json:"last_name"`
	Email              string    `gorm:"uniqueIndex;not null" json:"email"`
	Role               Role      `gorm:"size:16;not null" json:"role"`
	PasswordHash       string    `gorm:"not null" json:"-"`
	LanguagePreference Language  `gorm:"size:16;not null" json:"language_preference"`
	CreatedAt          time.Time `json:"created_at"`
}

// Learner.UniqueIdentifier is expected to be unique per school but the store
// does not enforce it.
type Learner struct {
	ID               uint      `gorm:"primaryKey" json:"learner_id"`
	SchoolID         uint      `gorm:"not null;index" json:"school_id"`
	School           *School   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	FirstName        string    `gorm:"not null" json:"first_name"`
	LastName         string    `json:"last_name"`
	DateOfBirth      string    `gorm:"size:10" json:"date_of_birth,omitempty"`
	GradeLevel       int       `gorm:"not null" json:"grade_level"`
	UniqueIdentifier string    `gorm:"index" json:"unique_identifier"`
	CreatedAt        time.Time `json:"created_at"`
}
