package models

import (
	"strings"
	"time"
)

type CompletionStatus string

const (
	StatusNotStarted CompletionStatus = "not-started"
	StatusInProgress CompletionStatus = "in-progress"
	StatusCompleted  CompletionStatus = "completed"
)

// ParseCompletionStatus accepts the spellings offline clients have been
// sending ("in progress", "in_progress", "Completed") and returns the
// canonical form.
func ParseCompletionStatus(raw string) (CompletionStatus, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	switch CompletionStatus(s) {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return CompletionStatus(s), true
	}
	return "", false
}

const (
	MinScore = 0
	MaxScore = 100
)

// LessonProgress is unique per (LearnerID, LessonID).
type LessonProgress struct {
	ID               uint             `gorm:"primaryKey" json:"progress_id"`
	LearnerID        uint             `gorm:"not null;uniqueIndex:idx_learner_lesson" json:"learner_id"`
	Learner          *Learner         `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	LessonID         string           `gorm:"not null;uniqueIndex:idx_learner_lesson" json:"lesson_id"`
	CompletionStatus CompletionStatus `gorm:"size:16;not null" json:"completion_status"`
	Score            int              `gorm:"not null;default:0" json:"score"`
	LastUpdated      time.Time        `gorm:"not null" json:"last_updated"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

// CPDProgress is unique per (UserID, CPDModuleID).
type CPDProgress struct {
	ID               uint             `gorm:"primaryKey" json:"cpd_progress_id"`
	UserID           uint             `gorm:"not null;uniqueIndex:idx_user_cpd_module" json:"user_id"`
	User             *User            `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CPDModuleID      string           `gorm:"column:cpd_module_id;not null;uniqueIndex:idx_user_cpd_module" json:"cpd_module_id"`
	CompletionStatus CompletionStatus `gorm:"size:16;not null" json:"completion_status"`
	Score            int              `gorm:"not null;default:0" json:"score"`
	LastUpdated      time.Time        `gorm:"not null" json:"last_updated"`
}

func (CPDProgress) TableName() string { return "teacher_cpd_progress" }
