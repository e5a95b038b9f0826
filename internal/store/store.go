// Package store defines the storage contract shared by the in-memory store in
// this package and the relational store in internal/db.
//
// Implementations return *apierr.Error values: KindNotFound for missing rows,
// KindConflict for unique-key violations, KindValidation for dangling foreign
// keys and KindInternal for everything else.
package store

import (
	"context"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/models"
)

type IdentityStore interface {
	ListSchools(ctx context.Context) ([]models.School, error)
	FindSchool(ctx context.Context, id uint) (*models.School, error)
	CreateSchool(ctx context.Context, school *models.School) error

	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUserLanguage(ctx context.Context, id uint, lang models.Language) (*models.User, error)

	CreateLearner(ctx context.Context, learner *models.Learner) error
	FindLearner(ctx context.Context, id uint) (*models.Learner, error)
	FindLearnerByIdentifier(ctx context.Context, schoolID uint, uniqueIdentifier string) (*models.Learner, error)
	ListLearnersForSchool(ctx context.Context, schoolID uint) ([]models.Learner, error)
}

// ProgressLedger upserts are keyed on (LearnerID, LessonID) and
// (UserID, CPDModuleID). A write whose LastUpdated is older than the stored
// record leaves it untouched; either way the stored record is returned.
type ProgressLedger interface {
	UpsertLessonProgress(ctx context.Context, p models.LessonProgress) (*models.LessonProgress, error)
	ListLessonProgress(ctx context.Context, learnerID uint) ([]models.LessonProgress, error)
	UpsertCPDProgress(ctx context.Context, p models.CPDProgress) (*models.CPDProgress, error)
	ListCPDProgress(ctx context.Context, userID uint) ([]models.CPDProgress, error)
}

type Store interface {
	IdentityStore
	ProgressLedger
	Ping(ctx context.Context) error
}

// Errors shared by every implementation so clients see the same codes
// whichever store is configured.
var (
	ErrSchoolNotFound  = apierr.NotFound("school_not_found", "School not found.")
	ErrUserNotFound    = apierr.NotFound("user_not_found", "User not found.")
	ErrLearnerNotFound = apierr.NotFound("learner_not_found", "Learner not found.")
	ErrEmailExists     = apierr.Conflict("email_exists", "User with this email already exists.")
	ErrUnknownSchool   = apierr.Validation("unknown_school", "School does not exist.")
	ErrUnknownLearner  = apierr.Validation("unknown_learner", "Learner does not exist.")
	ErrUnknownUser     = apierr.Validation("unknown_user", "User does not exist.")
)

// DefaultSchools are seeded into an empty store.
func DefaultSchools() []models.School {
	return []models.School{
		{ID: 1, Name: "Addis Ababa Primary School", City: "Addis Ababa", Country: "Ethiopia"},
		{ID: 2, Name: "Oromia Regional Academy", City: "Adama", Country: "Ethiopia"},
	}
}

// SeedSchools inserts DefaultSchools when the store holds no schools yet.
func SeedSchools(ctx context.Context, s IdentityStore) error {
	schools, err := s.ListSchools(ctx)
	if err != nil {
		return err
	}
	if len(schools) > 0 {
		return nil
	}
	for _, school := range DefaultSchools() {
		school := school
		if err := s.CreateSchool(ctx, &school); err != nil {
			return err
		}
	}
	return nil
}
