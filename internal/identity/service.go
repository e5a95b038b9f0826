package identity

import (
	"context"
	"strings"
	"time"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/logger"
	"github.com/meqenet/meqenet-back/internal/models"
	"github.com/meqenet/meqenet-back/internal/store"
)

const dateLayout = "2006-01-02"

type Service struct {
	store store.IdentityStore
	log   *logger.Logger
}

func NewService(s store.IdentityStore, log *logger.Logger) *Service {
	return &Service{store: s, log: log.With("service", "identity")}
}

type LearnerInput struct {
	SchoolID         uint
	FirstName        string
	LastName         string
	DateOfBirth      string
	GradeLevel       int
	UniqueIdentifier string
}

func (in *LearnerInput) normalize() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)
	in.UniqueIdentifier = strings.TrimSpace(in.UniqueIdentifier)

	if in.FirstName == "" {
		return apierr.Validation("missing_fields", "First name and grade level are required.")
	}
	if in.GradeLevel < 1 {
		return apierr.Validation("invalid_grade_level", "Grade level must be 1 or higher.")
	}
	if in.DateOfBirth != "" {
		if _, err := time.Parse(dateLayout, in.DateOfBirth); err != nil {
			return apierr.Validation("invalid_date_of_birth", "Date of birth must be YYYY-MM-DD.")
		}
	}
	return nil
}

func (s *Service) ListSchools(ctx context.Context) ([]models.School, error) {
	return s.store.ListSchools(ctx)
}

func (s *Service) CreateLearner(ctx context.Context, in LearnerInput) (*models.Learner, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	learner := &models.Learner{
		SchoolID:         in.SchoolID,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		DateOfBirth:      in.DateOfBirth,
		GradeLevel:       in.GradeLevel,
		UniqueIdentifier: in.UniqueIdentifier,
	}
	if err := s.store.CreateLearner(ctx, learner); err != nil {
		return nil, err
	}
	s.log.Info("Learner created", "learner_id", learner.ID, "school_id", learner.SchoolID)
	return learner, nil
}

// ImportLearner creates the learner unless one with the same identifier
// already exists in the school. created reports whether a row was added.
func (s *Service) ImportLearner(ctx context.Context, in LearnerInput) (learner *models.Learner, created bool, err error) {
	if err := in.normalize(); err != nil {
		return nil, false, err
	}
	if in.UniqueIdentifier != "" {
		existing, err := s.store.FindLearnerByIdentifier(ctx, in.SchoolID, in.UniqueIdentifier)
		if err == nil {
			return existing, false, nil
		}
		if !apierr.IsNotFound(err) {
			return nil, false, err
		}
	}
	learner, err = s.CreateLearner(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return learner, true, nil
}

func (s *Service) ListLearners(ctx context.Context, schoolID uint) ([]models.Learner, error) {
	return s.store.ListLearnersForSchool(ctx, schoolID)
}

// LearnerInSchool returns the learner if it belongs to schoolID. An unknown
// learner is NotFound, a learner of another school is Forbidden.
func (s *Service) LearnerInSchool(ctx context.Context, learnerID, schoolID uint) (*models.Learner, error) {
	learner, err := s.store.FindLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if learner.SchoolID != schoolID {
		return nil, apierr.Forbidden("forbidden", "Learner belongs to another school.")
	}
	return learner, nil
}

func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.store.FindUserByID(ctx, id)
}

func (s *Service) UpdateLanguage(ctx context.Context, userID uint, raw string) (*models.User, error) {
	lang := models.Language(strings.TrimSpace(raw))
	if !lang.Valid() {
		return nil, apierr.Validation("invalid_language", "Language must be one of English, Amharic, Oromoo, Tigrinya.")
	}
	user, err := s.store.UpdateUserLanguage(ctx, userID, lang)
	if err != nil {
		return nil, err
	}
	s.log.Info("Language preference updated", "user_id", userID, "language", lang)
	return user, nil
}
