package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/logger"
	"github.com/meqenet/meqenet-back/internal/models"
	"github.com/meqenet/meqenet-back/internal/store"
)

// Store is the relational implementation of store.Store.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to postgres or sqlite. sqlite is limited to one connection so
// an in-memory database survives for the life of the pool.
func Open(driver, dsn string, log *logger.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == "sqlite" {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("Database connected", "driver", driver)
	return &Store{db: gdb, log: log.With("service", "db")}, nil
}

// Migrate creates or updates every table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(
		&models.School{},
		&models.User{},
		&models.Learner{},
		&models.LessonProgress{},
		&models.CPDProgress{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	s.log.Info("Database migrated")
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the shared store errors.
func translate(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	default:
		return apierr.Internal(err)
	}
}

func (s *Store) ListSchools(ctx context.Context) ([]models.School, error) {
	var schools []models.School
	if err := s.db.WithContext(ctx).Order("id").Find(&schools).Error; err != nil {
		return nil, apierr.Internal(err)
	}
	return schools, nil
}

func (s *Store) FindSchool(ctx context.Context, id uint) (*models.School, error) {
	var school models.School
	if err := s.db.WithContext(ctx).First(&school, id).Error; err != nil {
		return nil, translate(err, store.ErrSchoolNotFound)
	}
	return &school, nil
}

func (s *Store) CreateSchool(ctx context.Context, school *models.School) error {
	if err := s.db.WithContext(ctx).Create(school).Error; err != nil {
		return apierr.Internal(err)
	}
	return nil
}

func (s *Store) schoolExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.School{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, apierr.Internal(err)
	}
	return n > 0, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, store.ErrUserNotFound)
	}
	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, store.ErrUserNotFound)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	ok, err := s.schoolExists(ctx, user.SchoolID)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrUnknownSchool
	}
	err = s.db.WithContext(ctx).Create(user).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrEmailExists
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return store.ErrUnknownSchool
	default:
		return apierr.Internal(err)
	}
}

func (s *Store) UpdateUserLanguage(ctx context.Context, id uint, lang models.Language) (*models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("language_preference", lang)
	if res.Error != nil {
		return nil, apierr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrUserNotFound
	}
	return s.FindUserByID(ctx, id)
}

func (s *Store) CreateLearner(ctx context.Context, learner *models.Learner) error {
	ok, err := s.schoolExists(ctx, learner.SchoolID)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrUnknownSchool
	}
	err = s.db.WithContext(ctx).Create(learner).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return store.ErrUnknownSchool
	default:
		return apierr.Internal(err)
	}
}

func (s *Store) FindLearner(ctx context.Context, id uint) (*models.Learner, error) {
	var learner models.Learner
	if err := s.db.WithContext(ctx).First(&learner, id).Error; err != nil {
		return nil, translate(err, store.ErrLearnerNotFound)
	}
	return &learner, nil
}

func (s *Store) FindLearnerByIdentifier(ctx context.Context, schoolID uint, uniqueIdentifier string) (*models.Learner, error) {
	var learner models.Learner
	err := s.db.WithContext(ctx).
		Where("school_id = ? AND unique_identifier = ?", schoolID, uniqueIdentifier).
		Order("id").
		First(&learner).Error
	if err != nil {
		return nil, translate(err, store.ErrLearnerNotFound)
	}
	return &learner, nil
}

func (s *Store) ListLearnersForSchool(ctx context.Context, schoolID uint) ([]models.Learner, error) {
	learners := []models.Learner{}
	if err := s.db.WithContext(ctx).Where("school_id = ?", schoolID).Order("id").Find(&learners).Error; err != nil {
		return nil, apierr.Internal(err)
	}
	return learners, nil
}

// newerWins keeps the stored row when the incoming write is older.
func newerWins(table string) clause.Where {
	return clause.Where{Exprs: []clause.Expression{
		clause.Expr{SQL: fmt.Sprintf("excluded.last_updated >= %s.last_updated", table)},
	}}
}

func (s *Store) UpsertLessonProgress(ctx context.Context, p models.LessonProgress) (*models.LessonProgress, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Learner{}).Where("id = ?", p.LearnerID).Count(&n).Error; err != nil {
		return nil, apierr.Internal(err)
	}
	if n == 0 {
		return nil, store.ErrUnknownLearner
	}

	p.ID = 0
	p.LastUpdated = p.LastUpdated.UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "learner_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completion_status", "score", "last_updated"}),
		Where:     newerWins(models.LessonProgress{}.TableName()),
	}).Create(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, store.ErrUnknownLearner
		}
		return nil, apierr.Internal(err)
	}

	var stored models.LessonProgress
	if err := s.db.WithContext(ctx).
		Where("learner_id = ? AND lesson_id = ?", p.LearnerID, p.LessonID).
		First(&stored).Error; err != nil {
		return nil, apierr.Internal(err)
	}
	return &stored, nil
}

func (s *Store) ListLessonProgress(ctx context.Context, learnerID uint) ([]models.LessonProgress, error) {
	out := []models.LessonProgress{}
	if err := s.db.WithContext(ctx).Where("learner_id = ?", learnerID).Order("lesson_id").Find(&out).Error; err != nil {
		return nil, apierr.Internal(err)
	}
	return out, nil
}

func (s *Store) UpsertCPDProgress(ctx context.Context, p models.CPDProgress) (*models.CPDProgress, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", p.UserID).Count(&n).Error; err != nil {
		return nil, apierr.Internal(err)
	}
	if n == 0 {
		return nil, store.ErrUnknownUser
	}

	p.ID = 0
	p.LastUpdated = p.LastUpdated.UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "cpd_module_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completion_status", "score", "last_updated"}),
		Where:     newerWins(models.CPDProgress{}.TableName()),
	}).Create(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, store.ErrUnknownUser
		}
		return nil, apierr.Internal(err)
	}

	var stored models.CPDProgress
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND cpd_module_id = ?", p.UserID, p.CPDModuleID).
		First(&stored).Error; err != nil {
		return nil, apierr.Internal(err)
	}
	return &stored, nil
}

func (s *Store) ListCPDProgress(ctx context.Context, userID uint) ([]models.CPDProgress, error) {
	out := []models.CPDProgress{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("cpd_module_id").Find(&out).Error; err != nil {
		return nil, apierr.Internal(err)
	}
	return out, nil
}
