package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/logger"
	"github.com/meqenet/meqenet-back/internal/models"
	"github.com/meqenet/meqenet-back/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", ":memory:", logger.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := store.SeedSchools(context.Background(), s); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "", logger.Nop()); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestSchoolsAndPing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	schools, err := s.ListSchools(ctx)
	if err != nil {
		t.Fatalf("list schools: %v", err)
	}
	if len(schools) != 2 || schools[0].Name != "Addis Ababa Primary School" {
		t.Fatalf("unexpected schools: %+v", schools)
	}
	if _, err := s.FindSchool(ctx, 7); !apierr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateUserDuplicateEmailIsConflict(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	u := &models.User{SchoolID: 1, FirstName: "Tigist", Email: "tigist@school1.et", Role: models.RoleTeacher, PasswordHash: "x", LanguagePreference: models.DefaultLanguage}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	dup := &models.User{SchoolID: 2, FirstName: "Other", Email: "tigist@school1.et", Role: models.RoleAdmin, PasswordHash: "y", LanguagePreference: models.DefaultLanguage}
	if err := s.CreateUser(ctx, dup); apierr.KindOf(err) != apierr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := s.CreateUser(ctx, &models.User{SchoolID: 9, FirstName: "N", Email: "n@x.et", PasswordHash: "z"}); apierr.KindOf(err) != apierr.KindValidation {
		t.Fatalf("expected validation error for unknown school, got %v", err)
	}

	got, err := s.FindUserByEmail(ctx, "tigist@school1.et")
	if err != nil || got.ID != u.ID {
		t.Fatalf("find by email: %+v %v", got, err)
	}
	updated, err := s.UpdateUserLanguage(ctx, u.ID, models.LanguageTigrinya)
	if err != nil || updated.LanguagePreference != models.LanguageTigrinya {
		t.Fatalf("update language: %+v %v", updated, err)
	}
	if _, err := s.UpdateUserLanguage(ctx, 404, models.LanguageEnglish); !apierr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLearnersScopedBySchool(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a := &models.Learner{SchoolID: 1, FirstName: "Abebe", GradeLevel: 3, UniqueIdentifier: "AA-1"}
	b := &models.Learner{SchoolID: 2, FirstName: "Chaltu", GradeLevel: 4, UniqueIdentifier: "OR-1"}
	for _, l := range []*models.Learner{a, b} {
		if err := s.CreateLearner(ctx, l); err != nil {
			t.Fatalf("create learner: %v", err)
		}
	}

	list, err := s.ListLearnersForSchool(ctx, 1)
	if err != nil || len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("unexpected learners: %+v %v", list, err)
	}
	found, err := s.FindLearnerByIdentifier(ctx, 2, "OR-1")
	if err != nil || found.ID != b.ID {
		t.Fatalf("find by identifier: %+v %v", found, err)
	}
	if _, err := s.FindLearner(ctx, 999); !apierr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpsertLessonProgressLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	learner := &models.Learner{SchoolID: 1, FirstName: "Abebe", GradeLevel: 2}
	if err := s.CreateLearner(ctx, learner); err != nil {
		t.Fatalf("create learner: %v", err)
	}

	base := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	first, err := s.UpsertLessonProgress(ctx, models.LessonProgress{LearnerID: learner.ID, LessonID: "amharic-2", CompletionStatus: models.StatusInProgress, Score: 30, LastUpdated: base})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := s.UpsertLessonProgress(ctx, models.LessonProgress{LearnerID: learner.ID, LessonID: "amharic-2", CompletionStatus: models.StatusCompleted, Score: 95, LastUpdated: base.Add(time.Hour)})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID || second.Score != 95 || second.CompletionStatus != models.StatusCompleted {
		t.Fatalf("expected the newer write in place, got %+v (first %+v)", second, first)
	}

	stale, err := s.UpsertLessonProgress(ctx, models.LessonProgress{LearnerID: learner.ID, LessonID: "amharic-2", CompletionStatus: models.StatusNotStarted, Score: 0, LastUpdated: base.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("stale upsert: %v", err)
	}
	if stale.Score != 95 || stale.CompletionStatus != models.StatusCompleted {
		t.Fatalf("expected stale write to be ignored, got %+v", stale)
	}

	list, _ := s.ListLessonProgress(ctx, learner.ID)
	if len(list) != 1 {
		t.Fatalf("expected one record, got %d", len(list))
	}

	if _, err := s.UpsertLessonProgress(ctx, models.LessonProgress{LearnerID: 555, LessonID: "x", CompletionStatus: models.StatusCompleted, LastUpdated: base}); apierr.KindOf(err) != apierr.KindValidation {
		t.Fatalf("expected validation error for unknown learner, got %v", err)
	}
}

// openPostgresStore runs against a real server so ON CONFLICT statements
// actually race. Rows are scoped to a fresh user and removed on cleanup.
func openPostgresStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run postgres integration tests")
	}
	s, err := Open("postgres", dsn, logger.Nop())
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := store.SeedSchools(context.Background(), s); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestConcurrentCPDUpsertsNeverDuplicate(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		assertConcurrentCPDUpserts(t, openTestStore(t), "t@school1.et")
	})
	t.Run("postgres", func(t *testing.T) {
		s := openPostgresStore(t)
		email := "race-" + uuid.NewString() + "@school1.et"
		t.Cleanup(func() {
			s.db.Where("email = ?", email).Delete(&models.User{})
		})
		assertConcurrentCPDUpserts(t, s, email)
	})
}

func assertConcurrentCPDUpserts(t *testing.T, s *Store, email string) {
	t.Helper()
	ctx := context.Background()
	u := &models.User{SchoolID: 1, FirstName: "Tigist", Email: email, Role: models.RoleTeacher, PasswordHash: "x", LanguagePreference: models.DefaultLanguage}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		s.db.Where("user_id = ?", u.ID).Delete(&models.CPDProgress{})
	})

	base := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	statuses := []models.CompletionStatus{models.StatusNotStarted, models.StatusInProgress, models.StatusCompleted}
	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			p := models.CPDProgress{
				UserID:           u.ID,
				CPDModuleID:      "cpd-literacy",
				CompletionStatus: statuses[score%3],
				Score:            score,
				LastUpdated:      base.Add(time.Duration(score) * time.Second),
			}
			if _, err := s.UpsertCPDProgress(ctx, p); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent upsert: %v", err)
	}

	list, err := s.ListCPDProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("list cpd: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one cpd record, got %d", len(list))
	}
	last := writers - 1
	got := list[0]
	if got.Score != last || got.CompletionStatus != statuses[last%3] || !got.LastUpdated.Equal(base.Add(time.Duration(last)*time.Second)) {
		t.Fatalf("expected every field from the newest write, got %+v", got)
	}
}
