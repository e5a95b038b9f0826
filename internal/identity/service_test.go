package identity

import (
	"context"
	"testing"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/logger"
	"github.com/meqenet/meqenet-back/internal/models"
	"github.com/meqenet/meqenet-back/internal/store"
)

func newService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	if err := store.SeedSchools(context.Background(), mem); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewService(mem, logger.Nop()), mem
}

func TestCreateLearnerValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   LearnerInput
		code string
	}{
		{"missing first name", LearnerInput{SchoolID: 1, FirstName: "  ", GradeLevel: 2}, "missing_fields"},
		{"zero grade", LearnerInput{SchoolID: 1, FirstName: "Abebe"}, "invalid_grade_level"},
		{"bad date", LearnerInput{SchoolID: 1, FirstName: "Abebe", GradeLevel: 2, DateOfBirth: "12/01/2015"}, "invalid_date_of_birth"},
		{"unknown school", LearnerInput{SchoolID: 77, FirstName: "Abebe", GradeLevel: 2}, "unknown_school"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateLearner(ctx, tc.in)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := apierr.From(err); got.Kind != apierr.KindValidation || got.Code != tc.code {
				t.Fatalf("expected validation %s, got %v", tc.code, err)
			}
		})
	}

	learner, err := svc.CreateLearner(ctx, LearnerInput{SchoolID: 1, FirstName: " Abebe ", LastName: "Kebede", GradeLevel: 3, DateOfBirth: "2016-09-11"})
	if err != nil {
		t.Fatalf("create learner: %v", err)
	}
	if learner.FirstName != "Abebe" || learner.ID == 0 {
		t.Fatalf("unexpected learner %+v", learner)
	}
}

func TestImportLearnerDeduplicatesByIdentifier(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	in := LearnerInput{SchoolID: 2, FirstName: "Chaltu", GradeLevel: 5, UniqueIdentifier: "OR-0007"}

	first, created, err := svc.ImportLearner(ctx, in)
	if err != nil || !created {
		t.Fatalf("expected first import to create, got %v %v", created, err)
	}
	second, created, err := svc.ImportLearner(ctx, in)
	if err != nil || created {
		t.Fatalf("expected second import to skip, got %v %v", created, err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same learner, got %d and %d", first.ID, second.ID)
	}

	list, _ := svc.ListLearners(ctx, 2)
	if len(list) != 1 {
		t.Fatalf("expected one learner, got %d", len(list))
	}
}

func TestLearnerInSchool(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	learner, _ := svc.CreateLearner(ctx, LearnerInput{SchoolID: 1, FirstName: "Abebe", GradeLevel: 1})

	if _, err := svc.LearnerInSchool(ctx, learner.ID, 1); err != nil {
		t.Fatalf("expected access in own school, got %v", err)
	}
	if _, err := svc.LearnerInSchool(ctx, learner.ID, 2); apierr.KindOf(err) != apierr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.LearnerInSchool(ctx, 999, 1); !apierr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateLanguage(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()
	u := &models.User{SchoolID: 1, Email: "t@s.et", LanguagePreference: models.DefaultLanguage}
	_ = mem.CreateUser(ctx, u)

	if _, err := svc.UpdateLanguage(ctx, u.ID, "Klingon"); apierr.KindOf(err) != apierr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, err := svc.UpdateLanguage(ctx, u.ID, "English")
	if err != nil || got.LanguagePreference != models.LanguageEnglish {
		t.Fatalf("update language: %+v %v", got, err)
	}
}
