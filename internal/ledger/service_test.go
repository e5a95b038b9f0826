package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/logger"
	"github.com/meqenet/meqenet-back/internal/models"
	"github.com/meqenet/meqenet-back/internal/store"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newLedger(t *testing.T) (*Service, uint, uint) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	if err := store.SeedSchools(ctx, mem); err != nil {
		t.Fatalf("seed: %v", err)
	}
	learner := &models.Learner{SchoolID: 1, FirstName: "Abebe", GradeLevel: 2}
	if err := mem.CreateLearner(ctx, learner); err != nil {
		t.Fatalf("create learner: %v", err)
	}
	user := &models.User{SchoolID: 1, Email: "t@s.et", Role: models.RoleTeacher}
	if err := mem.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	svc := NewService(mem, logger.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc, learner.ID, user.ID
}

func intPtr(v int) *int { return &v }

func TestSyncLessonValidation(t *testing.T) {
	svc, learnerID, _ := newLedger(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		entry Entry
		code  string
	}{
		{"missing lesson", Entry{Status: "completed"}, "missing_fields"},
		{"missing status", Entry{ItemID: "l1"}, "missing_fields"},
		{"bad status", Entry{ItemID: "l1", Status: "finished"}, "invalid_status"},
		{"score above range", Entry{ItemID: "l1", Status: "completed", Score: intPtr(101)}, "invalid_score"},
		{"negative score", Entry{ItemID: "l1", Status: "completed", Score: intPtr(-1)}, "invalid_score"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.SyncLesson(ctx, learnerID, tc.entry)
			if got := apierr.From(err); got == nil || got.Kind != apierr.KindValidation || got.Code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestSyncLessonDefaultsAndNormalizes(t *testing.T) {
	svc, learnerID, _ := newLedger(t)
	ctx := context.Background()

	p, applied, err := svc.SyncLesson(ctx, learnerID, Entry{ItemID: "math-1", Status: "In Progress"})
	if err != nil || !applied {
		t.Fatalf("sync: applied=%v err=%v", applied, err)
	}
	if p.Score != 0 || p.CompletionStatus != models.StatusInProgress {
		t.Fatalf("expected defaults, got %+v", p)
	}
	if !p.LastUpdated.Equal(fixedNow) {
		t.Fatalf("expected server time, got %s", p.LastUpdated)
	}
}

func TestSyncLessonClampsFutureTimestamps(t *testing.T) {
	svc, learnerID, _ := newLedger(t)
	ctx := context.Background()

	future := fixedNow.Add(48 * time.Hour)
	p, applied, err := svc.SyncLesson(ctx, learnerID, Entry{ItemID: "math-1", Status: "completed", Score: intPtr(80), At: &future})
	if err != nil || !applied {
		t.Fatalf("sync: applied=%v err=%v", applied, err)
	}
	if !p.LastUpdated.Equal(fixedNow) {
		t.Fatalf("expected clamp to now, got %s", p.LastUpdated)
	}

	past := fixedNow.Add(-time.Hour)
	p, applied, err = svc.SyncLesson(ctx, learnerID, Entry{ItemID: "math-1", Status: "not started", At: &past})
	if err != nil {
		t.Fatalf("stale sync: %v", err)
	}
	if applied || p.CompletionStatus != models.StatusCompleted || p.Score != 80 {
		t.Fatalf("expected offline stale write to be ignored, got applied=%v %+v", applied, p)
	}

	// Same timestamp as the stored row: the later call wins.
	p, applied, err = svc.SyncLesson(ctx, learnerID, Entry{ItemID: "math-1", Status: "in-progress", Score: intPtr(40), At: &fixedNow})
	if err != nil || !applied || p.Score != 40 {
		t.Fatalf("expected equal timestamp to apply, got applied=%v %+v err=%v", applied, p, err)
	}
}

func TestSyncCPD(t *testing.T) {
	svc, _, userID := newLedger(t)
	ctx := context.Background()

	for _, score := range []int{20, 70} {
		if _, applied, err := svc.SyncCPD(ctx, userID, Entry{ItemID: "cpd-1", Status: "in_progress", Score: intPtr(score)}); err != nil || !applied {
			t.Fatalf("sync cpd: applied=%v err=%v", applied, err)
		}
	}
	list, err := svc.CPDProgress(ctx, userID)
	if err != nil {
		t.Fatalf("list cpd: %v", err)
	}
	if len(list) != 1 || list[0].Score != 70 {
		t.Fatalf("expected one record with the last score, got %+v", list)
	}
	past := fixedNow.Add(-24 * time.Hour)
	p, applied, err := svc.SyncCPD(ctx, userID, Entry{ItemID: "cpd-1", Status: "completed", Score: intPtr(100), At: &past})
	if err != nil || applied || p.Score != 70 {
		t.Fatalf("expected stale CPD write to be ignored, got applied=%v %+v err=%v", applied, p, err)
	}
	if _, _, err := svc.SyncCPD(ctx, 999, Entry{ItemID: "cpd-1", Status: "completed"}); apierr.KindOf(err) != apierr.KindValidation {
		t.Fatalf("expected unknown user validation error, got %v", err)
	}
}
