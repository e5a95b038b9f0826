package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/logger"
	"github.com/meqenet/meqenet-back/internal/models"
	"github.com/meqenet/meqenet-back/internal/store"
)

// Entry is one progress write from a client. Score defaults to 0 when nil.
// At is the client's lastUpdated; nil means now.
type Entry struct {
	ItemID string
	Status string
	Score  *int
	At     *time.Time
}

type Service struct {
	store store.ProgressLedger
	log   *logger.Logger
	now   func() time.Time
}

func NewService(s store.ProgressLedger, log *logger.Logger) *Service {
	return &Service{
		store: s,
		log:   log.With("service", "ledger"),
		now:   time.Now,
	}
}

type normalized struct {
	itemID string
	status models.CompletionStatus
	score  int
	at     time.Time
}

func (s *Service) normalize(e Entry, idField string) (normalized, error) {
	var n normalized
	n.itemID = strings.TrimSpace(e.ItemID)
	if n.itemID == "" || strings.TrimSpace(e.Status) == "" {
		return n, apierr.Validation("missing_fields", idField+" and completionStatus are required.")
	}
	status, ok := models.ParseCompletionStatus(e.Status)
	if !ok {
		return n, apierr.Validation("invalid_status", "completionStatus must be not-started, in-progress or completed.")
	}
	n.status = status
	if e.Score != nil {
		n.score = *e.Score
	}
	if n.score < models.MinScore || n.score > models.MaxScore {
		return n, apierr.Validation("invalid_score", "score must be between 0 and 100.")
	}

	now := s.now().UTC()
	n.at = now
	if e.At != nil && !e.At.IsZero() && e.At.Before(now) {
		n.at = e.At.UTC()
	}
	n.at = n.at.Truncate(time.Microsecond)
	return n, nil
}

// matches reports whether the stored row carries this write. A write older
// than the stored row leaves it untouched.
func (n normalized) matches(status models.CompletionStatus, score int, at time.Time) bool {
	return at.Equal(n.at) && status == n.status && score == n.score
}

// SyncLesson upserts one lesson record. applied is false when the stored row
// is newer than the entry and was kept.
func (s *Service) SyncLesson(ctx context.Context, learnerID uint, e Entry) (p *models.LessonProgress, applied bool, err error) {
	n, err := s.normalize(e, "lessonId")
	if err != nil {
		return nil, false, err
	}
	p, err = s.store.UpsertLessonProgress(ctx, models.LessonProgress{
		LearnerID:        learnerID,
		LessonID:         n.itemID,
		CompletionStatus: n.status,
		Score:            n.score,
		LastUpdated:      n.at,
	})
	if err != nil {
		return nil, false, err
	}
	applied = n.matches(p.CompletionStatus, p.Score, p.LastUpdated)
	if !applied {
		s.log.Info("Stale lesson progress ignored", "learner_id", learnerID, "lesson", n.itemID, "stored_at", p.LastUpdated, "sent_at", n.at)
		return p, false, nil
	}
	s.log.Debug("Lesson progress synced", "learner_id", learnerID, "lesson", n.itemID, "status", p.CompletionStatus)
	return p, true, nil
}

func (s *Service) LessonProgress(ctx context.Context, learnerID uint) ([]models.LessonProgress, error) {
	return s.store.ListLessonProgress(ctx, learnerID)
}

func (s *Service) SyncCPD(ctx context.Context, userID uint, e Entry) (p *models.CPDProgress, applied bool, err error) {
	n, err := s.normalize(e, "cpdModuleId")
	if err != nil {
		return nil, false, err
	}
	p, err = s.store.UpsertCPDProgress(ctx, models.CPDProgress{
		UserID:           userID,
		CPDModuleID:      n.itemID,
		CompletionStatus: n.status,
		Score:            n.score,
		LastUpdated:      n.at,
	})
	if err != nil {
		return nil, false, err
	}
	applied = n.matches(p.CompletionStatus, p.Score, p.LastUpdated)
	if !applied {
		s.log.Info("Stale CPD progress ignored", "user_id", userID, "module", n.itemID, "stored_at", p.LastUpdated, "sent_at", n.at)
		return p, false, nil
	}
	s.log.Debug("CPD progress synced", "user_id", userID, "module", n.itemID, "status", p.CompletionStatus)
	return p, true, nil
}

func (s *Service) CPDProgress(ctx context.Context, userID uint) ([]models.CPDProgress, error) {
	return s.store.ListCPDProgress(ctx, userID)
}
