package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meqenet/meqenet-back/internal/models"
)

type lessonKey struct {
	learnerID uint
	lessonID  string
}

type cpdKey struct {
	userID   uint
	moduleID string
}

// Memory is a process-local Store. One mutex guards every table so each
// upsert is a single read-modify-write.
type Memory struct {
	mu sync.Mutex

	schools  []models.School
	users    []models.User
	learners []models.Learner
	lessons  map[lessonKey]models.LessonProgress
	cpd      map[cpdKey]models.CPDProgress

	nextSchoolID   uint
	nextUserID     uint
	nextLearnerID  uint
	nextProgressID uint
	nextCPDID      uint

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		lessons:        make(map[lessonKey]models.LessonProgress),
		cpd:            make(map[cpdKey]models.CPDProgress),
		nextSchoolID:   1,
		nextUserID:     1,
		nextLearnerID:  1,
		nextProgressID: 1,
		nextCPDID:      1,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) ListSchools(ctx context.Context) ([]models.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.School{}, m.schools...), nil
}

func (m *Memory) FindSchool(ctx context.Context, id uint) (*models.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.schools {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, ErrSchoolNotFound
}

func (m *Memory) CreateSchool(ctx context.Context, school *models.School) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if school.ID == 0 {
		school.ID = m.nextSchoolID
	}
	if school.ID >= m.nextSchoolID {
		m.nextSchoolID = school.ID + 1
	}
	m.schools = append(m.schools, *school)
	return nil
}

func (m *Memory) hasSchool(id uint) bool {
	for _, s := range m.schools {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (m *Memory) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *Memory) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.userIndex(id)
	if idx < 0 {
		return nil, ErrUserNotFound
	}
	u := m.users[idx]
	return &u, nil
}

func (m *Memory) userIndex(id uint) int {
	for i, u := range m.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSchool(user.SchoolID) {
		return ErrUnknownSchool
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrEmailExists
		}
	}
	user.ID = m.nextUserID
	m.nextUserID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = m.now()
	}
	m.users = append(m.users, *user)
	return nil
}

func (m *Memory) UpdateUserLanguage(ctx context.Context, id uint, lang models.Language) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.userIndex(id)
	if idx < 0 {
		return nil, ErrUserNotFound
	}
	m.users[idx].LanguagePreference = lang
	u := m.users[idx]
	return &u, nil
}

func (m *Memory) CreateLearner(ctx context.Context, learner *models.Learner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSchool(learner.SchoolID) {
		return ErrUnknownSchool
	}
	learner.ID = m.nextLearnerID
	m.nextLearnerID++
	if learner.CreatedAt.IsZero() {
		learner.CreatedAt = m.now()
	}
	m.learners = append(m.learners, *learner)
	return nil
}

func (m *Memory) FindLearner(ctx context.Context, id uint) (*models.Learner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.learners {
		if l.ID == id {
			l := l
			return &l, nil
		}
	}
	return nil, ErrLearnerNotFound
}

func (m *Memory) FindLearnerByIdentifier(ctx context.Context, schoolID uint, uniqueIdentifier string) (*models.Learner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.learners {
		if l.SchoolID == schoolID && l.UniqueIdentifier == uniqueIdentifier {
			l := l
			return &l, nil
		}
	}
	return nil, ErrLearnerNotFound
}

func (m *Memory) ListLearnersForSchool(ctx context.Context, schoolID uint) ([]models.Learner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Learner{}
	for _, l := range m.learners {
		if l.SchoolID == schoolID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *Memory) hasLearner(id uint) bool {
	for _, l := range m.learners {
		if l.ID == id {
			return true
		}
	}
	return false
}

func (m *Memory) UpsertLessonProgress(ctx context.Context, p models.LessonProgress) (*models.LessonProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasLearner(p.LearnerID) {
		return nil, ErrUnknownLearner
	}
	key := lessonKey{learnerID: p.LearnerID, lessonID: p.LessonID}
	existing, ok := m.lessons[key]
	switch {
	case !ok:
		p.ID = m.nextProgressID
		m.nextProgressID++
	case p.LastUpdated.Before(existing.LastUpdated):
		return &existing, nil
	default:
		p.ID = existing.ID
	}
	m.lessons[key] = p
	return &p, nil
}

func (m *Memory) ListLessonProgress(ctx context.Context, learnerID uint) ([]models.LessonProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.LessonProgress{}
	for key, p := range m.lessons {
		if key.learnerID == learnerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessonID < out[j].LessonID })
	return out, nil
}

func (m *Memory) UpsertCPDProgress(ctx context.Context, p models.CPDProgress) (*models.CPDProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userIndex(p.UserID) < 0 {
		return nil, ErrUnknownUser
	}
	key := cpdKey{userID: p.UserID, moduleID: p.CPDModuleID}
	existing, ok := m.cpd[key]
	switch {
	case !ok:
		p.ID = m.nextCPDID
		m.nextCPDID++
	case p.LastUpdated.Before(existing.LastUpdated):
		return &existing, nil
	default:
		p.ID = existing.ID
	}
	m.cpd[key] = p
	return &p, nil
}

func (m *Memory) ListCPDProgress(ctx context.Context, userID uint) ([]models.CPDProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CPDProgress{}
	for key, p := range m.cpd {
		if key.userID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CPDModuleID < out[j].CPDModuleID })
	return out, nil
}
