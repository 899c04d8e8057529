package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"interview-coach/internal/models"
)

var ErrSessionNotFound = fmt.Errorf("session not found")

// SessionRepository is the in-memory store for both flows. Sessions are
// ephemeral: nothing survives a restart, and the janitor deletes
// anything idle longer than the configured TTL.
//
// Find* return deep copies and Update* is the only way to mutate a
// stored session; callers never share a pointer with the store, so
// handlers can read and write the same session concurrently.
type SessionRepository interface {
	SaveInterview(session *models.InterviewSession) error
	FindInterview(id uuid.UUID) (*models.InterviewSession, error)
	UpdateInterview(id uuid.UUID, mutate func(*models.InterviewSession) error) (*models.InterviewSession, error)
	DeleteInterview(id uuid.UUID) error

	SaveQuiz(session *models.QuizSession) error
	FindQuiz(id uuid.UUID) (*models.QuizSession, error)
	UpdateQuiz(id uuid.UUID, mutate func(*models.QuizSession) error) (*models.QuizSession, error)
	DeleteQuiz(id uuid.UUID) error

	// DeleteExpired removes sessions not updated since the cutoff and
	// reports how many were removed.
	DeleteExpired(cutoff time.Time) int
}

type sessionRepository struct {
	mu         sync.RWMutex
	interviews map[uuid.UUID]*models.InterviewSession
	quizzes    map[uuid.UUID]*models.QuizSession
}

func NewSessionRepository() SessionRepository {
	return &sessionRepository{
		interviews: make(map[uuid.UUID]*models.InterviewSession),
		quizzes:    make(map[uuid.UUID]*models.QuizSession),
	}
}

// SaveInterview implements SessionRepository.
func (r *sessionRepository) SaveInterview(session *models.InterviewSession) error {
	if session == nil || session.ID == uuid.Nil {
		return fmt.Errorf("invalid interview session")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyInterview(session)
	stored.UpdatedAt = time.Now()
	r.interviews[stored.ID] = stored
	return nil
}

// FindInterview implements SessionRepository.
func (r *sessionRepository) FindInterview(id uuid.UUID) (*models.InterviewSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.interviews[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copyInterview(session), nil
}

// UpdateInterview implements SessionRepository. The mutator runs on the
// stored session under the write lock; a mutator error leaves the
// session untouched by convention (mutators must not partially apply).
func (r *sessionRepository) UpdateInterview(id uuid.UUID, mutate func(*models.InterviewSession) error) (*models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.interviews[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if err := mutate(session); err != nil {
		return nil, err
	}

	session.UpdatedAt = time.Now()
	return copyInterview(session), nil
}

// DeleteInterview implements SessionRepository.
func (r *sessionRepository) DeleteInterview(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.interviews[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.interviews, id)
	return nil
}

// SaveQuiz implements SessionRepository.
func (r *sessionRepository) SaveQuiz(session *models.QuizSession) error {
	if session == nil || session.ID == uuid.Nil {
		return fmt.Errorf("invalid quiz session")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyQuiz(session)
	stored.UpdatedAt = time.Now()
	r.quizzes[stored.ID] = stored
	return nil
}

// FindQuiz implements SessionRepository.
func (r *sessionRepository) FindQuiz(id uuid.UUID) (*models.QuizSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.quizzes[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copyQuiz(session), nil
}

// UpdateQuiz implements SessionRepository.
func (r *sessionRepository) UpdateQuiz(id uuid.UUID, mutate func(*models.QuizSession) error) (*models.QuizSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.quizzes[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if err := mutate(session); err != nil {
		return nil, err
	}

	session.UpdatedAt = time.Now()
	return copyQuiz(session), nil
}

// DeleteQuiz implements SessionRepository.
func (r *sessionRepository) DeleteQuiz(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.quizzes[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.quizzes, id)
	return nil
}

// DeleteExpired implements SessionRepository.
func (r *sessionRepository) DeleteExpired(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.interviews {
		if s.UpdatedAt.Before(cutoff) {
			delete(r.interviews, id)
			removed++
		}
	}
	for id, s := range r.quizzes {
		if s.UpdatedAt.Before(cutoff) {
			delete(r.quizzes, id)
			removed++
		}
	}
	return removed
}

func copyInterview(s *models.InterviewSession) *models.InterviewSession {
	c := *s
	c.Questions = append([]string(nil), s.Questions...)
	c.Answers = append([]string(nil), s.Answers...)
	c.Feedback = append([]string(nil), s.Feedback...)
	return &c
}

// copyQuiz clones the slices and the selections map. The QuizQuestion
// values still share Options backing arrays, which are immutable after
// validation.
func copyQuiz(s *models.QuizSession) *models.QuizSession {
	c := *s
	c.Skills = append([]string(nil), s.Skills...)
	c.Questions = append([]models.QuizQuestion(nil), s.Questions...)
	c.Selections = make(map[int]string, len(s.Selections))
	for k, v := range s.Selections {
		c.Selections[k] = v
	}
	return &c
}
