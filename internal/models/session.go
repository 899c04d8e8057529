package models

import (
	"time"

	"github.com/google/uuid"
)

// InterviewSession accumulates one candidate's mock interview. All
// lists are append-only and ordered by submission; Questions may run
// one ahead of Answers/Feedback while a question is waiting for its
// answer.
type InterviewSession struct {
	ID             uuid.UUID `json:"id"`
	JobTitle       string    `json:"job_title"`
	ResumeText     string    `json:"-"`
	JobDescription string    `json:"-"`
	Questions      []string  `json:"questions"`
	Answers        []string  `json:"answers"`
	Feedback       []string  `json:"feedback"`
	Current        int       `json:"current_question"`
	Completed      bool      `json:"completed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Turns returns the number of completed question/answer/feedback
// triples.
func (s *InterviewSession) Turns() int {
	n := len(s.Answers)
	if len(s.Feedback) < n {
		n = len(s.Feedback)
	}
	if len(s.Questions) < n {
		n = len(s.Questions)
	}
	return n
}

// QuizQuestion is one multiple-choice question as produced by the
// model: four options prefixed "A."–"D." and the letter of the correct
// one. Instances only exist after strict validation.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// QuizSession holds one generated quiz and the user's selections,
// keyed by question index.
type QuizSession struct {
	ID         uuid.UUID      `json:"id"`
	Topic      string         `json:"topic"`
	Skills     []string       `json:"skills,omitempty"`
	Questions  []QuizQuestion `json:"-"`
	Selections map[int]string `json:"selections"`
	Completed  bool           `json:"completed"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
