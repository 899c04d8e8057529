package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"interview-coach/internal/models"
	"interview-coach/internal/repositories"
)

// MalformedResponseError reports a model completion that could not be
// decoded or validated as a question batch. Raw carries the original
// text so the caller can surface it for inspection.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed quiz response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

type QuizService interface {
	Start(ctx context.Context, topic string, skills []string, count int) (*models.QuizSession, error)
	Get(id uuid.UUID) (*models.QuizSession, error)
	Answer(id uuid.UUID, index int, selected string) (bool, error)
	Submit(id uuid.UUID) (*models.QuizResultResponse, error)
	Explanations(ctx context.Context, id uuid.UUID) (string, error)
	Delete(id uuid.UUID) error
}

type quizService struct {
	sessionRepo   repositories.SessionRepository
	geminiService GeminiService
	promptBuilder *PromptBuilder
	defaultCount  int
	maxCount      int
}

func NewQuizService(
	sessionRepo repositories.SessionRepository,
	geminiService GeminiService,
	defaultCount, maxCount int,
) QuizService {
	return &quizService{
		sessionRepo:   sessionRepo,
		geminiService: geminiService,
		promptBuilder: NewPromptBuilder(),
		defaultCount:  defaultCount,
		maxCount:      maxCount,
	}
}

// Start implements QuizService. The whole batch is generated in one
// model call and strictly validated before a session exists.
func (s *quizService) Start(ctx context.Context, topic string, skills []string, count int) (*models.QuizSession, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	if count <= 0 {
		count = s.defaultCount
	}
	if count > s.maxCount {
		count = s.maxCount
	}

	prompt := s.promptBuilder.BuildQuizPrompt(topic, skills, count)
	completion, err := s.geminiService.GenerateText(ctx, prompt, 0.3)
	if err != nil {
		return nil, fmt.Errorf("failed to generate quiz: %w", err)
	}

	questions, err := ParseQuestions(completion)
	if err != nil {
		return nil, &MalformedResponseError{Raw: completion, Err: err}
	}

	session := &models.QuizSession{
		ID:         uuid.New(),
		Topic:      topic,
		Skills:     skills,
		Questions:  questions,
		Selections: make(map[int]string),
		CreatedAt:  time.Now(),
	}

	if err := s.sessionRepo.SaveQuiz(session); err != nil {
		return nil, err
	}

	return session, nil
}

// Get implements QuizService.
func (s *quizService) Get(id uuid.UUID) (*models.QuizSession, error) {
	return s.sessionRepo.FindQuiz(id)
}

// Answer implements QuizService. It records the selection under the
// store lock and reports whether it was correct.
func (s *quizService) Answer(id uuid.UUID, index int, selected string) (bool, error) {
	selected = strings.TrimSpace(selected)
	if selected == "" {
		return false, fmt.Errorf("selected option must not be empty")
	}

	var question models.QuizQuestion
	_, err := s.sessionRepo.UpdateQuiz(id, func(cur *models.QuizSession) error {
		if cur.Completed {
			return fmt.Errorf("quiz already submitted")
		}
		if index < 0 || index >= len(cur.Questions) {
			return fmt.Errorf("question index %d out of range", index)
		}
		cur.Selections[index] = selected
		question = cur.Questions[index]
		return nil
	})
	if err != nil {
		return false, err
	}

	return IsCorrect(question, selected), nil
}

// Submit implements QuizService. Unanswered questions count as wrong.
func (s *quizService) Submit(id uuid.UUID) (*models.QuizResultResponse, error) {
	session, err := s.sessionRepo.UpdateQuiz(id, func(cur *models.QuizSession) error {
		cur.Completed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	verdicts := gradeAll(session)
	correct := 0
	for _, v := range verdicts {
		if v.Correct {
			correct++
		}
	}

	result := &models.QuizResultResponse{
		ID:           session.ID.String(),
		CorrectCount: correct,
		Total:        len(session.Questions),
		Verdicts:     verdicts,
	}
	if result.Total > 0 {
		result.Score = float64(correct) / float64(result.Total)
	}

	return result, nil
}

// Explanations implements QuizService. One batched call covers every
// missed question; with nothing missed, no call is made.
func (s *quizService) Explanations(ctx context.Context, id uuid.UUID) (string, error) {
	session, err := s.sessionRepo.FindQuiz(id)
	if err != nil {
		return "", err
	}

	var missed []models.QuestionVerdict
	for _, v := range gradeAll(session) {
		if !v.Correct {
			missed = append(missed, v)
		}
	}

	if len(missed) == 0 {
		return "", nil
	}

	prompt := s.promptBuilder.BuildExplanationPrompt(session.Topic, missed)
	explanations, err := s.geminiService.GenerateText(ctx, prompt, 0.4)
	if err != nil {
		return "", fmt.Errorf("failed to generate explanations: %w", err)
	}

	return strings.TrimSpace(explanations), nil
}

// Delete implements QuizService.
func (s *quizService) Delete(id uuid.UUID) error {
	return s.sessionRepo.DeleteQuiz(id)
}

func gradeAll(session *models.QuizSession) []models.QuestionVerdict {
	verdicts := make([]models.QuestionVerdict, 0, len(session.Questions))
	for i, q := range session.Questions {
		selected := session.Selections[i]
		verdicts = append(verdicts, models.QuestionVerdict{
			Index:    i,
			Question: q.Question,
			Selected: selected,
			Answer:   q.Answer,
			Correct:  selected != "" && IsCorrect(q, selected),
		})
	}
	return verdicts
}

// IsCorrect reports whether the selected option string names the
// question's correct option: its letter prefix must equal the answer
// letter.
func IsCorrect(q models.QuizQuestion, selected string) bool {
	letter := OptionLetter(selected)
	return letter != "" && letter == strings.ToUpper(strings.TrimSpace(q.Answer))
}

// OptionLetter extracts the label from an option string such as
// "B. Goroutines are cheap", returning "B". It returns "" when the
// string has no "X." prefix.
func OptionLetter(option string) string {
	option = strings.TrimSpace(option)
	dot := strings.Index(option, ".")
	if dot <= 0 {
		return ""
	}
	letter := strings.TrimSpace(option[:dot])
	if len(letter) != 1 {
		return ""
	}
	return strings.ToUpper(letter)
}

// CleanJSON strips a surrounding markdown code fence (optionally
// tagged json) so a fenced completion decodes exactly like its
// unfenced equivalent.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)

	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")

	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}

// ParseQuestions decodes a model completion into a validated question
// batch.
func ParseQuestions(completion string) ([]models.QuizQuestion, error) {
	var questions []models.QuizQuestion
	if err := json.Unmarshal([]byte(CleanJSON(completion)), &questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions in response")
	}

	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}

	return questions, nil
}

func validateQuestion(q models.QuizQuestion) error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("empty question text")
	}

	if len(q.Options) != 4 {
		return fmt.Errorf("expected 4 options, got %d", len(q.Options))
	}

	answer := strings.ToUpper(strings.TrimSpace(q.Answer))
	if len(answer) != 1 || answer < "A" || answer > "D" {
		return fmt.Errorf("answer must be a single letter A-D, got %q", q.Answer)
	}

	matches := 0
	seen := make(map[string]bool)
	for _, option := range q.Options {
		letter := OptionLetter(option)
		if letter == "" {
			return fmt.Errorf("option %q has no letter prefix", option)
		}
		if letter < "A" || letter > "D" {
			return fmt.Errorf("option prefix %q outside A-D", letter)
		}
		if seen[letter] {
			return fmt.Errorf("duplicate option prefix %q", letter)
		}
		seen[letter] = true
		if letter == answer {
			matches++
		}
	}

	if matches != 1 {
		return fmt.Errorf("answer %q matches %d option prefixes, want exactly 1", answer, matches)
	}

	return nil
}
