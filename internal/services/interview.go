package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"interview-coach/internal/models"
	"interview-coach/internal/repositories"
)

// FeedbackFailedPlaceholder is stored when the feedback call fails;
// the turn still completes.
const FeedbackFailedPlaceholder = "Feedback generation failed."

var ErrSessionCompleted = fmt.Errorf("interview session already completed")

var sentinels = map[string]bool{
	"quit": true,
	"exit": true,
}

// IsSentinel reports whether an answer is the reserved input that ends
// the interview, ignoring case and surrounding whitespace.
func IsSentinel(answer string) bool {
	return sentinels[strings.ToLower(strings.TrimSpace(answer))]
}

type InterviewService interface {
	Start(ctx context.Context, jobTitle, resumeText, jobDescription string) (*models.InterviewSession, error)
	SubmitAnswer(ctx context.Context, id uuid.UUID, answer string) (*models.AnswerResponse, error)
	End(id uuid.UUID) (*models.InterviewSession, error)
	Get(id uuid.UUID) (*models.InterviewSession, error)
	Report(id uuid.UUID) (string, error)
	Delete(id uuid.UUID) error
}

type interviewService struct {
	sessionRepo   repositories.SessionRepository
	geminiService GeminiService
	promptBuilder *PromptBuilder
}

func NewInterviewService(
	sessionRepo repositories.SessionRepository,
	geminiService GeminiService,
) InterviewService {
	return &interviewService{
		sessionRepo:   sessionRepo,
		geminiService: geminiService,
		promptBuilder: NewPromptBuilder(),
	}
}

// Start implements InterviewService. The opening question is generated
// with an empty transcript.
func (s *interviewService) Start(ctx context.Context, jobTitle, resumeText, jobDescription string) (*models.InterviewSession, error) {
	jobTitle = strings.TrimSpace(jobTitle)
	resumeText = strings.TrimSpace(resumeText)

	if jobTitle == "" {
		return nil, fmt.Errorf("job title is required")
	}
	if resumeText == "" {
		return nil, fmt.Errorf("resume text is required")
	}

	prompt := s.promptBuilder.BuildQuestionPrompt(jobTitle, resumeText, jobDescription, "")
	question, err := s.geminiService.GenerateText(ctx, prompt, 0.7)
	if err != nil {
		return nil, fmt.Errorf("failed to generate opening question: %w", err)
	}

	session := &models.InterviewSession{
		ID:             uuid.New(),
		JobTitle:       jobTitle,
		ResumeText:     resumeText,
		JobDescription: strings.TrimSpace(jobDescription),
		Questions:      []string{strings.TrimSpace(question)},
		CreatedAt:      time.Now(),
	}

	if err := s.sessionRepo.SaveInterview(session); err != nil {
		return nil, err
	}

	return session, nil
}

// SubmitAnswer implements InterviewService. One submitted answer
// drives one feedback call and one next-question call; a sentinel
// answer ends the session without touching the model.
func (s *interviewService) SubmitAnswer(ctx context.Context, id uuid.UUID, answer string) (*models.AnswerResponse, error) {
	session, err := s.sessionRepo.FindInterview(id)
	if err != nil {
		return nil, err
	}

	if session.Completed {
		return nil, ErrSessionCompleted
	}

	if IsSentinel(answer) {
		if _, err := s.sessionRepo.UpdateInterview(id, func(cur *models.InterviewSession) error {
			cur.Completed = true
			return nil
		}); err != nil {
			return nil, err
		}
		return &models.AnswerResponse{ID: id.String(), Completed: true}, nil
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("answer must not be empty")
	}

	// Model calls work on the snapshot; the session is only touched
	// again inside the update closure below.
	question := session.Questions[session.Current]

	feedback, err := s.geminiService.GenerateText(ctx, s.promptBuilder.BuildFeedbackPrompt(question, answer), 0.4)
	if err != nil {
		log.Printf("feedback generation failed for session %s: %v", id, err)
		feedback = FeedbackFailedPlaceholder
	}
	feedback = strings.TrimSpace(feedback)

	transcript := BuildTranscript(session.Questions, append(session.Answers, answer))
	nextPrompt := s.promptBuilder.BuildQuestionPrompt(
		session.JobTitle, session.ResumeText, session.JobDescription, transcript)

	nextQuestion, nextErr := s.geminiService.GenerateText(ctx, nextPrompt, 0.7)
	if nextErr != nil {
		// No next question means the interview is over, not broken:
		// everything answered so far remains reportable.
		log.Printf("next question generation failed for session %s: %v", id, nextErr)
	}

	updated, err := s.sessionRepo.UpdateInterview(id, func(cur *models.InterviewSession) error {
		if cur.Completed {
			return ErrSessionCompleted
		}
		cur.Answers = append(cur.Answers, answer)
		cur.Feedback = append(cur.Feedback, feedback)
		if nextErr != nil {
			cur.Completed = true
		} else {
			cur.Questions = append(cur.Questions, strings.TrimSpace(nextQuestion))
			cur.Current++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &models.AnswerResponse{
		ID:        id.String(),
		Feedback:  feedback,
		Completed: updated.Completed,
	}
	if !updated.Completed {
		resp.NextQuestion = updated.Questions[updated.Current]
	}

	return resp, nil
}

// End implements InterviewService.
func (s *interviewService) End(id uuid.UUID) (*models.InterviewSession, error) {
	return s.sessionRepo.UpdateInterview(id, func(cur *models.InterviewSession) error {
		cur.Completed = true
		return nil
	})
}

// Get implements InterviewService.
func (s *interviewService) Get(id uuid.UUID) (*models.InterviewSession, error) {
	return s.sessionRepo.FindInterview(id)
}

// Report implements InterviewService. The export contains one
// Q/A/Feedback triple per completed turn, in submission order.
func (s *interviewService) Report(id uuid.UUID) (string, error) {
	session, err := s.sessionRepo.FindInterview(id)
	if err != nil {
		return "", err
	}

	turns := session.Turns()
	var parts []string
	for i := 0; i < turns; i++ {
		parts = append(parts, fmt.Sprintf("Q%d: %s\nA%d: %s\nFeedback: %s",
			i+1, session.Questions[i], i+1, session.Answers[i], session.Feedback[i]))
	}

	return strings.Join(parts, "\n\n"), nil
}

// Delete implements InterviewService.
func (s *interviewService) Delete(id uuid.UUID) error {
	return s.sessionRepo.DeleteInterview(id)
}
