package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"interview-coach/internal/models"
	"interview-coach/internal/repositories"
	"interview-coach/internal/services"
)

type QuizHandler struct {
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
	}
}

// HandleStart handles POST /quiz/start. Generation and validation
// happen before the session exists; a malformed completion returns the
// raw model output for inspection and creates nothing.
func (h *QuizHandler) HandleStart(c *fiber.Ctx) error {
	var req models.StartQuizRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if req.Topic == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "topic is required",
		})
	}

	session, err := h.quizService.Start(c.Context(), req.Topic, req.Skills, req.Count)
	if err != nil {
		var malformed *services.MalformedResponseError
		if errors.As(err, &malformed) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":      malformed.Error(),
				"raw_output": malformed.Raw,
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to generate quiz: %v", err),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(models.StartQuizResponse{
		ID:        session.ID.String(),
		Topic:     session.Topic,
		Questions: questionViews(session.Questions),
	})
}

// HandleGet handles GET /quiz/:id
func (h *QuizHandler) HandleGet(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	session, err := h.quizService.Get(sessionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Quiz session not found",
		})
	}

	return c.JSON(models.StartQuizResponse{
		ID:        session.ID.String(),
		Topic:     session.Topic,
		Questions: questionViews(session.Questions),
	})
}

// HandleAnswer handles POST /quiz/:id/answer
func (h *QuizHandler) HandleAnswer(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	var req models.QuizAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	correct, err := h.quizService.Answer(sessionID, req.Index, req.Selected)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz session not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(models.QuizAnswerResponse{
		Index:   req.Index,
		Correct: correct,
	})
}

// HandleSubmit handles POST /quiz/:id/submit
func (h *QuizHandler) HandleSubmit(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	result, err := h.quizService.Submit(sessionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Quiz session not found",
		})
	}

	return c.JSON(result)
}

// HandleExplanations handles POST /quiz/:id/explanations. This is the
// only quiz path that calls the model after generation, and only on
// explicit request.
func (h *QuizHandler) HandleExplanations(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	explanations, err := h.quizService.Explanations(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz session not found",
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to generate explanations: %v", err),
		})
	}

	return c.JSON(models.ExplanationsResponse{
		ID:           sessionID.String(),
		Explanations: explanations,
	})
}

// HandleDelete handles DELETE /quiz/:id
func (h *QuizHandler) HandleDelete(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	if err := h.quizService.Delete(sessionID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Quiz session not found",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func questionViews(questions []models.QuizQuestion) []models.QuizQuestionView {
	views := make([]models.QuizQuestionView, 0, len(questions))
	for i, q := range questions {
		views = append(views, models.QuizQuestionView{
			Index:    i,
			Question: q.Question,
			Options:  q.Options,
		})
	}
	return views
}
