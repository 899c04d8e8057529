package handlers

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"interview-coach/internal/models"
	"interview-coach/internal/repositories"
	"interview-coach/internal/services"
)

type InterviewHandler struct {
	interviewService services.InterviewService
	documentService  services.DocumentService
	maxFileSize      int64
}

func NewInterviewHandler(
	interviewService services.InterviewService,
	documentService services.DocumentService,
	maxFileSize int64,
) *InterviewHandler {
	return &InterviewHandler{
		interviewService: interviewService,
		documentService:  documentService,
		maxFileSize:      maxFileSize,
	}
}

// HandleStart handles POST /interview/start. The resume comes either
// as pasted text or as an uploaded document; the upload is parsed in
// memory and discarded.
func (h *InterviewHandler) HandleStart(c *fiber.Ctx) error {
	jobTitle := c.FormValue("job_title")
	if jobTitle == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_title is required",
		})
	}

	resumeText := c.FormValue("resume_text")

	if file, err := c.FormFile("resume"); err == nil && file != nil {
		if file.Size > h.maxFileSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Resume file too large. Max size: %d bytes", h.maxFileSize),
			})
		}

		src, err := file.Open()
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to read resume file: %v", err),
			})
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to read resume file: %v", err),
			})
		}

		resumeText, err = h.documentService.ExtractText(file.Filename, data)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to extract resume text: %v", err),
			})
		}
	}

	if resumeText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resume_text or a resume file is required",
		})
	}

	session, err := h.interviewService.Start(c.Context(), jobTitle, resumeText, c.FormValue("job_description"))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to start interview: %v", err),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(models.StartInterviewResponse{
		ID:       session.ID.String(),
		Question: session.Questions[0],
	})
}

// HandleAnswer handles POST /interview/:id/answer
func (h *InterviewHandler) HandleAnswer(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	var req models.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	resp, err := h.interviewService.SubmitAnswer(c.Context(), sessionID, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSessionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Interview session not found",
			})
		case errors.Is(err, services.ErrSessionCompleted):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Interview session already completed",
			})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	return c.JSON(resp)
}

// HandleEnd handles POST /interview/:id/end
func (h *InterviewHandler) HandleEnd(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	session, err := h.interviewService.End(sessionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Interview session not found",
		})
	}

	return c.JSON(viewOf(session))
}

// HandleGet handles GET /interview/:id
func (h *InterviewHandler) HandleGet(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	session, err := h.interviewService.Get(sessionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Interview session not found",
		})
	}

	return c.JSON(viewOf(session))
}

// HandleReport handles GET /interview/:id/report. The transcript is
// served as a plain-text download.
func (h *InterviewHandler) HandleReport(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	report, err := h.interviewService.Report(sessionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Interview session not found",
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="interview_report.txt"`)
	return c.SendString(report)
}

// HandleDelete handles DELETE /interview/:id
func (h *InterviewHandler) HandleDelete(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	if err := h.interviewService.Delete(sessionID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Interview session not found",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// parseSessionID parses the :id path param; the returned fiber.Error
// is rendered by the app's error handler.
func parseSessionID(c *fiber.Ctx) (uuid.UUID, error) {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid session ID format")
	}
	return sessionID, nil
}

func viewOf(session *models.InterviewSession) models.InterviewView {
	return models.InterviewView{
		ID:        session.ID.String(),
		JobTitle:  session.JobTitle,
		Questions: session.Questions,
		Answers:   session.Answers,
		Feedback:  session.Feedback,
		Current:   session.Current,
		Completed: session.Completed,
		Turns:     session.Turns(),
	}
}
